package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/drac2606/django-data-monitor/internal/config"
	"github.com/drac2606/django-data-monitor/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
)

type UpstreamServiceTestSuite struct {
	suite.Suite
	server   *httptest.Server
	handler  http.HandlerFunc
	lastAuth string
	metrics  *PrometheusMetrics
	breaker  CircuitBreakerInterface
	service  UpstreamServiceInterface
}

func (s *UpstreamServiceTestSuite) SetupTest() {
	s.handler = nil
	s.lastAuth = ""
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.lastAuth = r.Header.Get("Authorization")
		s.handler(w, r)
	}))

	cfg := &config.UpstreamConfig{
		PostsURL:            s.server.URL + "/posts",
		ReservationsURL:     s.server.URL + "/reservations",
		APIKey:              "secret-key",
		Timeout:             2 * time.Second,
		BreakerMaxFailures:  2,
		BreakerResetTimeout: time.Minute,
	}

	s.metrics = NewPrometheusMetrics(prometheus.NewRegistry()).(*PrometheusMetrics)
	events := NewAuditLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.breaker = NewUpstreamCircuitBreaker(cfg, s.metrics, events)
	s.service = NewUpstreamService(cfg, s.breaker, s.metrics, events)
}

func (s *UpstreamServiceTestSuite) TearDownTest() {
	s.server.Close()
}

func TestUpstreamServiceSuite(t *testing.T) {
	suite.Run(t, new(UpstreamServiceTestSuite))
}

func (s *UpstreamServiceTestSuite) respond(status int, body string) {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func (s *UpstreamServiceTestSuite) TestFetchRecords_Array() {
	s.respond(http.StatusOK, `[{"userId":1,"id":1,"title":"first"},{"userId":2,"id":2,"title":"second"}]`)

	records, err := s.service.FetchRecords(context.Background(), models.SourcePosts)

	s.Require().NoError(err)
	s.Len(records, 2)
	s.Equal("first", records[0].String("title"))
	s.Equal(json.Number("2"), records[1]["userId"])
	s.Equal("Bearer secret-key", s.lastAuth)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.upstreamRequests.WithLabelValues(models.SourcePosts, "200")))
}

func (s *UpstreamServiceTestSuite) TestFetchRecords_ObjectKeyedByID() {
	s.respond(http.StatusOK, `{"7":{"name":"Ana","people":"5+","date":"2024-01-02"},"3":{"id":"r3","name":"Luis","people":2,"date":"2024-01-01"},"9":null}`)

	records, err := s.service.FetchRecords(context.Background(), models.SourceReservations)

	s.Require().NoError(err)
	s.Require().Len(records, 2)
	s.Equal("7", records[0].String("id"))
	s.Equal("Ana", records[0].String("name"))
	s.Equal("r3", records[1].String("id"))
}

func (s *UpstreamServiceTestSuite) TestFetchRecords_EmptyArray() {
	s.respond(http.StatusOK, `[]`)

	records, err := s.service.FetchRecords(context.Background(), models.SourcePosts)

	s.NoError(err)
	s.NotNil(records)
	s.Empty(records)
}

func (s *UpstreamServiceTestSuite) TestFetchRecords_ServerError() {
	s.respond(http.StatusInternalServerError, `{"error":"boom"}`)

	records, err := s.service.FetchRecords(context.Background(), models.SourcePosts)

	s.ErrorIs(err, ErrUpstreamUnavailable)
	s.NotErrorIs(err, ErrUpstreamMalformed)
	s.Nil(records)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.upstreamRequests.WithLabelValues(models.SourcePosts, "500")))
}

func (s *UpstreamServiceTestSuite) TestFetchRecords_Malformed() {
	for _, body := range []string{`not json`, `"a string"`, `42`, `[1, 2]`, `[{"id":1}`} {
		s.Run(body, func() {
			s.breaker.Reset()
			s.respond(http.StatusOK, body)

			_, err := s.service.FetchRecords(context.Background(), models.SourcePosts)

			s.ErrorIs(err, ErrUpstreamMalformed)
			s.NotErrorIs(err, ErrUpstreamUnavailable)
		})
	}
}

func (s *UpstreamServiceTestSuite) TestFetchRecords_ConnectionRefused() {
	s.server.Close()

	_, err := s.service.FetchRecords(context.Background(), models.SourcePosts)

	s.ErrorIs(err, ErrUpstreamUnavailable)
	s.Equal(1, s.breaker.GetFailureCount())
}

func (s *UpstreamServiceTestSuite) TestFetchRecords_CircuitOpensAndFailsFast() {
	calls := 0
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}

	for i := 0; i < 2; i++ {
		_, err := s.service.FetchRecords(context.Background(), models.SourcePosts)
		s.ErrorIs(err, ErrUpstreamUnavailable)
	}

	_, err := s.service.FetchRecords(context.Background(), models.SourcePosts)

	s.ErrorIs(err, ErrCircuitOpen)
	s.Equal(2, calls)
	s.Equal(models.CircuitOpen, s.breaker.GetState())
	s.Equal(1.0, testutil.ToFloat64(s.metrics.circuitBreakerState.WithLabelValues(UpstreamServiceName)))
}

func (s *UpstreamServiceTestSuite) TestFetchRecords_UnknownSource() {
	_, err := s.service.FetchRecords(context.Background(), "comments")

	s.ErrorIs(err, ErrUnknownSource)
}

func (s *UpstreamServiceTestSuite) TestFetchRecords_ContextCanceled() {
	s.respond(http.StatusOK, `[{"id":1}]`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 3; i++ {
		_, err := s.service.FetchRecords(ctx, models.SourcePosts)
		s.ErrorIs(err, context.Canceled)
		s.NotErrorIs(err, ErrUpstreamUnavailable)
	}

	s.Equal(models.CircuitClosed, s.breaker.GetState())
	s.Equal(0, s.breaker.GetFailureCount())
	s.Equal(3.0, testutil.ToFloat64(s.metrics.upstreamRequests.WithLabelValues(models.SourcePosts, "canceled")))

	records, err := s.service.FetchRecords(context.Background(), models.SourcePosts)
	s.NoError(err)
	s.Len(records, 1)
}

func (s *UpstreamServiceTestSuite) TestFetchRecords_CanceledTrialFreesHalfOpenSlot() {
	cb := s.breaker.(*CircuitBreaker)
	now := time.Now()
	cb.now = func() time.Time { return now }

	s.respond(http.StatusBadGateway, ``)
	for i := 0; i < 2; i++ {
		_, _ = s.service.FetchRecords(context.Background(), models.SourcePosts)
	}
	s.Require().Equal(models.CircuitOpen, s.breaker.GetState())

	now = now.Add(2 * time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.service.FetchRecords(ctx, models.SourcePosts)
	s.ErrorIs(err, context.Canceled)
	s.Equal(models.CircuitHalfOpen, s.breaker.GetState())

	s.respond(http.StatusOK, `[]`)
	_, err = s.service.FetchRecords(context.Background(), models.SourcePosts)
	s.NoError(err)
	s.Equal(models.CircuitClosed, s.breaker.GetState())
}

func (s *UpstreamServiceTestSuite) TestFetchRecords_NullBodyIsEmpty() {
	s.respond(http.StatusOK, `null`)

	records, err := s.service.FetchRecords(context.Background(), models.SourceReservations)

	s.NoError(err)
	s.NotNil(records)
	s.Empty(records)
}

func (s *UpstreamServiceTestSuite) TestAuthTransport_NoKey() {
	s.respond(http.StatusOK, `[]`)
	cfg := &config.UpstreamConfig{PostsURL: s.server.URL, Timeout: time.Second}
	service := NewUpstreamService(cfg, NewCircuitBreaker(DefaultCircuitBreakerConfig(), nil), s.metrics, NewAuditLogger(nil))

	_, err := service.FetchRecords(context.Background(), models.SourcePosts)

	s.NoError(err)
	s.Empty(s.lastAuth)
}

func TestDecodeRecords_PreservesOrder(t *testing.T) {
	body := `{"b":{"name":"second"},"a":{"name":"first"},"c":{"name":"third"}}`

	records, err := DecodeRecords(strings.NewReader(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var names []string
	for _, r := range records {
		names = append(names, r.String("name")+":"+r.String("id"))
	}
	if got := strings.Join(names, ","); got != "second:b,first:a,third:c" {
		t.Fatalf("unexpected order %q", got)
	}
}

func TestDecodeRecords_SkipsNullArrayEntries(t *testing.T) {
	records, err := DecodeRecords(strings.NewReader(`[null, {"id": 1}, null]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
}

func TestDecodeRecords_Null(t *testing.T) {
	cases := map[string]bool{
		`null`:        false,
		" null \n":    false,
		`null [1]`:    true,
		`null{"a":1}`: true,
	}

	for body, wantErr := range cases {
		records, err := DecodeRecords(strings.NewReader(body))
		if wantErr {
			if !errors.Is(err, ErrUpstreamMalformed) {
				t.Fatalf("%q: expected malformed error, got %v", body, err)
			}
			continue
		}
		if err != nil || records == nil || len(records) != 0 {
			t.Fatalf("%q: expected empty records, got %v, %v", body, records, err)
		}
	}
}
