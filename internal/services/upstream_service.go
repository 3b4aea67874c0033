package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/drac2606/django-data-monitor/internal/config"
	"github.com/drac2606/django-data-monitor/internal/models"

	gojson "github.com/goccy/go-json"
)

// UpstreamServiceName labels the breaker and its metrics
const UpstreamServiceName = "upstream"

const maxUpstreamBodyBytes = 32 << 20

var (
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrUpstreamMalformed   = errors.New("upstream returned malformed data")
	ErrUnknownSource       = errors.New("unknown data source")
)

// AuthTransport adds the upstream API key to every outgoing request
type AuthTransport struct {
	apiKey string
	base   http.RoundTripper
}

// RoundTrip sends a copy of req asking for JSON and, when a key is
// configured, carrying it as a bearer token.
func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())

	req.Header.Set("Accept", "application/json")
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	return t.base.RoundTrip(req)
}

// UpstreamService downloads dashboard records from the remote JSON API
type UpstreamService struct {
	config  *config.UpstreamConfig
	client  *http.Client
	breaker CircuitBreakerInterface
	metrics MetricsRecorderInterface
	events  AuditLoggerInterface
}

// NewUpstreamService creates the upstream client. Every fetch goes through
// breaker and is reported to metrics and events.
func NewUpstreamService(
	cfg *config.UpstreamConfig,
	breaker CircuitBreakerInterface,
	metrics MetricsRecorderInterface,
	events AuditLoggerInterface,
) UpstreamServiceInterface {

	transport := &AuthTransport{
		apiKey: cfg.APIKey,
		base:   http.DefaultTransport,
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
	}

	return &UpstreamService{
		config:  cfg,
		client:  client,
		breaker: breaker,
		metrics: metrics,
		events:  events,
	}
}

// NewUpstreamCircuitBreaker builds the breaker guarding the upstream API and
// publishes its transitions as log events and a gauge.
func NewUpstreamCircuitBreaker(cfg *config.UpstreamConfig, metrics MetricsRecorderInterface, events AuditLoggerInterface) CircuitBreakerInterface {
	tags := map[string]string{"service": UpstreamServiceName}
	metrics.RecordGauge(MetricCircuitBreakerState, float64(models.CircuitClosed), tags)

	return NewCircuitBreaker(CircuitBreakerConfigFrom(cfg), func(from, to models.CircuitBreakerState) {
		events.LogCircuitBreakerStateChange(context.Background(), UpstreamServiceName, from.String(), to.String())
		metrics.RecordGauge(MetricCircuitBreakerState, float64(to), tags)
	})
}

func (s *UpstreamService) sourceURL(source string) (string, error) {
	switch source {
	case models.SourcePosts:
		return s.config.PostsURL, nil
	case models.SourceReservations:
		return s.config.ReservationsURL, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
}

// FetchRecords performs one GET against the source URL. Transport errors and
// non-2xx answers wrap ErrUpstreamUnavailable, undecodable bodies wrap
// ErrUpstreamMalformed, and an open breaker fails fast with ErrCircuitOpen.
// When ctx ends first the context error is returned and the breaker is left
// untouched.
func (s *UpstreamService) FetchRecords(ctx context.Context, source string) ([]models.Record, error) {
	url, err := s.sourceURL(source)
	if err != nil {
		return nil, err
	}

	if s.breaker.IsOpen() {
		s.countRequest(source, "circuit_open")
		return nil, fmt.Errorf("fetch %s: %w", source, ErrCircuitOpen)
	}

	start := time.Now()
	s.events.LogUpstreamRequest(ctx, source, url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		s.breaker.Release()
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, s.abandon(source, ctxErr)
		}
		s.fail(ctx, source, "transport_error", start, err)
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxUpstreamBodyBytes))
		err := fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, resp.StatusCode)
		s.fail(ctx, source, strconv.Itoa(resp.StatusCode), start, err)
		return nil, err
	}

	records, err := DecodeRecords(io.LimitReader(resp.Body, maxUpstreamBodyBytes))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, s.abandon(source, ctxErr)
		}
		s.fail(ctx, source, "malformed", start, err)
		return nil, err
	}

	s.breaker.RecordSuccess()
	s.countRequest(source, strconv.Itoa(resp.StatusCode))
	s.metrics.RecordProcessingTime(MetricUpstreamRequest, time.Since(start), map[string]string{"source": source})

	return records, nil
}

func (s *UpstreamService) fail(ctx context.Context, source, status string, start time.Time, err error) {
	elapsed := time.Since(start)

	s.breaker.RecordFailure()
	s.countRequest(source, status)
	s.metrics.RecordProcessingTime(MetricUpstreamRequest, elapsed, map[string]string{"source": source})
	s.events.LogUpstreamFailure(ctx, source, err.Error(), elapsed.Milliseconds())
}

// abandon accounts for a fetch its caller gave up on. The upstream was not
// at fault, so no failure is recorded against it.
func (s *UpstreamService) abandon(source string, ctxErr error) error {
	s.breaker.Release()
	s.countRequest(source, "canceled")
	return fmt.Errorf("fetch %s: %w", source, ctxErr)
}

func (s *UpstreamService) countRequest(source, status string) {
	s.metrics.IncrementCounter(MetricUpstreamRequest, map[string]string{
		"source": source,
		"status": status,
	})
}

// DecodeRecords reads either a JSON array of objects or a JSON object whose
// values are objects keyed by id. Order of appearance is preserved, null
// entries are skipped, and for keyed objects the key becomes the "id" field
// when the value has none. A bare null is an empty collection.
func DecodeRecords(r io.Reader) ([]models.Record, error) {
	dec := gojson.NewDecoder(r)
	dec.UseNumber()

	token, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamMalformed, err)
	}

	if token == nil {
		if trailing, err := dec.Token(); !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: unexpected %v after null", ErrUpstreamMalformed, trailing)
		}
		return []models.Record{}, nil
	}

	delim, ok := token.(gojson.Delim)
	if !ok || (delim != '[' && delim != '{') {
		return nil, fmt.Errorf("%w: expected JSON array or object, got %v", ErrUpstreamMalformed, token)
	}

	records := make([]models.Record, 0)
	for dec.More() {
		key := ""
		if delim == '{' {
			keyToken, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrUpstreamMalformed, err)
			}
			key, _ = keyToken.(string)
		}

		var rec models.Record
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrUpstreamMalformed, len(records), err)
		}
		if rec == nil {
			continue
		}

		if delim == '{' && !rec.Has("id") {
			rec["id"] = key
		}
		records = append(records, rec)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamMalformed, err)
	}

	slog.Debug("decoded upstream records", "count", len(records))
	return records, nil
}
