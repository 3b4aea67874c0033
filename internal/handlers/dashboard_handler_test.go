package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/drac2606/django-data-monitor/internal/models"
	"github.com/drac2606/django-data-monitor/internal/render"
	"github.com/drac2606/django-data-monitor/internal/report"
	"github.com/drac2606/django-data-monitor/internal/services"
	"github.com/drac2606/django-data-monitor/internal/services/service_mocks"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"
)

func TestDashboardHandler(t *testing.T) {
	suite.Run(t, new(DashboardHandlerSuite))
}

type DashboardHandlerSuite struct {
	suite.Suite
	ctrl             *gomock.Controller
	dashboardService *service_mocks.MockDashboardServiceInterface
	auditService     *service_mocks.MockAuditServiceInterface
	handler          *DashboardHandler
	e                *echo.Echo
	userID           uuid.UUID
}

func (s *DashboardHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.dashboardService = service_mocks.NewMockDashboardServiceInterface(s.ctrl)
	s.auditService = service_mocks.NewMockAuditServiceInterface(s.ctrl)
	s.handler = NewDashboardHandler(s.dashboardService, s.auditService)
	s.userID = uuid.New()

	s.e = echo.New()
	renderer, err := render.New()
	s.Require().NoError(err)
	s.e.Renderer = renderer
}

func (s *DashboardHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *DashboardHandlerSuite) authedContext(target string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("User-Agent", "dashboard-test")
	rec := httptest.NewRecorder()
	c := s.e.NewContext(req, rec)
	c.Set("user_id", s.userID)
	c.Set("user_email", "viewer@example.com")
	c.Set(CSPNonceContextKey, "test-nonce")
	c.Set(TraceIDContextKey, "trace-1")
	return c, rec
}

func fakePostRecords(n int) []models.Record {
	records := make([]models.Record, 0, n)
	for i := 1; i <= n; i++ {
		records = append(records, models.Record{
			"userId": json.Number(fmt.Sprint(gofakeit.IntRange(1, 4))),
			"id":     json.Number(fmt.Sprint(i)),
			"title":  gofakeit.Sentence(gofakeit.IntRange(2, 10)),
		})
	}
	return records
}

func (s *DashboardHandlerSuite) TestIndex_RendersPostsPage() {
	view := report.BuildPosts(fakePostRecords(15), "2")
	s.dashboardService.EXPECT().PostsReport(gomock.Any(), "2").Return(&view, nil)
	s.auditService.EXPECT().LogReportViewed(s.userID, models.SourcePosts, "2", gomock.Any(), "dashboard-test").Return(nil)

	c, rec := s.authedContext("/?page=2")

	s.NoError(s.handler.Index(c))
	s.Equal(http.StatusOK, rec.Code)
	body := rec.Body.String()
	s.Contains(body, "Landing Page Dashboard")
	s.Contains(body, "Page 2 of 2")
	s.Contains(body, `nonce="test-nonce"`)
	s.Contains(body, "viewer@example.com")
}

func (s *DashboardHandlerSuite) TestReservations_RendersPage() {
	view := report.BuildReservations([]models.Record{
		{"id": "1", "name": "Ana", "people": "5+", "date": "2024-01-02"},
	}, "")
	s.dashboardService.EXPECT().ReservationsReport(gomock.Any(), "").Return(&view, nil)
	s.auditService.EXPECT().LogReportViewed(s.userID, models.SourceReservations, "", gomock.Any(), gomock.Any()).Return(nil)

	c, rec := s.authedContext("/reservations")

	s.NoError(s.handler.Reservations(c))
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `window.chartData = [{"date":"2024-01-02","total_people":5}];`)
}

func (s *DashboardHandlerSuite) TestPostsJSON() {
	view := report.BuildPosts(fakePostRecords(3), "")
	s.dashboardService.EXPECT().PostsReport(gomock.Any(), "").Return(&view, nil)
	s.auditService.EXPECT().LogReportViewed(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	c, rec := s.authedContext("/api/v1/reports/posts")

	s.NoError(s.handler.PostsJSON(c))
	s.Equal(http.StatusOK, rec.Code)

	var response struct {
		Data report.PostsView `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &response))
	s.Equal(3, response.Data.TotalResponses)
	s.Equal(1, response.Data.TableData.Number)
}

func (s *DashboardHandlerSuite) TestReservationsJSON_AuditFailureDoesNotFailRequest() {
	view := report.BuildReservations(nil, "")
	s.dashboardService.EXPECT().ReservationsReport(gomock.Any(), "").Return(&view, nil)
	s.auditService.EXPECT().LogReportViewed(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("database is locked"))

	c, rec := s.authedContext("/api/v1/reports/reservations")

	s.NoError(s.handler.ReservationsJSON(c))
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"total_reservations":0`)
}

func (s *DashboardHandlerSuite) TestUpstreamFailuresAreDistinguishable() {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unavailable", fmt.Errorf("posts report: %w", services.ErrUpstreamUnavailable), http.StatusBadGateway, "UPSTREAM_001"},
		{"malformed", fmt.Errorf("posts report: %w", services.ErrUpstreamMalformed), http.StatusBadGateway, "UPSTREAM_002"},
		{"circuit open", fmt.Errorf("posts report: %w", services.ErrCircuitOpen), http.StatusServiceUnavailable, "SYSTEM_003"},
		{"unknown source", services.ErrUnknownSource, http.StatusNotFound, "UPSTREAM_003"},
		{"request cancelled", fmt.Errorf("posts report: fetch posts: %w", context.Canceled), http.StatusServiceUnavailable, "SYSTEM_003"},
		{"anything else", errors.New("boom"), http.StatusInternalServerError, "SYSTEM_001"},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.dashboardService.EXPECT().PostsReport(gomock.Any(), gomock.Any()).Return(nil, tc.err)

			c, rec := s.authedContext("/api/v1/reports/posts")

			s.NoError(s.handler.PostsJSON(c))
			s.Equal(tc.status, rec.Code)
			s.Contains(rec.Body.String(), tc.code)
			s.Contains(rec.Body.String(), "trace-1")
		})
	}
}

func (s *DashboardHandlerSuite) TestAnonymousViewIsNotAudited() {
	view := report.BuildPosts(nil, "")
	s.dashboardService.EXPECT().PostsReport(gomock.Any(), "").Return(&view, nil)

	rec := httptest.NewRecorder()
	c := s.e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/reports/posts", nil), rec)

	s.NoError(s.handler.PostsJSON(c))
	s.Equal(http.StatusOK, rec.Code)
}
