package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/drac2606/django-data-monitor/internal/dto"
	"github.com/drac2606/django-data-monitor/internal/validation"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
)

type ErrorHandlerTestSuite struct {
	suite.Suite
	echo *echo.Echo
}

func (s *ErrorHandlerTestSuite) SetupTest() {
	s.echo = echo.New()
	s.echo.HTTPErrorHandler = CustomHTTPErrorHandler
}

func TestErrorHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(ErrorHandlerTestSuite))
}

func (s *ErrorHandlerTestSuite) newContext(traceID string) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	c := s.echo.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	if traceID != "" {
		c.Set(TraceIDContextKey, traceID)
	}
	return c, rec
}

func (s *ErrorHandlerTestSuite) TestCustomHTTPErrorHandler_Responses() {
	invalidLogin := validation.GetValidator().Struct(dto.LoginRequest{Email: "not-an-email"})
	s.Require().Error(invalidLogin)

	cases := []struct {
		name       string
		traceID    string
		err        error
		wantStatus int
		contains   []string
		hidden     string
	}{
		{
			name:       "echo http error keeps its message",
			traceID:    "trace-404",
			err:        echo.NewHTTPError(http.StatusNotFound, "Resource not found"),
			wantStatus: http.StatusNotFound,
			contains:   []string{"SYSTEM_007", "trace-404", "Resource not found"},
		},
		{
			name:       "validation errors list each field",
			traceID:    "trace-400",
			err:        invalidLogin,
			wantStatus: http.StatusBadRequest,
			contains:   []string{"VALIDATION_001", "must be a valid email address", "password"},
		},
		{
			name:       "unexpected error is masked",
			traceID:    "trace-500",
			err:        errors.New("database password is hunter2"),
			wantStatus: http.StatusInternalServerError,
			contains:   []string{"SYSTEM_001"},
			hidden:     "hunter2",
		},
		{
			name:       "missing trace id",
			err:        errors.New("test error"),
			wantStatus: http.StatusInternalServerError,
			contains:   []string{`"trace_id":"unknown"`},
		},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			c, rec := s.newContext(tc.traceID)

			CustomHTTPErrorHandler(tc.err, c)

			s.Equal(tc.wantStatus, rec.Code)
			s.Contains(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
			for _, want := range tc.contains {
				s.Contains(rec.Body.String(), want)
			}
			if tc.hidden != "" {
				s.NotContains(rec.Body.String(), tc.hidden)
			}
		})
	}
}

func (s *ErrorHandlerTestSuite) TestCustomHTTPErrorHandler_CommittedResponse() {
	c, rec := s.newContext("")
	_ = c.JSON(http.StatusOK, map[string]string{"status": "ok"})

	CustomHTTPErrorHandler(errors.New("test error"), c)

	s.Equal(http.StatusOK, rec.Code)
	s.NotContains(rec.Body.String(), "SYSTEM_001")
}

func (s *ErrorHandlerTestSuite) TestCustomHTTPErrorHandler_CountsErrors() {
	c, _ := s.newContext("")
	c.SetPath("/api/v1/reports/posts")
	counter := apiErrorsTotal.WithLabelValues("SYSTEM_006", "/api/v1/reports/posts", "429")
	before := testutil.ToFloat64(counter)

	CustomHTTPErrorHandler(echo.NewHTTPError(http.StatusTooManyRequests), c)

	s.Equal(before+1, testutil.ToFloat64(counter))
}

func (s *ErrorHandlerTestSuite) TestMapHTTPStatusToErrorCode_AllStatuses() {
	testCases := []struct {
		status       int
		expectedCode string
	}{
		{http.StatusBadRequest, "VALIDATION_001"},
		{http.StatusUnauthorized, "AUTH_002"},
		{http.StatusForbidden, "AUTH_005"},
		{http.StatusNotFound, "SYSTEM_007"},
		{http.StatusMethodNotAllowed, "VALIDATION_001"},
		{http.StatusTooManyRequests, "SYSTEM_006"},
		{http.StatusInternalServerError, "SYSTEM_001"},
		{http.StatusBadGateway, "UPSTREAM_001"},
		{http.StatusServiceUnavailable, "SYSTEM_003"},
		{999, "SYSTEM_005"},
	}

	for _, tc := range testCases {
		s.Run(http.StatusText(tc.status), func() {
			s.Equal(tc.expectedCode, string(mapHTTPStatusToErrorCode(tc.status)))
		})
	}
}

func (s *ErrorHandlerTestSuite) TestCustomHTTPErrorHandler_HeadHasNoBody() {
	rec := httptest.NewRecorder()
	c := s.echo.NewContext(httptest.NewRequest(http.MethodHead, "/missing", nil), rec)

	CustomHTTPErrorHandler(echo.ErrNotFound, c)

	s.Equal(http.StatusNotFound, rec.Code)
	s.Empty(rec.Body.String())
}
