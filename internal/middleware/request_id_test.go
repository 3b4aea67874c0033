package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/drac2606/django-data-monitor/internal/services"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"
)

type RequestIDTestSuite struct {
	suite.Suite
	echo *echo.Echo
}

func (s *RequestIDTestSuite) SetupTest() {
	s.echo = echo.New()
}

func TestRequestIDTestSuite(t *testing.T) {
	suite.Run(t, new(RequestIDTestSuite))
}

func (s *RequestIDTestSuite) serve(req *http.Request, next echo.HandlerFunc) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	c := s.echo.NewContext(req, rec)
	s.Require().NoError(RequestID()(next)(c))
	return rec
}

func (s *RequestIDTestSuite) TestRequestID_GeneratesUUID() {
	var traceID string
	rec := s.serve(httptest.NewRequest(http.MethodGet, "/", nil), func(c echo.Context) error {
		traceID = GetTraceID(c)
		return c.NoContent(http.StatusOK)
	})

	s.Regexp(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`, traceID)
	s.Equal(traceID, rec.Header().Get(TraceIDHeader))
}

func (s *RequestIDTestSuite) TestRequestID_UsesIncomingHeader() {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TraceIDHeader, "existing-trace-id-12345")

	rec := s.serve(req, func(c echo.Context) error {
		s.Equal("existing-trace-id-12345", GetTraceID(c))
		return c.NoContent(http.StatusOK)
	})

	s.Equal("existing-trace-id-12345", rec.Header().Get(TraceIDHeader))
}

func (s *RequestIDTestSuite) TestRequestID_PropagatesToRequestContext() {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TraceIDHeader, "ctx-trace")

	s.serve(req, func(c echo.Context) error {
		s.Equal("ctx-trace", services.TraceIDFromContext(c.Request().Context()))
		return c.NoContent(http.StatusOK)
	})
}

func (s *RequestIDTestSuite) TestGetTraceID_EmptyWhenNotSet() {
	c := s.echo.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	s.Empty(GetTraceID(c))
}

func (s *RequestIDTestSuite) TestRequestID_ReplacesUnsafeHeader() {
	for _, incoming := range []string{"line\nbreak", "<script>", strings.Repeat("a", 65)} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(TraceIDHeader, incoming)

		rec := s.serve(req, func(c echo.Context) error { return c.NoContent(http.StatusOK) })

		s.NotEqual(incoming, rec.Header().Get(TraceIDHeader))
		s.Len(rec.Header().Get(TraceIDHeader), 36)
	}
}
