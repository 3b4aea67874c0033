package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/drac2606/django-data-monitor/internal/errors"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
)

type PanicRecoveryTestSuite struct {
	suite.Suite
	echo *echo.Echo
}

func (s *PanicRecoveryTestSuite) SetupTest() {
	s.echo = echo.New()
}

func TestPanicRecoveryTestSuite(t *testing.T) {
	suite.Run(t, new(PanicRecoveryTestSuite))
}

// serve runs next behind PanicRecovery; prepare may adjust the context first
func (s *PanicRecoveryTestSuite) serve(next echo.HandlerFunc, prepare func(echo.Context)) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	c := s.echo.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	if prepare != nil {
		prepare(c)
	}
	s.NotPanics(func() { s.NoError(PanicRecovery()(next)(c)) })
	return rec
}

func (s *PanicRecoveryTestSuite) body(rec *httptest.ResponseRecorder) errors.ErrorResponse {
	var resp errors.ErrorResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func (s *PanicRecoveryTestSuite) TestRecoversWithGenericError() {
	rec := s.serve(func(echo.Context) error {
		panic("report template exploded")
	}, func(c echo.Context) {
		c.Set(TraceIDContextKey, "trace-abc")
	})

	s.Equal(http.StatusInternalServerError, rec.Code)
	resp := s.body(rec)
	s.Equal(string(errors.SystemInternalError), resp.Error.Code)
	s.Equal("trace-abc", resp.Error.TraceID)
	s.NotContains(rec.Body.String(), "exploded")
}

func (s *PanicRecoveryTestSuite) TestMissingTraceIDReportedAsUnknown() {
	rec := s.serve(func(echo.Context) error { panic("no trace") }, nil)

	s.Equal("unknown", s.body(rec).Error.TraceID)
}

func (s *PanicRecoveryTestSuite) TestPassesThroughWhenNothingPanics() {
	rec := s.serve(func(c echo.Context) error {
		return c.String(http.StatusOK, "fine")
	}, nil)

	s.Equal(http.StatusOK, rec.Code)
	s.Equal("fine", rec.Body.String())
}

func (s *PanicRecoveryTestSuite) TestAnyPanicValue() {
	values := map[string]any{
		"string": "string panic",
		"int":    42,
		"error":  errors.NewErrorResponse(errors.SystemUnexpectedError, ""),
		"struct": struct{ msg string }{"oops"},
	}

	for name, v := range values {
		s.Run(name, func() {
			rec := s.serve(func(echo.Context) error { panic(v) }, nil)
			s.Equal(http.StatusInternalServerError, rec.Code)
		})
	}
}

func (s *PanicRecoveryTestSuite) TestAbortHandlerPropagates() {
	c := s.echo.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	handler := PanicRecovery()(func(echo.Context) error { panic(http.ErrAbortHandler) })

	s.PanicsWithValue(http.ErrAbortHandler, func() { _ = handler(c) })
}

func (s *PanicRecoveryTestSuite) TestCountsAsInternalError() {
	counter := apiErrorsTotal.WithLabelValues(string(errors.SystemInternalError), "/reservations", "500")
	before := testutil.ToFloat64(counter)

	s.serve(func(echo.Context) error { panic("boom") }, func(c echo.Context) {
		c.SetPath("/reservations")
	})

	s.Equal(before+1, testutil.ToFloat64(counter))
}
