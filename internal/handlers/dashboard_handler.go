package handlers

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"

	"github.com/drac2606/django-data-monitor/internal/errors"
	"github.com/drac2606/django-data-monitor/internal/models"
	"github.com/drac2606/django-data-monitor/internal/render"
	"github.com/drac2606/django-data-monitor/internal/report"
	"github.com/drac2606/django-data-monitor/internal/services"

	"github.com/labstack/echo/v4"
)

// DashboardHandler serves the posts and reservations dashboards as HTML
// pages and as JSON
type DashboardHandler struct {
	dashboardService services.DashboardServiceInterface
	auditService     services.AuditServiceInterface
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService services.DashboardServiceInterface, auditService services.AuditServiceInterface) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		auditService:     auditService,
	}
}

// Index renders the posts dashboard
// @Summary Posts dashboard
// @Tags Dashboard
// @Produce html
// @Param page query string false "Table page, clamped to the valid range"
// @Success 200 {string} string "HTML page"
// @Failure 502 {object} errors.ErrorResponse "UPSTREAM_001 or UPSTREAM_002"
// @Failure 503 {object} errors.ErrorResponse "SYSTEM_003 - upstream circuit open"
// @Router / [get]
func (h *DashboardHandler) Index(c echo.Context) error {
	view, err := h.posts(c)
	if err != nil {
		return sendReportError(c, err)
	}
	return c.Render(http.StatusOK, render.PostsTemplate, h.page(c, view.Title, models.SourcePosts, view))
}

// Reservations renders the reservations dashboard
// @Summary Reservations dashboard
// @Tags Dashboard
// @Produce html
// @Param page query string false "Table page, clamped to the valid range"
// @Success 200 {string} string "HTML page"
// @Failure 502 {object} errors.ErrorResponse "UPSTREAM_001 or UPSTREAM_002"
// @Failure 503 {object} errors.ErrorResponse "SYSTEM_003 - upstream circuit open"
// @Router /reservations [get]
func (h *DashboardHandler) Reservations(c echo.Context) error {
	view, err := h.reservations(c)
	if err != nil {
		return sendReportError(c, err)
	}
	return c.Render(http.StatusOK, render.ReservationsTemplate, h.page(c, view.Title, models.SourceReservations, view))
}

// PostsJSON returns the posts dashboard data
// @Summary Posts report
// @Tags Reports
// @Security BearerAuth
// @Produce json
// @Param page query string false "Table page"
// @Success 200 {object} SuccessResponse{data=report.PostsView}
// @Router /api/v1/reports/posts [get]
func (h *DashboardHandler) PostsJSON(c echo.Context) error {
	view, err := h.posts(c)
	if err != nil {
		return sendReportError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Data: view})
}

// ReservationsJSON returns the reservations dashboard data
// @Summary Reservations report
// @Tags Reports
// @Security BearerAuth
// @Produce json
// @Param page query string false "Table page"
// @Success 200 {object} SuccessResponse{data=report.ReservationsView}
// @Router /api/v1/reports/reservations [get]
func (h *DashboardHandler) ReservationsJSON(c echo.Context) error {
	view, err := h.reservations(c)
	if err != nil {
		return sendReportError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Data: view})
}

func (h *DashboardHandler) posts(c echo.Context) (*report.PostsView, error) {
	page := c.QueryParam("page")
	view, err := h.dashboardService.PostsReport(c.Request().Context(), page)
	if err != nil {
		return nil, err
	}
	h.recordView(c, models.SourcePosts, page)
	return view, nil
}

func (h *DashboardHandler) reservations(c echo.Context) (*report.ReservationsView, error) {
	page := c.QueryParam("page")
	view, err := h.dashboardService.ReservationsReport(c.Request().Context(), page)
	if err != nil {
		return nil, err
	}
	h.recordView(c, models.SourceReservations, page)
	return view, nil
}

// recordView never fails the request; a lost audit row is only logged
func (h *DashboardHandler) recordView(c echo.Context, source, page string) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return
	}

	if err := h.auditService.LogReportViewed(userID, source, page, c.RealIP(), c.Request().UserAgent()); err != nil {
		slog.WarnContext(c.Request().Context(), "Failed to record report view",
			"trace_id", getTraceID(c),
			"source", source,
			"error", err.Error(),
		)
	}
}

func (h *DashboardHandler) page(c echo.Context, title, active string, view any) render.Page {
	email, _ := c.Get("user_email").(string)
	nonce, _ := c.Get(CSPNonceContextKey).(string)
	return render.Page{
		Title:     title,
		Active:    active,
		UserEmail: email,
		Nonce:     nonce,
		View:      view,
	}
}

// sendReportError keeps "upstream down", "upstream sent garbage" and
// "circuit open" apart in the response code
func sendReportError(c echo.Context, err error) error {
	switch {
	case stderrors.Is(err, services.ErrCircuitOpen):
		return SendError(c, errors.SystemServiceUnavailable, errors.WithDetails("The data source is failing; retry shortly"))
	case stderrors.Is(err, services.ErrUpstreamMalformed):
		return SendError(c, errors.UpstreamMalformed)
	case stderrors.Is(err, services.ErrUpstreamUnavailable):
		return SendError(c, errors.UpstreamUnavailable)
	case stderrors.Is(err, services.ErrUnknownSource):
		return SendError(c, errors.UpstreamUnknown)
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return SendError(c, errors.SystemServiceUnavailable, errors.WithDetails("The request ended before the data source answered"))
	default:
		return SendSystemError(c, err)
	}
}
