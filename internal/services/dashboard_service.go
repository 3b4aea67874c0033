package services

import (
	"context"
	"fmt"
	"time"

	"github.com/drac2606/django-data-monitor/internal/models"
	"github.com/drac2606/django-data-monitor/internal/report"
)

// DashboardService fetches the records of a source on every call and runs
// them through the report builder. Nothing is cached between calls.
type DashboardService struct {
	upstream UpstreamServiceInterface
	metrics  MetricsRecorderInterface
	events   AuditLoggerInterface
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	upstream UpstreamServiceInterface,
	metrics MetricsRecorderInterface,
	events AuditLoggerInterface,
) DashboardServiceInterface {
	return &DashboardService{
		upstream: upstream,
		metrics:  metrics,
		events:   events,
	}
}

// PostsReport builds the posts dashboard for the requested page
func (s *DashboardService) PostsReport(ctx context.Context, page string) (*report.PostsView, error) {
	start := time.Now()

	records, err := s.upstream.FetchRecords(ctx, models.SourcePosts)
	if err != nil {
		return nil, fmt.Errorf("posts report: %w", err)
	}

	view := report.BuildPosts(records, page)
	s.recordBuilt(ctx, models.SourcePosts, len(records), view.TableData.Number, start)

	return &view, nil
}

// ReservationsReport builds the reservations dashboard for the requested page
func (s *DashboardService) ReservationsReport(ctx context.Context, page string) (*report.ReservationsView, error) {
	start := time.Now()

	records, err := s.upstream.FetchRecords(ctx, models.SourceReservations)
	if err != nil {
		return nil, fmt.Errorf("reservations report: %w", err)
	}

	view := report.BuildReservations(records, page)
	s.recordBuilt(ctx, models.SourceReservations, len(records), view.TableData.Number, start)

	return &view, nil
}

func (s *DashboardService) recordBuilt(ctx context.Context, source string, records, page int, start time.Time) {
	tags := map[string]string{"source": source}
	s.metrics.IncrementCounter(MetricReportBuilt, tags)
	s.metrics.RecordGauge(MetricReportRecords, float64(records), tags)
	s.events.LogReportBuilt(ctx, source, records, page, time.Since(start).Milliseconds())
}
