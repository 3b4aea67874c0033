package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric names accepted by PrometheusMetrics
const (
	MetricUpstreamRequest     = "upstream.request"
	MetricReportBuilt         = "report.built"
	MetricReportRecords       = "report.records"
	MetricCircuitBreakerState = "circuit_breaker.state"
	MetricAuthenticationEvent = "authentication_event"
)

type PrometheusMetrics struct {
	upstreamRequests          *prometheus.CounterVec
	upstreamDuration          *prometheus.HistogramVec
	reportsBuilt              *prometheus.CounterVec
	reportRecords             *prometheus.GaugeVec
	circuitBreakerState       *prometheus.GaugeVec
	authenticationEventsTotal *prometheus.CounterVec
}

// NewPrometheusMetrics registers the dashboard collectors on reg. A nil reg
// means the default registerer.
func NewPrometheusMetrics(reg prometheus.Registerer) MetricsRecorderInterface {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		upstreamRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "upstream_requests_total",
				Help: "Total number of requests sent to the upstream data API",
			},
			[]string{"source", "status"},
		),
		upstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "upstream_request_duration_seconds",
				Help:    "Upstream data API request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		reportsBuilt: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reports_built_total",
				Help: "Total number of dashboards built",
			},
			[]string{"source"},
		),
		reportRecords: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "report_records",
				Help: "Number of records in the most recent report per source",
			},
			[]string{"source"},
		),
		circuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
			[]string{"service"},
		),
		authenticationEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authentication_events_total",
				Help: "Total number of authentication events",
			},
			[]string{"event_type"},
		),
	}
}

func (m *PrometheusMetrics) IncrementCounter(name string, tags map[string]string) {
	switch name {
	case MetricUpstreamRequest:
		m.upstreamRequests.WithLabelValues(tags["source"], tags["status"]).Inc()
	case MetricReportBuilt:
		m.reportsBuilt.WithLabelValues(tags["source"]).Inc()
	case MetricAuthenticationEvent:
		if eventType := tags["event_type"]; eventType != "" {
			m.authenticationEventsTotal.WithLabelValues(eventType).Inc()
		}
	}
}

func (m *PrometheusMetrics) RecordProcessingTime(name string, duration time.Duration, tags map[string]string) {
	switch name {
	case MetricUpstreamRequest:
		m.upstreamDuration.WithLabelValues(tags["source"]).Observe(duration.Seconds())
	}
}

func (m *PrometheusMetrics) RecordGauge(name string, value float64, tags map[string]string) {
	switch name {
	case MetricReportRecords:
		m.reportRecords.WithLabelValues(tags["source"]).Set(value)
	case MetricCircuitBreakerState:
		m.circuitBreakerState.WithLabelValues(tags["service"]).Set(value)
	}
}
