package services

import (
	"context"
	"log/slog"
	"time"
)

type traceIDKey struct{}

// WithTraceID returns a copy of ctx carrying the request trace ID
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

// TraceIDFromContext returns the trace ID stored by WithTraceID, or ""
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if traceID, ok := ctx.Value(traceIDKey{}).(string); ok {
		return traceID
	}
	return ""
}

// AuditLogger writes structured events about upstream traffic and dashboard
// builds. Persistent user activity lives in AuditService.
type AuditLogger struct {
	logger *slog.Logger
}

func NewAuditLogger(logger *slog.Logger) AuditLoggerInterface {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger: logger,
	}
}

func (al *AuditLogger) LogUpstreamRequest(ctx context.Context, source, url string) {
	al.logger.DebugContext(ctx, "upstream request",
		slog.String("event_type", "upstream_request"),
		slog.String("source", source),
		slog.String("url", url),
		slog.Time("timestamp", time.Now()),
		slog.String("trace_id", TraceIDFromContext(ctx)),
	)
}

func (al *AuditLogger) LogUpstreamFailure(ctx context.Context, source, errorMsg string, durationMs int64) {
	al.logger.ErrorContext(ctx, "upstream request failed",
		slog.String("event_type", "upstream_failure"),
		slog.String("source", source),
		slog.String("error", errorMsg),
		slog.Int64("duration_ms", durationMs),
		slog.Time("timestamp", time.Now()),
		slog.String("trace_id", TraceIDFromContext(ctx)),
	)
}

func (al *AuditLogger) LogReportBuilt(ctx context.Context, source string, records, page int, durationMs int64) {
	al.logger.InfoContext(ctx, "report built",
		slog.String("event_type", "report_built"),
		slog.String("source", source),
		slog.Int("records", records),
		slog.Int("page", page),
		slog.Int64("duration_ms", durationMs),
		slog.Time("timestamp", time.Now()),
		slog.String("trace_id", TraceIDFromContext(ctx)),
	)
}

func (al *AuditLogger) LogCircuitBreakerStateChange(ctx context.Context, service string, oldState, newState string) {
	al.logger.WarnContext(ctx, "circuit breaker state change",
		slog.String("event_type", "circuit_breaker_state_change"),
		slog.String("service", service),
		slog.String("old_state", oldState),
		slog.String("new_state", newState),
		slog.Time("timestamp", time.Now()),
		slog.String("trace_id", TraceIDFromContext(ctx)),
	)
}

// LogAuthorizationFailure records a request rejected for a missing permission
func (al *AuditLogger) LogAuthorizationFailure(ctx context.Context, path, userID, permission string) {
	al.logger.WarnContext(ctx, "authorization failure",
		slog.String("event_type", "authorization_failure"),
		slog.String("path", path),
		slog.String("user_id", userID),
		slog.String("required_permission", permission),
		slog.Time("timestamp", time.Now()),
		slog.String("trace_id", TraceIDFromContext(ctx)),
	)
}
