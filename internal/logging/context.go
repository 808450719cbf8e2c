package logging

import (
	"context"
	"log/slog"

	"labelq/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldProjectID is the standardized key for project identifiers.
	FieldProjectID = "project_id"
	// FieldQueueID is the standardized key for queue identifiers.
	FieldQueueID = "queue_id"
	// FieldDataID is the standardized key for data item identifiers.
	FieldDataID = "data_id"
	// FieldUserID is the standardized key for labeler identifiers.
	FieldUserID = "user_id"
	// FieldCorrelationID is the standardized key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
	// FieldEventType names the kind of event a log line reports.
	FieldEventType = "event_type"
	// FieldErrorKind classifies a failure (see services.Kind).
	FieldErrorKind = "error_kind"
	// FieldErrorHint suggests an operator action for a failure.
	FieldErrorHint = "error_hint"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.ProjectIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldProjectID, id))
	}
	if id, ok := services.QueueIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldQueueID, id))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
