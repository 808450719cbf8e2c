package services

import "context"

type contextKey string

const (
	projectIDKey contextKey = "project_id"
	queueIDKey   contextKey = "queue_id"
	requestIDKey contextKey = "request_id"
)

// WithProjectID annotates context with the project identifier.
func WithProjectID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, projectIDKey, id)
}

// ProjectIDFromContext extracts the project identifier if present.
func ProjectIDFromContext(ctx context.Context) (int64, bool) {
	return int64Value(ctx, projectIDKey)
}

// WithQueueID annotates context with the queue identifier.
func WithQueueID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, queueIDKey, id)
}

// QueueIDFromContext extracts the queue identifier if present.
func QueueIDFromContext(ctx context.Context) (int64, bool) {
	return int64Value(ctx, queueIDKey)
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

func int64Value(ctx context.Context, key contextKey) (int64, bool) {
	v := ctx.Value(key)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	default:
		return 0, false
	}
}
