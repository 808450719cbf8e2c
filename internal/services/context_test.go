package services_test

import (
	"context"
	"testing"

	"labelq/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithProjectID(ctx, 7)
	ctx = services.WithQueueID(ctx, 42)
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.ProjectIDFromContext(ctx); !ok || id != 7 {
		t.Fatalf("unexpected project id: %v %v", id, ok)
	}
	if id, ok := services.QueueIDFromContext(ctx); !ok || id != 42 {
		t.Fatalf("unexpected queue id: %v %v", id, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestRequestIDBlankPreservesContext(t *testing.T) {
	ctx := services.WithRequestID(context.Background(), "")
	if _, ok := services.RequestIDFromContext(ctx); ok {
		t.Fatal("expected no request id value")
	}
	if _, ok := services.QueueIDFromContext(ctx); ok {
		t.Fatal("expected no queue id value")
	}
}
