package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"labelq/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrUnavailable, "fastqueue", "pop", "etcd delete failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"fastqueue", "pop", "etcd delete failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{services.Wrap(services.ErrValidation, "config", "", "bad", nil), "validation"},
		{fmt.Errorf("outer: %w", services.ErrNotFound), "not_found"},
		{services.Wrap(services.ErrIntegrity, "assign", "reconcile", "", nil), "integrity"},
		{services.Wrap(nil, "store", "open", "", errors.New("io")), "unavailable"},
		{errors.New("plain"), "internal"},
	}
	for _, tc := range cases {
		if got := services.Kind(tc.err); got != tc.want {
			t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
