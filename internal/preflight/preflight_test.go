package preflight

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"labelq/internal/fastqueue"
	"labelq/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if result := CheckFreeSpace("disk", dir, 1); !result.Passed {
		t.Fatalf("expected pass with 1 byte minimum, got: %s", result.Detail)
	}
	if result := CheckFreeSpace("disk", dir, 1<<62); result.Passed {
		t.Fatal("expected failure for impossible minimum")
	}
	if result := CheckFreeSpace("disk", filepath.Join(dir, "missing"), 1); result.Passed {
		t.Fatal("expected failure for missing path")
	}
}

type brokenQueue struct {
	*fastqueue.Memory
}

func (brokenQueue) Len(context.Context, int64) (int, error) {
	return 0, errors.New("connection refused")
}

func TestCheckFastQueue(t *testing.T) {
	ctx := context.Background()
	if result := CheckFastQueue(ctx, "memory", fastqueue.NewMemory()); !result.Passed {
		t.Fatalf("expected memory backend to pass, got: %s", result.Detail)
	}
	result := CheckFastQueue(ctx, "etcd", brokenQueue{fastqueue.NewMemory()})
	if result.Passed || !strings.Contains(result.Detail, "connection refused") {
		t.Fatalf("expected failure detail, got: %+v", result)
	}
	if result.Name != "Fast queue (etcd)" {
		t.Fatalf("unexpected name %q", result.Name)
	}
	if result := CheckFastQueue(ctx, "", nil); result.Passed {
		t.Fatal("expected failure when fast queue is not open")
	}
}

func TestRunAllReportsDriftAndStaleRows(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	fast := fastqueue.NewMemory()
	ctx := context.Background()

	project, ids := testsupport.SeedProject(t, st, "health", 3)
	queue := testsupport.MustCreateQueue(t, st, project.ID, 0, 3)
	if _, err := st.CreateMemberships(ctx, queue.ID, ids); err != nil {
		t.Fatal(err)
	}
	if err := fast.Push(ctx, queue.ID, ids...); err != nil {
		t.Fatal(err)
	}

	results := RunAll(ctx, cfg, st, fast)
	if Failed(results) {
		t.Fatalf("expected healthy results, got %+v", results)
	}

	if _, _, err := fast.PopOne(ctx, queue.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := st.CreateAssignment(ctx, ids[1], 0, queue.ID); err != nil {
		t.Fatal(err)
	}
	byName := make(map[string]Result)
	for _, r := range RunAll(ctx, cfg, st, fast) {
		byName[r.Name] = r
	}
	if drift := byName["Queue consistency"]; drift.Passed || !strings.Contains(drift.Detail, "durable=3 fast=2") {
		t.Fatalf("expected drift failure, got %+v", drift)
	}
	if stale := byName["Stale memberships"]; stale.Passed {
		t.Fatalf("expected stale membership failure, got %+v", stale)
	}
}

func TestRunAllWithoutStores(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	results := RunAll(context.Background(), cfg, nil, nil)
	if !Failed(results) {
		t.Fatal("expected failures when stores are not open")
	}
	if RunAll(context.Background(), nil, nil, nil) != nil {
		t.Fatal("expected nil results for nil config")
	}
}
