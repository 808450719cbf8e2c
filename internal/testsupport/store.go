package testsupport

import (
	"context"
	"fmt"
	"testing"

	"labelq/internal/config"
	"labelq/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// SeedProject creates a project holding n data items named "<name>-item-<i>"
// and returns it with the data ids in insertion order.
func SeedProject(t testing.TB, st *store.Store, name string, n int) (*store.Project, []int64) {
	t.Helper()

	ctx := context.Background()
	project, err := st.CreateProject(ctx, name)
	if err != nil {
		t.Fatalf("store.CreateProject: %v", err)
	}
	texts := make([]string, n)
	for i := range texts {
		texts[i] = fmt.Sprintf("%s-item-%d", name, i)
	}
	ids, err := st.AddData(ctx, project.ID, texts)
	if err != nil {
		t.Fatalf("store.AddData: %v", err)
	}
	return project, ids
}

// MustCreateUser creates a labeler for tests.
func MustCreateUser(t testing.TB, st *store.Store, username string) *store.User {
	t.Helper()

	user, err := st.CreateUser(context.Background(), username, "")
	if err != nil {
		t.Fatalf("store.CreateUser: %v", err)
	}
	return user
}

// MustCreateQueue creates a queue for tests. userID zero creates a shared queue.
func MustCreateQueue(t testing.TB, st *store.Store, projectID, userID int64, length int) *store.Queue {
	t.Helper()

	queue, err := st.CreateQueue(context.Background(), projectID, userID, length)
	if err != nil {
		t.Fatalf("store.CreateQueue: %v", err)
	}
	return queue
}
