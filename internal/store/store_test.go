package store_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"labelq/internal/store"
	"labelq/internal/testsupport"
)

func collectEligible(t *testing.T, st *store.Store, projectID int64) []int64 {
	t.Helper()
	var ids []int64
	for d, err := range st.EligibleData(context.Background(), projectID) {
		if err != nil {
			t.Fatalf("EligibleData: %v", err)
		}
		ids = append(ids, d.ID)
	}
	return ids
}

func TestOpenCreatesSchemaAndReopens(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	project, err := st.CreateProject(ctx, "reviews")
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	fetched, err := reopened.GetProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetProject after reopen failed: %v", err)
	}
	if fetched.Name != "reviews" {
		t.Fatalf("unexpected project after reopen: %#v", fetched)
	}
	if err := reopened.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestProjectAndUserLookups(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := st.CreateProject(ctx, "alpha"); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	if _, err := st.CreateProject(ctx, "alpha"); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if _, err := st.FindProjectByName(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	user, err := st.CreateUser(ctx, "ada", "ada@example.com")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	found, err := st.FindUserByName(ctx, " ada ")
	if err != nil {
		t.Fatalf("FindUserByName failed: %v", err)
	}
	if found.ID != user.ID || found.Email != "ada@example.com" {
		t.Fatalf("unexpected user: %#v", found)
	}
	if _, err := st.GetUser(ctx, 999); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	projects, err := st.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if len(projects) != 1 || projects[0].Name != "alpha" {
		t.Fatalf("unexpected projects: %#v", projects)
	}
}

func TestAddDataNormalizesAndSkipsBlank(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	project, err := st.CreateProject(ctx, "texts")
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	// "e" followed by a combining acute accent composes to U+00E9.
	ids, err := st.AddData(ctx, project.ID, []string{"  cafe\u0301 ", "", "   ", "plain"})
	if err != nil {
		t.Fatalf("AddData failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 inserted ids, got %v", ids)
	}
	first, err := st.GetData(ctx, ids[0])
	if err != nil {
		t.Fatalf("GetData failed: %v", err)
	}
	if first.Text != "caf\u00e9" {
		t.Fatalf("expected NFC text, got %q", first.Text)
	}
	count, err := st.CountData(ctx, project.ID)
	if err != nil {
		t.Fatalf("CountData failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 data, got %d", count)
	}
	if _, err := st.AddData(ctx, 999, []string{"x"}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing project, got %v", err)
	}
}

func TestListQueuesByOwner(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	project, _ := testsupport.SeedProject(t, st, "owners", 0)
	ada := testsupport.MustCreateUser(t, st, "ada")
	shared := testsupport.MustCreateQueue(t, st, project.ID, 0, 5)
	personal := testsupport.MustCreateQueue(t, st, project.ID, ada.ID, 5)

	cases := []struct {
		name  string
		owner int64
		want  []int64
	}{
		{"any", store.OwnerAny, []int64{shared.ID, personal.ID}},
		{"shared", store.OwnerShared, []int64{shared.ID}},
		{"personal", ada.ID, []int64{personal.ID}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			queues, err := st.ListQueues(ctx, project.ID, tc.owner)
			if err != nil {
				t.Fatalf("ListQueues failed: %v", err)
			}
			var got []int64
			for _, q := range queues {
				got = append(got, q.ID)
			}
			if !slices.Equal(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
	if !shared.Shared() || personal.Shared() {
		t.Fatalf("unexpected Shared flags: shared=%v personal=%v", shared.Shared(), personal.Shared())
	}
	if _, err := st.CreateQueue(ctx, project.ID, 0, -1); err == nil {
		t.Fatal("expected error for negative length")
	}
}

func TestCreateMembershipsIgnoresDuplicates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	project, ids := testsupport.SeedProject(t, st, "dups", 3)
	queue := testsupport.MustCreateQueue(t, st, project.ID, 0, 10)

	inserted, err := st.CreateMemberships(ctx, queue.ID, ids[:2])
	if err != nil {
		t.Fatalf("CreateMemberships failed: %v", err)
	}
	if !slices.Equal(inserted, ids[:2]) {
		t.Fatalf("expected %v inserted, got %v", ids[:2], inserted)
	}
	inserted, err = st.CreateMemberships(ctx, queue.ID, ids)
	if err != nil {
		t.Fatalf("CreateMemberships failed: %v", err)
	}
	if !slices.Equal(inserted, ids[2:]) {
		t.Fatalf("expected only %v inserted on repeat, got %v", ids[2:], inserted)
	}
	count, err := st.CountMembership(ctx, queue.ID)
	if err != nil {
		t.Fatalf("CountMembership failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 members, got %d", count)
	}
	members, err := st.QueueMembers(ctx, queue.ID)
	if err != nil {
		t.Fatalf("QueueMembers failed: %v", err)
	}
	if !slices.Equal(members, ids) {
		t.Fatalf("expected members %v, got %v", ids, members)
	}
	if got, err := st.CreateMemberships(ctx, queue.ID, nil); err != nil || got != nil {
		t.Fatalf("expected empty batch to be a no-op, got %v %v", got, err)
	}
}

func TestEligibleDataExcludesLabeledAssignedAndQueued(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	project, ids := testsupport.SeedProject(t, st, "eligible", 5)
	other, otherIDs := testsupport.SeedProject(t, st, "other", 2)
	ada := testsupport.MustCreateUser(t, st, "ada")
	queue := testsupport.MustCreateQueue(t, st, project.ID, 0, 5)

	if _, err := st.CreateMemberships(ctx, queue.ID, []int64{ids[0]}); err != nil {
		t.Fatalf("CreateMemberships failed: %v", err)
	}
	if _, err := st.CreateAssignment(ctx, ids[1], ada.ID, queue.ID); err != nil {
		t.Fatalf("CreateAssignment failed: %v", err)
	}
	if _, err := st.RecordLabel(ctx, ids[2], ada.ID, "positive"); err != nil {
		t.Fatalf("RecordLabel failed: %v", err)
	}

	got := collectEligible(t, st, project.ID)
	if !slices.Equal(got, ids[3:]) {
		t.Fatalf("expected eligible %v, got %v", ids[3:], got)
	}
	// Ranging again re-runs the query.
	if again := collectEligible(t, st, project.ID); !slices.Equal(again, got) {
		t.Fatalf("expected restartable sequence, got %v then %v", got, again)
	}
	if otherGot := collectEligible(t, st, other.ID); !slices.Equal(otherGot, otherIDs) {
		t.Fatalf("expected other project data %v, got %v", otherIDs, otherGot)
	}
	count, err := st.CountEligible(ctx, project.ID)
	if err != nil {
		t.Fatalf("CountEligible failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 eligible, got %d", count)
	}
}

func TestEligibleDataEarlyBreak(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	project, ids := testsupport.SeedProject(t, st, "early", 10)
	for d, err := range st.EligibleData(ctx, project.ID) {
		if err != nil {
			t.Fatalf("EligibleData: %v", err)
		}
		if d.ID != ids[0] {
			t.Fatalf("expected first id %d, got %d", ids[0], d.ID)
		}
		break
	}
	// Rows from the abandoned loop must not hold the write lock.
	queue := testsupport.MustCreateQueue(t, st, project.ID, 0, 1)
	if _, err := st.CreateMemberships(ctx, queue.ID, ids[:1]); err != nil {
		t.Fatalf("CreateMemberships after early break failed: %v", err)
	}
}

func TestClaimMembershipsSkipsIneligible(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	project, ids := testsupport.SeedProject(t, st, "claim", 4)
	_, otherIDs := testsupport.SeedProject(t, st, "claim-other", 1)
	ada := testsupport.MustCreateUser(t, st, "ada")
	first := testsupport.MustCreateQueue(t, st, project.ID, 0, 4)
	second := testsupport.MustCreateQueue(t, st, project.ID, 0, 4)

	if _, err := st.ClaimMemberships(ctx, first.ID, []int64{ids[0]}); err != nil {
		t.Fatalf("ClaimMemberships failed: %v", err)
	}
	if _, err := st.CreateAssignment(ctx, ids[1], ada.ID, 0); err != nil {
		t.Fatalf("CreateAssignment failed: %v", err)
	}

	claimed, err := st.ClaimMemberships(ctx, second.ID, append(slices.Clone(ids), otherIDs...))
	if err != nil {
		t.Fatalf("ClaimMemberships failed: %v", err)
	}
	if !slices.Equal(claimed, ids[2:]) {
		t.Fatalf("expected claimed %v, got %v", ids[2:], claimed)
	}
}

func TestDeleteMembershipReportsCount(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	project, ids := testsupport.SeedProject(t, st, "delete", 2)
	queue := testsupport.MustCreateQueue(t, st, project.ID, 0, 2)
	if _, err := st.CreateMemberships(ctx, queue.ID, ids); err != nil {
		t.Fatalf("CreateMemberships failed: %v", err)
	}

	removed, err := st.DeleteMembership(ctx, queue.ID, ids[0])
	if err != nil {
		t.Fatalf("DeleteMembership failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 row removed, got %d", removed)
	}
	removed, err = st.DeleteMembership(ctx, queue.ID, ids[0])
	if err != nil {
		t.Fatalf("DeleteMembership failed: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected 0 rows removed on repeat, got %d", removed)
	}
}

func TestIsEmptyForPrefersPersonalThenShared(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	project, ids := testsupport.SeedProject(t, st, "empty", 2)
	ada := testsupport.MustCreateUser(t, st, "ada")
	bob := testsupport.MustCreateUser(t, st, "bob")

	empty, err := st.IsEmptyFor(ctx, project.ID, ada.ID)
	if err != nil {
		t.Fatalf("IsEmptyFor failed: %v", err)
	}
	if !empty {
		t.Fatal("expected empty project with no queues")
	}

	personal := testsupport.MustCreateQueue(t, st, project.ID, ada.ID, 1)
	if _, err := st.CreateMemberships(ctx, personal.ID, ids[:1]); err != nil {
		t.Fatalf("CreateMemberships failed: %v", err)
	}
	if empty, _ := st.IsEmptyFor(ctx, project.ID, ada.ID); empty {
		t.Fatal("expected ada's personal queue to count as work")
	}
	if empty, _ := st.IsEmptyFor(ctx, project.ID, bob.ID); !empty {
		t.Fatal("expected bob to see no work in ada's queue")
	}

	shared := testsupport.MustCreateQueue(t, st, project.ID, 0, 1)
	if _, err := st.CreateMemberships(ctx, shared.ID, ids[1:]); err != nil {
		t.Fatalf("CreateMemberships failed: %v", err)
	}
	if empty, _ := st.IsEmptyFor(ctx, project.ID, bob.ID); empty {
		t.Fatal("expected bob to see shared work")
	}
	if empty, _ := st.IsEmptyFor(ctx, project.ID, 0); empty {
		t.Fatal("expected anonymous caller to see shared work")
	}
}

func TestAssignmentLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	project, ids := testsupport.SeedProject(t, st, "assign", 2)
	ada := testsupport.MustCreateUser(t, st, "ada")
	queue := testsupport.MustCreateQueue(t, st, project.ID, 0, 2)

	assignment, err := st.CreateAssignment(ctx, ids[0], ada.ID, queue.ID)
	if err != nil {
		t.Fatalf("CreateAssignment failed: %v", err)
	}
	if assignment.DataID != ids[0] || assignment.UserID != ada.ID || assignment.QueueID != queue.ID {
		t.Fatalf("unexpected assignment: %#v", assignment)
	}
	if _, err := st.CreateAssignment(ctx, ids[0], 0, queue.ID); !errors.Is(err, store.ErrAlreadyAssigned) {
		t.Fatalf("expected ErrAlreadyAssigned, got %v", err)
	}

	if _, err := st.RecordLabel(ctx, ids[0], ada.ID, "spam"); err != nil {
		t.Fatalf("RecordLabel failed: %v", err)
	}
	active, err := st.AssignmentsForData(ctx, ids[0])
	if err != nil {
		t.Fatalf("AssignmentsForData failed: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected label to resolve the assignment, got %#v", active)
	}
	if _, err := st.RecordLabel(ctx, ids[0], ada.ID, "ham"); !errors.Is(err, store.ErrAlreadyLabeled) {
		t.Fatalf("expected ErrAlreadyLabeled, got %v", err)
	}
	labels, err := st.LabelCount(ctx, ids[0])
	if err != nil {
		t.Fatalf("LabelCount failed: %v", err)
	}
	if labels != 1 {
		t.Fatalf("expected 1 label, got %d", labels)
	}

	if _, err := st.CreateAssignment(ctx, ids[1], 0, queue.ID); err != nil {
		t.Fatalf("anonymous CreateAssignment failed: %v", err)
	}
	if err := st.ReleaseAssignment(ctx, ids[1]); err != nil {
		t.Fatalf("ReleaseAssignment failed: %v", err)
	}
	if err := st.ReleaseAssignment(ctx, ids[1]); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second release, got %v", err)
	}
	if got := collectEligible(t, st, project.ID); !slices.Equal(got, ids[1:]) {
		t.Fatalf("expected released datum to be eligible again, got %v", got)
	}
}

func TestDeleteQueueKeepsAssignments(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	project, ids := testsupport.SeedProject(t, st, "cascade", 2)
	queue := testsupport.MustCreateQueue(t, st, project.ID, 0, 2)
	if _, err := st.CreateMemberships(ctx, queue.ID, ids[1:]); err != nil {
		t.Fatalf("CreateMemberships failed: %v", err)
	}
	assignment, err := st.CreateAssignment(ctx, ids[0], 0, queue.ID)
	if err != nil {
		t.Fatalf("CreateAssignment failed: %v", err)
	}

	if err := st.DeleteQueue(ctx, queue.ID); err != nil {
		t.Fatalf("DeleteQueue failed: %v", err)
	}
	if err := st.DeleteQueue(ctx, queue.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	kept, err := st.GetAssignment(ctx, assignment.ID)
	if err != nil {
		t.Fatalf("GetAssignment failed: %v", err)
	}
	if kept.QueueID != 0 {
		t.Fatalf("expected cleared queue reference, got %d", kept.QueueID)
	}
	if got := collectEligible(t, st, project.ID); !slices.Equal(got, ids[1:]) {
		t.Fatalf("expected dropped membership to free data, got %v", got)
	}
}

func TestQueueStatsAndStaleMemberships(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	project, ids := testsupport.SeedProject(t, st, "stats", 3)
	queue := testsupport.MustCreateQueue(t, st, project.ID, 0, 5)
	if _, err := st.CreateMemberships(ctx, queue.ID, ids); err != nil {
		t.Fatalf("CreateMemberships failed: %v", err)
	}
	// Simulate a crash between pop and reconcile: assigned but still a member.
	if _, err := st.CreateAssignment(ctx, ids[0], 0, queue.ID); err != nil {
		t.Fatalf("CreateAssignment failed: %v", err)
	}

	stats, err := st.QueueStats(ctx, project.ID)
	if err != nil {
		t.Fatalf("QueueStats failed: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("expected 1 stat row, got %d", len(stats))
	}
	if stats[0].Members != 3 || stats[0].Assigned != 1 || stats[0].Free() != 2 {
		t.Fatalf("unexpected stats: %#v", stats[0])
	}

	stale, err := st.StaleMemberships(ctx)
	if err != nil {
		t.Fatalf("StaleMemberships failed: %v", err)
	}
	if len(stale) != 1 || stale[0] != (store.Membership{QueueID: queue.ID, DataID: ids[0]}) {
		t.Fatalf("unexpected stale memberships: %#v", stale)
	}

	pruned, err := st.PruneStaleMemberships(ctx)
	if err != nil {
		t.Fatalf("PruneStaleMemberships failed: %v", err)
	}
	if len(pruned) != 1 || pruned[0].DataID != ids[0] {
		t.Fatalf("unexpected pruned rows: %#v", pruned)
	}
	if n, err := st.CountMembership(ctx, queue.ID); err != nil || n != 2 {
		t.Fatalf("expected 2 members after prune, got %d (%v)", n, err)
	}
	if again, err := st.PruneStaleMemberships(ctx); err != nil || len(again) != 0 {
		t.Fatalf("expected nothing left to prune, got %v (%v)", again, err)
	}

	data, err := st.DataByIDs(ctx, []int64{ids[2], ids[0], 999})
	if err != nil {
		t.Fatalf("DataByIDs failed: %v", err)
	}
	if len(data) != 2 || data[0].ID != ids[0] || data[1].ID != ids[2] {
		t.Fatalf("unexpected DataByIDs result: %#v", data)
	}
}
