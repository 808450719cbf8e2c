package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"labelq/internal/config"
	"labelq/internal/services"
	"labelq/internal/store"
	"labelq/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	cfg.Logging.Level = "error"
	base := testsupport.BaseDir(cfg)
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	payload, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func (env *cliTestEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (env *cliTestEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := env.run(t, args...)
	if err != nil {
		t.Fatalf("labelq %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("expected output to contain %q, got:\n%s", want, output)
	}
}

func TestCLIAssignmentFlow(t *testing.T) {
	env := setupCLITestEnv(t)

	requireContains(t, env.mustRun(t, "project", "create", "sentiment"), "Created project #1 sentiment")
	requireContains(t, env.mustRun(t, "user", "create", "alice", "--email", "alice@example.com"), "Created user #1 alice")

	dataPath := filepath.Join(env.baseDir, "data.txt")
	testsupport.WriteLines(t, dataPath, "great movie", "", "terrible plot", "fine acting", "slow start", "loved it")
	requireContains(t, env.mustRun(t, "data", "add", "sentiment", dataPath), "Added 5 data item(s) to sentiment")

	requireContains(t,
		env.mustRun(t, "queue", "add", "sentiment", "--length", "3", "--user", "alice", "--fill"),
		"Queue #1: added 3 of 3 requested")

	var queues []queueView
	if err := json.Unmarshal([]byte(env.mustRun(t, "queue", "list", "sentiment", "--json")), &queues); err != nil {
		t.Fatalf("decode queue list: %v", err)
	}
	if len(queues) != 1 || queues[0].Owner != "alice" || queues[0].Members != 3 || queues[0].Fast != 3 {
		t.Fatalf("unexpected queue list %+v", queues)
	}

	var datum store.Data
	if err := json.Unmarshal([]byte(env.mustRun(t, "assign", "sentiment", "--user", "alice", "--json")), &datum); err != nil {
		t.Fatalf("decode assignment: %v", err)
	}
	if datum.ID == 0 || datum.Text == "" {
		t.Fatalf("expected an assigned datum, got %+v", datum)
	}
	dataID := strconv.FormatInt(datum.ID, 10)

	requireContains(t, env.mustRun(t, "label", dataID, "--user", "alice", "--label", "positive"),
		"Labeled data #"+dataID+` as "positive"`)

	// Two members remain and two unqueued data are eligible.
	requireContains(t, env.mustRun(t, "queue", "fill", "1"), "Queue #1: added 1 of 1 requested")
	requireContains(t, env.mustRun(t, "queue", "show", "1"), "3/3")

	if _, err := env.run(t, "label", dataID, "--user", "alice", "--label", "negative"); !errors.Is(err, store.ErrAlreadyLabeled) {
		t.Fatalf("expected ErrAlreadyLabeled, got %v", err)
	}
	if _, err := env.run(t, "release", dataID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound releasing a labeled datum, got %v", err)
	}

	// Free space on the test volume is outside the test's control.
	health, err := env.run(t, "health")
	if err != nil && !errors.Is(err, errUnhealthy) {
		t.Fatalf("health: %v", err)
	}
	requireContains(t, health, "[OK] 1 queue in sync")
	requireContains(t, health, "Stale memberships:")
	requireContains(t, env.mustRun(t, "fastqueue", "rebuild"), "Rebuilt memory fast queue with 3 entries")
}

func TestCLIAssignWithoutWork(t *testing.T) {
	env := setupCLITestEnv(t)
	env.mustRun(t, "project", "create", "empty")
	requireContains(t, env.mustRun(t, "assign", "empty"), "No work available in empty")
}

func TestCLISharedQueueAndRefillOnce(t *testing.T) {
	env := setupCLITestEnv(t)
	env.mustRun(t, "project", "create", "topics")

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader("one\ntwo\nthree\nfour\n"))
	cmd.SetArgs([]string{"--config", env.configPath, "data", "add", "topics", "-"})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("data add from stdin: %v\n%s", err, out.String())
	}
	requireContains(t, out.String(), "Added 4 data item(s)")

	env.mustRun(t, "queue", "add", "topics", "--length", "2")
	env.mustRun(t, "queue", "add", "topics", "--length", "5")
	output := env.mustRun(t, "refill", "topics", "--once")
	requireContains(t, output, "Queue #1: added 2 of 2 requested")
	requireContains(t, output, "Queue #2: added 2 of 5 requested (eligible data exhausted)")

	if _, err := env.run(t, "refill", "topics"); !errors.Is(err, services.ErrValidation) || !strings.Contains(err.Error(), "etcd") {
		t.Fatalf("expected continuous refill to be refused on the memory backend, got %v", err)
	}

	requireContains(t, env.mustRun(t, "queue", "list", "topics"), "shared")
	requireContains(t, env.mustRun(t, "project", "list"), "topics")

	requireContains(t, env.mustRun(t, "queue", "delete", "2"), "Deleted queue #2")
	if _, err := env.run(t, "queue", "delete", "2"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestCLIQueueAddRequiresLength(t *testing.T) {
	env := setupCLITestEnv(t)
	env.mustRun(t, "project", "create", "p")
	if _, err := env.run(t, "queue", "add", "p"); err == nil || !strings.Contains(err.Error(), "--length") {
		t.Fatalf("expected length error, got %v", err)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(env.baseDir, "generated", "config.toml")

	requireContains(t, env.mustRun(t, "config", "init", "--path", target), "Wrote sample configuration")
	if _, err := env.run(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
	env.mustRun(t, "config", "init", "--path", target, "--overwrite")

	out := env.mustRun(t, "config", "validate")
	requireContains(t, out, "Config path: "+env.configPath)
	requireContains(t, out, "Fast queue backend: memory")
	requireContains(t, out, "Configuration valid")
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{fmt.Errorf("queue 9: %w", store.ErrNotFound), 2},
		{services.Wrap(services.ErrUnavailable, "fastqueue", "dial", "", nil), 3},
		{errors.New("boom"), 1},
	}
	for _, tc := range cases {
		if got := exitCode(tc.err); got != tc.want {
			t.Fatalf("exitCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestNoWorkMessageReportsDurableBacklog(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	project, ids := testsupport.SeedProject(t, st, "backlog", 2)

	msg, err := noWorkMessage(ctx, st, project, 0)
	if err != nil {
		t.Fatalf("noWorkMessage: %v", err)
	}
	if msg != "No work available in backlog" {
		t.Fatalf("unexpected message %q", msg)
	}

	queue := testsupport.MustCreateQueue(t, st, project.ID, 0, 2)
	if _, err := st.CreateMemberships(ctx, queue.ID, ids); err != nil {
		t.Fatalf("CreateMemberships: %v", err)
	}
	msg, err = noWorkMessage(ctx, st, project, 0)
	if err != nil {
		t.Fatalf("noWorkMessage: %v", err)
	}
	requireContains(t, msg, "fastqueue rebuild")
}
