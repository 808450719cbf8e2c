package preflight

import (
	"context"

	"labelq/internal/config"
	"labelq/internal/fastqueue"
	"labelq/internal/store"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Database is the durable store surface the checks read.
type Database interface {
	Ping(ctx context.Context) error
	AllQueues(ctx context.Context) ([]*store.Queue, error)
	CountMembership(ctx context.Context, queueID int64) (int, error)
	StaleMemberships(ctx context.Context) ([]store.Membership, error)
}

// minFreeBytes is the free space below which the database volume check fails.
const minFreeBytes = 256 << 20

// RunAll executes every check for the given config. db and fast may be nil
// when they could not be opened; their checks then report the failure.
func RunAll(ctx context.Context, cfg *config.Config, db Database, fast fastqueue.Queue) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckFreeSpace("Database volume", cfg.Paths.DataDir, minFreeBytes),
		CheckDatabase(ctx, db),
		CheckFastQueue(ctx, cfg.FastQueue.Backend, fast),
	}
	if db != nil && fast != nil {
		results = append(results,
			CheckQueueDrift(ctx, db, fast),
			CheckStaleMemberships(ctx, db),
		)
	}
	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
