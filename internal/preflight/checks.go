package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"labelq/internal/fastqueue"
)

const checkTimeout = 5 * time.Second

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies the filesystem holding path has at least minFree
// bytes available to unprivileged users.
func CheckFreeSpace(name, path string, minFree uint64) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	detail := fmt.Sprintf("%s free of %s", humanize.IBytes(free), humanize.IBytes(stat.Blocks*uint64(stat.Bsize)))
	if free < minFree {
		return Result{Name: name, Detail: fmt.Sprintf("%s (below %s)", detail, humanize.IBytes(minFree))}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckDatabase verifies the durable store answers queries.
func CheckDatabase(ctx context.Context, db Database) Result {
	const name = "Database"
	if db == nil {
		return Result{Name: name, Detail: "not open"}
	}
	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	if err := db.Ping(checkCtx); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}

// CheckFastQueue verifies the fast queue backend answers reads.
func CheckFastQueue(ctx context.Context, backend string, fast fastqueue.Queue) Result {
	name := "Fast queue"
	if backend = strings.TrimSpace(backend); backend != "" {
		name = fmt.Sprintf("Fast queue (%s)", backend)
	}
	if fast == nil {
		return Result{Name: name, Detail: "not open"}
	}
	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	if _, err := fast.Len(checkCtx, 0); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}

// CheckQueueDrift compares each queue's durable membership count with its
// fast queue length.
func CheckQueueDrift(ctx context.Context, db Database, fast fastqueue.Queue) Result {
	const name = "Queue consistency"
	queues, err := db.AllQueues(ctx)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	var drifted []string
	for _, queue := range queues {
		durable, err := db.CountMembership(ctx, queue.ID)
		if err != nil {
			return Result{Name: name, Detail: err.Error()}
		}
		n, err := fast.Len(ctx, queue.ID)
		if err != nil {
			return Result{Name: name, Detail: err.Error()}
		}
		if n != durable {
			drifted = append(drifted, fmt.Sprintf("#%d durable=%d fast=%d", queue.ID, durable, n))
		}
	}
	if len(drifted) > 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%d of %d queues differ (%s); run 'labelq fastqueue rebuild'",
			len(drifted), len(queues), strings.Join(drifted, ", "))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s in sync", pluralQueues(len(queues)))}
}

// CheckStaleMemberships reports membership rows whose datum is already
// assigned or labeled.
func CheckStaleMemberships(ctx context.Context, db Database) Result {
	const name = "Stale memberships"
	stale, err := db.StaleMemberships(ctx)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if len(stale) > 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s reference assigned or labeled data", humanize.Comma(int64(len(stale))))}
	}
	return Result{Name: name, Passed: true, Detail: "None"}
}

func pluralQueues(n int) string {
	if n == 1 {
		return "1 queue"
	}
	return fmt.Sprintf("%d queues", n)
}
