package fill

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"labelq/internal/logging"
	"labelq/internal/metrics"
)

// Rebuild replaces every queue's fast list with its durable membership in a
// random order. Membership rows whose datum is already assigned or labeled
// are deleted first so they are never served again. It returns the number of
// entries pushed.
func (f *Filler) Rebuild(ctx context.Context) (int, error) {
	stale, err := f.store.PruneStaleMemberships(ctx)
	if err != nil {
		return 0, fmt.Errorf("prune stale memberships: %w", err)
	}
	if len(stale) > 0 {
		metrics.IntegrityAnomaliesTotal.WithLabelValues(metrics.AnomalyStaleMembership).Add(float64(len(stale)))
		f.logger.Warn("pruned stale queue memberships",
			logging.Int("rows", len(stale)),
			logging.Alert("stale_membership"),
			logging.String(logging.FieldEventType, "rebuild_pruned"),
		)
	}

	queues, err := f.store.AllQueues(ctx)
	if err != nil {
		return 0, err
	}

	var total atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for _, queue := range queues {
		rng := f.childRand()
		g.Go(func() error {
			members, err := f.store.QueueMembers(gctx, queue.ID)
			if err != nil {
				return fmt.Errorf("queue %d members: %w", queue.ID, err)
			}
			rng.Shuffle(len(members), func(i, j int) {
				members[i], members[j] = members[j], members[i]
			})
			if err := f.fast.Drop(gctx, queue.ID); err != nil {
				return fmt.Errorf("drop queue %d: %w", queue.ID, err)
			}
			if err := f.fast.Push(gctx, queue.ID, members...); err != nil {
				return fmt.Errorf("push queue %d: %w", queue.ID, err)
			}
			total.Add(int64(len(members)))
			return nil
		})
	}
	err = g.Wait()
	pushed := int(total.Load())
	metrics.RebuildEntriesTotal.Add(float64(pushed))
	if err != nil {
		f.logger.Error("fast queue rebuild failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "rebuild_failed"),
			logging.String(logging.FieldErrorHint, "check fast queue backend reachability"),
		)
		return pushed, err
	}
	f.logger.Info("fast queues rebuilt",
		logging.Int("queues", len(queues)),
		logging.Int("entries", pushed),
	)
	return pushed, nil
}
