package fastqueue

import (
	"context"
	"fmt"

	"labelq/internal/config"
	"labelq/internal/services"
)

// Queue is an ordered list of data ids per queue id.
type Queue interface {
	// Push appends the ids in order. An empty batch is a no-op.
	Push(ctx context.Context, queueID int64, dataIDs ...int64) error
	// PopOne removes and returns the oldest id. ok is false when the queue is
	// empty.
	PopOne(ctx context.Context, queueID int64) (dataID int64, ok bool, err error)
	// Len returns the number of ids in the queue.
	Len(ctx context.Context, queueID int64) (int, error)
	// Members returns the ids in pop order.
	Members(ctx context.Context, queueID int64) ([]int64, error)
	// Drop removes every id of the queue.
	Drop(ctx context.Context, queueID int64) error
	// Close releases backend resources.
	Close() error
}

// Open builds the backend selected by the configuration.
func Open(ctx context.Context, cfg *config.Config) (Queue, error) {
	switch cfg.FastQueue.Backend {
	case "", config.BackendMemory:
		return NewMemory(), nil
	case config.BackendEtcd:
		q, err := DialEtcd(ctx, EtcdOptions{
			Endpoints:   cfg.FastQueue.EtcdEndpoints,
			Prefix:      cfg.FastQueue.EtcdPrefix,
			DialTimeout: cfg.DialTimeout(),
		})
		if err != nil {
			return nil, err
		}
		return q, nil
	default:
		return nil, services.Wrap(services.ErrValidation, "fastqueue", "open",
			fmt.Sprintf("unknown backend %q", cfg.FastQueue.Backend), nil)
	}
}
