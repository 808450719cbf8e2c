package assign

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"labelq/internal/fastqueue"
	"labelq/internal/logging"
	"labelq/internal/metrics"
	"labelq/internal/services"
	"labelq/internal/store"
)

// Store is the durable state the coordinator reads and reconciles.
type Store interface {
	ListQueues(ctx context.Context, projectID, owner int64) ([]*store.Queue, error)
	DeleteMembership(ctx context.Context, queueID, dataID int64) (int64, error)
	CreateAssignment(ctx context.Context, dataID, userID, queueID int64) (*store.Assignment, error)
	GetData(ctx context.Context, id int64) (*store.Data, error)
}

// Coordinator assigns queued data to users.
type Coordinator struct {
	store  Store
	fast   fastqueue.Queue
	logger *slog.Logger
}

// New constructs a Coordinator.
func New(st Store, fast fastqueue.Queue, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		store:  st,
		fast:   fast,
		logger: logging.NewComponentLogger(logger, "assign"),
	}
}

// Assign pops one datum for the user from the project's queues and records
// the assignment. userID zero requests shared work only. A nil datum with a
// nil error means there is no work right now.
func (c *Coordinator) Assign(ctx context.Context, projectID, userID int64) (*store.Data, error) {
	start := time.Now()
	ctx = services.WithRequestID(services.WithProjectID(ctx, projectID), uuid.NewString())

	datum, outcome, err := c.assign(ctx, projectID, userID)
	metrics.AssignTotal.WithLabelValues(outcome).Inc()
	metrics.AssignDurationSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		logging.WithContext(ctx, c.logger).Error("assignment failed",
			logging.Int64(logging.FieldUserID, userID),
			logging.Error(err),
			logging.String(logging.FieldEventType, "assign_failed"),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
		)
		return nil, err
	}
	return datum, nil
}

func (c *Coordinator) assign(ctx context.Context, projectID, userID int64) (*store.Data, string, error) {
	queue, err := c.selectQueue(ctx, projectID, userID)
	if err != nil {
		return nil, metrics.AssignError, err
	}
	if queue == nil {
		return nil, metrics.AssignEmpty, nil
	}

	ctx = services.WithQueueID(ctx, queue.ID)
	logger := logging.WithContext(ctx, c.logger).With(logging.Int64(logging.FieldUserID, userID))

	dataID, ok, err := c.fast.PopOne(ctx, queue.ID)
	if err != nil {
		return nil, metrics.AssignError, err
	}
	if !ok {
		logger.Debug("queue emptied before pop")
		return nil, metrics.AssignRaced, nil
	}
	logger = logger.With(logging.Int64(logging.FieldDataID, dataID))

	removed, err := c.store.DeleteMembership(ctx, queue.ID, dataID)
	if err != nil {
		return nil, metrics.AssignError, fmt.Errorf("reconcile membership: %w", err)
	}
	if removed != 1 {
		metrics.IntegrityAnomaliesTotal.WithLabelValues(metrics.AnomalyMembershipDelete).Inc()
		logger.Warn("popped datum had unexpected durable membership",
			logging.Int64("rows_removed", removed),
			logging.Alert("membership_drift"),
		)
	}

	if _, err := c.store.CreateAssignment(ctx, dataID, userID, queue.ID); err != nil {
		if errors.Is(err, store.ErrAlreadyAssigned) {
			metrics.IntegrityAnomaliesTotal.WithLabelValues(metrics.AnomalyAlreadyAssigned).Inc()
			logger.Warn("popped datum is already assigned; dropping stale entry",
				logging.Alert("stale_fast_entry"),
			)
			return nil, metrics.AssignStale, nil
		}
		return nil, metrics.AssignError, fmt.Errorf("record assignment: %w", err)
	}

	datum, err := c.store.GetData(ctx, dataID)
	if err != nil {
		return nil, metrics.AssignError, err
	}
	logger.Info("data assigned")
	return datum, metrics.AssignAssigned, nil
}

// selectQueue returns the first queue, in id order, with a non-empty fast
// list: the user's own queues first, then the shared queues. It returns nil
// when every candidate is empty.
func (c *Coordinator) selectQueue(ctx context.Context, projectID, userID int64) (*store.Queue, error) {
	owners := []int64{store.OwnerShared}
	if userID != 0 {
		owners = []int64{userID, store.OwnerShared}
	}
	for _, owner := range owners {
		queues, err := c.store.ListQueues(ctx, projectID, owner)
		if err != nil {
			return nil, err
		}
		for _, queue := range queues {
			n, err := c.fast.Len(ctx, queue.ID)
			if err != nil {
				return nil, err
			}
			if n > 0 {
				return queue, nil
			}
		}
	}
	return nil, nil
}
