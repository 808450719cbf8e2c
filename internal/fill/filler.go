package fill

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"

	"labelq/internal/config"
	"labelq/internal/fastqueue"
	"labelq/internal/logging"
	"labelq/internal/metrics"
	"labelq/internal/sampling"
	"labelq/internal/services"
	"labelq/internal/store"
)

// Store is the durable state a Filler reads and writes.
type Store interface {
	GetQueue(ctx context.Context, id int64) (*store.Queue, error)
	ListQueues(ctx context.Context, projectID, owner int64) ([]*store.Queue, error)
	AllQueues(ctx context.Context) ([]*store.Queue, error)
	CountMembership(ctx context.Context, queueID int64) (int, error)
	EligibleData(ctx context.Context, projectID int64) iter.Seq2[store.Data, error]
	CreateMemberships(ctx context.Context, queueID int64, dataIDs []int64) ([]int64, error)
	ClaimMemberships(ctx context.Context, queueID int64, dataIDs []int64) ([]int64, error)
	QueueMembers(ctx context.Context, queueID int64) ([]int64, error)
	PruneStaleMemberships(ctx context.Context) ([]store.Membership, error)
}

// Options configures a Filler.
type Options struct {
	// ClaimMode is config.ClaimBaseline or config.ClaimExclusive.
	ClaimMode string
	// Rand seeds per-fill random sources. Nil seeds from the OS.
	Rand *rand.Rand
	// LockPath is the advisory lock file used in exclusive mode. Empty limits
	// exclusion to this process.
	LockPath string
	// RebuildConcurrency bounds the queues rebuilt at once.
	RebuildConcurrency int
	Logger             *slog.Logger
}

// Result describes one fill.
type Result struct {
	QueueID int64
	// Requested is the free capacity the fill tried to use.
	Requested int
	// Selected is the number of data the sampler chose.
	Selected int
	// Inserted is the number of data actually added to the queue.
	Inserted int
	// Fallback is set when fewer eligible data existed than requested.
	Fallback bool
}

// Filler fills queues from their project's eligible data.
type Filler struct {
	store       Store
	fast        fastqueue.Queue
	mode        string
	lock        *fillLock
	concurrency int
	logger      *slog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New constructs a Filler.
func New(st Store, fast fastqueue.Queue, opts Options) *Filler {
	mode := opts.ClaimMode
	if mode == "" {
		mode = config.ClaimBaseline
	}
	rng := opts.Rand
	if rng == nil {
		rng = sampling.NewRand(0)
	}
	concurrency := opts.RebuildConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	f := &Filler{
		store:       st,
		fast:        fast,
		mode:        mode,
		concurrency: concurrency,
		logger:      logging.NewComponentLogger(opts.Logger, "fill"),
		rng:         rng,
	}
	if mode == config.ClaimExclusive {
		f.lock = newFillLock(opts.LockPath)
	}
	return f
}

// NewFromConfig constructs a Filler using the [fill] configuration section.
func NewFromConfig(cfg *config.Config, st Store, fast fastqueue.Queue, logger *slog.Logger) *Filler {
	return New(st, fast, Options{
		ClaimMode:          cfg.Fill.ClaimMode,
		Rand:               sampling.NewRand(cfg.Fill.Seed),
		LockPath:           cfg.FillLockPath(),
		RebuildConcurrency: cfg.Fill.RebuildConcurrency,
		Logger:             logger,
	})
}

// ClaimMode reports the configured claim mode.
func (f *Filler) ClaimMode() string {
	return f.mode
}

// childRand derives an independent random source so concurrent fills never
// share a *rand.Rand.
func (f *Filler) childRand() *rand.Rand {
	f.rngMu.Lock()
	defer f.rngMu.Unlock()
	return rand.New(rand.NewPCG(f.rng.Uint64(), f.rng.Uint64()))
}

// FillQueue loads the queue by id and fills it.
func (f *Filler) FillQueue(ctx context.Context, queueID int64) (Result, error) {
	queue, err := f.store.GetQueue(ctx, queueID)
	if err != nil {
		return Result{QueueID: queueID}, err
	}
	return f.Fill(ctx, queue)
}

// Fill adds up to queue.Length minus the current membership of eligible data
// to the queue. A queue already at or above its length is left alone.
func (f *Filler) Fill(ctx context.Context, queue *store.Queue) (Result, error) {
	if queue == nil {
		return Result{}, errors.New("fill: queue is nil")
	}
	ctx = services.WithQueueID(services.WithProjectID(ctx, queue.ProjectID), queue.ID)
	logger := logging.WithContext(ctx, f.logger)

	if f.lock != nil {
		unlock, err := f.lock.acquire(ctx)
		if err != nil {
			metrics.FillTotal.WithLabelValues(metrics.Fail).Inc()
			return Result{QueueID: queue.ID}, err
		}
		defer unlock()
	}

	result, err := f.fill(ctx, queue)
	if err != nil {
		metrics.FillTotal.WithLabelValues(metrics.Fail).Inc()
		logger.Error("queue fill failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "fill_failed"),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.String(logging.FieldErrorHint, "check database and fast queue access"),
		)
		return result, err
	}

	metrics.FillTotal.WithLabelValues(metrics.Ok).Inc()
	metrics.FillItemsTotal.Add(float64(result.Inserted))
	if result.Fallback {
		metrics.FillFallbackTotal.Inc()
	}
	if result.Requested > 0 {
		logger.Info("queue filled",
			logging.Int("requested", result.Requested),
			logging.Int("selected", result.Selected),
			logging.Int("inserted", result.Inserted),
			logging.Bool("fallback", result.Fallback),
			logging.String("claim_mode", f.mode),
		)
	} else {
		logger.Debug("queue already full", logging.Int("length", queue.Length))
	}
	return result, nil
}

func (f *Filler) fill(ctx context.Context, queue *store.Queue) (Result, error) {
	result := Result{QueueID: queue.ID}

	count, err := f.store.CountMembership(ctx, queue.ID)
	if err != nil {
		return result, err
	}
	remaining := queue.Length - count
	if remaining <= 0 {
		return result, nil
	}
	result.Requested = remaining

	rng := f.childRand()
	var cursorErr error
	selected, err := sampling.Reservoir(eligibleIDs(f.store.EligibleData(ctx, queue.ProjectID), &cursorErr), remaining, rng)
	if cursorErr != nil {
		return result, cursorErr
	}
	if errors.Is(err, sampling.ErrInsufficientPopulation) {
		result.Fallback = true
		selected = slices.Collect(eligibleIDs(f.store.EligibleData(ctx, queue.ProjectID), &cursorErr))
		if cursorErr != nil {
			return result, cursorErr
		}
		rng.Shuffle(len(selected), func(i, j int) {
			selected[i], selected[j] = selected[j], selected[i]
		})
	} else if err != nil {
		return result, fmt.Errorf("sample eligible data: %w", err)
	}
	result.Selected = len(selected)
	if len(selected) == 0 {
		return result, nil
	}

	var inserted []int64
	if f.mode == config.ClaimExclusive {
		inserted, err = f.store.ClaimMemberships(ctx, queue.ID, selected)
	} else {
		inserted, err = f.store.CreateMemberships(ctx, queue.ID, selected)
	}
	if err != nil {
		return result, err
	}
	result.Inserted = len(inserted)

	if err := f.fast.Push(ctx, queue.ID, inserted...); err != nil {
		return result, fmt.Errorf("push %d entries (run a fast queue rebuild to recover): %w", len(inserted), err)
	}
	return result, nil
}

// FillProject fills every queue of the project in id order. Results for the
// queues filled before a failure are returned with the error.
func (f *Filler) FillProject(ctx context.Context, projectID int64) ([]Result, error) {
	queues, err := f.store.ListQueues(ctx, projectID, store.OwnerAny)
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(queues))
	for _, queue := range queues {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result, err := f.Fill(ctx, queue)
		results = append(results, result)
		if err != nil {
			return results, fmt.Errorf("fill queue %d: %w", queue.ID, err)
		}
	}
	return results, nil
}

// eligibleIDs adapts the store cursor to the sampler. The first cursor error
// stops the sequence and is stored in errp.
func eligibleIDs(seq iter.Seq2[store.Data, error], errp *error) iter.Seq[int64] {
	return func(yield func(int64) bool) {
		for d, err := range seq {
			if err != nil {
				*errp = err
				return
			}
			if !yield(d.ID) {
				return
			}
		}
	}
}
