package fill

import (
	"context"
	"errors"
	"time"

	"labelq/internal/logging"
	"labelq/internal/services"
)

// RunLoop fills every queue of the project immediately and then once per
// interval until ctx is cancelled. Failed passes are logged and retried on
// the next tick. onPass, when non-nil, receives each pass's results.
func (f *Filler) RunLoop(ctx context.Context, projectID int64, interval time.Duration, onPass func([]Result, error)) error {
	if interval <= 0 {
		return errors.New("refill interval must be positive")
	}
	logger := logging.WithContext(services.WithProjectID(ctx, projectID), f.logger)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		results, err := f.FillProject(ctx, projectID)
		if onPass != nil {
			onPass(results, err)
		}
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			logger.Warn("refill pass failed; retrying next interval",
				logging.Error(err),
				logging.String(logging.FieldEventType, "refill_failed"),
				logging.Duration("interval", interval),
			)
		}

		select {
		case <-ctx.Done():
			logger.Info("refill loop stopped")
			return nil
		case <-ticker.C:
		}
	}
}
