package fill

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 25 * time.Millisecond

// fillLock serializes exclusive-mode fills. The mutex covers goroutines of
// this process; the file lock covers other processes sharing the database.
type fillLock struct {
	mu   sync.Mutex
	file *flock.Flock
}

func newFillLock(path string) *fillLock {
	l := &fillLock{}
	if path != "" {
		l.file = flock.New(path)
	}
	return l
}

func (l *fillLock) acquire(ctx context.Context) (func(), error) {
	l.mu.Lock()
	if l.file == nil {
		return l.mu.Unlock, nil
	}
	if err := os.MkdirAll(filepath.Dir(l.file.Path()), 0o755); err != nil {
		l.mu.Unlock()
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	ok, err := l.file.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !ok {
		l.mu.Unlock()
		if err == nil {
			err = ctx.Err()
		}
		return nil, fmt.Errorf("acquire fill lock %s: %w", l.file.Path(), err)
	}
	return func() {
		_ = l.file.Unlock()
		l.mu.Unlock()
	}, nil
}
