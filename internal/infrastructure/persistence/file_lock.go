package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

// DefaultLockRetryDelay is how often a contended lock is retried
const DefaultLockRetryDelay = 50 * time.Millisecond

// fileLocker takes an exclusive advisory lock on a sidecar ".lock" file.
// Every acquisition opens its own handle, so goroutines of one process
// exclude each other as well as other processes.
type fileLocker struct {
	path       string
	retryDelay time.Duration
}

func newFileLocker(path string, retryDelay time.Duration) fileLocker {
	if retryDelay <= 0 {
		retryDelay = DefaultLockRetryDelay
	}
	return fileLocker{path: path, retryDelay: retryDelay}
}

// lock blocks until the lock is held or ctx is done
func (l fileLocker) lock(ctx context.Context) (func(), error) {
	fl := flock.New(l.path)
	locked, err := fl.TryLockContext(ctx, l.retryDelay)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrLockNotAcquired, l.path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w %s", ErrLockNotAcquired, l.path)
	}
	return func() { _ = fl.Unlock() }, nil
}

// FileStoreOption configures the file-backed stores
type FileStoreOption func(*fileStoreOptions)

type fileStoreOptions struct {
	lockRetryDelay time.Duration
	now            func() time.Time
}

func defaultFileStoreOptions() fileStoreOptions {
	return fileStoreOptions{
		lockRetryDelay: DefaultLockRetryDelay,
		now:            time.Now,
	}
}

// WithLockRetryDelay sets how often a contended lock is retried
func WithLockRetryDelay(d time.Duration) FileStoreOption {
	return func(o *fileStoreOptions) {
		o.lockRetryDelay = d
	}
}

// WithClock overrides the clock used to back-fill missing order dates
func WithClock(now func() time.Time) FileStoreOption {
	return func(o *fileStoreOptions) {
		o.now = now
	}
}
