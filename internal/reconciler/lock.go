package reconciler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process holds the reconcile lock
var ErrLocked = errors.New("another reconciliation is in progress")

const lockRetryDelay = 200 * time.Millisecond

// acquireLock takes the inter-process reconcile lock, waiting up to timeout
func acquireLock(ctx context.Context, path string, timeout time.Duration) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("cannot create lock directory: %w", err)
	}

	l := flock.New(path)
	if timeout <= 0 {
		locked, err := l.TryLock()
		if err != nil {
			return nil, fmt.Errorf("cannot acquire reconcile lock: %w", err)
		}
		if !locked {
			return nil, fmt.Errorf("%w (lock: %s)", ErrLocked, path)
		}
		return func() { _ = l.Unlock() }, nil
	}

	lockCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	locked, err := l.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("cannot acquire reconcile lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w (lock: %s)", ErrLocked, path)
	}
	return func() { _ = l.Unlock() }, nil
}
