package ports

import (
	"context"
	"time"
)

// ReleaseFunc releases a held lock. Safe to call exactly once.
type ReleaseFunc func() error

// Locker provides exclusive inter-process file locks with a bounded wait.
// Acquisition past the timeout fails with domain.ErrLockContention rather
// than hanging.
type Locker interface {
	Acquire(ctx context.Context, path string, timeout time.Duration) (ReleaseFunc, error)
}
