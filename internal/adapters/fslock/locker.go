// Package fslock implements inter-process file locking for environment
// mutations and the activation registry.
package fslock

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"go.trai.ch/zerr"

	"go.trai.ch/grove/internal/core/domain"
	"go.trai.ch/grove/internal/core/ports"
)

// retryInterval is how often acquisition retries while waiting.
const retryInterval = 100 * time.Millisecond

// Locker implements ports.Locker using flock(2) style file locks.
type Locker struct{}

// New creates a Locker.
func New() *Locker {
	return &Locker{}
}

var _ ports.Locker = (*Locker)(nil)

// Acquire takes the exclusive lock at path, waiting at most timeout.
func (l *Locker) Acquire(ctx context.Context, path string, timeout time.Duration) (ports.ReleaseFunc, error) {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return nil, zerr.Wrap(err, "failed to create lock directory")
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fl := flock.New(path)
	locked, err := fl.TryLockContext(ctx, retryInterval)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, zerr.With(zerr.With(domain.ErrLockContention, "path", path), "timeout", timeout.String())
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to acquire lock"), "path", path)
	}
	if !locked {
		return nil, zerr.With(zerr.With(domain.ErrLockContention, "path", path), "timeout", timeout.String())
	}
	return fl.Unlock, nil
}
