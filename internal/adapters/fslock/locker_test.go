package fslock_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.trai.ch/grove/internal/adapters/fslock"
	"go.trai.ch/grove/internal/core/domain"
)

func TestAcquireAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.lock")
	locker := fslock.New()

	release, err := locker.Acquire(context.Background(), path, time.Second)
	require.NoError(t, err)
	require.NoError(t, release())

	// Re-acquirable after release.
	release, err = locker.Acquire(context.Background(), path, time.Second)
	require.NoError(t, err)
	require.NoError(t, release())
}

func TestAcquireCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".grove", "lock")
	release, err := fslock.New().Acquire(context.Background(), path, time.Second)
	require.NoError(t, err)
	require.NoError(t, release())
}

func TestContentionTimesOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.lock")
	locker := fslock.New()

	release, err := locker.Acquire(context.Background(), path, time.Second)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, release())
	}()

	start := time.Now()
	_, err = locker.Acquire(context.Background(), path, 300*time.Millisecond)
	require.ErrorIs(t, err, domain.ErrLockContention)
	assert.Less(t, time.Since(start), 5*time.Second)
}
