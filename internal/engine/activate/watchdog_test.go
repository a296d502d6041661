package activate_test

import (
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.trai.ch/grove/internal/core/domain"
	"go.trai.ch/grove/internal/engine/activate"
)

func TestWatchRetiresActivationOnSessionEnd(t *testing.T) {
	dir := t.TempDir()
	fifoPath := filepath.Join(dir, "activation-test.fifo")
	require.NoError(t, syscall.Mkfifo(fifoPath, 0o600))

	reg := newFakeRegistry()
	a := domain.Activation{ID: "act1", EnvID: "env1", FifoPath: fifoPath, WatchdogPID: os.Getpid()}
	require.NoError(t, reg.Register(context.Background(), a))

	done := make(chan error, 1)
	go func() {
		done <- activate.Watch(context.Background(), reg, nopLogger{}, fifoPath, "env1", "act1")
	}()

	// The session: hold the write end open for a moment, then exit.
	w, err := os.OpenFile(fifoPath, os.O_WRONLY, 0)
	require.NoError(t, err)

	select {
	case err := <-done:
		t.Fatalf("watchdog returned while session still live: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, w.Close())

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watchdog did not observe session end")
	}

	live, err := reg.List(context.Background(), "env1")
	require.NoError(t, err)
	assert.Empty(t, live)

	_, err = os.Stat(fifoPath)
	assert.True(t, os.IsNotExist(err), "fifo must be removed")
}
