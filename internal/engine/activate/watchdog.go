package activate

import (
	"context"
	"io"
	"os"

	"go.trai.ch/zerr"

	"go.trai.ch/grove/internal/core/ports"
)

// Watch is the watchdog process body. It blocks on the activation's FIFO
// until every write end is closed, which happens when the session and all
// its subprocesses have exited, then retires the registry entry.
func Watch(ctx context.Context, registry ports.ActivationRegistry, logger ports.Logger, fifoPath, envID, activationID string) error {
	// Opening the read end blocks until the session holds the write end.
	fifo, err := os.OpenFile(fifoPath, os.O_RDONLY, 0) //nolint:gosec // path comes from our own activation record
	if err != nil {
		return zerr.Wrap(err, "failed to open liveness fifo")
	}

	_, err = io.Copy(io.Discard, fifo)
	_ = fifo.Close()
	if err != nil {
		logger.Warn("liveness fifo read failed: " + err.Error())
	}

	logger.Info("session ended, retiring activation " + activationID)
	if err := registry.Deregister(ctx, envID, activationID); err != nil {
		return err
	}
	_ = os.Remove(fifoPath)
	return nil
}
