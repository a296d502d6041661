package activate

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"go.trai.ch/zerr"

	"go.trai.ch/grove/internal/core/domain"
)

// ExecSpawner starts the watchdog by re-executing the grove binary with the
// hidden watchdog command in its own session, so it outlives the activating
// process.
type ExecSpawner struct {
	executablePath string
}

// NewExecSpawner creates a spawner for the current executable.
func NewExecSpawner() (*ExecSpawner, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to determine executable path")
	}
	return &ExecSpawner{executablePath: exe}, nil
}

var _ WatchdogSpawner = (*ExecSpawner)(nil)

// Spawn starts the watchdog for activation and returns its pid.
func (s *ExecSpawner) Spawn(_ context.Context, activation domain.Activation) (int, error) {
	logPath := filepath.Join(filepath.Dir(activation.FifoPath), "watchdog-"+activation.ID+".log")
	//nolint:gosec // logPath derives from our own activation record
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, domain.PrivateFilePerm)
	if err != nil {
		return 0, zerr.Wrap(err, "failed to open watchdog log")
	}

	//nolint:gosec // executablePath is our own binary, args are fixed flags
	cmd := exec.Command(s.executablePath, "watchdog",
		"--fifo", activation.FifoPath,
		"--env-id", activation.EnvID,
		"--activation-id", activation.ID,
	)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}

	if err := cmd.Start(); err != nil {
		_ = logFile.Close()
		return 0, zerr.Wrap(err, "failed to spawn watchdog")
	}

	pid := cmd.Process.Pid
	go func() {
		_ = cmd.Wait()
		_ = logFile.Close()
	}()
	return pid, nil
}
