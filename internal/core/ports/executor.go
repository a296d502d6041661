package ports

import (
	"context"
	"os"
)

// RunOptions configures a command run by the Executor.
type RunOptions struct {
	// Dir is the working directory.
	Dir string

	// Env is the complete environment for the command.
	Env []string

	// Interactive wires the command to the invoking terminal instead of
	// the logger.
	Interactive bool

	// ExtraFiles are inherited by the command after stderr (fd 3+).
	ExtraFiles []*os.File
}

// Executor runs shell commands: activation hooks and the session shell.
type Executor interface {
	Run(ctx context.Context, argv []string, opts RunOptions) error
}
