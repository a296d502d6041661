// Package buildsys hands locked environments to the external builder.
package buildsys

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strings"

	"go.trai.ch/zerr"

	"go.trai.ch/grove/internal/core/domain"
	"go.trai.ch/grove/internal/core/ports"
)

// Builder implements ports.Realizer by invoking the configured builder
// command with the lockfile on stdin. The builder prints a JSON document
// with the realized tree's store path on stdout.
type Builder struct {
	command string
	logger  ports.Logger
}

// New creates a Builder invoking command.
func New(command string, logger ports.Logger) *Builder {
	return &Builder{command: command, logger: logger}
}

var _ ports.Realizer = (*Builder)(nil)

type buildResult struct {
	StorePath string `json:"store_path"`
}

// Realize builds the environment tree for one platform.
func (b *Builder) Realize(ctx context.Context, lockfile *domain.Lockfile, platform string) (string, error) {
	payload, err := lockfile.Encode()
	if err != nil {
		return "", err
	}

	//nolint:gosec // builder command comes from user configuration
	cmd := exec.CommandContext(ctx, b.command, "--platform", platform)
	cmd.Stdin = bytes.NewReader(payload)

	output, err := cmd.Output()
	if err != nil {
		// Diagnostics go into the message: metadata does not surface in
		// Error() and the builder's stderr is the failure.
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr := strings.TrimSpace(string(exitErr.Stderr))
			buildErr := zerr.Wrap(exitErr, domain.ErrBuildFailed.Error()+": "+stderr)
			buildErr = zerr.With(buildErr, "builder", b.command)
			return "", zerr.With(buildErr, "platform", platform)
		}
		buildErr := zerr.Wrap(err, domain.ErrBuildFailed.Error())
		return "", zerr.With(buildErr, "builder", b.command)
	}

	var result buildResult
	if err := json.Unmarshal(output, &result); err != nil {
		parseErr := zerr.Wrap(err, "failed to parse builder output")
		return "", zerr.With(parseErr, "builder", b.command)
	}
	if result.StorePath == "" {
		emptyErr := zerr.Wrap(domain.ErrBuildFailed, "builder reported no store path")
		return "", zerr.With(emptyErr, "builder", b.command)
	}

	b.logger.Info("realized " + platform + " -> " + result.StorePath)
	return result.StorePath, nil
}
