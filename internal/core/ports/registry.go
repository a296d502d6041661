package ports

import (
	"context"

	"go.trai.ch/grove/internal/core/domain"
)

// ActivationRegistry tracks live activations per environment on this host.
// Implementations serialize mutations under the registry lock, which is
// distinct from the environment mutation lock.
type ActivationRegistry interface {
	// Register records a new activation.
	Register(ctx context.Context, activation domain.Activation) error

	// Deregister removes an activation. Removing an absent entry is not an
	// error; the watchdog and a stale sweep may race benignly.
	Deregister(ctx context.Context, envID, activationID string) error

	// List returns the live activations for an environment, sweeping
	// entries whose watchdog is gone.
	List(ctx context.Context, envID string) ([]domain.Activation, error)
}
