package ports

import "go.trai.ch/grove/internal/core/domain"

// ConfigLoader loads the user-level grove configuration, falling back to
// defaults when no config file exists.
type ConfigLoader interface {
	Load() (*domain.Config, error)
}
