package ports

import (
	"context"

	"go.trai.ch/grove/internal/core/domain"
)

//go:generate mockgen -source=realizer.go -destination=mocks/mock_realizer.go -package=mocks

// Realizer hands a lockfile to the external build system and returns the
// store path of the realized environment tree for one platform.
type Realizer interface {
	Realize(ctx context.Context, lockfile *domain.Lockfile, platform string) (storePath string, err error)
}
