package ports

import (
	"context"
	"time"
)

//go:generate mockgen -source=remote.go -destination=mocks/mock_remote.go -package=mocks

// Generation is one immutable snapshot of a remote environment's state.
// Generations are append-only; pushing never rewrites an existing one.
type Generation struct {
	Number    int
	Manifest  []byte
	Lockfile  []byte
	CreatedAt time.Time
}

// RemoteHub is the environment hosting service.
type RemoteHub interface {
	// Pull fetches a generation of owner/name. Generation 0 means latest.
	Pull(ctx context.Context, owner, name string, generation int) (Generation, error)

	// Push uploads a new generation whose parent is gen.Number. The hub
	// rejects the push when the remote head has advanced past the parent,
	// unless force is set. Returns the new generation number.
	Push(ctx context.Context, owner, name string, gen Generation, force bool) (int, error)
}
