package fslock

import (
	"context"

	"github.com/grindlemire/graft"

	"go.trai.ch/grove/internal/core/ports"
)

const NodeID graft.ID = "adapter.fslock"

func init() {
	graft.Register(graft.Node[ports.Locker]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.Locker, error) {
			return New(), nil
		},
	})
}
