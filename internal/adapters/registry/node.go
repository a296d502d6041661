package registry

import (
	"context"

	"github.com/grindlemire/graft"

	"go.trai.ch/grove/internal/adapters/fslock"
	"go.trai.ch/grove/internal/adapters/logger"
	"go.trai.ch/grove/internal/core/ports"
)

const NodeID graft.ID = "adapter.registry"

func init() {
	graft.Register(graft.Node[ports.ActivationRegistry]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{fslock.NodeID, logger.NodeID},
		Run: func(ctx context.Context) (ports.ActivationRegistry, error) {
			locker, err := graft.Dep[ports.Locker](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			dir, err := DefaultDir()
			if err != nil {
				return nil, err
			}
			return New(dir, locker, log), nil
		},
	})
}
