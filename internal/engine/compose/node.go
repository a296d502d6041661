package compose

import (
	"context"

	"github.com/grindlemire/graft"

	"go.trai.ch/grove/internal/adapters/logger"
	"go.trai.ch/grove/internal/adapters/manifeststore"
	"go.trai.ch/grove/internal/adapters/remote"
	"go.trai.ch/grove/internal/core/ports"
)

// NodeID is the unique identifier for the composition resolver Graft node.
const NodeID graft.ID = "engine.compose"

func init() {
	graft.Register(graft.Node[*Resolver]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			manifeststore.ReaderNodeID,
			remote.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Resolver, error) {
			envs, err := graft.Dep[ports.EnvironmentReader](ctx)
			if err != nil {
				return nil, err
			}
			hub, err := graft.Dep[ports.RemoteHub](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewResolver(envs, hub, log), nil
		},
	})
}
