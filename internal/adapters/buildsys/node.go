package buildsys

import (
	"context"

	"github.com/grindlemire/graft"

	"go.trai.ch/grove/internal/adapters/config"
	"go.trai.ch/grove/internal/adapters/logger"
	"go.trai.ch/grove/internal/core/domain"
	"go.trai.ch/grove/internal/core/ports"
)

const NodeID graft.ID = "adapter.buildsys"

func init() {
	graft.Register(graft.Node[ports.Realizer]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID, logger.NodeID},
		Run: func(ctx context.Context) (ports.Realizer, error) {
			cfg, err := graft.Dep[*domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return New(cfg.BuilderCommand, log), nil
		},
	})
}
