package activate

import (
	"context"

	"github.com/grindlemire/graft"

	"go.trai.ch/grove/internal/adapters/buildsys"
	"go.trai.ch/grove/internal/adapters/logger"
	"go.trai.ch/grove/internal/adapters/registry"
	"go.trai.ch/grove/internal/adapters/shell"
	"go.trai.ch/grove/internal/adapters/telemetry"
	"go.trai.ch/grove/internal/core/ports"
)

// NodeID is the unique identifier for the activation coordinator node.
const NodeID graft.ID = "engine.activate"

func init() {
	graft.Register(graft.Node[*Coordinator]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			buildsys.NodeID,
			registry.NodeID,
			shell.NodeID,
			logger.NodeID,
			telemetry.NodeID,
		},
		Run: func(ctx context.Context) (*Coordinator, error) {
			realizer, err := graft.Dep[ports.Realizer](ctx)
			if err != nil {
				return nil, err
			}
			reg, err := graft.Dep[ports.ActivationRegistry](ctx)
			if err != nil {
				return nil, err
			}
			executor, err := graft.Dep[ports.Executor](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}
			spawner, err := NewExecSpawner()
			if err != nil {
				return nil, err
			}
			return NewCoordinator(realizer, reg, executor, spawner, tracer, log), nil
		},
	})
}
