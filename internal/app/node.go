package app

import (
	"context"

	"github.com/grindlemire/graft"

	"go.trai.ch/grove/internal/adapters/config"
	"go.trai.ch/grove/internal/adapters/fslock"
	"go.trai.ch/grove/internal/adapters/logger"
	"go.trai.ch/grove/internal/adapters/manifeststore"
	"go.trai.ch/grove/internal/adapters/registry"
	"go.trai.ch/grove/internal/adapters/remote"
	"go.trai.ch/grove/internal/core/domain"
	"go.trai.ch/grove/internal/core/ports"
	"go.trai.ch/grove/internal/engine/activate"
	"go.trai.ch/grove/internal/engine/compose"
	"go.trai.ch/grove/internal/engine/lock"
)

const (
	// NodeID is the unique identifier for the main App Graft node.
	NodeID graft.ID = "app.main"

	// ComponentsNodeID is the unique identifier for the App components node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components bundles the App with the pieces the CLI needs directly.
type Components struct {
	App      *App
	Logger   ports.Logger
	Registry ports.ActivationRegistry
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			manifeststore.NodeID,
			compose.NodeID,
			lock.NodeID,
			activate.NodeID,
			remote.NodeID,
			registry.NodeID,
			fslock.NodeID,
			config.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*App, error) {
			store, err := graft.Dep[*manifeststore.Store](ctx)
			if err != nil {
				return nil, err
			}
			composer, err := graft.Dep[*compose.Resolver](ctx)
			if err != nil {
				return nil, err
			}
			engine, err := graft.Dep[*lock.Engine](ctx)
			if err != nil {
				return nil, err
			}
			activator, err := graft.Dep[*activate.Coordinator](ctx)
			if err != nil {
				return nil, err
			}
			hub, err := graft.Dep[ports.RemoteHub](ctx)
			if err != nil {
				return nil, err
			}
			reg, err := graft.Dep[ports.ActivationRegistry](ctx)
			if err != nil {
				return nil, err
			}
			locker, err := graft.Dep[ports.Locker](ctx)
			if err != nil {
				return nil, err
			}
			cfg, err := graft.Dep[*domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return New(store, composer, engine, activator, hub, reg, locker, cfg, log), nil
		},
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			NodeID,
			logger.NodeID,
			registry.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			a, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			reg, err := graft.Dep[ports.ActivationRegistry](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: a, Logger: log, Registry: reg}, nil
		},
	})
}
