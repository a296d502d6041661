package manifeststore

import (
	"context"

	"github.com/grindlemire/graft"

	"go.trai.ch/grove/internal/adapters/logger"
	"go.trai.ch/grove/internal/core/ports"
)

const (
	// NodeID is the unique identifier for the manifest store node.
	NodeID graft.ID = "adapter.manifeststore"

	// ReaderNodeID exposes the store as a ports.EnvironmentReader.
	ReaderNodeID graft.ID = "adapter.manifeststore.reader"
)

func init() {
	graft.Register(graft.Node[*Store]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (*Store, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return New(log), nil
		},
	})

	graft.Register(graft.Node[ports.EnvironmentReader]{
		ID:        ReaderNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{NodeID},
		Run: func(ctx context.Context) (ports.EnvironmentReader, error) {
			return graft.Dep[*Store](ctx)
		},
	})
}
