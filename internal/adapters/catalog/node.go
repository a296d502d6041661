package catalog

import (
	"context"
	"os"
	"path/filepath"

	"github.com/grindlemire/graft"

	"go.trai.ch/grove/internal/adapters/config"
	"go.trai.ch/grove/internal/adapters/logger"
	"go.trai.ch/grove/internal/core/domain"
	"go.trai.ch/grove/internal/core/ports"
)

const NodeID graft.ID = "adapter.catalog"

func init() {
	graft.Register(graft.Node[ports.CatalogClient]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID, logger.NodeID},
		Run: func(ctx context.Context) (ports.CatalogClient, error) {
			cfg, err := graft.Dep[*domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			// The client works without the cache; a broken cache dir only
			// costs repeat catalog round trips.
			var cache *Cache
			if dir, err := os.UserCacheDir(); err == nil {
				cacheDir := filepath.Join(dir, "grove")
				if err := os.MkdirAll(cacheDir, domain.DirPerm); err == nil {
					cache, err = OpenCache(filepath.Join(cacheDir, "resolve.db"))
					if err != nil {
						log.Warn("resolution cache unavailable: " + err.Error())
					}
				}
			}

			return New(cfg.CatalogURL, cfg.HTTPTimeout, cache, log), nil
		},
	})
}
