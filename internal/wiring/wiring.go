// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/grove/internal/adapters/buildsys"
	_ "go.trai.ch/grove/internal/adapters/catalog"
	_ "go.trai.ch/grove/internal/adapters/config"
	_ "go.trai.ch/grove/internal/adapters/fslock"
	_ "go.trai.ch/grove/internal/adapters/logger"
	_ "go.trai.ch/grove/internal/adapters/manifeststore"
	_ "go.trai.ch/grove/internal/adapters/registry"
	_ "go.trai.ch/grove/internal/adapters/remote"
	_ "go.trai.ch/grove/internal/adapters/shell"
	_ "go.trai.ch/grove/internal/adapters/telemetry"
	// Register app and engine nodes.
	_ "go.trai.ch/grove/internal/app"
	_ "go.trai.ch/grove/internal/engine/activate"
	_ "go.trai.ch/grove/internal/engine/compose"
	_ "go.trai.ch/grove/internal/engine/lock"
)
