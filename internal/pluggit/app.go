// Package pluggit wires the engine's components into one application.
package pluggit

import (
	"github.com/colonyops/pluggit/internal/core/config"
	"github.com/colonyops/pluggit/internal/manager"
	"github.com/colonyops/pluggit/internal/refscache"
)

// App aggregates the services commands operate on.
type App struct {
	Config   config.Config
	Registry manager.Registry
	Cache    *refscache.Cache
	Manager  *manager.Manager
	Async    *manager.Async
}

// NewApp assembles an App from its parts.
func NewApp(cfg config.Config, registry manager.Registry, cache *refscache.Cache, mgr *manager.Manager) *App {
	return &App{
		Config:   cfg,
		Registry: registry,
		Cache:    cache,
		Manager:  mgr,
		Async:    manager.NewAsync(mgr),
	}
}
