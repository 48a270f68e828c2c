package manager

import (
	"context"

	"github.com/colonyops/pluggit/internal/resolve"
)

// Async is a thin facade over Manager for callers that must not block on
// network or disk for long, such as an interactive UI loop.
//
// The contract is documentation, not a scheduler: calls delegate
// synchronously, the underlying operations are expected to be fast or
// already cached, and any real process latency belongs to the git
// backend. Each call is one logical operation with one result; a failure
// never leaves the refs cache partially mutated.
type Async struct {
	manager *Manager
}

// NewAsync wraps a Manager in the non-blocking facade.
func NewAsync(manager *Manager) *Async {
	return &Async{manager: manager}
}

// EnablePlugin enables a plugin.
func (a *Async) EnablePlugin(p *Plugin) error {
	return a.manager.EnablePlugin(p)
}

// DisablePlugin disables a plugin.
func (a *Async) DisablePlugin(p *Plugin) error {
	return a.manager.DisablePlugin(p)
}

// FindPlugin looks up a plugin by id, UUID, or URL.
func (a *Async) FindPlugin(identifier string) (*Plugin, bool) {
	return a.manager.FindPlugin(identifier)
}

// InstallPlugin installs a plugin from url at an optional ref.
func (a *Async) InstallPlugin(ctx context.Context, url string, ref resolve.Param) (*Plugin, error) {
	return a.manager.InstallPlugin(ctx, url, ref)
}

// SwitchRef switches a plugin to a different ref.
func (a *Async) SwitchRef(ctx context.Context, p *Plugin, ref resolve.Param) error {
	return a.manager.SwitchRef(ctx, p, ref)
}

// UpdatePlugin updates a plugin to its latest ref.
func (a *Async) UpdatePlugin(ctx context.Context, p *Plugin) (UpdateResult, error) {
	return a.manager.UpdatePlugin(ctx, p)
}
