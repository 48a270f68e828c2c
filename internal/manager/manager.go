// Package manager installs, updates, and pins plugins distributed as git
// repositories, persisting ref decisions through the refs cache.
package manager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/colonyops/pluggit/internal/core/config"
	"github.com/colonyops/pluggit/internal/core/git"
	"github.com/colonyops/pluggit/internal/core/giturl"
	"github.com/colonyops/pluggit/internal/core/logging"
	"github.com/colonyops/pluggit/internal/core/refs"
	"github.com/colonyops/pluggit/internal/core/version"
	"github.com/colonyops/pluggit/internal/refscache"
	"github.com/colonyops/pluggit/internal/resolve"
)

// Manager owns the installed plugin set and the collaborators needed to
// mutate it. All operations are synchronous; see Async for the
// non-blocking facade.
type Manager struct {
	cfg      config.Config
	registry Registry
	cache    *refscache.Cache
	backend  git.Backend
	urls     *giturl.Classifier
	log      zerolog.Logger

	plugins []*Plugin
}

// New creates a Manager. Call LoadPlugins before using lookup operations.
func New(cfg config.Config, registry Registry, cache *refscache.Cache, backend git.Backend) *Manager {
	return &Manager{
		cfg:      cfg,
		registry: registry,
		cache:    cache,
		backend:  backend,
		urls:     giturl.NewClassifier(),
		log:      logging.Component("manager"),
	}
}

// LoadPlugins scans the plugins directory for installed plugins.
// Directories without readable metadata are skipped with a warning.
func (m *Manager) LoadPlugins() error {
	m.plugins = nil

	entries, err := os.ReadDir(m.cfg.PluginsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read plugins dir: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(m.cfg.PluginsDir, entry.Name())
		meta, err := loadMetadata(dir)
		if err != nil {
			m.log.Warn().Err(err).Str("dir", dir).Msg("skipping plugin with unreadable metadata")
			continue
		}
		m.plugins = append(m.plugins, pluginFromMetadata(dir, meta))
	}
	return nil
}

// Plugins returns the installed plugin set.
func (m *Manager) Plugins() []*Plugin { return m.plugins }

// FindPlugin looks up a plugin by id, UUID, or source URL.
func (m *Manager) FindPlugin(identifier string) (*Plugin, bool) {
	norm := m.urls.Normalize(identifier)
	for _, p := range m.plugins {
		if p.ID == identifier || p.UUID == identifier || m.urls.Normalize(p.URL) == norm {
			return p, true
		}
	}
	return nil, false
}

// EnablePlugin marks a plugin enabled and persists the change.
func (m *Manager) EnablePlugin(p *Plugin) error {
	p.Enabled = true
	return saveMetadata(p.LocalPath, p.metadata())
}

// DisablePlugin marks a plugin disabled and persists the change.
func (m *Manager) DisablePlugin(p *Plugin) error {
	p.Enabled = false
	return saveMetadata(p.LocalPath, p.metadata())
}

// registryPlugin finds the registry entry for a source URL, matching on
// normalized form.
func (m *Manager) registryPlugin(url string) (RegistryPlugin, bool) {
	norm := m.urls.Normalize(url)
	for _, rp := range m.registry.ListPlugins() {
		if m.urls.Normalize(rp.GitURL) == norm {
			return rp, true
		}
	}
	return RegistryPlugin{}, false
}

// VersionTags returns the scheme-filtered, newest-first tag list for url,
// served from cache when fresh. On a network failure an expired cache
// entry is returned as a fallback if one exists.
func (m *Manager) VersionTags(ctx context.Context, url, scheme string) ([]string, error) {
	norm := m.urls.Normalize(url)

	if tags, ok := m.cache.GetCachedTags(norm, scheme, false); ok {
		return tags, nil
	}

	// Local checkouts refresh the cache without touching the network.
	if path, ok := m.urls.LocalRepositoryPath(url); ok {
		if tags := m.cache.UpdateFromLocalRepo(ctx, m.backend, path, norm, scheme); len(tags) > 0 {
			return tags, nil
		}
	}

	pattern, err := version.CompileScheme(scheme)
	if err != nil {
		return nil, err
	}

	heads, err := m.backend.FetchRemoteRefs(ctx, url)
	if err != nil {
		if tags, ok := m.cache.GetCachedTags(norm, scheme, true); ok {
			m.log.Debug().Str("url", url).Msg("network unavailable, serving expired tag cache")
			return tags, nil
		}
		return nil, fmt.Errorf("fetch refs for %s: %w", url, err)
	}

	names := make([]version.RefName, len(heads))
	for i, h := range heads {
		names[i] = h
	}
	tags := version.SortTags(version.FilterTags(names, pattern), scheme)
	m.cache.CacheTags(norm, scheme, tags)
	return tags, nil
}

// ValidateRef checks that name exists for the repository at url. For
// registry plugins with a versioning scheme, names matching the scheme
// are validated against the version tag list; plugins with an explicit
// refs list are validated against it. Otherwise the remote listing
// decides; an unreachable remote validates optimistically and lets git
// fail later.
func (m *Manager) ValidateRef(ctx context.Context, url, name string) error {
	rp, inRegistry := m.registryPlugin(url)

	if inRegistry && rp.VersioningScheme != "" {
		if pattern, err := version.CompileScheme(rp.VersioningScheme); err == nil && pattern.MatchString(name) {
			tags, err := m.VersionTags(ctx, url, rp.VersioningScheme)
			if err != nil {
				return err
			}
			for _, tag := range tags {
				if tag == name {
					return nil
				}
			}
			return fmt.Errorf("%w: %q", ErrRefNotFound, name)
		}
	}

	if inRegistry && len(rp.Refs) > 0 {
		for _, known := range rp.Refs {
			if known == name {
				return nil
			}
		}
		return fmt.Errorf("%w: %q", ErrRefNotFound, name)
	}

	norm := m.urls.Normalize(url)
	rs, cached := m.cache.GetCachedAllRefs(norm, false)
	if !cached {
		heads, err := m.backend.FetchRemoteRefs(ctx, url)
		if err != nil {
			// Cannot validate offline; let the eventual git operation fail.
			return nil
		}
		rs = refSetFromHeads(heads)
		m.cache.CacheAllRefs(norm, rs)
	}

	if refSetContains(rs, name) {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrRefNotFound, name)
}

// refSetFromHeads splits an advertised ref listing into branches and
// tags, discarding symbolic entries and dereference markers.
func refSetFromHeads(heads []git.RemoteHead) refscache.RefSet {
	var rs refscache.RefSet
	for _, h := range heads {
		name := h.Name()
		switch {
		case strings.HasSuffix(name, "^{}"):
		case strings.HasPrefix(name, "refs/heads/"):
			rs.Branches = append(rs.Branches, refs.FromRefName(name, h.Commit, false))
		case strings.HasPrefix(name, "refs/tags/"):
			rs.Tags = append(rs.Tags, refs.FromRefName(name, h.Commit, false))
		}
	}
	return rs
}

func refSetContains(rs refscache.RefSet, name string) bool {
	for _, item := range rs.Tags {
		if item.Name == name {
			return true
		}
	}
	for _, item := range rs.Branches {
		if item.Name == name {
			return true
		}
	}
	return false
}

// pluginID derives an install id from the registry name or the URL base.
func pluginID(rp RegistryPlugin, inRegistry bool, url string) string {
	if inRegistry && rp.Name != "" {
		return rp.Name
	}
	base := filepath.Base(strings.TrimSuffix(strings.TrimSuffix(url, "/"), ".git"))
	if i := strings.LastIndexByte(base, ':'); i >= 0 {
		base = base[i+1:]
	}
	return base
}

// InstallPlugin clones the plugin at url and checks out ref. With no ref
// given, the newest version tag is chosen when the registry declares a
// versioning scheme; otherwise the remote's default branch is kept.
func (m *Manager) InstallPlugin(ctx context.Context, url string, ref resolve.Param) (*Plugin, error) {
	ctx = logging.WithOperation(ctx, "install")

	rp, inRegistry := m.registryPlugin(url)
	id := pluginID(rp, inRegistry, url)

	if _, exists := m.FindPlugin(id); exists {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyInstalled, id)
	}

	item, hasRef := resolve.NormalizeParam(ref)
	if !hasRef && inRegistry && rp.VersioningScheme != "" {
		tags, err := m.VersionTags(ctx, url, rp.VersioningScheme)
		if err != nil {
			m.log.Warn().Ctx(ctx).Err(err).Str("url", url).Msg("could not list version tags, installing default branch")
		} else if len(tags) > 0 {
			item = refs.Item{Name: tags[0], IsTag: true}
			hasRef = true
		}
	}

	checkout := ""
	if hasRef {
		checkout = item.Name
		if checkout == "" {
			checkout = item.Commit
		}
		if item.Name != "" && !item.CommitOnly() {
			if err := m.ValidateRef(ctx, url, item.Name); err != nil {
				return nil, err
			}
		}
	}

	dest := filepath.Join(m.cfg.PluginsDir, id)
	if err := os.MkdirAll(m.cfg.PluginsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create plugins dir: %w", err)
	}
	if err := m.backend.Clone(ctx, url, dest, checkout); err != nil {
		return nil, err
	}

	repo, err := m.backend.CreateRepository(dest)
	if err != nil {
		return nil, err
	}

	pluginUUID := rp.UUID
	if pluginUUID == "" {
		pluginUUID = uuid.NewString()
	}

	current, err := resolve.FromRepository(ctx, pluginUUID, repo)
	if err != nil {
		return nil, fmt.Errorf("resolve installed ref: %w", err)
	}

	p := &Plugin{
		ID:        id,
		UUID:      pluginUUID,
		URL:       url,
		LocalPath: dest,
		Ref:       current,
		Enabled:   true,
	}
	if err := saveMetadata(dest, p.metadata()); err != nil {
		return nil, err
	}

	m.cache.AddRefItemToCommit(pluginUUID, current.Commit, current)
	m.plugins = append(m.plugins, p)
	m.log.Info().Ctx(ctx).Str("plugin_id", id).Str("ref", current.String()).Msg("installed plugin")
	return p, nil
}

// UninstallPlugin removes the plugin's working tree and forgets it.
func (m *Manager) UninstallPlugin(p *Plugin) error {
	if err := os.RemoveAll(p.LocalPath); err != nil {
		return fmt.Errorf("remove plugin dir: %w", err)
	}
	for i, other := range m.plugins {
		if other == p {
			m.plugins = append(m.plugins[:i], m.plugins[i+1:]...)
			break
		}
	}
	return nil
}

// SwitchRef switches a plugin to a different ref. The working tree must be
// clean. The cached ref-item list for the landed commit is extended with
// the resolved item.
func (m *Manager) SwitchRef(ctx context.Context, p *Plugin, ref resolve.Param) error {
	ctx = logging.WithPluginID(logging.WithOperation(ctx, "switch"), p.ID)

	item, ok := resolve.NormalizeParam(ref)
	if !ok {
		return ErrNoRef
	}
	target := item.Name
	if target == "" {
		target = item.Commit
	}
	if target == "" {
		return ErrNoRef
	}

	repo, err := m.backend.CreateRepository(p.LocalPath)
	if err != nil {
		return err
	}
	dirty, err := repo.IsDirty(ctx)
	if err != nil {
		return err
	}
	if dirty {
		return fmt.Errorf("%w: %s", ErrDirtyWorkingTree, p.ID)
	}

	if err := repo.Fetch(ctx); err != nil {
		m.log.Warn().Ctx(ctx).Err(err).Msg("fetch failed, switching against local refs")
	}
	if err := repo.Checkout(ctx, target); err != nil {
		return err
	}

	current, err := resolve.FromRepository(ctx, p.UUID, repo)
	if err != nil {
		return fmt.Errorf("resolve switched ref: %w", err)
	}

	p.Ref = current
	if err := saveMetadata(p.LocalPath, p.metadata()); err != nil {
		return err
	}
	m.cache.AddRefItemToCommit(p.UUID, current.Commit, current)
	m.log.Info().Ctx(ctx).Str("ref", current.String()).Msg("switched plugin ref")
	return nil
}

// UpdateResult describes one plugin update.
type UpdateResult struct {
	Old refs.Item
	New refs.Item
}

// UpdatePlugin moves a plugin to its latest ref: the newest version tag
// when installed from a tag under a versioning scheme, or the
// fast-forwarded branch head otherwise. Commit-pinned plugins are not
// updated.
func (m *Manager) UpdatePlugin(ctx context.Context, p *Plugin) (UpdateResult, error) {
	ctx = logging.WithPluginID(logging.WithOperation(ctx, "update"), p.ID)

	if p.Ref.Type() == refs.TypeCommit {
		return UpdateResult{}, fmt.Errorf("%w: %s", ErrCommitPinned, p.ID)
	}

	repo, err := m.backend.CreateRepository(p.LocalPath)
	if err != nil {
		return UpdateResult{}, err
	}
	dirty, err := repo.IsDirty(ctx)
	if err != nil {
		return UpdateResult{}, err
	}
	if dirty {
		return UpdateResult{}, fmt.Errorf("%w: %s", ErrDirtyWorkingTree, p.ID)
	}

	if err := repo.Fetch(ctx); err != nil {
		return UpdateResult{}, err
	}

	old := p.Ref
	rp, inRegistry := m.registryPlugin(p.URL)

	switch {
	case old.IsTag && inRegistry && rp.VersioningScheme != "":
		tags, err := m.VersionTags(ctx, p.URL, rp.VersioningScheme)
		if err != nil {
			return UpdateResult{}, err
		}
		if len(tags) > 0 && tags[0] != old.Name {
			if err := repo.Checkout(ctx, tags[0]); err != nil {
				return UpdateResult{}, err
			}
			m.log.Info().Ctx(ctx).Str("from", old.Name).Str("to", tags[0]).Msg("found newer version")
		}
	case old.IsBranch:
		if err := repo.Pull(ctx); err != nil {
			return UpdateResult{}, err
		}
	default:
		// Tag installation without versioning support stays put.
		m.log.Debug().Ctx(ctx).Msg("no versioning scheme, skipping tag-based update")
	}

	current, err := resolve.FromRepository(ctx, p.UUID, repo)
	if err != nil {
		return UpdateResult{}, fmt.Errorf("resolve updated ref: %w", err)
	}

	p.Ref = current
	if err := saveMetadata(p.LocalPath, p.metadata()); err != nil {
		return UpdateResult{}, err
	}
	m.cache.AddRefItemToCommit(p.UUID, current.Commit, current)
	m.cache.CacheUpdateStatus(p.ID, false, current.Name)
	return UpdateResult{Old: old, New: current}, nil
}

// UpdateCheck reports an available update for one plugin.
type UpdateCheck struct {
	PluginID  string
	OldRef    string
	NewRef    string
	OldCommit string
	NewCommit string
}

// CheckUpdates reports which plugins have updates available without
// installing anything. Verdicts are cached per plugin and invalidated
// when the plugin's current ref changes; the whole pass is batched into a
// single cache flush.
func (m *Manager) CheckUpdates(ctx context.Context) map[string]UpdateCheck {
	ctx = logging.WithOperation(ctx, "check-updates")

	m.cache.BeginBatch()
	defer m.cache.EndBatch()

	updates := make(map[string]UpdateCheck)
	for _, p := range m.plugins {
		if p.Ref.Type() == refs.TypeCommit {
			m.log.Debug().Ctx(ctx).Str("plugin_id", p.ID).Msg("pinned to commit, skipping update check")
			continue
		}

		if hasUpdate, ok := m.cache.GetCachedUpdateStatus(p.ID, p.Ref.Name, 0); ok {
			if hasUpdate {
				updates[p.ID] = UpdateCheck{PluginID: p.ID, OldRef: p.Ref.Name, OldCommit: p.Ref.Commit}
			}
			continue
		}

		check, hasUpdate := m.checkSinglePlugin(ctx, p)
		m.cache.CacheUpdateStatus(p.ID, hasUpdate, p.Ref.Name)
		if hasUpdate {
			updates[p.ID] = check
		}
	}
	return updates
}

func (m *Manager) checkSinglePlugin(ctx context.Context, p *Plugin) (UpdateCheck, bool) {
	check := UpdateCheck{PluginID: p.ID, OldRef: p.Ref.Name, OldCommit: p.Ref.Commit}

	repo, err := m.backend.CreateRepository(p.LocalPath)
	if err != nil {
		m.log.Warn().Ctx(ctx).Err(err).Str("plugin_id", p.ID).Msg("failed to open plugin repo for update check")
		return check, false
	}
	if err := repo.Fetch(ctx); err != nil {
		m.log.Debug().Ctx(ctx).Err(err).Str("plugin_id", p.ID).Msg("fetch failed during update check")
	}

	rp, inRegistry := m.registryPlugin(p.URL)

	if p.Ref.IsTag && inRegistry && rp.VersioningScheme != "" {
		tags, err := m.VersionTags(ctx, p.URL, rp.VersioningScheme)
		if err != nil || len(tags) == 0 {
			return check, false
		}
		if tags[0] == p.Ref.Name {
			return check, false
		}
		check.NewRef = tags[0]
		if commit, err := repo.RevParse(ctx, tags[0]); err == nil {
			check.NewCommit = commit
		}
		return check, true
	}

	if p.Ref.IsBranch {
		latest, err := repo.RevParse(ctx, "origin/"+p.Ref.Name)
		if err != nil {
			m.log.Debug().Ctx(ctx).Err(err).Str("plugin_id", p.ID).Msg("failed to resolve remote branch")
			return check, false
		}
		head, err := repo.HeadTarget(ctx)
		if err != nil || head == latest {
			return check, false
		}
		check.NewRef = p.Ref.Name
		check.NewCommit = latest
		check.OldCommit = head
		return check, true
	}

	return check, false
}
