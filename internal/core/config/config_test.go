package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	dataDir := t.TempDir()

	cfg, err := Load(filepath.Join(dataDir, "nope.yaml"), dataDir)
	require.NoError(t, err)

	assert.Equal(t, "git", cfg.GitPath)
	assert.Equal(t, filepath.Join(dataDir, "registry.yaml"), cfg.Registry)
	assert.Equal(t, filepath.Join(dataDir, "plugins"), cfg.PluginsDir)
	assert.Equal(t, 3600, cfg.Cache.TTLSeconds)
	assert.Equal(t, time.Hour, cfg.Cache.TTL())
	assert.Equal(t, filepath.Join(dataDir, "plugin_refs_cache.json"), cfg.CachePath())
}

func TestLoadFromFile(t *testing.T) {
	dataDir := t.TempDir()
	path := filepath.Join(dataDir, "config.yaml")
	content := `
git_path: /usr/local/bin/git
plugins_dir: /opt/plugins
cache:
  ttl_seconds: 600
  filename: refs.json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path, dataDir)
	require.NoError(t, err)

	assert.Equal(t, "/usr/local/bin/git", cfg.GitPath)
	assert.Equal(t, "/opt/plugins", cfg.PluginsDir)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL())
	assert.Equal(t, filepath.Join(dataDir, "refs.json"), cfg.CachePath())

	// Unset fields still default.
	assert.Equal(t, filepath.Join(dataDir, "registry.yaml"), cfg.Registry)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("git_path: [broken"), 0o644))

	_, err := Load(path, t.TempDir())
	require.Error(t, err)
}

func TestLoadNonPositiveTTLDefaults(t *testing.T) {
	dataDir := t.TempDir()
	path := filepath.Join(dataDir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  ttl_seconds: -5\n"), 0o644))

	cfg, err := Load(path, dataDir)
	require.NoError(t, err)
	assert.Equal(t, 3600, cfg.Cache.TTLSeconds)
}
