// Package config handles configuration loading and validation for pluggit.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	// GitPath is the git binary used by the process-backed backend.
	GitPath string `yaml:"git_path"`
	// Registry is the path to the plugin registry file. Defaults to
	// <data-dir>/registry.yaml.
	Registry string `yaml:"registry"`
	// PluginsDir is where plugin working trees are cloned. Defaults to
	// <data-dir>/plugins.
	PluginsDir string `yaml:"plugins_dir"`
	Cache      Cache  `yaml:"cache"`
	DataDir    string `yaml:"-"` // set by caller, not from config file
}

// Cache holds refs-cache tuning.
type Cache struct {
	// TTLSeconds is the age after which cached ref data is stale.
	TTLSeconds int `yaml:"ttl_seconds"`
	// Filename of the cache document inside the cache directory.
	Filename string `yaml:"filename"`
}

// TTL returns the cache TTL as a duration.
func (c Cache) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		GitPath: "git",
		Cache: Cache{
			TTLSeconds: 3600,
			Filename:   "plugin_refs_cache.json",
		},
	}
}

// Load reads the config file at path, filling unset fields with defaults.
// A missing file is not an error; defaults apply.
func Load(path, dataDir string) (Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.Registry == "" {
		cfg.Registry = filepath.Join(dataDir, "registry.yaml")
	}
	if cfg.PluginsDir == "" {
		cfg.PluginsDir = filepath.Join(dataDir, "plugins")
	}
	if cfg.Cache.TTLSeconds <= 0 {
		cfg.Cache.TTLSeconds = 3600
	}
	if cfg.Cache.Filename == "" {
		cfg.Cache.Filename = "plugin_refs_cache.json"
	}

	return cfg, nil
}

// CachePath returns the full path of the refs cache file.
func (c Config) CachePath() string {
	return filepath.Join(c.DataDir, c.Cache.Filename)
}
