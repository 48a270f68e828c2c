package manager

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RegistryPlugin is one plugin entry as published by the registry.
type RegistryPlugin struct {
	UUID             string   `yaml:"uuid"`
	Name             string   `yaml:"name"`
	GitURL           string   `yaml:"git_url"`
	VersioningScheme string   `yaml:"versioning_scheme"`
	Refs             []string `yaml:"refs"`
}

// Registry is the collaborator listing known plugins. Trust levels and
// manifest validation live behind it, not in this engine.
type Registry interface {
	ListPlugins() []RegistryPlugin
	// CachePath locates the directory used for cache files. Empty means
	// fall back to the platform cache directory.
	CachePath() string
}

// FileRegistry reads plugin entries from a YAML file.
type FileRegistry struct {
	plugins   []RegistryPlugin
	cachePath string
}

// LoadRegistry parses the registry file at path. A missing file yields an
// empty registry, not an error.
func LoadRegistry(path, cachePath string) (*FileRegistry, error) {
	reg := &FileRegistry{cachePath: cachePath}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return reg, nil
		}
		return nil, fmt.Errorf("read registry %s: %w", path, err)
	}

	var doc struct {
		Plugins []RegistryPlugin `yaml:"plugins"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	reg.plugins = doc.Plugins
	return reg, nil
}

// ListPlugins returns all registry entries.
func (r *FileRegistry) ListPlugins() []RegistryPlugin { return r.plugins }

// CachePath returns the directory used for cache files.
func (r *FileRegistry) CachePath() string { return r.cachePath }
