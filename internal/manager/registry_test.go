package manager

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.yaml")
	content := `
plugins:
  - uuid: uuid-1
    name: fancy
    git_url: https://github.com/user/fancy.git
    versioning_scheme: semver
  - uuid: uuid-2
    name: pinned
    git_url: https://github.com/user/pinned.git
    refs:
      - stable
      - edge
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	reg, err := LoadRegistry(path, "/cache")
	require.NoError(t, err)

	plugins := reg.ListPlugins()
	require.Len(t, plugins, 2)
	assert.Equal(t, "fancy", plugins[0].Name)
	assert.Equal(t, "semver", plugins[0].VersioningScheme)
	assert.Equal(t, []string{"stable", "edge"}, plugins[1].Refs)
	assert.Equal(t, "/cache", reg.CachePath())
}

func TestLoadRegistryMissingFile(t *testing.T) {
	reg, err := LoadRegistry(filepath.Join(t.TempDir(), "nope.yaml"), "")
	require.NoError(t, err)
	assert.Empty(t, reg.ListPlugins())
}

func TestLoadRegistryInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.yaml")
	require.NoError(t, os.WriteFile(path, []byte("plugins: [broken"), 0o644))

	_, err := LoadRegistry(path, "")
	require.Error(t, err)
}
