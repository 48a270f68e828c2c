package giturl

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClassifier(goos string) *Classifier {
	c := NewClassifier()
	c.goos = goos
	return c
}

func TestIsLocal(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://github.com/user/repo.git", false},
		{"http://example.com/repo", false},
		{"ssh://git@host/repo.git", false},
		{"git://host/repo", false},
		{"file:///tmp/repo", true},
		{"git@github.com:user/repo.git", false},
		{"host:path", false},
		{"./relative/dir", true},
		{"../parent/dir", true},
		{"~/home/dir", true},
		{"./dir:with-colon", true},
		{"/absolute/path", true},
		{"plainname", true},
		{"C:/repos/plugin", true},
		{`C:\repos\plugin`, true},
		{"", false},
	}

	c := newTestClassifier("linux")
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsLocal(tt.url), "IsLocal(%q)", tt.url)
		})
	}
}

func TestIsLocalBareDriveLetter(t *testing.T) {
	// "C:repo" is a drive-relative path on Windows and an scp host named
	// "C" everywhere else.
	assert.True(t, newTestClassifier("windows").IsLocal("C:repo"))
	assert.False(t, newTestClassifier("linux").IsLocal("C:repo"))
	assert.False(t, newTestClassifier("darwin").IsLocal("C:repo"))
}

func TestNormalize(t *testing.T) {
	c := newTestClassifier("linux")

	t.Run("remote urls unchanged", func(t *testing.T) {
		assert.Equal(t, "https://github.com/user/repo.git", c.Normalize("https://github.com/user/repo.git"))
		assert.Equal(t, "ssh://git@host/repo", c.Normalize("ssh://git@host/repo"))
	})

	t.Run("empty unchanged", func(t *testing.T) {
		assert.Equal(t, "", c.Normalize(""))
	})

	t.Run("file scheme stripped and absolutized", func(t *testing.T) {
		assert.Equal(t, "/tmp/repo", c.Normalize("file:///tmp/repo"))
	})

	t.Run("absolute path unchanged", func(t *testing.T) {
		assert.Equal(t, "/tmp/repo", c.Normalize("/tmp/repo"))
	})

	t.Run("relative path absolutized", func(t *testing.T) {
		got := c.Normalize("./some/dir")
		assert.True(t, filepath.IsAbs(got), "expected absolute path, got %q", got)
		assert.True(t, strings.HasSuffix(got, filepath.Join("some", "dir")))
	})

	t.Run("equivalent spellings normalize identically", func(t *testing.T) {
		assert.Equal(t, c.Normalize("/tmp/repo"), c.Normalize("file:///tmp/repo"))
	})
}

func TestNormalizeMemoized(t *testing.T) {
	c := newTestClassifier("linux")

	first := c.Normalize("./memo/dir")
	second := c.Normalize("./memo/dir")
	assert.Equal(t, first, second)
	assert.Equal(t, 1, c.norm.Len())
}

func TestLocalRepositoryPath(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing .git", func(t *testing.T) {
		c := newTestClassifier("linux")
		_, ok := c.LocalRepositoryPath(dir)
		assert.False(t, ok)
	})

	t.Run("with .git", func(t *testing.T) {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))

		c := newTestClassifier("linux")
		path, ok := c.LocalRepositoryPath(dir)
		require.True(t, ok)
		assert.Equal(t, dir, path)

		path, ok = c.LocalRepositoryPath("file://" + dir)
		require.True(t, ok)
		assert.Equal(t, dir, path)
	})

	t.Run("remote url", func(t *testing.T) {
		c := newTestClassifier("linux")
		_, ok := c.LocalRepositoryPath("https://github.com/user/repo.git")
		assert.False(t, ok)
	})

	t.Run("nonexistent path", func(t *testing.T) {
		c := newTestClassifier("linux")
		_, ok := c.LocalRepositoryPath(filepath.Join(dir, "does-not-exist"))
		assert.False(t, ok)
	})
}
