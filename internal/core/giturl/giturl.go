// Package giturl normalizes and classifies plugin source strings as remote
// git URLs or local filesystem paths.
//
// Git accepts several URL shapes: scheme://host/path, scp-like
// user@host:path, and plain local paths (absolute, relative, or ~-prefixed).
// Windows drive letters look deceptively like scp hosts, so classification
// handles them explicitly.
package giturl

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	homedir "github.com/mitchellh/go-homedir"
)

const (
	filePrefix    = "file://"
	normCacheSize = 256
)

// Classifier normalizes and classifies git source strings. Normalization
// is a pure function of its input and is memoized through a bounded LRU.
type Classifier struct {
	norm *lru.Cache[string, string]
	goos string
}

// NewClassifier returns a Classifier for the current platform.
func NewClassifier() *Classifier {
	// Size is fixed and tiny; lru.New only errors on size <= 0.
	cache, _ := lru.New[string, string](normCacheSize)
	return &Classifier{norm: cache, goos: runtime.GOOS}
}

// Normalize expands local paths to absolute form for comparison. Empty
// input passes through unchanged, as do URLs with a non-file scheme.
func (c *Classifier) Normalize(url string) string {
	if url == "" {
		return url
	}
	if cached, ok := c.norm.Get(url); ok {
		return cached
	}

	normalized := url
	if strings.Contains(url, "://") {
		if strings.HasPrefix(url, filePrefix) {
			normalized = absolutize(strings.TrimPrefix(url, filePrefix))
		}
	} else {
		normalized = absolutize(url)
	}

	c.norm.Add(url, normalized)
	return normalized
}

// IsLocal reports whether url refers to the local filesystem rather than a
// remote repository.
func (c *Classifier) IsLocal(url string) bool {
	if url == "" {
		return false
	}

	if strings.Contains(url, "://") {
		return strings.HasPrefix(url, filePrefix)
	}

	// Explicit relative or home-relative prefixes are always local, even
	// when a colon appears later in the path.
	if strings.HasPrefix(url, "./") || strings.HasPrefix(url, "../") || strings.HasPrefix(url, "~/") {
		return true
	}

	// Windows drive letters: "C:/x" and "C:\x" are paths on every
	// platform; a bare "C:" or "C:x" is a path only on a Windows host
	// (elsewhere it is indistinguishable from an scp host named "C").
	if len(url) >= 2 && isLetter(url[0]) && url[1] == ':' {
		if len(url) >= 3 && (url[2] == '/' || url[2] == '\\') {
			return true
		}
		return c.goos == "windows"
	}

	// scp-like syntax: [user@]host:path. A colon with content after it
	// and no path separator before it names a remote host.
	if i := strings.IndexByte(url, ':'); i > 0 && i < len(url)-1 && !strings.ContainsAny(url[:i], `/\`) {
		return false
	}

	return true
}

// LocalRepositoryPath resolves url to a local path and returns it only if
// it is a directory containing a .git entry.
func (c *Classifier) LocalRepositoryPath(url string) (string, bool) {
	if !c.IsLocal(url) {
		return "", false
	}

	path := absolutize(strings.TrimPrefix(url, filePrefix))
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return "", false
	}
	if _, err := os.Stat(filepath.Join(path, ".git")); err != nil {
		return "", false
	}
	return path, true
}

func absolutize(path string) string {
	expanded, err := homedir.Expand(path)
	if err != nil {
		expanded = path
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return expanded
	}
	return abs
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
