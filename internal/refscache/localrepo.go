package refscache

import (
	"context"

	"github.com/colonyops/pluggit/internal/core/git"
	"github.com/colonyops/pluggit/internal/core/version"
)

// UpdateFromLocalRepo refreshes the version-tag cache for url from a local
// repository instead of the network. Returns the filtered, sorted tags; an
// unusable scheme or unreadable repository yields an empty list, never an
// error, since the worst outcome is a cache miss.
func (c *Cache) UpdateFromLocalRepo(ctx context.Context, backend git.Backend, repoPath, url, scheme string) []string {
	pattern, err := version.CompileScheme(scheme)
	if err != nil {
		c.log.Warn().Err(err).Str("scheme", scheme).Msg("cannot update cache from local repo")
		return nil
	}

	repo, err := backend.CreateRepository(repoPath)
	if err != nil {
		c.log.Debug().Err(err).Str("path", repoPath).Msg("failed to open local repo for cache update")
		return nil
	}
	heads, err := repo.References(ctx)
	if err != nil {
		c.log.Debug().Err(err).Str("path", repoPath).Msg("failed to list refs for cache update")
		return nil
	}

	names := make([]version.RefName, len(heads))
	for i, h := range heads {
		names[i] = h
	}
	tags := version.SortTags(version.FilterTags(names, pattern), scheme)

	if len(tags) > 0 {
		c.CacheTags(url, scheme, tags)
		c.log.Debug().Str("url", url).Int("tags", len(tags)).Msg("updated cache from local repo")
	}
	return tags
}
