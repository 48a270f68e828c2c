// Package resolve chooses the "current" reference for a plugin from a set
// of candidate ref items, cached commit metadata, or live repository state.
//
// The policy: prefer tags over branches, prefer a caller-supplied list of
// known tag names, prefer the highest semantic version, and fall back to
// synthesizing an item from HEAD when nothing better is known.
package resolve

import (
	"context"

	"github.com/colonyops/pluggit/internal/core/git"
	"github.com/colonyops/pluggit/internal/core/logging"
	"github.com/colonyops/pluggit/internal/core/refs"
	"github.com/colonyops/pluggit/internal/core/version"
)

// Param is a caller-supplied reference parameter: an existing ref item, a
// bare name, or nothing. It replaces the loosely-typed "item or string or
// none" arguments found at API boundaries.
type Param interface {
	refItem() (refs.Item, bool)
}

// Name promotes a bare ref name string to a Param.
type Name string

func (n Name) refItem() (refs.Item, bool) {
	if n == "" {
		return refs.Item{}, false
	}
	return refs.Item{Name: string(n)}, true
}

// Item passes an existing ref item through unchanged.
type Item refs.Item

func (i Item) refItem() (refs.Item, bool) {
	return refs.Item(i), true
}

// NormalizeParam resolves a Param to a ref item. A nil Param or an empty
// Name yields no item.
func NormalizeParam(p Param) (refs.Item, bool) {
	if p == nil {
		return refs.Item{}, false
	}
	return p.refItem()
}

// Preference selects one item from a non-empty candidate list.
type Preference func(items []refs.Item) refs.Item

// DefaultPreference returns the highest semantic version if any item name
// parses as one, else the first tag in input order, else the first branch.
func DefaultPreference(items []refs.Item) refs.Item {
	if len(items) == 0 {
		return refs.Item{}
	}

	if versioned := version.SortBySemanticVersion(items); len(versioned) > 0 {
		return versioned[0]
	}
	for _, item := range items {
		if item.IsTag {
			return item
		}
	}
	for _, item := range items {
		if item.IsBranch {
			return item
		}
	}
	return items[0]
}

// PreferKnownTag returns the first item, in input order, whose name
// appears in known; it falls back to DefaultPreference when nothing
// matches.
func PreferKnownTag(items []refs.Item, known []string) refs.Item {
	knownSet := make(map[string]struct{}, len(known))
	for _, name := range known {
		knownSet[name] = struct{}{}
	}
	for _, item := range items {
		if _, ok := knownSet[item.Name]; ok {
			return item
		}
	}
	return DefaultPreference(items)
}

// CommitStore is the slice of the refs cache consulted when resolving
// from a commit id.
type CommitStore interface {
	RefItemsForCommit(pluginUUID, commitID string) []refs.Item
}

// FromCommit resolves the preferred ref item for a commit using cached
// metadata. With no cached items it synthesizes a nameless item carrying
// only the commit id. A nil pref selects DefaultPreference.
func FromCommit(store CommitStore, pluginUUID, commitID string, pref Preference) refs.Item {
	items := store.RefItemsForCommit(pluginUUID, commitID)
	if len(items) == 0 {
		return refs.Item{Commit: commitID}
	}
	if pref == nil {
		pref = DefaultPreference
	}
	return pref(items)
}

// FromRepository resolves the current ref item from live repository state.
//
// Detached HEAD: any tag pointing at the HEAD commit wins (a failure
// listing tags degrades to "no tags found", never propagates); otherwise
// the item is named by the short commit prefix. On a branch, the item is
// named after the branch shorthand.
func FromRepository(ctx context.Context, pluginUUID string, repo git.Repository) (refs.Item, error) {
	log := logging.Component("resolve")

	head, err := repo.HeadTarget(ctx)
	if err != nil {
		return refs.Item{}, err
	}

	detached, err := repo.IsHeadDetached(ctx)
	if err != nil {
		return refs.Item{}, err
	}

	if detached {
		tags, err := repo.TagsAt(ctx, head)
		if err != nil {
			log.Debug().Err(err).Str("uuid", pluginUUID).Msg("failed to resolve tags for detached HEAD")
			tags = nil
		}
		if len(tags) > 0 {
			return refs.Item{Name: tags[0], Commit: head, IsTag: true, IsCurrent: true}, nil
		}
		return refs.Item{Name: refs.ShortCommit(head), Commit: head, IsCurrent: true}, nil
	}

	branch, err := repo.HeadShorthand(ctx)
	if err != nil {
		return refs.Item{}, err
	}
	return refs.Item{Name: branch, Commit: head, IsBranch: true, IsCurrent: true}, nil
}
