// Package refs provides the value type describing a single git reference
// (tag, branch, or bare commit) with ordering, validity, and serialization.
package refs

import (
	"fmt"
	"sort"
	"strings"
)

// Type classifies a reference. Derived from the Item flags, never stored.
type Type string

// Reference classifications.
const (
	TypeTag     Type = "tag"
	TypeBranch  Type = "branch"
	TypeCommit  Type = "commit"
	TypeUnknown Type = "unknown"
)

const shortCommitLen = 7

// Item identifies one git reference. The zero value is invalid.
//
// Items are values: callers express changes as copies with overridden
// fields, never by mutating shared state.
type Item struct {
	Name      string
	Commit    string
	IsTag     bool
	IsBranch  bool
	IsCurrent bool
}

// Key identifies an Item for map/set deduplication. Only Name and Commit
// participate; flags do not affect identity.
type Key struct {
	Name   string
	Commit string
}

// Key returns the identity key for the item.
func (i Item) Key() Key {
	return Key{Name: i.Name, Commit: i.Commit}
}

// Equal reports whether two items refer to the same (name, commit) pair,
// independent of flags.
func (i Item) Equal(other Item) bool {
	return i.Name == other.Name && i.Commit == other.Commit
}

// Valid reports whether the item carries at least a name or a commit.
func (i Item) Valid() bool {
	return i.Name != "" || i.Commit != ""
}

// CommitOnly reports whether the item represents a commit without a named ref.
func (i Item) CommitOnly() bool {
	if i.Commit == "" {
		return false
	}
	return i.Name == "" || i.Name == i.Commit || i.Name == ShortCommit(i.Commit)
}

// Type returns the derived classification for the item.
func (i Item) Type() Type {
	switch {
	case i.IsTag:
		return TypeTag
	case i.IsBranch:
		return TypeBranch
	case i.CommitOnly():
		return TypeCommit
	default:
		return TypeUnknown
	}
}

// Less orders items tags-first, then lexically by name within the same kind.
func (i Item) Less(other Item) bool {
	if i.IsTag != other.IsTag {
		return i.IsTag
	}
	return i.Name < other.Name
}

// String renders the item for display, e.g. "v1.2.0 @abc1234".
func (i Item) String() string {
	short := ShortCommit(i.Commit)

	var base string
	switch {
	case i.Name != "" && short != "":
		if i.Name == i.Commit || i.Name == short {
			base = "@" + short
		} else {
			base = fmt.Sprintf("%s @%s", i.Name, short)
		}
	case i.Name != "":
		base = i.Name
	case short != "":
		base = "@" + short
	}

	if i.IsCurrent && base != "" {
		return base + " (current)"
	}
	return base
}

// ShortCommit returns the 7-character prefix of a commit id.
func ShortCommit(commit string) string {
	if len(commit) > shortCommitLen {
		return commit[:shortCommitLen]
	}
	return commit
}

// FromRefName builds an Item from a full or short ref name, detecting the
// reference kind from the refs/ namespace and stripping it for display.
func FromRefName(refName, commit string, current bool) Item {
	if refName == "" {
		return Item{Commit: commit, IsCurrent: current}
	}

	isTag := strings.HasPrefix(refName, "refs/tags/") || !strings.HasPrefix(refName, "refs/")
	isBranch := strings.HasPrefix(refName, "refs/heads/") || strings.HasPrefix(refName, "refs/remotes/")

	name := refName
	switch {
	case strings.HasPrefix(refName, "refs/tags/"):
		name = strings.TrimPrefix(refName, "refs/tags/")
	case strings.HasPrefix(refName, "refs/heads/"):
		name = strings.TrimPrefix(refName, "refs/heads/")
	case strings.HasPrefix(refName, "refs/remotes/origin/"):
		name = strings.TrimPrefix(refName, "refs/remotes/origin/")
	}

	return Item{
		Name:      name,
		Commit:    commit,
		IsTag:     isTag,
		IsBranch:  isBranch,
		IsCurrent: current,
	}
}

// Sort returns a copy of items in deterministic "most preferred first"
// order. With preferTags, tags sort before branches; otherwise branches
// sort before tags. Within the same kind, ordering is lexical by name.
func Sort(items []Item, preferTags bool) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	sort.SliceStable(out, func(a, b int) bool {
		if preferTags {
			return out[a].Less(out[b])
		}
		if out[a].IsBranch != out[b].IsBranch {
			return out[a].IsBranch
		}
		return out[a].Name < out[b].Name
	})
	return out
}
