package version

import (
	"regexp"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog/log"

	"github.com/colonyops/pluggit/internal/core/refs"
)

// SortTags orders tags newest first according to the versioning scheme.
// Comparison happens on names with any non-digit prefix stripped; the
// returned names are the originals.
func SortTags(tags []string, scheme string) []string {
	out := make([]string, len(tags))
	copy(out, tags)

	switch {
	case scheme == SchemeSemver:
		sortSemver(out)
	case scheme == SchemeCalver:
		sortLexicalDesc(out)
	default:
		sortCustom(out)
	}
	return out
}

// sortSemver sorts by parsed version, newest first. If any tag fails to
// parse the whole set falls back to lexical-descending order on the
// stripped names, matching the all-or-nothing contract of the scheme.
func sortSemver(tags []string) {
	parsed := make(map[string]*semver.Version, len(tags))
	for _, tag := range tags {
		v, err := parse(stripPrefix(tag))
		if err != nil {
			log.Warn().Str("tag", tag).Err(err).Msg("failed to parse semver tag, falling back to lexical sort")
			sortLexicalDesc(tags)
			return
		}
		parsed[tag] = v
	}
	sort.SliceStable(tags, func(a, b int) bool {
		return parsed[tags[a]].GreaterThan(parsed[tags[b]])
	})
}

func sortLexicalDesc(tags []string) {
	sort.SliceStable(tags, func(a, b int) bool {
		return stripPrefix(tags[a]) > stripPrefix(tags[b])
	})
}

// sortCustom handles custom regex schemes: MAJOR.MINOR.PATCH-shaped tags
// sort by parsed version; the rest sort by natural order and come first,
// so a descending comparison never interleaves the two groups.
func sortCustom(tags []string) {
	type key struct {
		version *semver.Version
		natural []segment
	}
	keys := make(map[string]key, len(tags))
	for _, tag := range tags {
		stripped := stripPrefix(tag)
		// Only full MAJOR.MINOR.PATCH names count as versions here; the
		// semver parser alone is too lenient (it accepts bare "10").
		if semverPattern.MatchString(tag) {
			if v, err := parse(stripped); err == nil {
				keys[tag] = key{version: v}
				continue
			}
		}
		keys[tag] = key{natural: naturalKey(stripped)}
	}

	sort.SliceStable(tags, func(a, b int) bool {
		ka, kb := keys[tags[a]], keys[tags[b]]
		switch {
		case ka.version != nil && kb.version != nil:
			return ka.version.GreaterThan(kb.version)
		case ka.version == nil && kb.version == nil:
			return compareSegments(ka.natural, kb.natural) > 0
		default:
			return ka.version == nil
		}
	})
}

// SortBySemanticVersion filters items to names that parse as a semantic
// version (allowing a non-digit marker prefix such as "v") and sorts them
// descending. Non-semantic names are dropped from this view entirely.
func SortBySemanticVersion(items []refs.Item) []refs.Item {
	type versioned struct {
		item refs.Item
		v    *semver.Version
	}
	var kept []versioned
	for _, item := range items {
		if item.Name == "" {
			continue
		}
		v, err := parse(stripPrefix(item.Name))
		if err != nil {
			continue
		}
		kept = append(kept, versioned{item: item, v: v})
	}

	sort.SliceStable(kept, func(a, b int) bool {
		return kept[a].v.GreaterThan(kept[b].v)
	})

	out := make([]refs.Item, len(kept))
	for i, k := range kept {
		out[i] = k.item
	}
	return out
}

// segment is one run of a natural sort key: either a numeric run or a
// text run. Numeric runs order before text runs, numerics compare by
// value, so "file2" sorts before "file10".
type segment struct {
	text    bool
	number  string // digits, significant only when !text
	literal string
}

var digitRun = regexp.MustCompile(`\d+`)

func naturalKey(s string) []segment {
	var segs []segment
	rest := s
	for rest != "" {
		loc := digitRun.FindStringIndex(rest)
		if loc == nil {
			segs = append(segs, segment{text: true, literal: rest})
			break
		}
		if loc[0] > 0 {
			segs = append(segs, segment{text: true, literal: rest[:loc[0]]})
		}
		segs = append(segs, segment{number: rest[loc[0]:loc[1]]})
		rest = rest[loc[1]:]
	}
	return segs
}

func compareSegments(a, b []segment) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := compareSegment(a[i], b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

func compareSegment(a, b segment) int {
	if a.text != b.text {
		// Numeric segments order before text segments.
		if !a.text {
			return -1
		}
		return 1
	}
	if a.text {
		return strings.Compare(a.literal, b.literal)
	}
	return compareNumeric(a.number, b.number)
}

// compareNumeric compares two digit runs by value without parsing, so
// arbitrarily long runs cannot overflow.
func compareNumeric(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
