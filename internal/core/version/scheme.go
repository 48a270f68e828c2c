// Package version compiles versioning scheme descriptors into tag matchers
// and sorts matched tags newest-first.
//
// Three schemes are supported: "semver" (MAJOR.MINOR.PATCH, optionally
// prefixed by non-digits such as "v"), "calver" (zero-padded YYYY.MM.DD),
// and "regex:<pattern>" for caller-supplied patterns.
package version

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Scheme names.
const (
	SchemeSemver = "semver"
	SchemeCalver = "calver"

	regexPrefix = "regex:"
)

// ErrUnknownScheme is returned for scheme strings that are neither a known
// name nor a regex: pattern.
var ErrUnknownScheme = errors.New("unknown versioning scheme")

var (
	semverPattern = regexp.MustCompile(`^\D*\d+\.\d+\.\d+$`)
	calverPattern = regexp.MustCompile(`^\d{4}\.\d{2}\.\d{2}$`)
	firstDigit    = regexp.MustCompile(`\d`)
)

// CompileScheme compiles a versioning scheme descriptor into a tag matcher.
func CompileScheme(scheme string) (*regexp.Regexp, error) {
	switch {
	case scheme == SchemeSemver:
		return semverPattern, nil
	case scheme == SchemeCalver:
		return calverPattern, nil
	case strings.HasPrefix(scheme, regexPrefix):
		pattern, err := regexp.Compile(strings.TrimPrefix(scheme, regexPrefix))
		if err != nil {
			return nil, fmt.Errorf("compile versioning scheme %q: %w", scheme, err)
		}
		return pattern, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, scheme)
	}
}

// RefName is the single capability needed from a raw reference: its full
// name. Plain strings and the git backend's remote heads both satisfy it.
type RefName interface {
	Name() string
}

// PlainRef wraps a bare ref name string as a RefName.
type PlainRef string

// Name returns the wrapped ref name.
func (p PlainRef) Name() string { return string(p) }

// FilterTags keeps refs in the refs/tags/ namespace whose stripped names
// match pattern. Dereferenced-tag markers (a "^{}" suffix) are discarded.
func FilterTags(refNames []RefName, pattern *regexp.Regexp) []string {
	var tags []string
	for _, r := range refNames {
		name := r.Name()
		if !strings.HasPrefix(name, "refs/tags/") {
			continue
		}
		tag := strings.TrimPrefix(name, "refs/tags/")
		if strings.HasSuffix(tag, "^{}") {
			continue
		}
		if pattern.MatchString(tag) {
			tags = append(tags, tag)
		}
	}
	return tags
}

// stripPrefix drops any non-digit prefix before the first digit. Used for
// comparison only; display names are never altered.
func stripPrefix(tag string) string {
	if loc := firstDigit.FindStringIndex(tag); loc != nil {
		return tag[loc[0]:]
	}
	return tag
}

func parse(s string) (*semver.Version, error) {
	return semver.NewVersion(s)
}
