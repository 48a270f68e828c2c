package version

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/colonyops/pluggit/internal/core/refs"
)

func TestSortTagsSemver(t *testing.T) {
	tags := []string{"v1.0.0", "v2.0.0", "v10.0.0", "v2.1.0", "v1.5.2", "v2.0.0-beta"}

	got := SortTags(tags, "semver")
	assert.Equal(t, []string{"v10.0.0", "v2.1.0", "v2.0.0", "v2.0.0-beta", "v1.5.2", "v1.0.0"}, got)

	// Input untouched
	assert.Equal(t, "v1.0.0", tags[0])
}

func TestSortTagsSemverMixedPrefixes(t *testing.T) {
	// Prefix is stripped before comparison, so "release-" and "v" tags
	// interleave by version.
	got := SortTags([]string{"release-1.2.0", "v2.0.0", "1.5.0"}, "semver")
	assert.Equal(t, []string{"v2.0.0", "1.5.0", "release-1.2.0"}, got)
}

func TestSortTagsSemverFallback(t *testing.T) {
	// One unparseable tag drops the whole set to lexical-descending order.
	got := SortTags([]string{"v1.0.0", "weird", "v2.0.0"}, "semver")
	assert.Equal(t, []string{"weird", "v2.0.0", "v1.0.0"}, got)
}

func TestSortTagsCalver(t *testing.T) {
	got := SortTags([]string{"2023.06.01", "2024.01.15", "2023.12.31"}, "calver")
	assert.Equal(t, []string{"2024.01.15", "2023.12.31", "2023.06.01"}, got)
}

func TestSortTagsCustom(t *testing.T) {
	// Version-shaped tags sort by version; the rest sort naturally and
	// come first so the groups never interleave.
	got := SortTags([]string{"v1.0.0", "build10", "v2.0.0", "build2"}, `regex:.*`)
	assert.Equal(t, []string{"build10", "build2", "v2.0.0", "v1.0.0"}, got)
}

func TestSortTagsCustomNatural(t *testing.T) {
	// Natural order compares digit runs by value: file10 > file2.
	got := SortTags([]string{"file2", "file10", "file1"}, `regex:^file\d+$`)
	assert.Equal(t, []string{"file10", "file2", "file1"}, got)
}

func TestSortTagsEmpty(t *testing.T) {
	assert.Empty(t, SortTags(nil, "semver"))
	assert.Empty(t, SortTags([]string{}, "calver"))
}

func TestSortBySemanticVersion(t *testing.T) {
	items := []refs.Item{
		{Name: "main", IsBranch: true},
		{Name: "v1.0.0", IsTag: true},
		{Name: "v2.1.0", IsTag: true},
		{Name: "", Commit: "abc1234"},
		{Name: "v1.5.0", IsTag: true},
	}

	got := SortBySemanticVersion(items)

	names := make([]string, len(got))
	for i, item := range got {
		names[i] = item.Name
	}
	assert.Equal(t, []string{"v2.1.0", "v1.5.0", "v1.0.0"}, names)
}

func TestSortBySemanticVersionNoneParse(t *testing.T) {
	items := []refs.Item{
		{Name: "main", IsBranch: true},
		{Name: "develop", IsBranch: true},
	}
	assert.Empty(t, SortBySemanticVersion(items))
}

func TestCompareNumeric(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"2", "10", -1},
		{"10", "2", 1},
		{"007", "7", 0},
		{"123456789012345678901234567890", "2", 1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, compareNumeric(tt.a, tt.b))
		})
	}
}

func TestNaturalKeyOrdering(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"file2", "file10", -1},
		{"file10", "file10", 0},
		{"alpha", "beta", -1},
		{"1-alpha", "1-beta", -1},
		{"2", "2-alpha", -1},
		{"10", "alpha", -1}, // numeric segments before text
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			got := compareSegments(naturalKey(tt.a), naturalKey(tt.b))
			switch {
			case tt.want < 0:
				assert.Negative(t, got)
			case tt.want > 0:
				assert.Positive(t, got)
			default:
				assert.Zero(t, got)
			}
		})
	}
}

func TestFilterAndSortEndToEnd(t *testing.T) {
	pattern, err := CompileScheme("semver")
	assert.NoError(t, err)

	refNames := []RefName{
		PlainRef("refs/tags/v1.0.0"),
		PlainRef("refs/tags/v10.0.0"),
		PlainRef("refs/heads/main"),
		PlainRef("refs/tags/v2.0.0"),
		PlainRef("refs/tags/v2.0.0^{}"),
	}

	got := SortTags(FilterTags(refNames, pattern), "semver")
	assert.Equal(t, []string{"v10.0.0", "v2.0.0", "v1.0.0"}, got)
}
