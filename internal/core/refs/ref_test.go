package refs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemEqual(t *testing.T) {
	base := Item{Name: "v1.0.0", Commit: "abc1234def"}

	tests := []struct {
		name  string
		other Item
		want  bool
	}{
		{"identical", Item{Name: "v1.0.0", Commit: "abc1234def"}, true},
		{"flags ignored", Item{Name: "v1.0.0", Commit: "abc1234def", IsTag: true, IsCurrent: true}, true},
		{"different name", Item{Name: "v1.0.1", Commit: "abc1234def"}, false},
		{"different commit", Item{Name: "v1.0.0", Commit: "fff0000"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.Equal(tt.other))
			assert.Equal(t, tt.want, base.Key() == tt.other.Key())
		})
	}
}

func TestItemValid(t *testing.T) {
	assert.False(t, Item{}.Valid())
	assert.True(t, Item{Name: "main"}.Valid())
	assert.True(t, Item{Commit: "abc1234"}.Valid())
}

func TestItemType(t *testing.T) {
	tests := []struct {
		name string
		item Item
		want Type
	}{
		{"tag", Item{Name: "v1.0.0", IsTag: true}, TypeTag},
		{"branch", Item{Name: "main", IsBranch: true}, TypeBranch},
		{"bare commit", Item{Commit: "abc1234def5678"}, TypeCommit},
		{"short-commit name", Item{Name: "abc1234", Commit: "abc1234def5678"}, TypeCommit},
		{"name without flags", Item{Name: "something", Commit: "abc1234def5678"}, TypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.item.Type())
		})
	}
}

func TestItemString(t *testing.T) {
	tests := []struct {
		name string
		item Item
		want string
	}{
		{"name and commit", Item{Name: "v1.0.0", Commit: "abc1234def5678"}, "v1.0.0 @abc1234"},
		{"current marker", Item{Name: "main", Commit: "abc1234def5678", IsCurrent: true}, "main @abc1234 (current)"},
		{"commit only", Item{Commit: "abc1234def5678"}, "@abc1234"},
		{"name equals short commit", Item{Name: "abc1234", Commit: "abc1234def5678"}, "@abc1234"},
		{"name only", Item{Name: "develop"}, "develop"},
		{"empty", Item{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.item.String())
		})
	}
}

func TestShortCommit(t *testing.T) {
	assert.Equal(t, "abc1234", ShortCommit("abc1234def5678"))
	assert.Equal(t, "abc", ShortCommit("abc"))
	assert.Equal(t, "", ShortCommit(""))
}

func TestFromRefName(t *testing.T) {
	tests := []struct {
		refName string
		want    Item
	}{
		{"refs/tags/v1.0.0", Item{Name: "v1.0.0", Commit: "c1", IsTag: true}},
		{"refs/heads/main", Item{Name: "main", Commit: "c1", IsBranch: true}},
		{"refs/remotes/origin/develop", Item{Name: "develop", Commit: "c1", IsBranch: true}},
		{"v2.0.0", Item{Name: "v2.0.0", Commit: "c1", IsTag: true}},
		{"", Item{Commit: "c1"}},
	}

	for _, tt := range tests {
		t.Run(tt.refName, func(t *testing.T) {
			assert.Equal(t, tt.want, FromRefName(tt.refName, "c1", false))
		})
	}
}

func TestSortPreferTags(t *testing.T) {
	items := []Item{
		{Name: "main", IsBranch: true},
		{Name: "v2.0.0", IsTag: true},
		{Name: "develop", IsBranch: true},
		{Name: "v1.0.0", IsTag: true},
	}

	sorted := Sort(items, true)

	names := make([]string, len(sorted))
	for i, item := range sorted {
		names[i] = item.Name
	}
	assert.Equal(t, []string{"v1.0.0", "v2.0.0", "develop", "main"}, names)

	// Input order preserved
	assert.Equal(t, "main", items[0].Name)
}

func TestSortPreferBranches(t *testing.T) {
	items := []Item{
		{Name: "v1.0.0", IsTag: true},
		{Name: "main", IsBranch: true},
	}

	sorted := Sort(items, false)
	assert.Equal(t, "main", sorted[0].Name)
	assert.Equal(t, "v1.0.0", sorted[1].Name)
}

func TestRecordRoundTrip(t *testing.T) {
	item := Item{Name: "v1.0.0", Commit: "abc1234def", IsTag: true, IsCurrent: true}

	rec := item.Record()
	assert.Equal(t, "tag", rec.RefType)

	back, err := FromRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, item, back)
}

func TestFromRecordRejectsEmpty(t *testing.T) {
	_, err := FromRecord(Record{RefType: "tag"})
	require.Error(t, err)
}
