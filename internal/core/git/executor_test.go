package git

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/pluggit/pkg/executil"
)

func newRepoDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))
	return dir
}

func TestCreateRepository(t *testing.T) {
	e := NewExecutor("git", &executil.RecordingExecutor{})

	t.Run("valid repository", func(t *testing.T) {
		dir := newRepoDir(t)
		repo, err := e.CreateRepository(dir)
		require.NoError(t, err)
		assert.NotNil(t, repo)
	})

	t.Run("missing .git", func(t *testing.T) {
		_, err := e.CreateRepository(t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a git repository")
	})

	t.Run("nonexistent path", func(t *testing.T) {
		_, err := e.CreateRepository(filepath.Join(t.TempDir(), "missing"))
		require.Error(t, err)
	})
}

func TestFetchRemoteRefs(t *testing.T) {
	rec := &executil.RecordingExecutor{
		Outputs: map[string][]byte{
			"git ls-remote": []byte(
				"abc123\tHEAD\n" +
					"abc123\trefs/heads/main\n" +
					"def456\trefs/tags/v1.0.0\n" +
					"\n",
			),
		},
	}
	e := NewExecutor("git", rec)

	heads, err := e.FetchRemoteRefs(context.Background(), "https://example.com/repo.git")
	require.NoError(t, err)
	assert.Equal(t, []RemoteHead{
		{Commit: "abc123", RefName: "HEAD"},
		{Commit: "abc123", RefName: "refs/heads/main"},
		{Commit: "def456", RefName: "refs/tags/v1.0.0"},
	}, heads)

	require.Len(t, rec.Commands, 1)
	assert.Equal(t, []string{"ls-remote", "https://example.com/repo.git"}, rec.Commands[0].Args)
}

func TestFetchRemoteRefsError(t *testing.T) {
	rec := &executil.RecordingExecutor{
		Errors: map[string]error{"git ls-remote": errors.New("could not resolve host")},
	}
	e := NewExecutor("git", rec)

	_, err := e.FetchRemoteRefs(context.Background(), "https://example.com/repo.git")
	require.Error(t, err)
}

func TestClone(t *testing.T) {
	t.Run("without ref", func(t *testing.T) {
		rec := &executil.RecordingExecutor{}
		e := NewExecutor("git", rec)

		require.NoError(t, e.Clone(context.Background(), "https://example.com/repo.git", "/dest", ""))
		require.Len(t, rec.Commands, 1)
		assert.Equal(t, []string{"clone", "https://example.com/repo.git", "/dest"}, rec.Commands[0].Args)
	})

	t.Run("with ref", func(t *testing.T) {
		rec := &executil.RecordingExecutor{}
		e := NewExecutor("git", rec)

		require.NoError(t, e.Clone(context.Background(), "https://example.com/repo.git", "/dest", "v1.0.0"))
		require.Len(t, rec.Commands, 2)
		assert.Equal(t, []string{"checkout", "v1.0.0"}, rec.Commands[1].Args)
		assert.Equal(t, "/dest", rec.Commands[1].Dir)
	})

	t.Run("clone failure", func(t *testing.T) {
		rec := &executil.RecordingExecutor{
			Errors: map[string]error{"git clone": errors.New("denied")},
		}
		e := NewExecutor("git", rec)
		require.Error(t, e.Clone(context.Background(), "https://example.com/repo.git", "/dest", ""))
	})
}

func openTestRepo(t *testing.T, rec *executil.RecordingExecutor) Repository {
	t.Helper()
	repo, err := NewExecutor("git", rec).CreateRepository(newRepoDir(t))
	require.NoError(t, err)
	return repo
}

func TestRepositoryReferences(t *testing.T) {
	rec := &executil.RecordingExecutor{
		Outputs: map[string][]byte{
			"git show-ref": []byte(
				"abc123 refs/heads/main\n" +
					"def456 refs/tags/v1.0.0\n" +
					"789abc refs/tags/v1.0.0^{}\n",
			),
		},
	}
	repo := openTestRepo(t, rec)

	heads, err := repo.References(context.Background())
	require.NoError(t, err)
	require.Len(t, heads, 3)
	assert.Equal(t, RemoteHead{Commit: "789abc", RefName: "refs/tags/v1.0.0^{}"}, heads[2])
}

func TestRepositoryIsDirty(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   bool
	}{
		{"clean", "", false},
		{"whitespace only", "\n", false},
		{"modified files", " M file.go\n?? new.go\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &executil.RecordingExecutor{
				Outputs: map[string][]byte{"git status --porcelain": []byte(tt.output)},
			}
			repo := openTestRepo(t, rec)

			dirty, err := repo.IsDirty(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, dirty)
		})
	}
}

func TestRepositoryHead(t *testing.T) {
	rec := &executil.RecordingExecutor{
		Outputs: map[string][]byte{
			"git rev-parse HEAD":        []byte("abc1234def5678\n"),
			"git branch --show-current": []byte("main\n"),
		},
	}
	repo := openTestRepo(t, rec)
	ctx := context.Background()

	head, err := repo.HeadTarget(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc1234def5678", head)

	branch, err := repo.HeadShorthand(ctx)
	require.NoError(t, err)
	assert.Equal(t, "main", branch)

	detached, err := repo.IsHeadDetached(ctx)
	require.NoError(t, err)
	assert.False(t, detached)
}

func TestRepositoryDetachedHead(t *testing.T) {
	// branch --show-current prints nothing on a detached HEAD.
	rec := &executil.RecordingExecutor{
		Outputs: map[string][]byte{"git branch --show-current": []byte("\n")},
	}
	repo := openTestRepo(t, rec)

	detached, err := repo.IsHeadDetached(context.Background())
	require.NoError(t, err)
	assert.True(t, detached)
}

func TestRepositoryTagsAt(t *testing.T) {
	rec := &executil.RecordingExecutor{
		Outputs: map[string][]byte{
			"git tag --points-at": []byte("v1.0.0\nv1.0.1\n\n"),
		},
	}
	repo := openTestRepo(t, rec)

	tags, err := repo.TagsAt(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, []string{"v1.0.0", "v1.0.1"}, tags)
}

func TestRepositoryRevParse(t *testing.T) {
	rec := &executil.RecordingExecutor{
		Outputs: map[string][]byte{"git rev-parse": []byte("def456\n")},
	}
	repo := openTestRepo(t, rec)

	commit, err := repo.RevParse(context.Background(), "origin/main")
	require.NoError(t, err)
	assert.Equal(t, "def456", commit)
}

func TestRepositoryMutations(t *testing.T) {
	rec := &executil.RecordingExecutor{}
	repo := openTestRepo(t, rec)
	ctx := context.Background()

	require.NoError(t, repo.Fetch(ctx))
	require.NoError(t, repo.Pull(ctx))
	require.NoError(t, repo.Checkout(ctx, "v2.0.0"))

	require.Len(t, rec.Commands, 3)
	assert.Equal(t, []string{"fetch", "--tags", "origin"}, rec.Commands[0].Args)
	assert.Equal(t, []string{"pull", "--ff-only"}, rec.Commands[1].Args)
	assert.Equal(t, []string{"checkout", "v2.0.0"}, rec.Commands[2].Args)
}

func TestParseRefLines(t *testing.T) {
	t.Run("tab separated", func(t *testing.T) {
		heads := parseRefLines("abc\trefs/heads/main\n")
		require.Len(t, heads, 1)
		assert.Equal(t, "refs/heads/main", heads[0].RefName)
	})

	t.Run("space separated", func(t *testing.T) {
		heads := parseRefLines("abc refs/heads/main\n")
		require.Len(t, heads, 1)
		assert.Equal(t, "abc", heads[0].Commit)
	})

	t.Run("malformed lines skipped", func(t *testing.T) {
		heads := parseRefLines("justonefield\nabc refs/heads/main\ntoo many fields here\n\n")
		assert.Len(t, heads, 1)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, parseRefLines(""))
	})
}
