package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/colonyops/pluggit/pkg/executil"
)

// Executor implements Backend using the git command-line tool.
type Executor struct {
	gitPath string
	exec    executil.Executor
}

// NewExecutor creates a new git executor with the specified git binary path.
func NewExecutor(gitPath string, exec executil.Executor) *Executor {
	return &Executor{gitPath: gitPath, exec: exec}
}

// CreateRepository opens the repository at path. It fails if path is not a
// directory containing a .git entry.
func (e *Executor) CreateRepository(path string) (Repository, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", path, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open repository %s: not a directory", path)
	}
	if _, err := os.Stat(filepath.Join(path, ".git")); err != nil {
		return nil, fmt.Errorf("open repository %s: not a git repository", path)
	}
	return &repository{dir: path, gitPath: e.gitPath, exec: e.exec}, nil
}

// FetchRemoteRefs lists refs advertised by the remote via ls-remote.
func (e *Executor) FetchRemoteRefs(ctx context.Context, url string) ([]RemoteHead, error) {
	out, err := e.exec.Run(ctx, e.gitPath, "ls-remote", url)
	if err != nil {
		return nil, fmt.Errorf("ls-remote %s: %w", url, err)
	}
	return parseRefLines(string(out)), nil
}

// Clone clones url into dest and optionally checks out ref.
func (e *Executor) Clone(ctx context.Context, url, dest, ref string) error {
	if _, err := e.exec.Run(ctx, e.gitPath, "clone", url, dest); err != nil {
		return fmt.Errorf("clone %s to %s: %w", url, dest, err)
	}
	if ref != "" {
		if _, err := e.exec.RunDir(ctx, dest, e.gitPath, "checkout", ref); err != nil {
			return fmt.Errorf("checkout %s: %w", ref, err)
		}
	}
	return nil
}

type repository struct {
	dir     string
	gitPath string
	exec    executil.Executor
}

func (r *repository) References(ctx context.Context) ([]RemoteHead, error) {
	// -d includes the "^{}" dereference markers for annotated tags.
	out, err := r.exec.RunDir(ctx, r.dir, r.gitPath, "show-ref", "-d")
	if err != nil {
		return nil, fmt.Errorf("show-ref: %w", err)
	}
	return parseRefLines(string(out)), nil
}

func (r *repository) IsDirty(ctx context.Context) (bool, error) {
	out, err := r.exec.RunDir(ctx, r.dir, r.gitPath, "status", "--porcelain")
	if err != nil {
		return false, fmt.Errorf("git status: %w", err)
	}
	return len(strings.TrimSpace(string(out))) != 0, nil
}

func (r *repository) HeadTarget(ctx context.Context) (string, error) {
	out, err := r.exec.RunDir(ctx, r.dir, r.gitPath, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (r *repository) IsHeadDetached(ctx context.Context) (bool, error) {
	branch, err := r.HeadShorthand(ctx)
	if err != nil {
		return false, err
	}
	return branch == "", nil
}

func (r *repository) HeadShorthand(ctx context.Context) (string, error) {
	// Empty output means detached HEAD.
	out, err := r.exec.RunDir(ctx, r.dir, r.gitPath, "branch", "--show-current")
	if err != nil {
		return "", fmt.Errorf("git branch: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (r *repository) TagsAt(ctx context.Context, commit string) ([]string, error) {
	out, err := r.exec.RunDir(ctx, r.dir, r.gitPath, "tag", "--points-at", commit)
	if err != nil {
		return nil, fmt.Errorf("git tag --points-at: %w", err)
	}
	var tags []string
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			tags = append(tags, line)
		}
	}
	return tags, nil
}

func (r *repository) Fetch(ctx context.Context) error {
	if _, err := r.exec.RunDir(ctx, r.dir, r.gitPath, "fetch", "--tags", "origin"); err != nil {
		return fmt.Errorf("git fetch: %w", err)
	}
	return nil
}

func (r *repository) Pull(ctx context.Context) error {
	if _, err := r.exec.RunDir(ctx, r.dir, r.gitPath, "pull", "--ff-only"); err != nil {
		return fmt.Errorf("git pull: %w", err)
	}
	return nil
}

func (r *repository) RevParse(ctx context.Context, ref string) (string, error) {
	out, err := r.exec.RunDir(ctx, r.dir, r.gitPath, "rev-parse", ref)
	if err != nil {
		return "", fmt.Errorf("rev-parse %s: %w", ref, err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (r *repository) Checkout(ctx context.Context, ref string) error {
	if _, err := r.exec.RunDir(ctx, r.dir, r.gitPath, "checkout", ref); err != nil {
		return fmt.Errorf("checkout %s: %w", ref, err)
	}
	return nil
}

// parseRefLines parses "commit<TAB>refname" lines as produced by ls-remote
// and "commit<SPACE>refname" lines as produced by show-ref.
func parseRefLines(out string) []RemoteHead {
	var heads []RemoteHead
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		heads = append(heads, RemoteHead{Commit: fields[0], RefName: fields[1]})
	}
	return heads
}
