// Package git provides an abstraction for the git operations pluggit needs.
// The engine only ever consumes these interfaces; the process-backed
// implementation lives in executor.go and tests substitute fakes.
package git

import "context"

// RemoteHead is one reference advertised by a remote: its full ref name
// and the commit it points at.
type RemoteHead struct {
	RefName string
	Commit  string
}

// Name returns the full ref name, e.g. "refs/tags/v1.2.3".
func (h RemoteHead) Name() string { return h.RefName }

// Backend creates repository handles and lists remote refs.
type Backend interface {
	// CreateRepository opens an existing local repository at path.
	CreateRepository(path string) (Repository, error)
	// FetchRemoteRefs lists the refs advertised by the remote at url.
	FetchRemoteRefs(ctx context.Context, url string) ([]RemoteHead, error)
	// Clone clones url into dest. A non-empty ref is checked out after
	// cloning.
	Clone(ctx context.Context, url, dest, ref string) error
}

// Repository exposes the state of one local repository.
type Repository interface {
	// References lists all local refs, including dereferenced tag
	// entries (the "^{}" suffixed markers git emits for annotated tags).
	References(ctx context.Context) ([]RemoteHead, error)
	// IsDirty returns true if the working tree has uncommitted changes.
	IsDirty(ctx context.Context) (bool, error)
	// HeadTarget returns the commit id HEAD resolves to.
	HeadTarget(ctx context.Context) (string, error)
	// IsHeadDetached returns true when HEAD points directly at a commit.
	IsHeadDetached(ctx context.Context) (bool, error)
	// HeadShorthand returns the current branch name.
	HeadShorthand(ctx context.Context) (string, error)
	// TagsAt returns the names of tags pointing at the given commit.
	TagsAt(ctx context.Context, commit string) ([]string, error)
	// Fetch updates remote-tracking refs and tags from origin.
	Fetch(ctx context.Context) error
	// Checkout switches the working tree to the named ref or commit.
	Checkout(ctx context.Context, ref string) error
	// Pull fetches and fast-forwards the current branch.
	Pull(ctx context.Context) error
	// RevParse resolves a ref expression to a commit id.
	RevParse(ctx context.Context, ref string) (string, error)
}
