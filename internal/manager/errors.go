package manager

import "errors"

// Sentinel errors callers branch on.
var (
	ErrPluginNotFound   = errors.New("plugin not found")
	ErrAlreadyInstalled = errors.New("plugin already installed")
	ErrDirtyWorkingTree = errors.New("plugin working tree has uncommitted changes")
	ErrCommitPinned     = errors.New("plugin is pinned to a commit")
	ErrRefNotFound      = errors.New("ref not found in repository")
	ErrNoRef            = errors.New("no ref specified")
)
