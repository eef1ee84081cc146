// Package vcs abstracts the version-controlled remote store daybook
// publishes to.
//
// The sync engine treats the store as three capabilities: record a local
// snapshot (Commit), integrate upstream history (Fetch/Pull with rebase),
// and publish local history (Push). Both git and jj (Jujutsu) provide these;
// this package hides which one a tracked root uses behind a single interface
// with runtime detection and a constructor registry.
//
// # Usage
//
//	v, err := vcs.GetForPath(root)
//	if err != nil {
//	    return err
//	}
//	changed, err := v.Status()
//
// # Implementations
//
//   - internal/vcs/git: wraps the git CLI
//   - internal/vcs/jj: wraps the jj CLI (colocated or pure jj repos)
package vcs

import "context"

// Type identifies a VCS backend.
type Type string

const (
	// TypeGit indicates a git-only repository
	TypeGit Type = "git"

	// TypeJJ indicates a jj-only repository (non-colocated)
	TypeJJ Type = "jj"

	// TypeColocate indicates a colocated repository (jj + git together)
	TypeColocate Type = "colocate"
)

// String returns the string representation of the VCS type
func (t Type) String() string {
	return string(t)
}

// VCS is the surface the sync engine needs from a version-controlled store.
//
// Every network-facing method takes a context; purely local queries do not.
// Implementations shell out to the respective CLI and classify common
// failures into the sentinel errors of this package so the orchestrator can
// distinguish retryable conditions from fatal ones.
type VCS interface {
	// Name returns the backend type (git, jj, or colocate).
	Name() Type

	// Version returns the VCS binary version string.
	Version() (string, error)

	// RepoRoot returns the repository root directory path.
	RepoRoot() (string, error)

	// IsInVCS returns true if the configured path is inside a repository.
	IsInVCS() bool

	// CurrentRef returns the current branch (git) or bookmark (jj).
	// Returns empty string when detached (git) or no bookmark is set (jj).
	CurrentRef() (string, error)

	// HasRemote returns true if any remote is configured.
	HasRemote() bool

	// GetRemotes returns the configured remotes.
	GetRemotes() ([]RemoteInfo, error)

	// Status returns the working-copy status. If paths are given, only
	// those paths are inspected. Purely observational: repeated calls
	// without intervening writes return the same result.
	Status(paths ...string) ([]FileStatus, error)

	// HasChanges returns true if there are uncommitted changes,
	// optionally restricted to paths.
	HasChanges(paths ...string) (bool, error)

	// HasConflicts returns true if the working copy has unresolved
	// conflicts (merge state in git, conflicted files in jj).
	HasConflicts() (bool, error)

	// Commit records a local snapshot. In git this stages and commits;
	// in jj it describes the working change and starts a new one.
	Commit(ctx context.Context, opts CommitOptions) error

	// GetCommitHash returns the commit hash for a reference.
	GetCommitHash(ref string) (string, error)

	// Fetch retrieves upstream history without integrating it.
	// A no-op when no remote is configured.
	Fetch(ctx context.Context, remote, ref string) error

	// Pull integrates upstream history into the local checkout.
	// A no-op when no remote is configured.
	Pull(ctx context.Context, opts PullOptions) error

	// Push publishes local history to the remote.
	// A no-op when no remote is configured.
	Push(ctx context.Context, opts PushOptions) error

	// Exec executes a raw VCS command (escape hatch).
	// Use sparingly; prefer interface methods.
	Exec(ctx context.Context, args ...string) ([]byte, error)
}

// RemoteInfo describes a configured remote repository.
type RemoteInfo struct {
	// Name is the remote name (e.g., "origin")
	Name string

	// URL is the remote URL
	URL string
}

// FileStatus is the status of one file in the working copy.
type FileStatus struct {
	// Path is relative to the repository root
	Path string

	// Status is the working-copy status
	Status StatusCode

	// StagedCode is the staging-area status (git only).
	// jj has no staging area, so it is always StatusUnmodified there.
	StagedCode StatusCode
}

// StatusCode represents file status codes
type StatusCode string

const (
	StatusUnmodified StatusCode = " " // No changes
	StatusModified   StatusCode = "M" // Modified
	StatusAdded      StatusCode = "A" // Added/new file
	StatusDeleted    StatusCode = "D" // Deleted
	StatusRenamed    StatusCode = "R" // Renamed
	StatusCopied     StatusCode = "C" // Copied
	StatusUntracked  StatusCode = "?" // Untracked
	StatusIgnored    StatusCode = "!" // Ignored
	StatusConflict   StatusCode = "U" // Unmerged/conflict
)

// CommitOptions configures a commit operation
type CommitOptions struct {
	// Message is the commit message (required)
	Message string

	// Paths restricts the commit to specific files.
	// Empty means all changes.
	Paths []string

	// Author overrides the commit author (format: "Name <email>")
	Author string

	// NoVerify skips pre-commit hooks
	NoVerify bool

	// AllowEmpty allows creating an empty commit
	AllowEmpty bool
}

// PullOptions configures a pull operation
type PullOptions struct {
	// Remote is the remote name. Empty uses the configured default.
	Remote string

	// Ref is the reference to pull. Empty uses the current branch.
	Ref string

	// Rebase replays local commits on top of upstream instead of merging
	// (git only; jj rebases by model).
	Rebase bool

	// FFOnly only allows fast-forward merges
	FFOnly bool
}

// PushOptions configures a push operation
type PushOptions struct {
	// Remote is the remote name. Empty uses the configured default.
	Remote string

	// Ref is the reference to push. Empty uses the current branch.
	Ref string

	// SetUpstream configures the upstream tracking reference
	SetUpstream bool
}
