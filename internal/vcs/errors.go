package vcs

import "errors"

// Common errors returned by VCS operations.
//
// Check with errors.Is:
//
//	if errors.Is(err, vcs.ErrNotInVCS) {
//	    // outside any repository
//	}
var (
	// ErrNotInVCS is returned when the operation requires being inside
	// a repository but none was found.
	ErrNotInVCS = errors.New("not in a VCS repository")

	// ErrVCSNotAvailable is returned when the required binary
	// (git or jj) is not installed or not in PATH.
	ErrVCSNotAvailable = errors.New("VCS binary not available")

	// ErrNoRemote is returned when an operation requires a remote
	// but none is configured.
	ErrNoRemote = errors.New("no remote configured")

	// ErrDetached is returned when an operation needs a current branch
	// or bookmark but none is set.
	ErrDetached = errors.New("not on a branch or bookmark")

	// ErrConflicts is returned when an operation cannot complete
	// due to unresolved conflicts in the working copy.
	ErrConflicts = errors.New("unresolved conflicts")

	// ErrPushRejected is returned when the remote refuses a push,
	// typically a non-fast-forward update.
	ErrPushRejected = errors.New("push rejected by remote")

	// ErrMergeRequired is returned when integrating upstream produced
	// divergent histories that could not be fast-forwarded or rebased.
	ErrMergeRequired = errors.New("merge required")

	// ErrTimeout is returned when a VCS operation exceeds its deadline.
	ErrTimeout = errors.New("operation timed out")
)

// IsRetryable reports whether the error is plausibly transient: a later
// attempt, possibly after re-integrating upstream, may succeed. The
// orchestrator uses this to decide between retry and escalation.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, ErrTimeout):
		return true
	case errors.Is(err, ErrPushRejected):
		// Rejections usually clear after the next reconcile.
		return true
	case errors.Is(err, ErrMergeRequired):
		return true
	}

	return false
}

// IsFatal reports whether the error indicates a state no retry can fix:
// the tracked root is not a repository, the VCS binary is missing, or the
// working copy is stuck in a conflicted state a human must resolve.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	return errors.Is(err, ErrNotInVCS) ||
		errors.Is(err, ErrVCSNotAvailable) ||
		errors.Is(err, ErrConflicts)
}
