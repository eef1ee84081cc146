// Package stage determines which tracked paths have local mutations since
// the last published state.
//
// The stager is purely observational: it never mutates the working copy,
// and calling it repeatedly without intervening writes returns the same
// result. The orchestrator runs it after taking the exclusion lock, so the
// snapshot it reports cannot interleave with another sync run's commit.
package stage

import (
	"fmt"
	"strings"

	"github.com/steveyegge/daybook/internal/vcs"
)

// Change is one path with uncommitted modifications.
type Change struct {
	// Path is relative to the tracked root
	Path string

	// Kind is the VCS status code (modified, added, deleted, ...)
	Kind vcs.StatusCode
}

// Stager inspects a tracked root through its VCS.
type Stager struct {
	v vcs.VCS

	// scope restricts staging to these path prefixes; empty means the
	// whole tracked root.
	scope []string

	// ignore excludes path prefixes from staging. Daybook's own state
	// directory is always excluded: lock files, the failure log, and
	// the audit database never travel to the remote.
	ignore []string
}

// New creates a Stager for the given VCS. Scope paths are relative to the
// tracked root; pass none to stage everything under it.
func New(v vcs.VCS, scope ...string) *Stager {
	return &Stager{
		v:      v,
		scope:  scope,
		ignore: []string{".daybook/"},
	}
}

// WithIgnore adds path prefixes to exclude from staging.
func (s *Stager) WithIgnore(prefixes ...string) *Stager {
	s.ignore = append(s.ignore, prefixes...)
	return s
}

// Changes returns the set of paths with uncommitted modifications.
// An empty result means the tracked root matches the last committed state
// and the run can short-circuit to a no-op.
func (s *Stager) Changes() ([]Change, error) {
	statuses, err := s.v.Status(s.scope...)
	if err != nil {
		return nil, fmt.Errorf("failed to read working copy status: %w", err)
	}

	var changes []Change
	for _, st := range statuses {
		if st.Status == vcs.StatusIgnored || st.Status == vcs.StatusUnmodified {
			// Staged-but-unmodified entries still count in git.
			if st.StagedCode == vcs.StatusUnmodified || st.StagedCode == vcs.StatusIgnored {
				continue
			}
		}
		if s.ignored(st.Path) {
			continue
		}

		kind := st.Status
		if kind == vcs.StatusUnmodified {
			kind = st.StagedCode
		}
		changes = append(changes, Change{Path: st.Path, Kind: kind})
	}

	return changes, nil
}

// HasChanges reports whether any tracked path has uncommitted modifications.
func (s *Stager) HasChanges() (bool, error) {
	changes, err := s.Changes()
	if err != nil {
		return false, err
	}
	return len(changes) > 0, nil
}

// Paths returns just the changed paths, for commit scoping and logging.
func Paths(changes []Change) []string {
	paths := make([]string, len(changes))
	for i, c := range changes {
		paths[i] = c.Path
	}
	return paths
}

func (s *Stager) ignored(path string) bool {
	for _, prefix := range s.ignore {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
