package stage

import (
	"context"
	"testing"

	"github.com/steveyegge/daybook/internal/vcs"
)

// statusVCS is a VCS stub whose Status output is fixed per test.
type statusVCS struct {
	statuses []vcs.FileStatus
	calls    int
}

func (f *statusVCS) Name() vcs.Type                  { return vcs.TypeGit }
func (f *statusVCS) Version() (string, error)        { return "test", nil }
func (f *statusVCS) RepoRoot() (string, error)       { return "/root", nil }
func (f *statusVCS) IsInVCS() bool                   { return true }
func (f *statusVCS) CurrentRef() (string, error)     { return "main", nil }
func (f *statusVCS) HasRemote() bool                 { return false }
func (f *statusVCS) GetRemotes() ([]vcs.RemoteInfo, error) {
	return nil, nil
}
func (f *statusVCS) Status(paths ...string) ([]vcs.FileStatus, error) {
	f.calls++
	return f.statuses, nil
}
func (f *statusVCS) HasChanges(paths ...string) (bool, error) { return len(f.statuses) > 0, nil }
func (f *statusVCS) HasConflicts() (bool, error)              { return false, nil }
func (f *statusVCS) Commit(ctx context.Context, opts vcs.CommitOptions) error {
	return nil
}
func (f *statusVCS) GetCommitHash(ref string) (string, error)            { return "abc", nil }
func (f *statusVCS) Fetch(ctx context.Context, remote, ref string) error { return nil }
func (f *statusVCS) Pull(ctx context.Context, opts vcs.PullOptions) error {
	return nil
}
func (f *statusVCS) Push(ctx context.Context, opts vcs.PushOptions) error {
	return nil
}
func (f *statusVCS) Exec(ctx context.Context, args ...string) ([]byte, error) {
	return nil, nil
}

// TestChanges_ReportsModifications verifies modified, added, and deleted
// paths all surface as changes.
func TestChanges_ReportsModifications(t *testing.T) {
	v := &statusVCS{statuses: []vcs.FileStatus{
		{Path: "journal/2026-08-30.md", Status: vcs.StatusModified},
		{Path: "journal/2026-08-31.md", Status: vcs.StatusAdded},
		{Path: "scratch.txt", Status: vcs.StatusDeleted},
	}}

	changes, err := New(v).Changes()
	if err != nil {
		t.Fatalf("Changes() failed: %v", err)
	}
	if len(changes) != 3 {
		t.Fatalf("Changes() returned %d entries, want 3", len(changes))
	}

	paths := Paths(changes)
	want := []string{"journal/2026-08-30.md", "journal/2026-08-31.md", "scratch.txt"}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
}

// TestChanges_SkipsStateDirAndIgnored verifies daybook's own state files
// and VCS-ignored paths never count as staged changes.
func TestChanges_SkipsStateDirAndIgnored(t *testing.T) {
	v := &statusVCS{statuses: []vcs.FileStatus{
		{Path: ".daybook/failures.log", Status: vcs.StatusModified},
		{Path: ".daybook/audit.db", Status: vcs.StatusAdded},
		{Path: "build/out.bin", Status: vcs.StatusIgnored},
		{Path: "journal/today.md", Status: vcs.StatusModified},
	}}

	changes, err := New(v).Changes()
	if err != nil {
		t.Fatalf("Changes() failed: %v", err)
	}
	if len(changes) != 1 || changes[0].Path != "journal/today.md" {
		t.Errorf("Changes() = %+v, want only journal/today.md", changes)
	}
}

// TestChanges_StagedOnlyEntryCounts verifies a git entry that is staged but
// clean in the working tree still counts as a pending change.
func TestChanges_StagedOnlyEntryCounts(t *testing.T) {
	v := &statusVCS{statuses: []vcs.FileStatus{
		{Path: "journal/staged.md", Status: vcs.StatusUnmodified, StagedCode: vcs.StatusAdded},
	}}

	changes, err := New(v).Changes()
	if err != nil {
		t.Fatalf("Changes() failed: %v", err)
	}
	if len(changes) != 1 {
		t.Fatalf("Changes() returned %d entries, want 1", len(changes))
	}
	if changes[0].Kind != vcs.StatusAdded {
		t.Errorf("Kind = %q, want added", changes[0].Kind)
	}
}

// TestChanges_EmptyWorkingCopy verifies a clean root yields no changes.
func TestChanges_EmptyWorkingCopy(t *testing.T) {
	s := New(&statusVCS{})

	changed, err := s.HasChanges()
	if err != nil {
		t.Fatalf("HasChanges() failed: %v", err)
	}
	if changed {
		t.Error("HasChanges() = true for a clean root")
	}
}

// TestChanges_Idempotent verifies repeated staging without intervening
// writes returns identical results.
func TestChanges_Idempotent(t *testing.T) {
	v := &statusVCS{statuses: []vcs.FileStatus{
		{Path: "journal/a.md", Status: vcs.StatusModified},
		{Path: "journal/b.md", Status: vcs.StatusAdded},
	}}
	s := New(v)

	first, err := s.Changes()
	if err != nil {
		t.Fatalf("First Changes() failed: %v", err)
	}
	second, err := s.Changes()
	if err != nil {
		t.Fatalf("Second Changes() failed: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("Result lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("Result %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
	if v.calls != 2 {
		t.Errorf("Status called %d times, want 2", v.calls)
	}
}

// TestWithIgnore_AddsPrefixes verifies caller-supplied ignore prefixes
// are honored alongside the built-in state dir.
func TestWithIgnore_AddsPrefixes(t *testing.T) {
	v := &statusVCS{statuses: []vcs.FileStatus{
		{Path: "tmp/cache.bin", Status: vcs.StatusAdded},
		{Path: "journal/today.md", Status: vcs.StatusModified},
	}}

	changes, err := New(v).WithIgnore("tmp/").Changes()
	if err != nil {
		t.Fatalf("Changes() failed: %v", err)
	}
	if len(changes) != 1 || changes[0].Path != "journal/today.md" {
		t.Errorf("Changes() = %+v, want only journal/today.md", changes)
	}
}
