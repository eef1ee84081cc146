package audit

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), ".daybook", "audit.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

// TestRecordAndRecent verifies a round trip through the store preserves
// every field of the attempt record.
func TestRecordAndRecent(t *testing.T) {
	s := openTestStore(t)

	started := time.Now().Add(-3 * time.Second).UTC().Truncate(time.Millisecond)
	finished := time.Now().UTC().Truncate(time.Millisecond)

	a := &Attempt{
		StartedAt:  started,
		FinishedAt: finished,
		Outcome:    OutcomeFailure,
		CommitHash: "abc123",
		Cause:      "publish failed after 3 attempts: push rejected by remote",
		Steps: []Step{
			{Name: "staging", Attempts: 1},
			{Name: "committing", Attempts: 1},
			{Name: "reconciling", Attempts: 1},
			{Name: "publishing", Attempts: 3, Err: "push rejected by remote"},
		},
		Transitions: []string{"idle", "staging", "committing", "reconciling", "publishing", "failed", "done"},
	}

	if err := s.Record(a); err != nil {
		t.Fatalf("Record() failed: %v", err)
	}
	if a.ID == 0 {
		t.Error("Record() did not assign an ID")
	}

	got, err := s.Recent(10)
	if err != nil {
		t.Fatalf("Recent() failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Recent() returned %d attempts, want 1", len(got))
	}

	r := got[0]
	if r.Outcome != OutcomeFailure || r.CommitHash != "abc123" {
		t.Errorf("Round trip lost fields: %+v", r)
	}
	if !r.StartedAt.Equal(started) || !r.FinishedAt.Equal(finished) {
		t.Errorf("Timestamps drifted: %v/%v, want %v/%v", r.StartedAt, r.FinishedAt, started, finished)
	}
	if len(r.Steps) != 4 || r.Steps[3].Attempts != 3 {
		t.Errorf("Steps lost: %+v", r.Steps)
	}
	if len(r.Transitions) != 7 || r.Transitions[5] != "failed" {
		t.Errorf("Transitions lost: %+v", r.Transitions)
	}
}

// TestRecent_NewestFirst verifies ordering and the limit.
func TestRecent_NewestFirst(t *testing.T) {
	s := openTestStore(t)

	for i := 0; i < 5; i++ {
		a := &Attempt{
			StartedAt:   time.Now(),
			FinishedAt:  time.Now(),
			Outcome:     OutcomeSuccess,
			CommitHash:  string(rune('a' + i)),
			Steps:       []Step{},
			Transitions: []string{"idle", "done"},
		}
		if err := s.Record(a); err != nil {
			t.Fatalf("Record() failed: %v", err)
		}
	}

	got, err := s.Recent(3)
	if err != nil {
		t.Fatalf("Recent() failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Recent(3) returned %d attempts", len(got))
	}
	if got[0].CommitHash != "e" || got[2].CommitHash != "c" {
		t.Errorf("Unexpected order: %s, %s, %s", got[0].CommitHash, got[1].CommitHash, got[2].CommitHash)
	}
}

// TestCountByOutcome verifies aggregation across outcomes.
func TestCountByOutcome(t *testing.T) {
	s := openTestStore(t)

	outcomes := []Outcome{OutcomeSuccess, OutcomeSuccess, OutcomeNoop, OutcomeFailure}
	for _, o := range outcomes {
		a := &Attempt{
			StartedAt:   time.Now(),
			FinishedAt:  time.Now(),
			Outcome:     o,
			Steps:       []Step{},
			Transitions: []string{},
		}
		if err := s.Record(a); err != nil {
			t.Fatalf("Record() failed: %v", err)
		}
	}

	counts, err := s.CountByOutcome()
	if err != nil {
		t.Fatalf("CountByOutcome() failed: %v", err)
	}
	if counts[OutcomeSuccess] != 2 || counts[OutcomeNoop] != 1 || counts[OutcomeFailure] != 1 {
		t.Errorf("CountByOutcome() = %v", counts)
	}
}

// TestOpen_CreatesParentDirectory verifies the state directory is created
// on demand.
func TestOpen_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "nested", "audit.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := s.Recent(1); err != nil {
		t.Errorf("Recent() on fresh store failed: %v", err)
	}
}
