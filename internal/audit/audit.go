// Package audit persists sync attempt records.
//
// Every orchestration run produces exactly one Attempt: created when the run
// starts, finalized when it exits, and never mutated afterwards. Records go
// into an embedded SQLite database (.daybook/audit.db) in WAL mode so the
// status command can read history while a daemon-triggered run is writing.
//
// The audit database lives under the tracked root's state directory and is
// never synchronized to the remote.
package audit

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Outcome classifies how a run ended.
type Outcome string

const (
	// OutcomeSuccess: the pipeline completed and published.
	OutcomeSuccess Outcome = "success"

	// OutcomeNoop: nothing to sync; no commit was created.
	OutcomeNoop Outcome = "noop"

	// OutcomeDeferred: another run held the exclusion lock.
	OutcomeDeferred Outcome = "deferred"

	// OutcomeFailure: a step failed terminally after exhausting retries.
	OutcomeFailure Outcome = "failure"
)

// Step records one pipeline step's execution within a run.
type Step struct {
	// Name is the step name (staging, committing, reconciling, publishing)
	Name string `json:"name"`

	// Attempts is how many times the step ran (>1 means retries)
	Attempts int `json:"attempts"`

	// Err is the final error text, empty on success
	Err string `json:"err,omitempty"`
}

// Attempt is the audit record for one orchestration run.
type Attempt struct {
	// ID is assigned by the store on insert
	ID int64

	// StartedAt is when the run began
	StartedAt time.Time

	// FinishedAt is when the run reached Done
	FinishedAt time.Time

	// Outcome classifies the run's end state
	Outcome Outcome

	// CommitHash is the local commit the run created, if any.
	// Retries never roll it back, so it is recorded even on failure.
	CommitHash string

	// Cause is the human-readable failure cause, empty unless failed
	Cause string

	// Steps lists the pipeline steps executed, in order
	Steps []Step

	// Transitions is the state-machine trace, e.g.
	// ["idle", "staging", "committing", ...]. Ordering properties of a
	// run are checked against this trace.
	Transitions []string
}

// Duration returns the run's wall-clock duration.
func (a *Attempt) Duration() time.Duration {
	return a.FinishedAt.Sub(a.StartedAt)
}

// Store is the SQLite-backed audit log.
type Store struct {
	conn *sql.DB
	path string
}

// Open opens (creating if needed) the audit database at path.
// The caller must Close the store when done.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping audit database: %w", err)
	}

	s := &Store{conn: conn, path: path}

	// WAL lets status/audit commands read while a run writes.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := s.initSchema(); err != nil {
		_ = s.Close()
		return nil, err
	}

	return s, nil
}

// initSchema creates the attempts table. Idempotent.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS attempts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		outcome TEXT NOT NULL,
		commit_hash TEXT,
		cause TEXT,
		steps TEXT NOT NULL,       -- JSON array of step records
		transitions TEXT NOT NULL  -- JSON array of state names
	);

	CREATE INDEX IF NOT EXISTS idx_attempts_started ON attempts(started_at);
	CREATE INDEX IF NOT EXISTS idx_attempts_outcome ON attempts(outcome);
	`

	if _, err := s.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to create audit schema: %w", err)
	}
	return nil
}

// Record inserts a finalized attempt and fills in its ID.
func (s *Store) Record(a *Attempt) error {
	steps, err := json.Marshal(a.Steps)
	if err != nil {
		return fmt.Errorf("failed to marshal steps: %w", err)
	}
	transitions, err := json.Marshal(a.Transitions)
	if err != nil {
		return fmt.Errorf("failed to marshal transitions: %w", err)
	}

	result, err := s.conn.Exec(`
		INSERT INTO attempts (started_at, finished_at, outcome, commit_hash, cause, steps, transitions)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.StartedAt.UTC().Format(time.RFC3339Nano),
		a.FinishedAt.UTC().Format(time.RFC3339Nano),
		string(a.Outcome),
		a.CommitHash,
		a.Cause,
		string(steps),
		string(transitions),
	)
	if err != nil {
		return fmt.Errorf("failed to insert attempt: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get attempt ID: %w", err)
	}
	a.ID = id

	return nil
}

// Recent returns the most recent attempts, newest first.
func (s *Store) Recent(limit int) ([]Attempt, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.conn.Query(`
		SELECT id, started_at, finished_at, outcome, commit_hash, cause, steps, transitions
		FROM attempts ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		var a Attempt
		var started, finished, steps, transitions string

		if err := rows.Scan(&a.ID, &started, &finished, &a.Outcome,
			&a.CommitHash, &a.Cause, &steps, &transitions); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}

		a.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		a.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		if err := json.Unmarshal([]byte(steps), &a.Steps); err != nil {
			return nil, fmt.Errorf("failed to unmarshal steps for attempt %d: %w", a.ID, err)
		}
		if err := json.Unmarshal([]byte(transitions), &a.Transitions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transitions for attempt %d: %w", a.ID, err)
		}

		attempts = append(attempts, a)
	}

	return attempts, rows.Err()
}

// CountByOutcome returns the number of recorded attempts per outcome.
func (s *Store) CountByOutcome() (map[Outcome]int, error) {
	rows, err := s.conn.Query(`SELECT outcome, COUNT(*) FROM attempts GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("failed to count attempts: %w", err)
	}
	defer rows.Close()

	counts := make(map[Outcome]int)
	for rows.Next() {
		var outcome Outcome
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[outcome] = n
	}

	return counts, rows.Err()
}

// Close checkpoints and closes the database.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}

	if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close audit database: %w", err)
	}

	s.conn = nil
	return nil
}
