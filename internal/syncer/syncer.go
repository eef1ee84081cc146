package syncer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/steveyegge/daybook/internal/audit"
	"github.com/steveyegge/daybook/internal/config"
	"github.com/steveyegge/daybook/internal/lockfile"
	"github.com/steveyegge/daybook/internal/notify"
	"github.com/steveyegge/daybook/internal/stage"
	"github.com/steveyegge/daybook/internal/vcs"
)

// State names one position in the run state machine.
type State string

const (
	StateIdle        State = "idle"
	StateStaging     State = "staging"
	StateCommitting  State = "committing"
	StateReconciling State = "reconciling"
	StatePublishing  State = "publishing"
	StateFailed      State = "failed"
	StateDone        State = "done"
)

// Terminal error classes. The CLI maps these to distinct exit codes so an
// operator can tell a local integrity problem from a transient network one.
var (
	// ErrCommitFailed: the local snapshot could not be recorded.
	// Non-retryable; the tracked root needs human attention.
	ErrCommitFailed = errors.New("local commit failed")

	// ErrRetriesExhausted: a network step failed on every attempt.
	// Likely transient; the next trigger retries from scratch.
	ErrRetriesExhausted = errors.New("retries exhausted")

	// ErrNeedsAttention: a step failed with a condition retrying cannot
	// fix (unresolved conflicts, missing repository). A human must act.
	ErrNeedsAttention = errors.New("manual intervention required")
)

// Notifier escalates a terminal failure to a human.
// *notify.Notifier satisfies this.
type Notifier interface {
	Notify(a notify.Alert)
}

// Recorder persists finalized attempt records.
// *audit.Store satisfies this.
type Recorder interface {
	Record(a *audit.Attempt) error
}

// Config tunes one Syncer.
type Config struct {
	// Root is the tracked root directory.
	Root string

	// Remote and Ref select where to publish. Empty uses the VCS
	// defaults (configured remote / current branch).
	Remote string
	Ref    string

	// MaxAttempts bounds each network step (default 3).
	MaxAttempts int

	// BaseDelay is the first retry backoff; it doubles per attempt
	// (default 5s).
	BaseDelay time.Duration

	// ReconcileClean reconciles with upstream even when there is
	// nothing to commit, keeping the local checkout current on
	// quiet cycles.
	ReconcileClean bool

	// LockPath is the exclusion lock file
	// (default <Root>/.daybook/sync.lock).
	LockPath string

	// MessagePrefix leads every commit message (default "daybook sync").
	MessagePrefix string

	// Logger for run activity. Nil gets a stderr logger.
	Logger *log.Logger
}

// Syncer executes synchronization runs.
type Syncer struct {
	v        vcs.VCS
	stager   *stage.Stager
	notifier Notifier
	recorder Recorder
	cfg      Config

	// sleep is replaceable so tests can observe backoff without waiting.
	sleep func(d time.Duration)
}

// New creates a Syncer. The recorder may be nil (no audit persistence);
// the notifier must not be.
func New(v vcs.VCS, stager *stage.Stager, notifier Notifier, recorder Recorder, cfg Config) *Syncer {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 5 * time.Second
	}
	if cfg.MessagePrefix == "" {
		cfg.MessagePrefix = "daybook sync"
	}
	if cfg.LockPath == "" {
		cfg.LockPath = filepath.Join(cfg.Root, ".daybook", "sync.lock")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "[syncer] ", log.LstdFlags)
	}

	return &Syncer{
		v:        v,
		stager:   stager,
		notifier: notifier,
		recorder: recorder,
		cfg:      cfg,
		sleep:    time.Sleep,
	}
}

// run carries the mutable state of one pipeline execution.
type run struct {
	attempt *audit.Attempt
	state   State
}

// to transitions the run and appends to the transition trace.
func (r *run) to(s State) {
	r.state = s
	r.attempt.Transitions = append(r.attempt.Transitions, string(s))
}

// step records one executed pipeline step.
func (r *run) step(name State, attempts int, err error) {
	s := audit.Step{Name: string(name), Attempts: attempts}
	if err != nil {
		s.Err = err.Error()
	}
	r.attempt.Steps = append(r.attempt.Steps, s)
}

// Run executes one synchronization run and returns its audit record.
//
// The error is nil for success, no-op, and deferred outcomes. A non-nil
// error wraps ErrCommitFailed, ErrRetriesExhausted, or ErrNeedsAttention;
// by then the failure notifier has already fired and the attempt has been
// recorded.
func (s *Syncer) Run(ctx context.Context) (*audit.Attempt, error) {
	r := &run{attempt: &audit.Attempt{StartedAt: time.Now()}}
	r.to(StateIdle)

	if err := os.MkdirAll(filepath.Dir(s.cfg.LockPath), 0755); err != nil {
		return s.fail(r, StateIdle, fmt.Errorf("%w: cannot create state dir: %v", ErrCommitFailed, err))
	}
	// Keep the state dir invisible to the VCS before anything can stage it.
	if err := config.EnsureStateIgnore(s.cfg.Root); err != nil {
		return s.fail(r, StateIdle, fmt.Errorf("%w: %v", ErrCommitFailed, err))
	}

	lock, err := lockfile.Acquire(s.cfg.LockPath)
	if err != nil {
		if errors.Is(err, lockfile.ErrHeld) {
			// Another run is in flight; defer to it.
			s.cfg.Logger.Printf("sync already in progress (pid %d), deferring",
				lockfile.HolderPID(s.cfg.LockPath))
			r.attempt.Outcome = audit.OutcomeDeferred
			return s.finish(r), nil
		}
		return s.fail(r, StateIdle, fmt.Errorf("%w: cannot take exclusion lock: %v", ErrCommitFailed, err))
	}
	// Released on every exit path; the OS drops the flock if the
	// process dies before this runs.
	defer lock.Release()

	r.to(StateStaging)
	changes, err := s.stager.Changes()
	if err != nil {
		r.step(StateStaging, 1, err)
		return s.fail(r, StateStaging, fmt.Errorf("%w: staging: %v", ErrCommitFailed, err))
	}
	r.step(StateStaging, 1, nil)

	if len(changes) == 0 {
		if s.cfg.ReconcileClean {
			r.to(StateReconciling)
			attempts, err := s.reconcile(ctx)
			r.step(StateReconciling, attempts, err)
			if err != nil {
				return s.fail(r, StateReconciling,
					fmt.Errorf("%w: reconcile (clean cycle) after %d attempts: %v", classify(err), attempts, err))
			}
		}
		s.cfg.Logger.Printf("nothing to sync")
		r.attempt.Outcome = audit.OutcomeNoop
		return s.finish(r), nil
	}

	s.cfg.Logger.Printf("staging %d changed path(s)", len(changes))

	r.to(StateCommitting)
	message := fmt.Sprintf("%s %s", s.cfg.MessagePrefix, time.Now().Format("2006-01-02 15:04:05"))
	// Commit exactly what the stager reported: the state dir and anything
	// outside the configured scope must never reach the remote.
	if err := s.v.Commit(ctx, vcs.CommitOptions{
		Message:  message,
		Paths:    stage.Paths(changes),
		NoVerify: true,
	}); err != nil {
		r.step(StateCommitting, 1, err)
		// Local invariant violation: retrying cannot change the outcome.
		return s.fail(r, StateCommitting, fmt.Errorf("%w: %v", ErrCommitFailed, err))
	}
	r.step(StateCommitting, 1, nil)

	if hash, err := s.v.GetCommitHash(""); err == nil {
		r.attempt.CommitHash = hash
	}

	// Reconcile before publish, always: pushing over a stale view of the
	// remote is rejected at best and diverges at worst.
	r.to(StateReconciling)
	attempts, err := s.reconcile(ctx)
	r.step(StateReconciling, attempts, err)
	if err != nil {
		return s.fail(r, StateReconciling,
			fmt.Errorf("%w: reconcile after %d attempts: %v", classify(err), attempts, err))
	}

	r.to(StatePublishing)
	attempts, err = s.retry(ctx, "publish", func(ctx context.Context) error {
		return s.v.Push(ctx, vcs.PushOptions{Remote: s.cfg.Remote, Ref: s.cfg.Ref})
	})
	r.step(StatePublishing, attempts, err)
	if err != nil {
		return s.fail(r, StatePublishing,
			fmt.Errorf("%w: publish after %d attempts: %v", classify(err), attempts, err))
	}

	s.cfg.Logger.Printf("published %s", r.attempt.CommitHash)
	r.attempt.Outcome = audit.OutcomeSuccess
	return s.finish(r), nil
}

// reconcile integrates upstream history, retried with backoff.
// The local commit is never part of the retried work.
func (s *Syncer) reconcile(ctx context.Context) (int, error) {
	return s.retry(ctx, "reconcile", func(ctx context.Context) error {
		return s.v.Pull(ctx, vcs.PullOptions{
			Remote: s.cfg.Remote,
			Ref:    s.cfg.Ref,
			Rebase: true,
		})
	})
}

// retry runs fn up to MaxAttempts times with doubling backoff, returning
// the number of attempts made and the final error. Errors the VCS layer
// classifies as fatal are not retried.
func (s *Syncer) retry(ctx context.Context, name string, fn func(ctx context.Context) error) (int, error) {
	delay := s.cfg.BaseDelay

	var err error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return attempt, nil
		}
		if vcs.IsFatal(err) {
			s.cfg.Logger.Printf("%s failed fatally on attempt %d: %v", name, attempt, err)
			return attempt, err
		}
		if attempt == s.cfg.MaxAttempts {
			break
		}

		s.cfg.Logger.Printf("%s attempt %d/%d failed: %v (retrying in %s)",
			name, attempt, s.cfg.MaxAttempts, err, delay)
		s.sleep(delay)
		delay *= 2
	}

	return s.cfg.MaxAttempts, err
}

// fail routes a terminal failure through Failed: notify exactly once,
// then land in Done. The attempt's error class is preserved for the
// caller's exit-code mapping.
func (s *Syncer) fail(r *run, from State, err error) (*audit.Attempt, error) {
	r.to(StateFailed)
	r.attempt.Outcome = audit.OutcomeFailure
	r.attempt.Cause = err.Error()

	s.cfg.Logger.Printf("run failed in %s: %v", from, err)
	s.notifier.Notify(notify.Alert{
		Time:        time.Now(),
		Cause:       err.Error(),
		Remediation: remediation(err),
	})

	s.finish(r)
	return r.attempt, err
}

// finish lands the run in Done, finalizes the record, and persists it.
func (s *Syncer) finish(r *run) *audit.Attempt {
	r.to(StateDone)
	r.attempt.FinishedAt = time.Now()

	if s.recorder != nil {
		if err := s.recorder.Record(r.attempt); err != nil {
			s.cfg.Logger.Printf("failed to record attempt: %v", err)
		}
	}

	return r.attempt
}

// classify picks the terminal class for a network-step failure: errors the
// VCS layer marks fatal (conflicts, missing repository) will not improve with
// another run, everything else is presumed transient.
func classify(err error) error {
	if vcs.IsFatal(err) {
		return ErrNeedsAttention
	}
	return ErrRetriesExhausted
}

// remediation maps an error class to a next-step hint for the alert.
func remediation(err error) string {
	switch {
	case errors.Is(err, ErrCommitFailed):
		return "local state is invalid and will not retry; inspect the tracked root and run 'daybook sync' once fixed"
	case errors.Is(err, ErrNeedsAttention):
		return "retrying will not help; resolve the conflict or repository problem, then run 'daybook sync'"
	case errors.Is(err, ErrRetriesExhausted):
		return "likely transient; the next trigger retries automatically, or run 'daybook sync' to retry now"
	default:
		return "check the failure log and run 'daybook sync' manually"
	}
}
