// Package syncer runs the synchronization pipeline for a tracked root.
//
// One run is an explicit state machine:
//
//	Idle → Staging → Committing → Reconciling → Publishing → Done
//	                     ↓              ↓             ↓
//	                   Failed ───────────────────────┴──→ Done
//
// Transitions:
//
//   - Idle → Staging: the run acquired the exclusion lock. If the lock is
//     held, the run defers: it goes straight to Done with a deferred
//     outcome, which is a success, not an error.
//   - Staging → Committing: the stager found local changes. An empty
//     change set short-circuits to Done (optionally reconciling first,
//     to keep the checkout current on quiet cycles).
//   - Committing → Reconciling: the local snapshot was recorded. A commit
//     failure is terminal and never retried: it means the tracked root is
//     in a state retrying cannot fix.
//   - Reconciling → Publishing: upstream history was integrated, local
//     commits rebased on top. Network-dependent, so retried with doubling
//     backoff up to the attempt bound. Retries never touch the local
//     commit; only the remote interaction reruns.
//   - Publishing → Done: local history reached the remote. Same retry
//     policy as reconciling.
//   - Any exhaustion lands in Failed, which invokes the failure notifier
//     exactly once, then proceeds to Done. A network step that fails with
//     a non-retryable condition (conflicts, missing repository) lands in
//     Failed the same way but carries ErrNeedsAttention rather than
//     ErrRetriesExhausted, so the caller can tell "try again later" from
//     "a human must act".
//
// Reconcile always precedes publish. Publishing against a stale view of
// the remote is either rejected outright or, worse, quietly diverges, so
// the order is fixed even though it costs a round-trip on every run.
//
// Every run produces one audit.Attempt carrying the transition trace,
// per-step retry counts, and the outcome.
package syncer
