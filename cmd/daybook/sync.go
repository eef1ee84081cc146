package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/steveyegge/daybook/internal/audit"
	"github.com/steveyegge/daybook/internal/config"
	"github.com/steveyegge/daybook/internal/notify"
	"github.com/steveyegge/daybook/internal/stage"
	"github.com/steveyegge/daybook/internal/syncer"
	"github.com/steveyegge/daybook/internal/ui"
	"github.com/steveyegge/daybook/internal/vcs"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	GroupID: "sync",
	Short:   "Run one synchronization cycle",
	Long: `Run one synchronization cycle against the tracked root.

The cycle stages local changes, commits them, reconciles with upstream, and
publishes. Transient network failures retry with doubling backoff; a local
commit failure stops immediately and needs human attention.

Exit codes:
  0  published, nothing to sync, or deferred to a running sync
  2  local commit failed
  3  network retries exhausted`,
	Run: func(cmd *cobra.Command, args []string) {
		engine, closeEngine, err := buildEngine(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitError)
		}
		attempt, err := engine.Run(cmd.Context())
		// os.Exit skips defers, so flush the audit store before any exit:
		// the failed attempt is the record worth keeping.
		closeEngine()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", ui.RenderFail("✗"), err)
			os.Exit(exitCode(err))
		}

		switch attempt.Outcome {
		case audit.OutcomeNoop:
			fmt.Printf("%s Nothing to sync\n", ui.RenderMuted("·"))
		case audit.OutcomeDeferred:
			fmt.Printf("%s Sync already in progress, deferred\n", ui.RenderMuted("·"))
		default:
			fmt.Printf("%s Synced %s in %v\n", ui.RenderPass("✓"),
				shortHash(attempt.CommitHash), attempt.Duration().Round(time.Millisecond))
		}
	},
}

func init() {
	syncCmd.Flags().Bool("reconcile-clean", false, "pull upstream even when there is nothing to commit")
	syncCmd.Flags().String("remote", "", "remote to publish to (default: repository default)")
	syncCmd.Flags().String("ref", "", "branch or bookmark to publish (default: current)")
	rootCmd.AddCommand(syncCmd)
}

// buildEngine wires the full sync pipeline for the resolved root: VCS,
// stager, failure notifier, audit store, and orchestrator. The returned
// closer flushes the audit store.
func buildEngine(cmd *cobra.Command) (*syncer.Syncer, func(), error) {
	root, err := findRoot(cmd)
	if err != nil {
		return nil, nil, err
	}

	manifest, err := config.LoadManifest(root)
	if err != nil {
		return nil, nil, err
	}
	config.Apply(viper.GetViper(), manifest)

	if remote, _ := cmd.Flags().GetString("remote"); remote != "" {
		manifest.Remote = remote
	}
	if ref, _ := cmd.Flags().GetString("ref"); ref != "" {
		manifest.Ref = ref
	}
	if clean, _ := cmd.Flags().GetBool("reconcile-clean"); clean {
		manifest.Sync.ReconcileClean = true
	}

	v, err := vcs.GetForPath(root)
	if err != nil {
		return nil, nil, fmt.Errorf("%s is not inside a repository: %w", root, err)
	}

	stager := stage.New(v, manifest.Scope...).WithIgnore(manifest.Ignore...)

	notifier := notify.New(manifest.FailureLogPath(root), nil)
	if !manifest.Notify.Desktop {
		notifier.WithoutDesktop()
	}

	store, err := audit.Open(config.AuditDBPath(root))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open audit store: %w", err)
	}

	engine := syncer.New(v, stager, notifier, store, syncer.Config{
		Root:           root,
		Remote:         manifest.Remote,
		Ref:            manifest.Ref,
		MaxAttempts:    manifest.Sync.MaxAttempts,
		BaseDelay:      manifest.Sync.BaseDelay.Std(),
		ReconcileClean: manifest.Sync.ReconcileClean,
		LockPath:       config.LockPath(root),
		MessagePrefix:  manifest.Sync.MessagePrefix,
		Logger:         log.New(os.Stderr, "[sync] ", log.LstdFlags),
	})

	return engine, func() { store.Close() }, nil
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	if hash == "" {
		return "(no commit)"
	}
	return hash
}
