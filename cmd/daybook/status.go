package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/steveyegge/daybook/internal/audit"
	"github.com/steveyegge/daybook/internal/config"
	"github.com/steveyegge/daybook/internal/lockfile"
	"github.com/steveyegge/daybook/internal/stage"
	"github.com/steveyegge/daybook/internal/ui"
	"github.com/steveyegge/daybook/internal/vcs"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: "setup",
	Short:   "Show tracked root status",
	Long: `Display the state of the tracked root.

Shows:
  - Repository backend and current branch/bookmark
  - Pending (unsynced) changes
  - Whether a sync is currently running
  - Recent sync outcomes from the audit log`,
	Run: func(cmd *cobra.Command, args []string) {
		root, err := findRoot(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitError)
		}

		manifest, err := config.LoadManifest(root)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitError)
		}

		fmt.Printf("\n%s\n\n", ui.RenderHeader("Daybook Status"))
		fmt.Printf("Root: %s\n", root)

		v, err := vcs.GetForPath(root)
		if err != nil {
			fmt.Printf("Repository: %s\n", ui.RenderWarn("not detected"))
			fmt.Printf("\nRun 'daybook init' to set up this root.\n\n")
			return
		}

		ref, _ := v.CurrentRef()
		if ref == "" {
			ref = "(none)"
		}
		fmt.Printf("Repository: %s on %s\n", v.Name(), ref)
		if !v.HasRemote() {
			fmt.Printf("Remote: %s\n", ui.RenderWarn("none configured (sync will commit but not publish)"))
		}

		// Both backends can count commits awaiting publish; the probe is
		// optional so fakes and future backends need not implement it.
		if counter, ok := v.(interface {
			UnpublishedCount(ctx context.Context) (int, error)
		}); ok {
			if n, err := counter.UnpublishedCount(cmd.Context()); err == nil && n > 0 {
				fmt.Printf("Unpublished: %s\n", ui.RenderAccent(fmt.Sprintf("%d commit(s)", n)))
			}
		}

		stager := stage.New(v, manifest.Scope...).WithIgnore(manifest.Ignore...)
		changes, err := stager.Changes()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading changes: %v\n", err)
			os.Exit(exitError)
		}

		if len(changes) == 0 {
			fmt.Printf("Pending: %s\n", ui.RenderPass("clean"))
		} else {
			fmt.Printf("Pending: %s\n", ui.RenderAccent(fmt.Sprintf("%d change(s)", len(changes))))
			for _, c := range changes {
				fmt.Printf("  %s %s\n", ui.RenderMuted(string(c.Kind)), c.Path)
			}
		}

		if pid := lockfile.HolderPID(config.LockPath(root)); pid > 0 && lockHeld(config.LockPath(root)) {
			fmt.Printf("Sync: %s\n", ui.RenderAccent(fmt.Sprintf("running (pid %d)", pid)))
		}

		printRecentAttempts(root)

		if info, err := os.Stat(manifest.FailureLogPath(root)); err == nil && info.Size() > 0 {
			fmt.Printf("\n%s Failure log has entries: %s\n",
				ui.RenderWarn("⚠"), manifest.FailureLogPath(root))
		}
		fmt.Println()
	},
}

// lockHeld probes whether the exclusion lock is currently held by trying
// to take it.
func lockHeld(path string) bool {
	if _, err := os.Stat(path); err != nil {
		return false
	}
	lock, err := lockfile.Acquire(path)
	if err != nil {
		return true
	}
	lock.Release()
	return false
}

func printRecentAttempts(root string) {
	dbPath := config.AuditDBPath(root)
	if _, err := os.Stat(filepath.Dir(dbPath)); err != nil {
		return
	}
	store, err := audit.Open(dbPath)
	if err != nil {
		return
	}
	defer store.Close()

	attempts, err := store.Recent(5)
	if err != nil || len(attempts) == 0 {
		return
	}

	fmt.Printf("\nRecent syncs:\n")
	for _, a := range attempts {
		marker := ui.RenderPass("✓")
		switch a.Outcome {
		case audit.OutcomeFailure:
			marker = ui.RenderFail("✗")
		case audit.OutcomeNoop, audit.OutcomeDeferred:
			marker = ui.RenderMuted("·")
		}
		line := fmt.Sprintf("  %s %s %s", marker,
			a.StartedAt.Format("2006-01-02 15:04:05"), a.Outcome)
		if a.Cause != "" {
			line += fmt.Sprintf(" %s", ui.RenderMuted("("+a.Cause+")"))
		}
		fmt.Println(line)
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
