package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/steveyegge/daybook/internal/config"
	"github.com/steveyegge/daybook/internal/syncer"
)

// Exit codes. Scripts and the wrap command depend on these being stable.
const (
	exitOK               = 0 // success, nothing to sync, or deferred to a running sync
	exitError            = 1 // usage or environment errors
	exitCommitFailed     = 2 // commit failed or conflicts; needs human attention
	exitRetriesExhausted = 3 // network steps failed on every attempt
)

var rootCmd = &cobra.Command{
	Use:   "daybook",
	Short: "Durable journal synchronization",
	Long: `Daybook keeps a directory of journal entries durably synchronized with a
version-controlled remote.

Writes go through crash-safe primitives (atomic replace, locked append),
changes are committed locally, reconciled against upstream, and published,
with bounded retries and failure escalation that cannot itself be lost.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "sync", Title: "Synchronization:"},
		&cobra.Group{ID: "write", Title: "Durable writes:"},
		&cobra.Group{ID: "setup", Title: "Setup & inspection:"},
	)

	rootCmd.PersistentFlags().StringP("root", "C", "", "tracked root directory (default: walk up from cwd)")
}

// findRoot resolves the tracked root: the --root flag if given, otherwise
// the nearest ancestor of cwd containing a .daybook directory, otherwise
// cwd itself.
func findRoot(cmd *cobra.Command) (string, error) {
	if flag, _ := cmd.Flags().GetString("root"); flag != "" {
		abs, err := filepath.Abs(flag)
		if err != nil {
			return "", err
		}
		return abs, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for dir := cwd; ; {
		if info, err := os.Stat(filepath.Join(dir, ".daybook")); err == nil && info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return cwd, nil
		}
		dir = parent
	}
}

// exitCode maps a sync error to the process exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, syncer.ErrCommitFailed), errors.Is(err, syncer.ErrNeedsAttention):
		return exitCommitFailed
	case errors.Is(err, syncer.ErrRetriesExhausted):
		return exitRetriesExhausted
	default:
		return exitError
	}
}

func main() {
	if err := config.InitViper(viper.GetViper()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitError)
	}
}
