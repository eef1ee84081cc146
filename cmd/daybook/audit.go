package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/steveyegge/daybook/internal/audit"
	"github.com/steveyegge/daybook/internal/config"
	"github.com/steveyegge/daybook/internal/ui"
)

var auditCmd = &cobra.Command{
	Use:     "audit",
	GroupID: "setup",
	Short:   "Inspect the sync attempt history",
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent sync attempts",
	Run: func(cmd *cobra.Command, args []string) {
		store := openAuditStore(cmd)
		defer store.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		attempts, err := store.Recent(limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitError)
		}
		if len(attempts) == 0 {
			fmt.Println("No sync attempts recorded.")
			return
		}

		counts, _ := store.CountByOutcome()
		fmt.Printf("\n%s  (%d success, %d noop, %d failure)\n\n",
			ui.RenderHeader("Sync History"),
			counts[audit.OutcomeSuccess], counts[audit.OutcomeNoop], counts[audit.OutcomeFailure])

		for _, a := range attempts {
			marker := ui.RenderPass("✓")
			switch a.Outcome {
			case audit.OutcomeFailure:
				marker = ui.RenderFail("✗")
			case audit.OutcomeNoop, audit.OutcomeDeferred:
				marker = ui.RenderMuted("·")
			}
			fmt.Printf("%s %s  %-9s %s", marker,
				a.StartedAt.Format("2006-01-02 15:04:05"), a.Outcome, shortHash(a.CommitHash))
			if a.Cause != "" {
				fmt.Printf("  %s", ui.RenderMuted(a.Cause))
			}
			fmt.Println()
			for _, step := range a.Steps {
				if step.Attempts > 1 || step.Err != "" {
					fmt.Printf("    %s: %d attempt(s) %s\n",
						step.Name, step.Attempts, ui.RenderMuted(step.Err))
				}
			}
		}
		fmt.Println()
	},
}

var auditExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export sync attempts as YAML",
	Long: `Export the recorded sync attempts to stdout as YAML, newest first.

Includes the full transition trace and per-step retry counts for each
attempt, suitable for offline analysis.`,
	Run: func(cmd *cobra.Command, args []string) {
		store := openAuditStore(cmd)
		defer store.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		attempts, err := store.Recent(limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitError)
		}

		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		for _, a := range attempts {
			if err := enc.Encode(a); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(exitError)
			}
		}
	},
}

func openAuditStore(cmd *cobra.Command) *audit.Store {
	root, err := findRoot(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitError)
	}
	store, err := audit.Open(config.AuditDBPath(root))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening audit store: %v\n", err)
		os.Exit(exitError)
	}
	return store
}

func init() {
	auditListCmd.Flags().IntP("limit", "n", 20, "number of attempts to show")
	auditExportCmd.Flags().IntP("limit", "n", 1000, "number of attempts to export")
	auditCmd.AddCommand(auditListCmd)
	auditCmd.AddCommand(auditExportCmd)
	rootCmd.AddCommand(auditCmd)
}
