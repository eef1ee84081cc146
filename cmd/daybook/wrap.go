package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

var wrapCmd = &cobra.Command{
	Use:     "wrap -- COMMAND [ARGS...]",
	GroupID: "sync",
	Short:   "Run a command, then sync its changes",
	Long: `Run a command inside the tracked root, then run one synchronization
cycle to capture whatever it wrote.

This is the editor workflow: 'daybook wrap -- vim today.md' opens the
entry and publishes it on exit. When the wrapped command fails, its exit
status is propagated and no sync runs; a failing producer's partial
output should not be published. Otherwise the sync cycle's exit code
applies.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		root, err := findRoot(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitError)
		}

		child := exec.CommandContext(cmd.Context(), args[0], args[1:]...)
		child.Dir = root
		child.Stdin = os.Stdin
		child.Stdout = os.Stdout
		child.Stderr = os.Stderr

		if childErr := child.Run(); childErr != nil {
			if exitErr, ok := childErr.(*exec.ExitError); ok {
				os.Exit(exitErr.ExitCode())
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", childErr)
			os.Exit(exitError)
		}

		engine, closeEngine, err := buildEngine(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitError)
		}
		_, err = engine.Run(cmd.Context())
		// os.Exit skips defers, so flush the audit store before any exit.
		closeEngine()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitCode(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(wrapCmd)
}
