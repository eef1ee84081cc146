package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/steveyegge/daybook/internal/atomic"
	"github.com/steveyegge/daybook/internal/lockfile"
	"github.com/steveyegge/daybook/internal/ui"
)

var writeCmd = &cobra.Command{
	Use:     "write PATH",
	GroupID: "write",
	Short:   "Replace a file atomically from stdin",
	Long: `Replace the file at PATH with the content of stdin.

The replacement is atomic: readers see either the old content or the new,
never a partial write, even across a crash or power loss. The file's
parent directory must exist.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading stdin: %v\n", err)
			os.Exit(exitError)
		}

		path, err := filepath.Abs(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitError)
		}

		if err := atomic.WriteFile(path, content, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitError)
		}

		fmt.Printf("%s Wrote %d bytes to %s\n", ui.RenderPass("✓"), len(content), path)
	},
}

var appendCmd = &cobra.Command{
	Use:     "append PATH",
	GroupID: "write",
	Short:   "Append a record to a file under lock",
	Long: `Append the content of stdin to the file at PATH as one record.

The append holds an exclusive file lock for its duration, so concurrent
appenders from other processes interleave whole records, never fragments.
A trailing newline is added when the record lacks one. The file is created
if missing.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		record, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading stdin: %v\n", err)
			os.Exit(exitError)
		}

		path, err := filepath.Abs(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitError)
		}

		if err := lockfile.AppendRecord(path, record); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitError)
		}

		fmt.Printf("%s Appended %d bytes to %s\n", ui.RenderPass("✓"), len(record), path)
	},
}

func init() {
	rootCmd.AddCommand(writeCmd)
	rootCmd.AddCommand(appendCmd)
}
