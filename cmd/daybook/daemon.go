package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/steveyegge/daybook/internal/config"
	"github.com/steveyegge/daybook/internal/daemon"
	"github.com/steveyegge/daybook/internal/ui"
)

var daemonCmd = &cobra.Command{
	Use:     "daemon",
	GroupID: "sync",
	Short:   "Watch the tracked root and sync on changes (foreground)",
	Long: `Run the file-watching daemon in the foreground.

The daemon watches the tracked root for writes, batches rapid changes
together, and runs a synchronization cycle once the root goes quiet. An
optional interval keeps the root reconciled even without local writes.

For background use, run under a process manager (systemd, launchd).`,
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
		config.Apply(viper.GetViper(), manifest)

		engine, closeEngine, err := buildEngine(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitError)
		}
		defer closeEngine()

		interval, _ := cmd.Flags().GetDuration("interval")

		cfg := &daemon.Config{
			Debounce: manifest.Daemon.Debounce.Std(),
			Interval: interval,
			LogPath:  manifest.Daemon.LogPath,
			Logger:   log.New(os.Stderr, "[daemon] ", log.LstdFlags),
		}

		d, err := daemon.New(root, engine, cfg)
		if err != nil {
			closeEngine()
			fmt.Fprintf(os.Stderr, "Error creating daemon: %v\n", err)
			os.Exit(exitError)
		}

		fmt.Printf("%s Watching %s\n", ui.RenderAccent("👁"), root)
		fmt.Printf("   Debounce: %v\n", cfg.Debounce)
		if interval > 0 {
			fmt.Printf("   Interval: %v\n", interval)
		}
		fmt.Printf("\nPress Ctrl+C to stop\n\n")

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if err := d.Start(ctx); err != nil {
			// os.Exit skips defers, so flush the audit store first.
			closeEngine()
			fmt.Fprintf(os.Stderr, "Daemon stopped with error: %v\n", err)
			os.Exit(exitError)
		}
	},
}

func init() {
	daemonCmd.Flags().Duration("interval", 0*time.Second, "also sync on this interval (0 disables)")
	rootCmd.AddCommand(daemonCmd)
}
