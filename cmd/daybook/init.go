package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/steveyegge/daybook/internal/config"
	"github.com/steveyegge/daybook/internal/ui"
	"github.com/steveyegge/daybook/internal/vcs"
	gitvcs "github.com/steveyegge/daybook/internal/vcs/git"
	jjvcs "github.com/steveyegge/daybook/internal/vcs/jj"
)

var initCmd = &cobra.Command{
	Use:     "init [PATH]",
	GroupID: "setup",
	Short:   "Set up a directory as a tracked root",
	Long: `Set up PATH (default: current directory) as a daybook tracked root.

Creates the .daybook state directory and manifest, and offers to initialize
a repository if the directory is not already under version control. Safe to
run on an existing tracked root; existing settings are kept.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		target := "."
		if len(args) == 1 {
			target = args[0]
		}
		root, err := filepath.Abs(target)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitError)
		}
		if err := os.MkdirAll(root, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitError)
		}

		manifest, err := config.LoadManifest(root)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitError)
		}

		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			if err := promptSettings(manifest); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(exitError)
			}
		}

		if _, err := vcs.GetForPath(root); err != nil {
			if err := initRepo(root, yes); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(exitError)
			}
		}

		if err := config.SaveManifest(root, manifest); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitError)
		}
		if err := config.EnsureStateIgnore(root); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitError)
		}

		fmt.Printf("%s Initialized tracked root at %s\n", ui.RenderPass("✓"), root)
		fmt.Printf("   Manifest: %s\n", config.ManifestName)
		fmt.Printf("\nNext: add a remote and run 'daybook sync', or start 'daybook daemon'.\n")
	},
}

// promptSettings collects the manifest settings interactively.
func promptSettings(m *config.Manifest) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Remote").
				Description("Remote to publish to (empty: repository default)").
				Value(&m.Remote),
			huh.NewInput().
				Title("Branch / bookmark").
				Description("Ref to publish (empty: current)").
				Value(&m.Ref),
			huh.NewConfirm().
				Title("Desktop notifications on sync failure?").
				Value(&m.Notify.Desktop),
			huh.NewConfirm().
				Title("Reconcile with upstream on quiet cycles?").
				Value(&m.Sync.ReconcileClean),
		),
	)
	return form.Run()
}

// initRepo creates a repository at root, preferring jj when available.
func initRepo(root string, yes bool) error {
	jjAvailable := lookPathOK("jj")

	if !yes {
		var proceed bool
		confirm := huh.NewConfirm().
			Title(fmt.Sprintf("%s is not under version control. Initialize a repository?", root)).
			Value(&proceed)
		if err := confirm.Run(); err != nil {
			return err
		}
		if !proceed {
			return fmt.Errorf("a repository is required; initialize one and re-run")
		}
	}

	if jjAvailable {
		// Colocated keeps plain git tooling working alongside jj.
		if _, err := jjvcs.Init(root, lookPathOK("git")); err != nil {
			return fmt.Errorf("jj init failed: %w", err)
		}
		fmt.Printf("%s Initialized jj repository\n", ui.RenderPass("✓"))
		return nil
	}
	if lookPathOK("git") {
		if _, err := gitvcs.Init(root); err != nil {
			return fmt.Errorf("git init failed: %w", err)
		}
		fmt.Printf("%s Initialized git repository\n", ui.RenderPass("✓"))
		return nil
	}
	return fmt.Errorf("neither jj nor git found in PATH")
}

func lookPathOK(bin string) bool {
	_, err := exec.LookPath(bin)
	return err == nil
}

func init() {
	initCmd.Flags().BoolP("yes", "y", false, "accept defaults without prompting")
	rootCmd.AddCommand(initCmd)
}
