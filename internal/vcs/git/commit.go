package git

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/steveyegge/daybook/internal/vcs"
)

// HasChanges returns true if there are uncommitted changes.
// If paths are specified, only checks those paths.
func (g *Git) HasChanges(paths ...string) (bool, error) {
	args := []string{"status", "--porcelain"}
	args = append(args, paths...)

	cmd := exec.Command("git", args...)
	cmd.Dir = g.repoRoot

	output, err := cmd.Output()
	if err != nil {
		return false, fmt.Errorf("git status failed: %w", err)
	}

	return len(strings.TrimSpace(string(output))) > 0, nil
}

// Status returns the status of files in the working directory
func (g *Git) Status(paths ...string) ([]vcs.FileStatus, error) {
	args := []string{"status", "--porcelain"}
	args = append(args, paths...)

	cmd := exec.Command("git", args...)
	cmd.Dir = g.repoRoot

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git status failed: %w", err)
	}

	var statuses []vcs.FileStatus
	for _, line := range strings.Split(strings.TrimSpace(string(output)), "\n") {
		if len(line) < 3 {
			continue
		}

		// Porcelain format: XY filename
		// X = staged status, Y = unstaged status
		statuses = append(statuses, vcs.FileStatus{
			Path:       strings.TrimSpace(line[3:]),
			Status:     parseStatusCode(line[1:2]),
			StagedCode: parseStatusCode(line[0:1]),
		})
	}

	return statuses, nil
}

// parseStatusCode converts a git porcelain code to vcs.StatusCode
func parseStatusCode(code string) vcs.StatusCode {
	switch code {
	case " ":
		return vcs.StatusUnmodified
	case "M":
		return vcs.StatusModified
	case "A":
		return vcs.StatusAdded
	case "D":
		return vcs.StatusDeleted
	case "R":
		return vcs.StatusRenamed
	case "C":
		return vcs.StatusCopied
	case "?":
		return vcs.StatusUntracked
	case "!":
		return vcs.StatusIgnored
	case "U":
		return vcs.StatusConflict
	default:
		return vcs.StatusUnmodified
	}
}

// add stages files for commit. An empty path list stages everything,
// including new files, so a journal snapshot never misses a fresh entry.
func (g *Git) add(paths []string) error {
	args := []string{"add"}
	if len(paths) == 0 {
		args = append(args, "--all")
	} else {
		args = append(args, paths...)
	}

	cmd := exec.Command("git", args...)
	cmd.Dir = g.repoRoot

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git add failed: %w\n%s", err, string(output))
	}

	return nil
}

// Commit stages the requested paths and records a commit.
func (g *Git) Commit(ctx context.Context, opts vcs.CommitOptions) error {
	if opts.Message == "" {
		return fmt.Errorf("commit message is required")
	}

	if err := g.add(opts.Paths); err != nil {
		return err
	}

	args := []string{"commit", "-m", opts.Message}

	if opts.Author != "" {
		args = append(args, "--author", opts.Author)
	}
	if opts.NoVerify {
		args = append(args, "--no-verify")
	}
	if opts.AllowEmpty {
		args = append(args, "--allow-empty")
	}

	if len(opts.Paths) > 0 {
		args = append(args, "--")
		args = append(args, opts.Paths...)
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.repoRoot

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git commit failed: %w\n%s", err, string(output))
	}

	return nil
}
