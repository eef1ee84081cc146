package git

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/steveyegge/daybook/internal/vcs"
)

// HasRemote returns true if any remote is configured
func (g *Git) HasRemote() bool {
	cmd := exec.Command("git", "remote")
	cmd.Dir = g.repoRoot

	output, err := cmd.Output()
	if err != nil {
		return false
	}

	return len(strings.TrimSpace(string(output))) > 0
}

// GetRemotes returns information about configured remotes
func (g *Git) GetRemotes() ([]vcs.RemoteInfo, error) {
	cmd := exec.Command("git", "remote", "-v")
	cmd.Dir = g.repoRoot

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git remote -v failed: %w", err)
	}

	// Parse output: "origin url (fetch)"; skip push duplicates.
	seen := make(map[string]bool)
	var result []vcs.RemoteInfo
	for _, line := range strings.Split(strings.TrimSpace(string(output)), "\n") {
		parts := strings.Fields(line)
		if len(parts) < 2 || seen[parts[0]] {
			continue
		}
		seen[parts[0]] = true
		result = append(result, vcs.RemoteInfo{Name: parts[0], URL: parts[1]})
	}

	return result, nil
}

// defaultRemote resolves the remote to use: the branch's configured remote
// when set, otherwise origin.
func (g *Git) defaultRemote() string {
	branch, err := g.CurrentRef()
	if err == nil && branch != "" {
		cmd := exec.Command("git", "config", "--get", fmt.Sprintf("branch.%s.remote", branch))
		cmd.Dir = g.repoRoot
		if output, err := cmd.Output(); err == nil {
			if remote := strings.TrimSpace(string(output)); remote != "" {
				return remote
			}
		}
	}
	return "origin"
}

// Fetch fetches from the specified remote and reference.
// No-op when no remote is configured (local-only mode).
func (g *Git) Fetch(ctx context.Context, remote, ref string) error {
	if !g.HasRemote() {
		return nil
	}

	if remote == "" {
		remote = g.defaultRemote()
	}

	args := []string{"fetch", remote}
	if ref != "" {
		args = append(args, ref)
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.repoRoot

	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return vcs.ErrTimeout
		}
		return fmt.Errorf("git fetch failed: %w\n%s", err, string(output))
	}

	return nil
}

// Pull integrates upstream history. No-op when no remote is configured.
func (g *Git) Pull(ctx context.Context, opts vcs.PullOptions) error {
	if !g.HasRemote() {
		return nil
	}

	remote := opts.Remote
	if remote == "" {
		remote = g.defaultRemote()
	}

	ref := opts.Ref
	if ref == "" {
		var err error
		ref, err = g.CurrentRef()
		if err != nil {
			return err
		}
		if ref == "" {
			return vcs.ErrDetached
		}
	}

	args := []string{"pull"}
	if opts.Rebase {
		args = append(args, "--rebase")
	}
	if opts.FFOnly {
		args = append(args, "--ff-only")
	}
	args = append(args, remote, ref)

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.repoRoot

	output, err := cmd.CombinedOutput()
	if err != nil {
		outputStr := string(output)

		if ctx.Err() != nil {
			return vcs.ErrTimeout
		}
		if strings.Contains(outputStr, "non-fast-forward") {
			return vcs.ErrMergeRequired
		}
		if strings.Contains(outputStr, "conflicts") || strings.Contains(outputStr, "CONFLICT") {
			return vcs.ErrConflicts
		}

		return fmt.Errorf("git pull failed: %w\n%s", err, outputStr)
	}

	return nil
}

// Push publishes local history. No-op when no remote is configured.
func (g *Git) Push(ctx context.Context, opts vcs.PushOptions) error {
	if !g.HasRemote() {
		return nil
	}

	remote := opts.Remote
	if remote == "" {
		remote = g.defaultRemote()
	}

	ref := opts.Ref
	if ref == "" {
		var err error
		ref, err = g.CurrentRef()
		if err != nil {
			return err
		}
		if ref == "" {
			return vcs.ErrDetached
		}
	}

	args := []string{"push"}
	if opts.SetUpstream {
		args = append(args, "-u")
	}
	args = append(args, remote, ref)

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.repoRoot

	output, err := cmd.CombinedOutput()
	if err != nil {
		outputStr := string(output)

		if ctx.Err() != nil {
			return vcs.ErrTimeout
		}
		if strings.Contains(outputStr, "rejected") || strings.Contains(outputStr, "non-fast-forward") {
			return vcs.ErrPushRejected
		}

		return fmt.Errorf("git push failed: %w\n%s", err, outputStr)
	}

	return nil
}
