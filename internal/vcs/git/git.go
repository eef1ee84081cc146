// Package git implements the VCS interface for git repositories.
//
// Operations shell out to the git binary. Network-facing commands take a
// context so the sync engine can bound them; local queries run without one.
package git

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/steveyegge/daybook/internal/vcs"
)

func init() {
	vcs.Register(vcs.TypeGit, func(repoRoot string) (vcs.VCS, error) {
		return New(repoRoot)
	})
}

// Git implements the VCS interface for git repositories.
type Git struct {
	// repoRoot is the repository root directory path
	repoRoot string

	// vcsDir is the .git directory path (may differ for worktrees)
	vcsDir string
}

// New creates a Git instance for the repository containing path.
func New(path string) (*Git, error) {
	g := &Git{}
	if err := g.detect(path); err != nil {
		return nil, err
	}
	return g, nil
}

// detect resolves the repository root and git dir in one rev-parse call.
func (g *Git) detect(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	cmd := exec.Command("git", "rev-parse", "--git-dir", "--show-toplevel")
	cmd.Dir = absPath

	output, err := cmd.Output()
	if err != nil {
		return vcs.ErrNotInVCS
	}

	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	if len(lines) < 2 {
		return fmt.Errorf("unexpected git rev-parse output: got %d lines, expected 2", len(lines))
	}

	gitDir := strings.TrimSpace(lines[0])
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(absPath, gitDir)
	}

	g.vcsDir = gitDir
	g.repoRoot = normalizeRepoRoot(strings.TrimSpace(lines[1]))
	return nil
}

// normalizeRepoRoot resolves symlinks so the root compares stably.
func normalizeRepoRoot(path string) string {
	path = filepath.FromSlash(path)
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	return path
}

// Name returns the VCS type (git)
func (g *Git) Name() vcs.Type {
	return vcs.TypeGit
}

// Version returns the git version string
func (g *Git) Version() (string, error) {
	cmd := exec.Command("git", "--version")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to get git version: %w", err)
	}

	// Output format: "git version 2.39.0"
	version := strings.TrimSpace(string(output))
	version = strings.TrimPrefix(version, "git version ")
	return version, nil
}

// RepoRoot returns the repository root directory path
func (g *Git) RepoRoot() (string, error) {
	if g.repoRoot == "" {
		return "", vcs.ErrNotInVCS
	}
	return g.repoRoot, nil
}

// IsInVCS returns true if inside a git repository
func (g *Git) IsInVCS() bool {
	return g.repoRoot != ""
}

// CurrentRef returns the current branch name, or empty string when HEAD
// is detached.
func (g *Git) CurrentRef() (string, error) {
	cmd := exec.Command("git", "rev-parse", "--abbrev-ref", "HEAD")
	cmd.Dir = g.repoRoot

	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse failed: %w", err)
	}

	ref := strings.TrimSpace(string(output))
	if ref == "HEAD" {
		// Detached HEAD state
		return "", nil
	}
	return ref, nil
}

// GetCommitHash returns the commit hash for the given reference.
func (g *Git) GetCommitHash(ref string) (string, error) {
	if ref == "" {
		ref = "HEAD"
	}

	cmd := exec.Command("git", "rev-parse", ref)
	cmd.Dir = g.repoRoot

	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse %s failed: %w", ref, err)
	}

	return strings.TrimSpace(string(output)), nil
}

// HasConflicts returns true if the working copy has unmerged paths.
func (g *Git) HasConflicts() (bool, error) {
	cmd := exec.Command("git", "status", "--porcelain")
	cmd.Dir = g.repoRoot

	output, err := cmd.Output()
	if err != nil {
		return false, fmt.Errorf("git status failed: %w", err)
	}

	// Unmerged status codes: DD, AU, UD, UA, DU, AA, UU
	for _, line := range strings.Split(string(output), "\n") {
		if len(line) < 2 {
			continue
		}
		switch line[:2] {
		case "DD", "AU", "UD", "UA", "DU", "AA", "UU":
			return true, nil
		}
	}

	return false, nil
}

// UnpublishedCount returns how many local commits await publishing.
// Without an upstream tracking ref there is no basis for comparison and
// the count is 0.
func (g *Git) UnpublishedCount(ctx context.Context) (int, error) {
	cmd := exec.CommandContext(ctx, "git", "rev-list", "--count", "@{upstream}..HEAD")
	cmd.Dir = g.repoRoot

	output, err := cmd.Output()
	if err != nil {
		return 0, nil
	}

	count, err := strconv.Atoi(strings.TrimSpace(string(output)))
	if err != nil {
		return 0, fmt.Errorf("unexpected rev-list output: %w", err)
	}
	return count, nil
}

// Exec executes a raw git command
func (g *Git) Exec(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.repoRoot

	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("git %s failed: %w\n%s",
			strings.Join(args, " "), err, string(output))
	}

	return output, nil
}
