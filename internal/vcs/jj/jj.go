// Package jj implements the VCS interface for Jujutsu (jj).
//
// Jujutsu is a git-compatible VCS with automatic change tracking, an
// operation log, and first-class conflicts. There is no staging area: the
// working copy is always a change, so "commit" means describing the current
// change and starting a new one.
//
// This implementation wraps the jj CLI via os/exec and registers itself
// with the vcs factory on import.
package jj

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/steveyegge/daybook/internal/vcs"
)

func init() {
	vcs.Register(vcs.TypeJJ, func(repoRoot string) (vcs.VCS, error) {
		return New(repoRoot)
	})
}

// JJ implements the VCS interface for Jujutsu.
type JJ struct {
	// repoRoot is the repository root directory
	repoRoot string

	// jjDir is the .jj directory path
	jjDir string

	// isColocated indicates a colocated repo (.jj + .git)
	isColocated bool
}

// New creates a JJ instance for the given repository root.
// The repository must already have a .jj directory; use Init to create one.
func New(repoRoot string) (*JJ, error) {
	absRoot, err := filepath.Abs(repoRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve repository root: %w", err)
	}

	jjDir := filepath.Join(absRoot, ".jj")
	if _, err := os.Stat(jjDir); err != nil {
		return nil, vcs.ErrNotInVCS
	}

	_, gitErr := os.Stat(filepath.Join(absRoot, ".git"))

	return &JJ{
		repoRoot:    absRoot,
		jjDir:       jjDir,
		isColocated: gitErr == nil,
	}, nil
}

// Init initializes a new jj repository at path.
// If colocate is true, a git repo is created alongside, which most remotes
// need for push/fetch interop.
func Init(path string, colocate bool) (*JJ, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	args := []string{"git", "init"}
	if colocate {
		args = append(args, "--colocate")
	}

	cmd := exec.Command("jj", args...)
	cmd.Dir = absPath

	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("failed to initialize jj repository: %w\n%s", err, output)
	}

	return New(absPath)
}

// Name returns the VCS type: "jj", or "colocate" for colocated repos.
func (j *JJ) Name() vcs.Type {
	if j.isColocated {
		return vcs.TypeColocate
	}
	return vcs.TypeJJ
}

// Version returns the jj binary version string.
func (j *JJ) Version() (string, error) {
	cmd := exec.Command("jj", "--version")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to get jj version: %w", err)
	}

	// Parse "jj 0.32.0" to "0.32.0"
	parts := strings.Fields(strings.TrimSpace(string(output)))
	if len(parts) >= 2 {
		return parts[1], nil
	}
	return strings.TrimSpace(string(output)), nil
}

// RepoRoot returns the repository root directory path.
func (j *JJ) RepoRoot() (string, error) {
	return j.repoRoot, nil
}

// IsInVCS returns true if we're inside a jj repository.
func (j *JJ) IsInVCS() bool {
	return j.jjDir != ""
}

// CurrentRef returns the closest bookmark at or behind the working change,
// or empty string when none is set.
func (j *JJ) CurrentRef() (string, error) {
	output, err := j.execWithOutput(context.Background(),
		"log", "-r", "heads(::@ & bookmarks())", "-n", "1", "--no-graph",
		"-T", "local_bookmarks.map(|b| b.name()).join(\" \")")
	if err != nil {
		return "", err
	}

	fields := strings.Fields(output)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], nil
}

// Exec executes a raw jj command. This is the internal command runner used
// by all other methods; stderr patterns are classified into sentinel errors.
func (j *JJ) Exec(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "jj", args...)
	cmd.Dir = j.repoRoot

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		stderrStr := stderr.String()

		if ctx.Err() != nil {
			return nil, vcs.ErrTimeout
		}
		if strings.Contains(stderrStr, "No workspace configured") {
			return nil, vcs.ErrNotInVCS
		}
		if strings.Contains(stderrStr, "No remote configured") ||
			strings.Contains(stderrStr, "No git remotes") {
			return nil, vcs.ErrNoRemote
		}
		if strings.Contains(stderrStr, "conflict") {
			return nil, vcs.ErrConflicts
		}

		return nil, fmt.Errorf("jj %s failed: %w: %s",
			strings.Join(args, " "), err, stderrStr)
	}

	return stdout.Bytes(), nil
}

// execWithOutput runs a command and returns trimmed stdout.
func (j *JJ) execWithOutput(ctx context.Context, args ...string) (string, error) {
	output, err := j.Exec(ctx, args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}
