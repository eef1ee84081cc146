package vcs

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DetectionResult describes the VCS found for a tracked root.
type DetectionResult struct {
	// Type is the detected VCS type
	Type Type

	// RepoRoot is the repository root directory path
	RepoRoot string

	// VCSDir is the metadata directory path (.git or .jj)
	VCSDir string

	// HasGit indicates a .git directory or file was found
	HasGit bool

	// HasJJ indicates a .jj directory was found
	HasJJ bool

	// Colocated indicates both git and jj are present
	Colocated bool
}

// Detect identifies the VCS for a given directory by walking up the tree
// until a .jj or .git marker is found.
//
// Colocated repositories (both markers) report TypeColocate; use
// PreferredVCS or the factory preference to pick an implementation.
//
// Returns ErrNotInVCS if no repository is found.
func Detect(path string) (*DetectionResult, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	current := absPath
	for {
		result := &DetectionResult{}

		jjDir := filepath.Join(current, ".jj")
		if info, err := os.Stat(jjDir); err == nil && info.IsDir() {
			result.HasJJ = true
			result.RepoRoot = current
			result.VCSDir = jjDir
		}

		// .git may be a file (worktree pointer); both count as a repo.
		gitPath := filepath.Join(current, ".git")
		if _, err := os.Stat(gitPath); err == nil {
			result.HasGit = true
			if result.RepoRoot == "" {
				result.RepoRoot = current
				result.VCSDir = gitPath
			}
		}

		if result.HasJJ || result.HasGit {
			result.Colocated = result.HasJJ && result.HasGit
			switch {
			case result.Colocated:
				result.Type = TypeColocate
			case result.HasJJ:
				result.Type = TypeJJ
			default:
				result.Type = TypeGit
			}
			return result, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return nil, ErrNotInVCS
		}
		current = parent
	}
}

// PreferredVCS returns the preferred backend for colocated repositories.
//
// Preference order:
//  1. DAYBOOK_VCS environment variable ("git" or "jj")
//  2. jj, for its conflict handling and operation log
func PreferredVCS() Type {
	if pref := os.Getenv("DAYBOOK_VCS"); pref != "" {
		switch strings.ToLower(pref) {
		case "jj", "jujutsu":
			return TypeJJ
		case "git":
			return TypeGit
		}
	}
	return TypeJJ
}

// IsGitAvailable reports whether the git binary is on PATH.
func IsGitAvailable() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// IsJJAvailable reports whether the jj binary is on PATH.
func IsJJAvailable() bool {
	_, err := exec.LookPath("jj")
	return err == nil
}

// DetectWithAvailability performs detection and verifies the required
// binary exists. For colocated repos with only one binary installed, the
// result is narrowed to the available backend.
func DetectWithAvailability(path string) (*DetectionResult, error) {
	result, err := Detect(path)
	if err != nil {
		return nil, err
	}

	switch result.Type {
	case TypeGit:
		if !IsGitAvailable() {
			return nil, ErrVCSNotAvailable
		}
	case TypeJJ:
		if !IsJJAvailable() {
			return nil, ErrVCSNotAvailable
		}
	case TypeColocate:
		hasGit := IsGitAvailable()
		hasJJ := IsJJAvailable()
		switch {
		case !hasGit && !hasJJ:
			return nil, ErrVCSNotAvailable
		case hasGit && !hasJJ:
			result.HasJJ = false
			result.Type = TypeGit
			result.Colocated = false
		case hasJJ && !hasGit:
			result.HasGit = false
			result.Type = TypeJJ
			result.Colocated = false
		}
	}

	return result, nil
}
