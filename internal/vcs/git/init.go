package git

import (
	"fmt"
	"os/exec"
	"path/filepath"
)

// Init initializes a new git repository at path and returns a Git
// instance for it. Used when a tracked root is set up for the first time.
func Init(path string) (*Git, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	cmd := exec.Command("git", "init")
	cmd.Dir = absPath

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("git init failed: %w\n%s", err, string(output))
	}

	return New(absPath)
}
