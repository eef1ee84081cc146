package vcs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// TestDetect_GitRepo verifies detection of a plain git repository,
// including from a nested subdirectory.
func TestDetect_GitRepo(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".git"), 0755); err != nil {
		t.Fatalf("Failed to create .git: %v", err)
	}
	nested := filepath.Join(root, "journal", "2026")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("Failed to create nested dir: %v", err)
	}

	for _, start := range []string{root, nested} {
		result, err := Detect(start)
		if err != nil {
			t.Fatalf("Detect(%s) failed: %v", start, err)
		}
		if result.Type != TypeGit {
			t.Errorf("Detect(%s).Type = %s, want %s", start, result.Type, TypeGit)
		}
		if !result.HasGit || result.HasJJ {
			t.Errorf("Detect(%s): HasGit=%v HasJJ=%v", start, result.HasGit, result.HasJJ)
		}
	}
}

// TestDetect_JJRepo verifies detection of a pure jj repository.
func TestDetect_JJRepo(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".jj"), 0755); err != nil {
		t.Fatalf("Failed to create .jj: %v", err)
	}

	result, err := Detect(root)
	if err != nil {
		t.Fatalf("Detect() failed: %v", err)
	}
	if result.Type != TypeJJ {
		t.Errorf("Type = %s, want %s", result.Type, TypeJJ)
	}
}

// TestDetect_Colocated verifies a repo with both markers reports colocate.
func TestDetect_Colocated(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{".git", ".jj"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
			t.Fatalf("Failed to create %s: %v", dir, err)
		}
	}

	result, err := Detect(root)
	if err != nil {
		t.Fatalf("Detect() failed: %v", err)
	}
	if result.Type != TypeColocate || !result.Colocated {
		t.Errorf("Type = %s (colocated=%v), want %s", result.Type, result.Colocated, TypeColocate)
	}
}

// TestDetect_NotInVCS verifies detection outside any repository.
func TestDetect_NotInVCS(t *testing.T) {
	if _, err := Detect(t.TempDir()); !errors.Is(err, ErrNotInVCS) {
		t.Errorf("Detect() = %v, want ErrNotInVCS", err)
	}
}

// TestFactory_CreateUsesRegistry verifies Create routes through registered
// constructors for a detected repository.
func TestFactory_CreateUsesRegistry(t *testing.T) {
	typeName := uniqueTestType("factory")

	// A fake marker type cannot be detected from disk, so exercise the
	// constructor path directly.
	Register(typeName, newMockVCS(typeName))

	constructor := getConstructor(typeName)
	v, err := constructor("/some/root")
	if err != nil {
		t.Fatalf("Constructor failed: %v", err)
	}
	if v.Name() != typeName {
		t.Errorf("Name() = %s, want %s", v.Name(), typeName)
	}
}

// TestFactory_ImplementationTypePreference verifies colocated repos resolve
// to the preferred backend when its marker is present.
func TestFactory_ImplementationTypePreference(t *testing.T) {
	result := &DetectionResult{
		Type:      TypeColocate,
		HasGit:    true,
		HasJJ:     true,
		Colocated: true,
	}

	// Preference only wins when the binary is installed; with neither
	// installed the factory falls back to git.
	f := NewFactory(WithPreferredType(TypeGit))
	got := f.implementationType(result)
	if IsGitAvailable() && got != TypeGit {
		t.Errorf("implementationType() = %s, want %s", got, TypeGit)
	}

	plain := &DetectionResult{Type: TypeJJ, HasJJ: true}
	if got := f.implementationType(plain); got != TypeJJ {
		t.Errorf("implementationType(non-colocated) = %s, want %s", got, TypeJJ)
	}
}

// TestIsRetryable_Classification verifies the orchestrator-facing error
// classification.
func TestIsRetryable_Classification(t *testing.T) {
	tests := []struct {
		err       error
		retryable bool
		fatal     bool
	}{
		{nil, false, false},
		{ErrTimeout, true, false},
		{ErrPushRejected, true, false},
		{ErrMergeRequired, true, false},
		{ErrNotInVCS, false, true},
		{ErrVCSNotAvailable, false, true},
		{ErrConflicts, false, true},
		{errors.New("disk on fire"), false, false},
	}

	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.retryable {
			t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.retryable)
		}
		if got := IsFatal(tt.err); got != tt.fatal {
			t.Errorf("IsFatal(%v) = %v, want %v", tt.err, got, tt.fatal)
		}
	}
}
