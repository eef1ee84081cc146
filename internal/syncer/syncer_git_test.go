package syncer

import (
	"context"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/steveyegge/daybook/internal/audit"
	"github.com/steveyegge/daybook/internal/stage"
	gitvcs "github.com/steveyegge/daybook/internal/vcs/git"
)

// setupGitRoot creates a temporary git repository laid out as a tracked
// root, with pre-existing state files under .daybook/.
func setupGitRoot(t *testing.T) string {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}

	dir := t.TempDir()

	cmd := exec.Command("git", "init")
	cmd.Dir = dir
	if err := cmd.Run(); err != nil {
		t.Fatalf("failed to init git repo: %v", err)
	}
	exec.Command("git", "-C", dir, "config", "user.name", "Test User").Run()
	exec.Command("git", "-C", dir, "config", "user.email", "test@example.com").Run()

	if err := os.MkdirAll(filepath.Join(dir, ".daybook"), 0755); err != nil {
		t.Fatal(err)
	}
	for _, f := range []string{"failures.log", "sync.lock.stale"} {
		path := filepath.Join(dir, ".daybook", f)
		if err := os.WriteFile(path, []byte("state\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "today.md"), []byte("dear diary\n"), 0644); err != nil {
		t.Fatal(err)
	}

	return dir
}

// TestRunGitCommitExcludesStateDir runs a full cycle against a real git
// repository and checks the resulting commit's file list: the journal entry
// is in it, nothing under .daybook/ is. Without a remote the network steps
// are no-ops, so the run exercises staging and committing end to end.
func TestRunGitCommitExcludesStateDir(t *testing.T) {
	root := setupGitRoot(t)

	g, err := gitvcs.New(root)
	if err != nil {
		t.Fatalf("git backend failed: %v", err)
	}

	s := New(g, stage.New(g), &fakeNotifier{}, &fakeRecorder{}, Config{
		Root:   root,
		Logger: log.New(io.Discard, "", 0),
	})

	attempt, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if attempt.Outcome != audit.OutcomeSuccess {
		t.Fatalf("outcome = %q, want %q", attempt.Outcome, audit.OutcomeSuccess)
	}

	out, err := g.Exec(context.Background(), "show", "--name-only", "--format=", "HEAD")
	if err != nil {
		t.Fatalf("git show failed: %v", err)
	}

	var files []string
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line != "" {
			files = append(files, line)
		}
	}

	found := false
	for _, f := range files {
		if strings.HasPrefix(f, ".daybook/") {
			t.Errorf("state file %q reached the commit", f)
		}
		if f == "today.md" {
			found = true
		}
	}
	if !found {
		t.Errorf("committed files = %v, want today.md included", files)
	}
}

// TestRunGitStateDirIgnored verifies the run drops an ignore file into the
// state dir so even commits made outside daybook cannot pick it up.
func TestRunGitStateDirIgnored(t *testing.T) {
	root := setupGitRoot(t)

	g, err := gitvcs.New(root)
	if err != nil {
		t.Fatalf("git backend failed: %v", err)
	}

	s := New(g, stage.New(g), &fakeNotifier{}, &fakeRecorder{}, Config{
		Root:   root,
		Logger: log.New(io.Discard, "", 0),
	})
	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, ".daybook", ".gitignore"))
	if err != nil {
		t.Fatalf("state ignore file missing: %v", err)
	}
	if strings.TrimSpace(string(data)) != "*" {
		t.Errorf("state ignore content = %q, want everything ignored", data)
	}

	// A blanket add must still skip the state dir.
	if _, err := g.Exec(context.Background(), "add", "--all"); err != nil {
		t.Fatalf("git add failed: %v", err)
	}
	out, err := g.Exec(context.Background(), "status", "--porcelain")
	if err != nil {
		t.Fatalf("git status failed: %v", err)
	}
	if strings.Contains(string(out), ".daybook") {
		t.Errorf("state dir visible to git after blanket add:\n%s", out)
	}
}
