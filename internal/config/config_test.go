package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

// TestLoadManifestMissing verifies that a root without a manifest gets the
// stock defaults rather than an error.
func TestLoadManifestMissing(t *testing.T) {
	m, err := LoadManifest(t.TempDir())
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}

	if m.Sync.MaxAttempts != 3 {
		t.Errorf("max attempts = %d, want 3", m.Sync.MaxAttempts)
	}
	if m.Sync.BaseDelay.Std() != 5*time.Second {
		t.Errorf("base delay = %v, want 5s", m.Sync.BaseDelay.Std())
	}
	if !m.Notify.Desktop {
		t.Error("desktop notifications should default on")
	}
}

// TestManifestRoundTrip verifies save-then-load preserves settings through
// the TOML encoding, including duration strings.
func TestManifestRoundTrip(t *testing.T) {
	root := t.TempDir()

	m := Default()
	m.Remote = "origin"
	m.Ref = "journal"
	m.Scope = []string{"entries/"}
	m.Sync.MaxAttempts = 5
	m.Sync.BaseDelay = duration(30 * time.Second)
	m.Sync.ReconcileClean = true
	m.Daemon.Debounce = duration(750 * time.Millisecond)

	if err := SaveManifest(root, m); err != nil {
		t.Fatalf("SaveManifest failed: %v", err)
	}

	got, err := LoadManifest(root)
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}

	if got.Remote != "origin" || got.Ref != "journal" {
		t.Errorf("remote/ref = %q/%q, want origin/journal", got.Remote, got.Ref)
	}
	if len(got.Scope) != 1 || got.Scope[0] != "entries/" {
		t.Errorf("scope = %v, want [entries/]", got.Scope)
	}
	if got.Sync.MaxAttempts != 5 {
		t.Errorf("max attempts = %d, want 5", got.Sync.MaxAttempts)
	}
	if got.Sync.BaseDelay.Std() != 30*time.Second {
		t.Errorf("base delay = %v, want 30s", got.Sync.BaseDelay.Std())
	}
	if !got.Sync.ReconcileClean {
		t.Error("reconcile_clean did not survive the round trip")
	}
	if got.Daemon.Debounce.Std() != 750*time.Millisecond {
		t.Errorf("debounce = %v, want 750ms", got.Daemon.Debounce.Std())
	}
}

// TestLoadManifestUnknownKey verifies that a typoed key is rejected instead
// of silently ignored.
func TestLoadManifestUnknownKey(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, ManifestName)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("remot = \"origin\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadManifest(root); err == nil {
		t.Error("expected error for unknown manifest key")
	}
}

// TestLoadManifestBadDuration verifies that an unparseable duration fails
// loudly.
func TestLoadManifestBadDuration(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, ManifestName)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("[sync]\nbase_delay = \"soon\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadManifest(root); err == nil {
		t.Error("expected error for bad duration")
	}
}

// TestApplyGlobalOverlay verifies the layering: the global layer fills in
// keys the manifest left at defaults, but never overrides explicit
// manifest settings.
func TestApplyGlobalOverlay(t *testing.T) {
	v := viper.New()
	v.Set("sync.max_attempts", 7)
	v.Set("sync.base_delay", "1m")
	v.Set("sync.message_prefix", "journal:")
	v.Set("notify.desktop", false)

	m := Default()
	m.Sync.BaseDelay = duration(10 * time.Second) // explicit in manifest

	Apply(v, m)

	if m.Sync.MaxAttempts != 7 {
		t.Errorf("max attempts = %d, want 7 from global layer", m.Sync.MaxAttempts)
	}
	if m.Sync.BaseDelay.Std() != 10*time.Second {
		t.Errorf("base delay = %v, manifest setting must win", m.Sync.BaseDelay.Std())
	}
	if m.Sync.MessagePrefix != "journal:" {
		t.Errorf("message prefix = %q, want journal: from global layer", m.Sync.MessagePrefix)
	}
	if m.Notify.Desktop {
		t.Error("notify.desktop = true, want false from global layer")
	}
}

// TestApplyNotifyManifestWins verifies an explicit manifest notify setting
// is not clobbered by the global layer.
func TestApplyNotifyManifestWins(t *testing.T) {
	v := viper.New()
	v.Set("notify.desktop", true)

	m := Default()
	m.Notify.Desktop = false // explicit in manifest

	Apply(v, m)

	if m.Notify.Desktop {
		t.Error("manifest notify.desktop = false must win over the global layer")
	}
}

// TestEnsureStateIgnore verifies the state dir gets a blanket ignore file,
// and that an existing one is left untouched.
func TestEnsureStateIgnore(t *testing.T) {
	root := t.TempDir()

	if err := EnsureStateIgnore(root); err != nil {
		t.Fatalf("EnsureStateIgnore failed: %v", err)
	}

	path := filepath.Join(root, ".daybook", ".gitignore")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ignore file not written: %v", err)
	}
	if string(data) != "*\n" {
		t.Errorf("ignore content = %q, want %q", data, "*\n")
	}

	// A customized file survives repeat calls.
	if err := os.WriteFile(path, []byte("*\n!keep.me\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := EnsureStateIgnore(root); err != nil {
		t.Fatalf("EnsureStateIgnore failed: %v", err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "*\n!keep.me\n" {
		t.Errorf("existing ignore file was overwritten: %q", data)
	}
}

// TestPathHelpers verifies the state-dir path resolution.
func TestPathHelpers(t *testing.T) {
	m := Default()

	if got := m.FailureLogPath("/r"); got != filepath.Join("/r", ".daybook", "failures.log") {
		t.Errorf("failure log path = %q", got)
	}
	m.Notify.FailureLog = "/var/log/daybook.log"
	if got := m.FailureLogPath("/r"); got != "/var/log/daybook.log" {
		t.Errorf("explicit failure log path = %q", got)
	}

	if got := LockPath("/r"); got != filepath.Join("/r", ".daybook", "sync.lock") {
		t.Errorf("lock path = %q", got)
	}
	if got := AuditDBPath("/r"); got != filepath.Join("/r", ".daybook", "audit.db") {
		t.Errorf("audit db path = %q", got)
	}
}
