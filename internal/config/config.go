// Package config loads daybook settings from two layers:
//
//   - a global config file (~/.config/daybook/config.yaml) plus DAYBOOK_*
//     environment variables, managed through viper
//   - a per-root manifest (.daybook/daybook.toml) checked in next to the
//     data it governs
//
// The manifest wins over the global layer for any key it sets; command
// flags win over both (wired in cmd via viper.BindPFlag).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"github.com/steveyegge/daybook/internal/atomic"
)

// ManifestName is the per-root manifest path, relative to the tracked root.
const ManifestName = ".daybook/daybook.toml"

// Manifest is the per-root configuration, serialized as TOML.
//
// It lives inside the tracked root but under the state directory, which the
// stager excludes, so manifest edits never ride along in a sync commit
// unless the user moves the file out deliberately.
type Manifest struct {
	// Remote and Ref select where this root publishes. Empty defers to
	// the repository's configured defaults.
	Remote string `toml:"remote,omitempty"`
	Ref    string `toml:"ref,omitempty"`

	// Scope restricts syncing to these path prefixes (relative to the
	// root). Empty syncs everything.
	Scope []string `toml:"scope,omitempty"`

	// Ignore lists extra path prefixes to exclude from staging.
	Ignore []string `toml:"ignore,omitempty"`

	Sync   SyncConfig   `toml:"sync"`
	Daemon DaemonConfig `toml:"daemon"`
	Notify NotifyConfig `toml:"notify"`
}

// SyncConfig tunes the run pipeline.
type SyncConfig struct {
	// MaxAttempts bounds each network step.
	MaxAttempts int `toml:"max_attempts"`

	// BaseDelay is the first retry backoff; it doubles per attempt.
	BaseDelay duration `toml:"base_delay"`

	// ReconcileClean pulls upstream even on cycles with nothing to commit.
	ReconcileClean bool `toml:"reconcile_clean"`

	// MessagePrefix leads every generated commit message.
	MessagePrefix string `toml:"message_prefix,omitempty"`
}

// DaemonConfig tunes the file-watching daemon.
type DaemonConfig struct {
	// Debounce is how long the watcher waits after the last write event
	// before triggering a run.
	Debounce duration `toml:"debounce"`

	// LogPath is the daemon activity log. Empty logs to stderr only.
	LogPath string `toml:"log_path,omitempty"`
}

// NotifyConfig tunes failure escalation.
type NotifyConfig struct {
	// Desktop enables the best-effort desktop notification tier.
	Desktop bool `toml:"desktop"`

	// FailureLog is the append-only failure log path. Empty uses
	// <root>/.daybook/failures.log.
	FailureLog string `toml:"failure_log,omitempty"`
}

// duration marshals as a human string ("5s", "2m") in TOML.
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(parsed)
	return nil
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d duration) Std() time.Duration { return time.Duration(d) }

// Default returns a manifest with the stock settings.
func Default() *Manifest {
	return &Manifest{
		Sync: SyncConfig{
			MaxAttempts: 3,
			BaseDelay:   duration(5 * time.Second),
		},
		Daemon: DaemonConfig{
			Debounce: duration(2 * time.Second),
		},
		Notify: NotifyConfig{
			Desktop: true,
		},
	}
}

// LoadManifest reads the manifest for root, layered over defaults.
// A missing manifest is not an error; the defaults apply as-is.
func LoadManifest(root string) (*Manifest, error) {
	m := Default()

	path := filepath.Join(root, ManifestName)
	meta, err := toml.DecodeFile(path, m)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return m, nil
		}
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q in %s", undecoded[0], path)
	}

	return m, nil
}

// SaveManifest writes the manifest for root atomically, creating the state
// directory if needed.
func SaveManifest(root string, m *Manifest) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	path := filepath.Join(root, ManifestName)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}
	return atomic.WriteFile(path, buf.Bytes(), 0644)
}

// InitViper configures the global layer: config file discovery, DAYBOOK_*
// environment variables, and built-in defaults. Called once from the CLI
// root command.
func InitViper(v *viper.Viper) error {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "daybook"))
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("DAYBOOK")
	v.AutomaticEnv()

	v.SetDefault("vcs", "jj")
	v.SetDefault("sync.max_attempts", 3)
	v.SetDefault("sync.base_delay", "5s")
	v.SetDefault("sync.reconcile_clean", false)
	v.SetDefault("daemon.debounce", "2s")
	v.SetDefault("notify.desktop", true)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read global config: %w", err)
	}
	return nil
}

// Apply overlays the global viper layer onto a manifest for keys the
// manifest left at their defaults. The manifest, being closest to the
// data, keeps anything it set explicitly.
func Apply(v *viper.Viper, m *Manifest) {
	def := Default()

	if m.Sync.MaxAttempts == def.Sync.MaxAttempts && v.IsSet("sync.max_attempts") {
		m.Sync.MaxAttempts = v.GetInt("sync.max_attempts")
	}
	if m.Sync.BaseDelay == def.Sync.BaseDelay && v.IsSet("sync.base_delay") {
		m.Sync.BaseDelay = duration(v.GetDuration("sync.base_delay"))
	}
	if !m.Sync.ReconcileClean {
		m.Sync.ReconcileClean = v.GetBool("sync.reconcile_clean")
	}
	if m.Sync.MessagePrefix == "" && v.IsSet("sync.message_prefix") {
		m.Sync.MessagePrefix = v.GetString("sync.message_prefix")
	}
	if m.Daemon.Debounce == def.Daemon.Debounce && v.IsSet("daemon.debounce") {
		m.Daemon.Debounce = duration(v.GetDuration("daemon.debounce"))
	}
	if m.Notify.Desktop == def.Notify.Desktop && v.IsSet("notify.desktop") {
		m.Notify.Desktop = v.GetBool("notify.desktop")
	}
}

// EnsureStateIgnore makes the state directory invisible to version
// control: a .gitignore inside .daybook/ ignoring everything in it. Both
// git and jj honor nested gitignore files, so the failure log, lock files,
// and audit database stay untracked even under `git add --all`, jj's
// auto-tracking, or a manual commit. Idempotent; an existing file is left
// alone.
func EnsureStateIgnore(root string) error {
	dir := filepath.Join(root, ".daybook")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}

	path := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.WriteFile(path, []byte("*\n"), 0644); err != nil {
		return fmt.Errorf("failed to write state ignore: %w", err)
	}
	return nil
}

// FailureLogPath resolves the failure log location for root.
func (m *Manifest) FailureLogPath(root string) string {
	if m.Notify.FailureLog != "" {
		return m.Notify.FailureLog
	}
	return filepath.Join(root, ".daybook", "failures.log")
}

// AuditDBPath resolves the audit database location for root.
func AuditDBPath(root string) string {
	return filepath.Join(root, ".daybook", "audit.db")
}

// LockPath resolves the exclusion lock location for root.
func LockPath(root string) string {
	return filepath.Join(root, ".daybook", "sync.lock")
}
