// Package daemon runs the background file watcher that turns journal writes
// into sync runs.
//
// The daemon:
//  1. Watches the tracked root (recursively) for file changes
//  2. Debounces bursts of writes into a single trigger
//  3. Invokes a sync run per trigger, never more than one at a time
//  4. Handles graceful shutdown
//
// Daybook's own state directory and the VCS metadata directories are never
// watched; the sync engine's lock files and audit writes must not retrigger
// the watcher.
package daemon

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/steveyegge/daybook/internal/audit"
)

// Runner executes one sync run. *syncer.Syncer satisfies this.
type Runner interface {
	Run(ctx context.Context) (*audit.Attempt, error)
}

// Config holds configuration for the daemon.
type Config struct {
	// Debounce is how long the root must stay quiet after the last write
	// before a run triggers. Batches rapid editor saves together.
	Debounce time.Duration

	// Interval triggers a run even without file events, keeping clean
	// roots reconciled. Zero disables periodic runs.
	Interval time.Duration

	// LogPath writes activity to a size-rotated file as well as the
	// logger. Empty disables the file log.
	LogPath string

	// Logger for daemon activity
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Debounce: 2 * time.Second,
		Logger:   log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// skipDirs are directory names never watched, at any depth.
var skipDirs = map[string]bool{
	".daybook": true,
	".git":     true,
	".jj":      true,
}

// Daemon watches a tracked root and triggers sync runs.
type Daemon struct {
	root   string
	runner Runner
	config *Config

	watcher *fsnotify.Watcher

	// lastEvent is the time of the newest relevant file event; zero means
	// nothing is pending.
	lastEvent   time.Time
	lastEventMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logClose io.Closer
}

// New creates a daemon watching root. Use Start() to begin.
func New(root string, runner Runner, config *Config) (*Daemon, error) {
	if root == "" {
		return nil, fmt.Errorf("root cannot be empty")
	}
	if runner == nil {
		return nil, fmt.Errorf("runner cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Debounce <= 0 {
		config.Debounce = 2 * time.Second
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[daemon] ", log.LstdFlags)
	}

	var rotated *lumberjack.Logger
	if config.LogPath != "" {
		rotated = &lumberjack.Logger{
			Filename:   config.LogPath,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     30, // days
		}
		config.Logger = log.New(io.MultiWriter(config.Logger.Writer(), rotated),
			"[daemon] ", log.LstdFlags)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Daemon{
		root:    root,
		runner:  runner,
		config:  config,
		watcher: watcher,
		ctx:     ctx,
		cancel:  cancel,
	}
	if rotated != nil {
		d.logClose = rotated
	}
	return d, nil
}

// Start begins watching and blocks until ctx is cancelled or startup fails.
//
// One sync run happens immediately on startup so changes made while the
// daemon was down are not stranded until the next write.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Printf("starting, watching %s", d.root)

	if err := d.watchTree(d.root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", d.root, err)
	}

	d.runOnce("startup")

	d.wg.Add(2)
	go d.watchFileEvents()
	go d.triggerLoop()

	select {
	case <-ctx.Done():
		d.config.Logger.Println("shutdown signal received")
		return d.Stop()
	case <-d.ctx.Done():
		return nil
	}
}

// Stop gracefully shuts down the daemon.
func (d *Daemon) Stop() error {
	d.config.Logger.Println("stopping")

	d.cancel()

	if err := d.watcher.Close(); err != nil {
		d.config.Logger.Printf("error closing watcher: %v", err)
	}

	d.wg.Wait()

	if d.logClose != nil {
		d.logClose.Close()
	}

	d.config.Logger.Println("stopped")
	return nil
}

// watchTree registers dir and every non-skipped subdirectory with the
// watcher. fsnotify watches are per-directory, not recursive.
func (d *Daemon) watchTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if skipDirs[entry.Name()] {
			return filepath.SkipDir
		}
		return d.watcher.Add(path)
	})
}

// watchFileEvents consumes fsnotify events and records the newest relevant
// write time for the trigger loop.
func (d *Daemon) watchFileEvents() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if d.ignored(event.Name) {
				continue
			}

			// New subdirectories need their own watch.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := d.watchTree(event.Name); err != nil {
						d.config.Logger.Printf("failed to watch new dir %s: %v", event.Name, err)
					}
				}
			}

			d.lastEventMu.Lock()
			d.lastEvent = time.Now()
			d.lastEventMu.Unlock()

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.config.Logger.Printf("watcher error: %v", err)
		}
	}
}

// ignored reports whether path is under a skipped directory or is an
// in-flight atomic temp file.
func (d *Daemon) ignored(path string) bool {
	rel, err := filepath.Rel(d.root, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if skipDirs[part] {
			return true
		}
	}
	return strings.HasPrefix(filepath.Base(path), ".daybook-tmp-")
}

// triggerLoop fires a sync run once the root has been quiet for the
// debounce window, and on the periodic interval if one is configured.
func (d *Daemon) triggerLoop() {
	defer d.wg.Done()

	// Poll at a fraction of the debounce window; precision beyond that
	// does not matter for a human-scale journal.
	tick := d.config.Debounce / 4
	if tick < 50*time.Millisecond {
		tick = 50 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	var periodic <-chan time.Time
	if d.config.Interval > 0 {
		pt := time.NewTicker(d.config.Interval)
		defer pt.Stop()
		periodic = pt.C
	}

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			d.lastEventMu.Lock()
			pending := !d.lastEvent.IsZero() && time.Since(d.lastEvent) >= d.config.Debounce
			if pending {
				d.lastEvent = time.Time{}
			}
			d.lastEventMu.Unlock()

			if pending {
				d.runOnce("file change")
			}

		case <-periodic:
			d.runOnce("interval")
		}
	}
}

// runOnce executes one sync run. Runs are serialized by construction: the
// trigger loop is the only caller besides startup, and both run on the
// daemon's goroutines one at a time. A concurrent manual `daybook sync`
// is handled by the engine's exclusion lock, not here.
func (d *Daemon) runOnce(reason string) {
	d.config.Logger.Printf("sync triggered (%s)", reason)

	attempt, err := d.runner.Run(d.ctx)
	if err != nil {
		// The run already notified and recorded; the daemon keeps going.
		d.config.Logger.Printf("sync failed: %v", err)
		return
	}
	if attempt != nil {
		d.config.Logger.Printf("sync finished: %s", attempt.Outcome)
	}
}
