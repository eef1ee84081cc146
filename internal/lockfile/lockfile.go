// Package lockfile provides the two filesystem locks daybook relies on.
//
// The exclusion lock serializes whole synchronization runs: Acquire is
// non-blocking, and contention means another run is already in flight, so
// the caller defers rather than queues. The append lock serializes writers
// of one shared log file for the duration of a single append.
//
// Both are advisory flocks, so release is guaranteed by the OS when the
// holding process terminates, normally or otherwise. Neither lock depends
// on the holder reaching its normal exit path.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrHeld is returned by Acquire when another process holds the lock.
// It signals deferral, not failure: the caller should treat it as
// "someone else is already doing the work".
var ErrHeld = errors.New("lock held by another process")

// Lock is a held filesystem lock. Release it exactly once; the zero value
// is not usable.
type Lock struct {
	file *os.File
	path string
}

// Acquire takes a non-blocking exclusive lock on the file at path, creating
// it if needed. Returns ErrHeld if any other process holds the lock.
//
// The holder's PID is written into the lock file for diagnostics only;
// the flock, not the file content, is the source of truth.
func Acquire(path string) (*Lock, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file %s: %w", path, err)
	}

	if err := flock(file, false); err != nil {
		file.Close()
		if errors.Is(err, errWouldBlock) {
			return nil, ErrHeld
		}
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}

	// Diagnostics for a human inspecting a stuck lock.
	file.Truncate(0)
	file.Seek(0, 0)
	fmt.Fprintf(file, "%d\n", os.Getpid())
	file.Sync()

	return &Lock{file: file, path: path}, nil
}

// Release unlocks and closes the lock file. Safe to call once; a released
// lock must not be reused.
func (l *Lock) Release() error {
	if l.file == nil {
		return nil
	}

	if err := funlock(l.file); err != nil {
		return fmt.Errorf("failed to unlock %s: %w", l.path, err)
	}

	if err := l.file.Close(); err != nil {
		return fmt.Errorf("failed to close lock file %s: %w", l.path, err)
	}

	l.file = nil
	return nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// HolderPID reports the PID recorded in the lock file at path, if any.
// Best effort: returns 0 when the file is missing or unparseable.
func HolderPID(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}
