// Package atomic provides crash-safe whole-file replacement.
//
// Journal producers never write a tracked file in place. They hand the new
// content to WriteFile, which stages it in a temporary sibling, syncs it to
// disk, and renames it onto the target. The rename is the atomicity boundary:
// a concurrent reader sees either the old content or the new content, never a
// partial write, even if the writing process dies mid-call.
package atomic

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// tempPrefix marks staging files so interrupted writes can be identified
// and swept later. Temp files live in the target's directory because rename
// is only atomic within one filesystem volume.
const tempPrefix = ".daybook-tmp-"

// staleAge is how old a staging file must be before SweepTemp treats it as
// abandoned. Live writers hold their temp file for milliseconds.
const staleAge = 10 * time.Minute

// WriteFile replaces the file at path with content, atomically.
//
// Either the target reflects content in its entirety after the call, or it
// is unchanged from before the call. There is no internal retry: a failure
// is reported immediately and retrying is the caller's decision.
//
// A temp file left behind by a crashed writer is garbage, not corruption.
// Every successful write sweeps stale leftovers from its directory.
func WriteFile(path string, content []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, tempPrefix+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	// Remove the temp file on any failure path. Once the rename succeeds
	// the temp path no longer exists and both calls are no-ops.
	defer func() {
		if tmp != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	// The content must reach disk before the rename makes it visible,
	// otherwise a crash could surface an empty or truncated file.
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions on temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}

	tmp = nil

	// Sweep failures never fail the write that succeeded.
	_ = SweepTemp(dir)

	return nil
}

// SweepTemp removes abandoned staging files in dir. Only temp files older
// than staleAge are removed; a concurrent writer's live temp file is never
// touched. Returns the first removal error after attempting all candidates.
func SweepTemp(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	cutoff := time.Now().Add(-staleAge)

	var firstErr error
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), tempPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
