package jj

import (
	"context"
	"fmt"
	"strings"

	"github.com/steveyegge/daybook/internal/vcs"
)

// Status returns the status of files in the working copy.
func (j *JJ) Status(paths ...string) ([]vcs.FileStatus, error) {
	args := []string{"status"}
	args = append(args, paths...)

	output, err := j.execWithOutput(context.Background(), args...)
	if err != nil {
		return nil, err
	}

	return parseStatus(output), nil
}

// parseStatus parses `jj status` output:
//
//	Working copy changes:
//	M journal/2026-08.md
//	A journal/2026-08-30.md
func parseStatus(output string) []vcs.FileStatus {
	var statuses []vcs.FileStatus

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasSuffix(line, ":") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		var code vcs.StatusCode
		switch fields[0] {
		case "M":
			code = vcs.StatusModified
		case "A":
			code = vcs.StatusAdded
		case "D":
			code = vcs.StatusDeleted
		case "R":
			code = vcs.StatusRenamed
		case "C":
			code = vcs.StatusCopied
		default:
			continue
		}

		statuses = append(statuses, vcs.FileStatus{
			Path:   strings.Join(fields[1:], " "),
			Status: code,
			// jj has no staging area
			StagedCode: vcs.StatusUnmodified,
		})
	}

	return statuses
}

// HasChanges returns true if the working copy has uncommitted changes.
func (j *JJ) HasChanges(paths ...string) (bool, error) {
	statuses, err := j.Status(paths...)
	if err != nil {
		return false, err
	}
	return len(statuses) > 0, nil
}

// Commit records a snapshot: describes the working change, then starts a
// new change so the snapshot is frozen. jj auto-tracks files, so Paths
// only narrows the description via `jj split` semantics; daybook always
// snapshots the whole working change, so Paths is ignored here.
func (j *JJ) Commit(ctx context.Context, opts vcs.CommitOptions) error {
	if opts.Message == "" {
		return fmt.Errorf("commit message is required")
	}

	if !opts.AllowEmpty {
		changed, err := j.HasChanges()
		if err != nil {
			return err
		}
		if !changed {
			return fmt.Errorf("nothing to commit")
		}
	}

	if _, err := j.Exec(ctx, "describe", "-m", opts.Message); err != nil {
		return err
	}

	if _, err := j.Exec(ctx, "new"); err != nil {
		return fmt.Errorf("failed to create new change: %w", err)
	}

	return nil
}

// GetCommitHash returns the commit ID (not change ID) for a revision.
func (j *JJ) GetCommitHash(ref string) (string, error) {
	if ref == "" {
		ref = "@-"
	}

	output, err := j.execWithOutput(context.Background(),
		"log", "-r", ref, "-n", "1", "--no-graph", "-T", "commit_id")
	if err != nil {
		return "", err
	}

	if output == "" {
		return "", fmt.Errorf("no commit found for revision %s", ref)
	}
	return output, nil
}

// HasConflicts returns true if the working copy has unresolved conflicts.
// In jj, conflicts are first-class and live inside commits.
func (j *JJ) HasConflicts() (bool, error) {
	output, err := j.execWithOutput(context.Background(), "resolve", "--list")
	if err != nil {
		// `jj resolve --list` fails when there is nothing to resolve.
		if strings.Contains(err.Error(), "No conflicts") {
			return false, nil
		}
		return false, err
	}

	return strings.TrimSpace(output) != "", nil
}
