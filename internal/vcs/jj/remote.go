package jj

import (
	"context"
	"strings"

	"github.com/steveyegge/daybook/internal/vcs"
)

// HasRemote returns true if any git remote is configured.
func (j *JJ) HasRemote() bool {
	remotes, err := j.GetRemotes()
	if err != nil {
		return false
	}
	return len(remotes) > 0
}

// GetRemotes returns the configured git remotes.
// jj stores remotes in its git backend, so `jj git remote list` covers
// both colocated and pure jj repos.
func (j *JJ) GetRemotes() ([]vcs.RemoteInfo, error) {
	output, err := j.execWithOutput(context.Background(), "git", "remote", "list")
	if err != nil {
		return nil, err
	}

	var remotes []vcs.RemoteInfo
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		remotes = append(remotes, vcs.RemoteInfo{Name: fields[0], URL: fields[1]})
	}

	return remotes, nil
}

// Fetch retrieves upstream history. jj updates remote-tracking bookmarks
// and rebases the working change automatically where it can; conflicted
// results surface as first-class conflicts, reported by HasConflicts.
// No-op when no remote is configured.
func (j *JJ) Fetch(ctx context.Context, remote, ref string) error {
	if !j.HasRemote() {
		return nil
	}

	args := []string{"git", "fetch"}
	if remote != "" {
		args = append(args, "--remote", remote)
	}

	_, err := j.Exec(ctx, args...)
	return err
}

// Pull integrates upstream history. In jj this is a fetch: tracked
// bookmarks move to their remote positions and local changes are rebased
// on top by the working-copy model, so there is no separate merge step.
func (j *JJ) Pull(ctx context.Context, opts vcs.PullOptions) error {
	return j.Fetch(ctx, opts.Remote, opts.Ref)
}

// Push publishes local history to the remote.
// No-op when no remote is configured.
func (j *JJ) Push(ctx context.Context, opts vcs.PushOptions) error {
	if !j.HasRemote() {
		return nil
	}

	args := []string{"git", "push"}
	if opts.Remote != "" {
		args = append(args, "--remote", opts.Remote)
	}
	if opts.Ref != "" {
		args = append(args, "-b", opts.Ref)
	}

	_, err := j.Exec(ctx, args...)
	if err != nil {
		if strings.Contains(err.Error(), "rejected") ||
			strings.Contains(err.Error(), "non-fast-forward") {
			return vcs.ErrPushRejected
		}
		return err
	}

	return nil
}
