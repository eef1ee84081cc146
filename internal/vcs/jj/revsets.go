package jj

import (
	"context"
	"strings"
)

// UnpublishedChanges returns the commit IDs of local changes not yet on any
// remote bookmark, oldest first. Empty working-copy changes are excluded;
// jj always has one open.
func (j *JJ) UnpublishedChanges(ctx context.Context) ([]string, error) {
	revset := `remote_bookmarks()..@ ~ empty()`
	out, err := j.execWithOutput(ctx, "log", "-r", revset,
		"--no-graph", "--reversed", "-T", `commit_id ++ "\n"`)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// UnpublishedCount returns how many local changes await publishing.
func (j *JJ) UnpublishedCount(ctx context.Context) (int, error) {
	ids, err := j.UnpublishedChanges(ctx)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

func splitLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
