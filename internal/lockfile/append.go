package lockfile

import (
	"fmt"
	"os"
)

// AppendRecord appends one fully formed record to the file at path,
// serialized against all other AppendRecord callers (same process or not)
// by a blocking exclusive lock on the file itself.
//
// The critical section is a single bounded write plus flush, so no timeout
// is needed. Callers must hold at most one append lock at a time and must
// not acquire a second lock while inside this call; AppendRecord itself
// takes no other locks.
//
// A trailing newline is added if record lacks one, so the file stays one
// record per line regardless of caller discipline.
func AppendRecord(path string, record []byte) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s for append: %w", path, err)
	}
	defer file.Close()

	if err := flock(file, true); err != nil {
		return fmt.Errorf("failed to lock %s for append: %w", path, err)
	}
	defer funlock(file)

	if len(record) == 0 || record[len(record)-1] != '\n' {
		record = append(record, '\n')
	}

	if _, err := file.Write(record); err != nil {
		return fmt.Errorf("failed to append to %s: %w", path, err)
	}

	if err := file.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s after append: %w", path, err)
	}

	return nil
}
