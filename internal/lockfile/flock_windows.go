//go:build windows

package lockfile

import (
	"os"

	"golang.org/x/sys/windows"
)

var errWouldBlock = windows.ERROR_LOCK_VIOLATION

// flock takes an exclusive lock on file via LockFileEx. When block is false
// the call fails immediately with errWouldBlock if the lock is held
// elsewhere.
func flock(file *os.File, block bool) error {
	flags := uint32(windows.LOCKFILE_EXCLUSIVE_LOCK)
	if !block {
		flags |= windows.LOCKFILE_FAIL_IMMEDIATELY
	}

	ol := new(windows.Overlapped)
	return windows.LockFileEx(windows.Handle(file.Fd()), flags, 0, 1, 0, ol)
}

// funlock releases the lock held on file.
func funlock(file *os.File) error {
	ol := new(windows.Overlapped)
	return windows.UnlockFileEx(windows.Handle(file.Fd()), 0, 1, 0, ol)
}
