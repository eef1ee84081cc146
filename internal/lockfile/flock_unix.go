//go:build unix

package lockfile

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

var errWouldBlock = unix.EWOULDBLOCK

// flock takes an exclusive lock on file. When block is false the call fails
// immediately with errWouldBlock if the lock is held elsewhere.
func flock(file *os.File, block bool) error {
	how := unix.LOCK_EX
	if !block {
		how |= unix.LOCK_NB
	}

	for {
		err := unix.Flock(int(file.Fd()), how)
		if !errors.Is(err, unix.EINTR) {
			return err
		}
	}
}

// funlock releases the lock held on file.
func funlock(file *os.File) error {
	return unix.Flock(int(file.Fd()), unix.LOCK_UN)
}
