//go:build unix

package storage

import (
	"os"

	"golang.org/x/sys/unix"
)

// Advisory flock only: it protects against other cooperating timeaudit
// processes, not against arbitrary writers.

func lockExclusive(file *os.File) error {
	return unix.Flock(int(file.Fd()), unix.LOCK_EX)
}

func lockShared(file *os.File) error {
	return unix.Flock(int(file.Fd()), unix.LOCK_SH)
}

func unlock(file *os.File) error {
	return unix.Flock(int(file.Fd()), unix.LOCK_UN)
}
