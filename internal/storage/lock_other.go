//go:build !unix

package storage

import "os"

// No flock support; the atomic rename still guarantees readers never see
// a torn file.

func lockExclusive(*os.File) error { return nil }

func lockShared(*os.File) error { return nil }

func unlock(*os.File) error { return nil }
