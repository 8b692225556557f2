//go:build !unix

package vault

import "os"

// Without flock only the in-process gate applies.
func tryLockFile(f *os.File) (bool, error) { return true, nil }

func unlockFile(f *os.File) error { return nil }
