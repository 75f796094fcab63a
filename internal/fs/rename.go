package fs

import "os"

// wraps os.Rename with retry logic.
// It provides a resilient, atomic swap for archive finalization.

func renameWithRetry(oldPath, newPath string) error {
	return retry("rename", func() error {
		return os.Rename(oldPath, newPath)
	})
}
