// Package fs provides the filesystem helpers behind the archive flush cycle.
// The cycle writes a complete replacement container to a temp file and swaps
// it over the original; the swap must survive transient errors from busy
// filesystems.
package fs

// ReplaceFile atomically replaces newPath with the file at oldPath, retrying
// transient errors with backoff.
func ReplaceFile(oldPath, newPath string) error {
	return renameWithRetry(oldPath, newPath)
}
