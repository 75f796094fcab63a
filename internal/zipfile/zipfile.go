// Package zipfile owns a single zip archive holding one log-text entry plus
// any number of attachment entries.
//
// The zip format has no incremental-append mode, so every write runs a full
// flush cycle: the container is re-read, untouched entries are stream-copied
// without recompression, the log entry is extended, and the result atomically
// replaces the original file. Each emitted line therefore costs one container
// rewrite pass; a reader that reopens the archive sees the line as soon as
// the write returns.
//
// A flock sidecar (<path>.lock) keeps cooperating processes out for the life
// of a handle. The lock is advisory: processes that do not take it can still
// corrupt the archive. Within one process, a handle serializes its own flush
// cycles under a mutex.
package zipfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"

	"github.com/raoulx24/ziplog/internal/attach"
	"github.com/raoulx24/ziplog/internal/fs"
	"github.com/raoulx24/ziplog/internal/logging"
)

// ErrLocked reports that another process holds the archive.
var ErrLocked = errors.New("zipfile: archive locked by another process")

// ErrClosed reports a write on a closed handle.
var ErrClosed = errors.New("zipfile: archive handle closed")

// ErrOverflow is reserved for a future size-based rollover policy. No write
// path returns it today; the rolling manager reacts to it by advancing the
// sequence number at the same checkpoint.
var ErrOverflow = errors.New("zipfile: archive full")

// entryTimeLayout names attachment entries. Colons are replaced afterwards;
// they are not legal in filenames on some platforms.
const entryTimeLayout = "2006-01-02 15:04:05"

type pendingEntry struct {
	name     string
	level    attach.Level
	data     []byte
	modified time.Time
}

// File is an open archive handle bound to one zip container and its single
// log-text entry.
type File struct {
	mu      sync.Mutex
	path    string
	logName string
	lock    *flock.Flock
	diag    logging.Logger
	closed  bool

	// staged changes applied by the next flush cycle
	pendingText    []byte
	pendingEntries []pendingEntry
}

// Open opens or creates the archive at path, creating the directory tree if
// missing. The log-text entry logName is created (uncompressed) when absent.
// Open fails with ErrLocked when a cooperating process holds the archive, and
// with an I/O error when the container cannot be read back.
func Open(path, logName string, diag logging.Logger) (*File, error) {
	if diag == nil {
		diag = logging.Nop{}
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating archive directory: %w", err)
		}
	}

	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring archive lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}

	f := &File{path: path, logName: logName, lock: lock, diag: diag}
	if err := f.ensureLogEntry(); err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	return f, nil
}

// Path returns the archive path this handle is bound to.
func (f *File) Path() string { return f.path }

// AppendText appends an already-formatted line to the log entry and runs the
// flush cycle so the line is durable when the call returns.
func (f *File) AppendText(line string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	f.pendingText = append(f.pendingText, line...)
	return f.rewrite()
}

// AppendAttachment writes line to the log entry and adds a new archive entry
// named "<ts> - <name>" (colons replaced with underscores) holding data at
// the given compression level. Both land in the same flush cycle.
func (f *File) AppendAttachment(ts time.Time, name string, level attach.Level, data []byte, line string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}

	entryName := strings.ReplaceAll(ts.Format(entryTimeLayout)+" - "+name, ":", "_")
	f.pendingText = append(f.pendingText, line...)
	f.pendingEntries = append(f.pendingEntries, pendingEntry{
		name:     entryName,
		level:    level,
		data:     data,
		modified: ts,
	})
	return f.rewrite()
}

// Flush forces a flush cycle with nothing staged. With no intervening write
// it leaves the entry count and log text unchanged.
func (f *File) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	return f.rewrite()
}

// Close releases the process lock. The last flush cycle already made every
// write durable, so there is nothing to write out. The lock sidecar stays on
// disk: all lockers must contend on the same inode, and deleting it would
// hand a waiter on the old file and a newcomer on a fresh one the lock at
// the same time.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	return f.lock.Unlock()
}

// ensureLogEntry verifies the container is readable and contains the log
// entry, creating both when the archive does not exist yet.
func (f *File) ensureLogEntry() error {
	r, err := zip.OpenReader(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return f.rewrite()
		}
		return fmt.Errorf("opening archive %s: %w", f.path, err)
	}
	for _, e := range r.File {
		if e.Name == f.logName {
			return r.Close()
		}
	}
	if err := r.Close(); err != nil {
		return err
	}
	return f.rewrite()
}

// rewrite runs one flush cycle: stream the old container into a temp file
// with the staged changes applied, then swap it over the original.
func (f *File) rewrite() error {
	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".ziplog-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp archive: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmp != nil {
			_ = tmp.Close()
		}
		// no-op once the rename has succeeded
		_ = os.Remove(tmpPath)
	}()

	var old *zip.ReadCloser
	if r, err := zip.OpenReader(f.path); err == nil {
		old = r
		defer func() {
			if old != nil {
				_ = old.Close()
			}
		}()
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reopening archive %s: %w", f.path, err)
	}

	w := zip.NewWriter(tmp)
	w.RegisterCompressor(zip.Deflate, f.deflater())

	wroteLog := false
	if old != nil {
		for _, entry := range old.File {
			if entry.Name == f.logName {
				if err := f.writeLogEntry(w, entry); err != nil {
					return err
				}
				wroteLog = true
				continue
			}
			if err := w.Copy(entry); err != nil {
				return fmt.Errorf("copying entry %s: %w", entry.Name, err)
			}
		}
	}
	if !wroteLog {
		if err := f.writeLogEntry(w, nil); err != nil {
			return err
		}
	}

	for _, p := range f.pendingEntries {
		hdr := &zip.FileHeader{Name: p.name, Method: zip.Deflate, Modified: p.modified}
		if p.level == attach.Store {
			hdr.Method = zip.Store
		}
		out, err := w.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("creating entry %s: %w", p.name, err)
		}
		if _, err := out.Write(p.data); err != nil {
			return fmt.Errorf("writing entry %s: %w", p.name, err)
		}
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp archive: %w", err)
	}
	tmp = nil

	if old != nil {
		if err := old.Close(); err != nil {
			return err
		}
		old = nil
	}
	if err := fs.ReplaceFile(tmpPath, f.path); err != nil {
		return err
	}

	f.pendingText = nil
	f.pendingEntries = nil
	return nil
}

// writeLogEntry emits the log-text entry: previous content first, then any
// staged text. The entry is always stored uncompressed.
func (f *File) writeLogEntry(w *zip.Writer, prev *zip.File) error {
	out, err := w.CreateHeader(&zip.FileHeader{Name: f.logName, Method: zip.Store})
	if err != nil {
		return fmt.Errorf("creating log entry: %w", err)
	}
	if prev != nil {
		rc, err := prev.Open()
		if err != nil {
			return fmt.Errorf("reading log entry: %w", err)
		}
		_, err = io.Copy(out, rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("carrying log entry forward: %w", err)
		}
	}
	if len(f.pendingText) > 0 {
		if _, err := out.Write(f.pendingText); err != nil {
			return fmt.Errorf("appending log text: %w", err)
		}
	}
	return nil
}

// deflater picks the flate level for this cycle's Deflate entries. A cycle
// stages at most one attachment, so a single writer-level choice suffices.
func (f *File) deflater() zip.Compressor {
	level := flate.BestSpeed
	for _, p := range f.pendingEntries {
		switch p.level {
		case attach.Optimal:
			level = flate.DefaultCompression
		case attach.Smallest:
			level = flate.BestCompression
		}
	}
	return func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	}
}
