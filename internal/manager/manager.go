// Package manager implements the rolling state machine around a single open
// archive: checkpoint alignment, sequence-number collision handling, and
// retention after every successful open.
//
// A manager is Closed until the first write, Open while an archive handle is
// live, and Disposed after Close. Every public operation runs fully on the
// caller's goroutine under one mutex; there are no background goroutines and
// no cancellation surface. Across processes the sequence-number retry is the
// only coordination: a second writer falls back to a distinct file instead of
// blocking.
package manager

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/raoulx24/ziplog/internal/attach"
	"github.com/raoulx24/ziplog/internal/clock"
	"github.com/raoulx24/ziplog/internal/logging"
	"github.com/raoulx24/ziplog/internal/retention"
	"github.com/raoulx24/ziplog/internal/roll"
	"github.com/raoulx24/ziplog/internal/zipfile"
)

// ErrDisposed reports a write after Close. This is a programming error on
// the caller's side and is never swallowed, regardless of the error policy.
var ErrDisposed = errors.New("manager: log already disposed")

const (
	// maxOpenAttempts bounds sequence advancement when the target archive
	// is locked or unreadable.
	maxOpenAttempts = 3

	// failedOpenRecheck bounds how often opens are retried when the
	// interval yields no next boundary (None), and how long a failed open
	// suppresses further attempts.
	failedOpenRecheck = 30 * time.Minute
)

// Options configures a Manager. Roller is required.
type Options struct {
	Roller *roll.Roller
	Clock  clock.Clock
	Diag   logging.Logger

	// RetainedFileCountLimit keeps the newest N archives, the current one
	// included. Nil means unlimited; values below 1 are rejected.
	RetainedFileCountLimit *int

	// RetainedFileAgeLimit deletes archives whose checkpoint is older than
	// now-limit. Nil means unlimited; negative values are rejected.
	RetainedFileAgeLimit *time.Duration

	// PropagateOpenErrors selects strict mode: a persistent open failure is
	// returned to the writer instead of degrading to a silent no-op.
	PropagateOpenErrors bool
}

func (o Options) validate() error {
	if o.Roller == nil {
		return errors.New("manager: roller is required")
	}
	if o.RetainedFileCountLimit != nil && *o.RetainedFileCountLimit < 1 {
		return errors.New("manager: retained file count limit must be at least 1")
	}
	if o.RetainedFileAgeLimit != nil && *o.RetainedFileAgeLimit < 0 {
		return errors.New("manager: retained file age limit must not be negative")
	}
	return nil
}

type state int

const (
	stateClosed state = iota
	stateOpen
	stateDisposed
)

// Manager owns at most one live archive handle at a time.
type Manager struct {
	mu        sync.Mutex
	roller    *roll.Roller
	clock     clock.Clock
	diag      logging.Logger
	retention *retention.Engine
	propagate bool

	state           state
	current         *zipfile.File
	currentName     string
	currentSequence *int

	// nextCheckpoint is the horizon at which the open file is realigned:
	// the interval boundary, or now+failedOpenRecheck as a fallback. Nil
	// before the first write, and after a failed open in strict mode, where
	// every write must re-attempt instead of waiting out the horizon.
	nextCheckpoint *time.Time
}

// New validates opts and creates a closed manager. No file is touched until
// the first write.
func New(opts Options) (*Manager, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Diag == nil {
		opts.Diag = logging.Nop{}
	}
	return &Manager{
		roller:    opts.Roller,
		clock:     opts.Clock,
		diag:      opts.Diag,
		retention: retention.New(opts.RetainedFileCountLimit, opts.RetainedFileAgeLimit, opts.Diag),
		propagate: opts.PropagateOpenErrors,
	}, nil
}

// WriteText appends one formatted line to the current archive, opening or
// rolling it first as needed. In best-effort mode a degraded manager drops
// the line silently.
func (m *Manager) WriteText(line string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.write(func(f *zipfile.File) error {
		return f.AppendText(line)
	})
}

// WriteAttachment appends the synthetic line and materializes the attachment
// as a new entry in the current archive.
func (m *Manager) WriteAttachment(ts time.Time, name string, level attach.Level, data []byte, line string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.write(func(f *zipfile.File) error {
		return f.AppendAttachment(ts, name, level, data, line)
	})
}

func (m *Manager) write(emit func(*zipfile.File) error) error {
	if err := m.align(false); err != nil {
		return err
	}
	if m.current == nil {
		// degraded: open failed in best-effort mode
		return nil
	}
	err := emit(m.current)
	if errors.Is(err, zipfile.ErrOverflow) {
		// same checkpoint, next sequence; reserved for size-based rollover
		if err := m.align(true); err != nil {
			return err
		}
		if m.current == nil {
			return nil
		}
		return emit(m.current)
	}
	return err
}

// Flush forces a flush cycle on the current archive, independent of a write.
func (m *Manager) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == stateDisposed {
		return ErrDisposed
	}
	if m.current == nil {
		return nil
	}
	return m.current.Flush()
}

// Sweep runs retention and a forced flush outside the write path, so
// age-based pruning happens even when no events arrive.
func (m *Manager) Sweep() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == stateDisposed {
		return ErrDisposed
	}
	if m.current == nil {
		return nil
	}
	m.applyRetention(m.clock.Now())
	return m.current.Flush()
}

// Close closes the current archive and transitions to Disposed. Any later
// write fails with ErrDisposed.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == stateDisposed {
		return nil
	}
	err := m.closeCurrent()
	m.state = stateDisposed
	return err
}

// align brings the current file in line with "now". nextSequence forces a
// reopen at the same checkpoint with an advanced sequence number.
func (m *Manager) align(nextSequence bool) error {
	if m.state == stateDisposed {
		return ErrDisposed
	}
	now := m.clock.Now()

	if m.nextCheckpoint == nil {
		return m.openFile(now, nil)
	}
	if nextSequence || !now.Before(*m.nextCheckpoint) {
		var minSequence *int
		if nextSequence {
			next := 1
			if m.currentSequence != nil {
				next = *m.currentSequence + 1
			}
			minSequence = &next
		}
		closing := m.currentName
		if err := m.closeCurrent(); err != nil {
			m.diag.Warn("ziplog: closing %s: %v", closing, err)
		}
		return m.openFile(now, minSequence)
	}
	return nil
}

// openFile opens the archive for now's checkpoint. The starting sequence is
// the highest one already on disk at that checkpoint (nil when none, which
// reuses the unsuffixed file); each failed attempt advances it so another
// writer's file is never fought over.
func (m *Manager) openFile(now time.Time, minSequence *int) error {
	var checkpoint *time.Time
	if cp, ok := m.roller.Checkpoint(now); ok {
		checkpoint = &cp
	}
	if nb, ok := m.roller.NextBoundary(now); ok {
		m.nextCheckpoint = &nb
	} else {
		recheck := now.Add(failedOpenRecheck)
		m.nextCheckpoint = &recheck
	}

	sequence := m.latestSequenceAt(checkpoint)
	if minSequence != nil && (sequence == nil || *sequence < *minSequence) {
		sequence = minSequence
	}

	var lastErr error
	for attempt := 0; attempt < maxOpenAttempts; attempt++ {
		path := m.roller.Filename(checkpoint, sequence)
		file, err := zipfile.Open(path, m.roller.LogEntryName(), m.diag)
		if err != nil {
			lastErr = err
			m.diag.Info("ziplog: opening %s failed, advancing sequence: %v", path, err)
			next := 1
			if sequence != nil {
				next = *sequence + 1
			}
			sequence = &next
			continue
		}

		m.state = stateOpen
		m.current = file
		m.currentName = filepath.Base(path)
		m.currentSequence = sequence
		m.applyRetention(now)
		return nil
	}

	// Give up. In strict mode every write must surface the failure, so the
	// horizon is cleared and the next write re-attempts the open; otherwise
	// the manager degrades to a no-op until the horizon passes.
	if m.propagate {
		m.nextCheckpoint = nil
		return fmt.Errorf("manager: opening archive after %d attempts: %w", maxOpenAttempts, lastErr)
	}
	m.diag.Error("ziplog: giving up opening archive after %d attempts, logging suspended until %s: %v",
		maxOpenAttempts, m.nextCheckpoint.Format(time.RFC3339), lastErr)
	return nil
}

// latestSequenceAt scans the directory for files at the given checkpoint and
// returns the highest sequence number found, nil when the only match carries
// no suffix or there are no matches.
func (m *Manager) latestSequenceAt(checkpoint *time.Time) *int {
	files := m.scanExisting()
	var latest *roll.LogFile
	for i := range files {
		f := &files[i]
		if !checkpointsEqual(f.Checkpoint, checkpoint) {
			continue
		}
		if latest == nil || sequenceOf(f) > sequenceOf(latest) {
			latest = f
		}
	}
	if latest == nil {
		return nil
	}
	return latest.Sequence
}

func (m *Manager) scanExisting() []roll.LogFile {
	matches, err := filepath.Glob(m.roller.Glob())
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(matches))
	for _, p := range matches {
		names = append(names, filepath.Base(p))
	}
	return m.roller.SelectMatches(names)
}

// applyRetention prunes obsolete archives after a successful open. The
// current file is part of the candidate set even when empty.
func (m *Manager) applyRetention(now time.Time) {
	files := m.scanExisting()
	found := false
	for _, f := range files {
		if f.Name == m.currentName {
			found = true
			break
		}
	}
	if !found {
		if cur := m.roller.SelectMatches([]string{m.currentName}); len(cur) == 1 {
			files = append(files, cur[0])
		}
	}
	m.retention.Apply(m.roller.Dir(), files, m.currentName, now)
}

func (m *Manager) closeCurrent() error {
	if m.current == nil {
		return nil
	}
	err := m.current.Close()
	m.current = nil
	m.currentName = ""
	m.currentSequence = nil
	return err
}

func checkpointsEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func sequenceOf(f *roll.LogFile) int {
	if f.Sequence == nil {
		return -1
	}
	return *f.Sequence
}
