// Package retention deletes obsolete archives under count and age limits.
// It runs after every successful open of a rolling archive and during
// scheduled sweeps; a delete that fails is reported to diagnostics and
// skipped, never retried and never fatal.
package retention

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/raoulx24/ziplog/internal/logging"
	"github.com/raoulx24/ziplog/internal/roll"
)

// Engine applies the configured limits to the set of parsed archive names.
type Engine struct {
	count *int
	age   *time.Duration
	log   logging.Logger
}

// New creates an engine. A nil count or age leaves that limit unenforced.
func New(count *int, age *time.Duration, log logging.Logger) *Engine {
	if log == nil {
		log = logging.Nop{}
	}
	return &Engine{count: count, age: age, log: log}
}

// Apply prunes dir. files are the parsed candidates, already unioned with
// the currently open archive; the current file is never deleted, but it does
// occupy a retention slot even when it holds no bytes yet.
func (e *Engine) Apply(dir string, files []roll.LogFile, currentName string, now time.Time) {
	if e.count == nil && e.age == nil {
		return
	}

	// Sort newest → oldest: checkpoint descending, then sequence descending.
	// Files without a checkpoint or sequence sort as oldest within their tier.
	sort.SliceStable(files, func(i, j int) bool {
		ci, cj := checkpointOf(files[i]), checkpointOf(files[j])
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return sequenceOf(files[i]) > sequenceOf(files[j])
	})

	index := 0
	for _, f := range files {
		if strings.EqualFold(f.Name, currentName) {
			continue
		}
		if !e.shouldRetain(f, index, now) {
			full := filepath.Join(dir, f.Name)
			if err := os.Remove(full); err != nil {
				e.log.Warn("retention: deleting %s: %v", full, err)
			} else {
				e.log.Debug("retention: deleted %s", full)
			}
		}
		index++
	}
}

// shouldRetain reports whether the non-current file at the given newest-first
// index survives. A file is retained only when it passes every configured
// limit: position strictly inside the newest count-1 (the current file holds
// the remaining slot), and checkpoint no older than now-age.
func (e *Engine) shouldRetain(f roll.LogFile, index int, now time.Time) bool {
	if e.count != nil && index >= *e.count-1 {
		return false
	}
	if e.age != nil && f.Checkpoint != nil && f.Checkpoint.Before(now.Add(-*e.age)) {
		return false
	}
	return true
}

func checkpointOf(f roll.LogFile) time.Time {
	if f.Checkpoint == nil {
		return time.Time{}
	}
	return *f.Checkpoint
}

func sequenceOf(f roll.LogFile) int {
	if f.Sequence == nil {
		return -1
	}
	return *f.Sequence
}
