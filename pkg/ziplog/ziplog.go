// Package ziplog is a zap sink that persists log text inside rolling zip
// archives. Each archive holds one log-text entry plus any binary
// attachments smuggled through the event stream; archives roll over on
// wall-clock boundaries and old ones are pruned under count/age limits.
//
// The zip format cannot be appended to in place, so every logged event costs
// one full container rewrite. This is the deliberate durability model: a
// reader that reopens the archive sees every line the moment the write call
// returned. Size the rolling interval and event volume accordingly.
//
// Locking between processes is advisory and cooperative: writers that use
// this package fall back to sequence-suffixed files instead of fighting over
// a locked archive, but nothing stops a foreign process from opening the
// file directly.
package ziplog

import (
	"errors"
	"time"

	"github.com/raoulx24/ziplog/internal/attach"
	"github.com/raoulx24/ziplog/internal/clock"
	"github.com/raoulx24/ziplog/internal/logging"
	"github.com/raoulx24/ziplog/internal/roll"
)

// Interval is the wall-clock granularity at which the log rolls over.
type Interval = roll.Interval

const (
	IntervalNone   = roll.None
	IntervalMinute = roll.Minute
	IntervalHour   = roll.Hour
	IntervalDay    = roll.Day
	IntervalMonth  = roll.Month
	IntervalYear   = roll.Year
)

// ParseInterval parses an interval name ("none", "minute", "hour", "day",
// "month", "year").
func ParseInterval(s string) (Interval, error) { return roll.ParseInterval(s) }

// CompressionLevel selects how attachment entries are compressed. The zero
// value is the fastest deflate setting.
type CompressionLevel = attach.Level

const (
	CompressionFastest  = attach.Fastest
	CompressionOptimal  = attach.Optimal
	CompressionSmallest = attach.Smallest
	CompressionStore    = attach.Store
)

// Clock abstracts the time source; see Options.Clock.
type Clock = clock.Clock

// RealClock returns the wall clock used by default.
func RealClock() Clock { return clock.Real() }

// Diagnostics receives internal failures (skipped retention deletes,
// degraded opens). It is never the user's event stream.
type Diagnostics = logging.Logger

// NopDiagnostics discards diagnostics; the default.
func NopDiagnostics() Diagnostics { return logging.Nop{} }

// Options configures a rolling archive sink.
type Options struct {
	// Path is the base archive path, e.g. "logs/app.zip". The rolling
	// checkpoint token and any sequence suffix are inserted before the
	// extension; a missing extension defaults to ".zip".
	Path string

	// Interval selects the rollover granularity. IntervalNone never rolls.
	Interval Interval

	// RetainedFileCountLimit keeps the newest N archives, the current one
	// included. Nil means unlimited; must be at least 1 when set.
	RetainedFileCountLimit *int

	// RetainedFileAgeLimit deletes archives whose checkpoint is older than
	// now-limit. Nil means unlimited; must not be negative when set.
	RetainedFileAgeLimit *time.Duration

	// PropagateOpenErrors selects strict (audit) mode: a persistent open
	// failure surfaces on the write call instead of silently discarding
	// events until the next checkpoint.
	PropagateOpenErrors bool

	// Clock defaults to the wall clock.
	Clock Clock

	// Diagnostics defaults to a no-op logger.
	Diagnostics Diagnostics
}

func (o Options) validate() error {
	if o.Path == "" {
		return errors.New("ziplog: path is required")
	}
	if o.RetainedFileCountLimit != nil && *o.RetainedFileCountLimit < 1 {
		return errors.New("ziplog: retained file count limit must be at least 1")
	}
	if o.RetainedFileAgeLimit != nil && *o.RetainedFileAgeLimit < 0 {
		return errors.New("ziplog: retained file age limit must not be negative")
	}
	return nil
}
