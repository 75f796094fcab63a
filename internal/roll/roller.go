// Package roll computes checkpoint-aligned archive filenames and parses
// directory entries back into (checkpoint, sequence) pairs. It holds no
// mutable state; the manager owns every lifecycle decision.
package roll

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// LogFile is one directory entry that matched the roller's filename pattern.
// Checkpoint is nil when the interval is None; Sequence is nil for the first
// file at a checkpoint, which carries no suffix.
type LogFile struct {
	Name       string
	Checkpoint *time.Time
	Sequence   *int
}

// Roller derives filenames from a base path and a rolling interval.
//
// A base path "logs/app.zip" with the Day interval produces files like
// "logs/app20260824.zip" and, on sequence collisions, "logs/app20260824_001.zip".
// Each archive holds one log-text entry named "app.log".
type Roller struct {
	dir      string
	prefix   string
	ext      string
	interval Interval
	re       *regexp.Regexp
}

// New builds a Roller. A missing extension on basePath defaults to ".zip".
func New(basePath string, interval Interval) *Roller {
	dir := filepath.Dir(basePath)
	base := filepath.Base(basePath)
	ext := filepath.Ext(base)
	if ext == "" {
		ext = ".zip"
	}
	prefix := strings.TrimSuffix(base, ext)

	pattern := "^" + regexp.QuoteMeta(prefix)
	if token := interval.token(); token != "" {
		pattern += fmt.Sprintf(`(?P<checkpoint>\d{%d})`, len(token))
	}
	pattern += `(?:_(?P<sequence>\d{3,}))?` + regexp.QuoteMeta(ext) + "$"

	return &Roller{
		dir:      dir,
		prefix:   prefix,
		ext:      ext,
		interval: interval,
		re:       regexp.MustCompile(pattern),
	}
}

func (r *Roller) Dir() string        { return r.dir }
func (r *Roller) Interval() Interval { return r.interval }

// LogEntryName is the name of the single log-text entry inside each archive.
func (r *Roller) LogEntryName() string { return r.prefix + ".log" }

// Checkpoint truncates now to the configured granularity.
func (r *Roller) Checkpoint(now time.Time) (time.Time, bool) {
	return r.interval.Checkpoint(now)
}

// NextBoundary is the earliest instant strictly after now at which the
// checkpoint changes.
func (r *Roller) NextBoundary(now time.Time) (time.Time, bool) {
	return r.interval.NextBoundary(now)
}

// Filename returns the full path for a checkpoint and sequence number.
// checkpoint is ignored for the None interval; a nil sequence yields the
// unsuffixed first file.
func (r *Roller) Filename(checkpoint *time.Time, sequence *int) string {
	var b strings.Builder
	b.WriteString(r.prefix)
	if token := r.interval.token(); token != "" && checkpoint != nil {
		b.WriteString(checkpoint.Format(token))
	}
	if sequence != nil {
		fmt.Fprintf(&b, "_%03d", *sequence)
	}
	b.WriteString(r.ext)
	return filepath.Join(r.dir, b.String())
}

// Glob returns a filesystem pattern that over-approximates matching archives.
// It is a pre-filter only; SelectMatches is the source of truth.
func (r *Roller) Glob() string {
	return filepath.Join(r.dir, r.prefix+"*"+r.ext)
}

// SelectMatches parses candidate base names against the expected pattern.
// Names that do not match are silently dropped.
func (r *Roller) SelectMatches(names []string) []LogFile {
	var out []LogFile
	token := r.interval.token()
	cpIdx := r.re.SubexpIndex("checkpoint")
	seqIdx := r.re.SubexpIndex("sequence")

	for _, name := range names {
		m := r.re.FindStringSubmatch(name)
		if m == nil {
			continue
		}

		lf := LogFile{Name: name}
		if cpIdx >= 0 {
			cp, err := time.ParseInLocation(token, m[cpIdx], time.Local)
			if err != nil {
				continue
			}
			lf.Checkpoint = &cp
		}
		if seqIdx >= 0 && m[seqIdx] != "" {
			n, err := strconv.Atoi(m[seqIdx])
			if err != nil {
				continue
			}
			lf.Sequence = &n
		}
		out = append(out, lf)
	}
	return out
}
