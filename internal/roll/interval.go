package roll

import (
	"fmt"
	"strings"
	"time"
)

// Interval is the wall-clock granularity at which the log rolls over to a
// new archive.
type Interval int

const (
	None Interval = iota
	Minute
	Hour
	Day
	Month
	Year
)

func (i Interval) String() string {
	switch i {
	case None:
		return "none"
	case Minute:
		return "minute"
	case Hour:
		return "hour"
	case Day:
		return "day"
	case Month:
		return "month"
	case Year:
		return "year"
	default:
		return fmt.Sprintf("unknown(%d)", int(i))
	}
}

// ParseInterval parses an interval from its string representation.
func ParseInterval(s string) (Interval, error) {
	switch strings.ToLower(s) {
	case "none", "":
		return None, nil
	case "minute":
		return Minute, nil
	case "hour":
		return Hour, nil
	case "day":
		return Day, nil
	case "month":
		return Month, nil
	case "year":
		return Year, nil
	default:
		return None, fmt.Errorf("unknown rolling interval: %q", s)
	}
}

// token returns the time layout embedded in filenames for this interval.
// Layouts are fixed-width and most-significant-first, so lexicographic
// filename order equals chronological order.
func (i Interval) token() string {
	switch i {
	case Minute:
		return "200601021504"
	case Hour:
		return "2006010215"
	case Day:
		return "20060102"
	case Month:
		return "200601"
	case Year:
		return "2006"
	default:
		return ""
	}
}

// Checkpoint truncates now to the interval granularity. ok is false when the
// interval is None: the log never rolls and no checkpoint exists.
func (i Interval) Checkpoint(now time.Time) (cp time.Time, ok bool) {
	y, mo, d := now.Date()
	loc := now.Location()
	switch i {
	case Minute:
		return time.Date(y, mo, d, now.Hour(), now.Minute(), 0, 0, loc), true
	case Hour:
		return time.Date(y, mo, d, now.Hour(), 0, 0, 0, loc), true
	case Day:
		return time.Date(y, mo, d, 0, 0, 0, 0, loc), true
	case Month:
		return time.Date(y, mo, 1, 0, 0, 0, 0, loc), true
	case Year:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc), true
	default:
		return time.Time{}, false
	}
}

// NextBoundary returns the earliest instant strictly after now at which the
// checkpoint changes. ok is false for None; the caller applies its own
// re-check horizon.
func (i Interval) NextBoundary(now time.Time) (t time.Time, ok bool) {
	cp, ok := i.Checkpoint(now)
	if !ok {
		return time.Time{}, false
	}
	switch i {
	case Minute:
		return cp.Add(time.Minute), true
	case Hour:
		return cp.Add(time.Hour), true
	case Day:
		return cp.AddDate(0, 0, 1), true
	case Month:
		return cp.AddDate(0, 1, 0), true
	default:
		return cp.AddDate(1, 0, 0), true
	}
}
