package attach

import (
	"fmt"
	"strings"
)

// Level selects how an attachment entry is compressed inside the archive.
// The zero value is Fastest, the default for attachments whose request does
// not name a level. Values are wire constants: they are embedded as decimal
// digits in the encoded string, so reordering them breaks round-tripping
// with already-encoded events.
type Level int

const (
	Fastest Level = iota
	Optimal
	Smallest
	Store
)

func (l Level) String() string {
	switch l {
	case Fastest:
		return "fastest"
	case Optimal:
		return "optimal"
	case Smallest:
		return "smallest"
	case Store:
		return "store"
	default:
		return fmt.Sprintf("unknown(%d)", int(l))
	}
}

// ParseLevel parses a compression level from its string representation.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "fastest", "":
		return Fastest, nil
	case "optimal":
		return Optimal, nil
	case "smallest":
		return Smallest, nil
	case "store", "none":
		return Store, nil
	default:
		return Fastest, fmt.Errorf("unknown compression level: %q", s)
	}
}

func (l Level) valid() bool {
	return l >= Fastest && l <= Store
}
