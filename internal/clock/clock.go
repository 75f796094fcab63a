// Package clock abstracts the wall-clock source so rollover decisions can be
// driven deterministically in tests. Production code injects Real(); tests
// inject a Fake and advance it by hand.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }
