// Package sweeper runs scheduled maintenance against the rolling sink: a
// forced flush plus a retention pass. Without it, age-based pruning only
// happens when events arrive, since retention otherwise runs after rollover.
package sweeper

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/raoulx24/ziplog/internal/logging"
)

// Target is anything that can be swept; in practice the ziplog core.
type Target interface {
	Sweep() error
}

// Sweeper drives Target.Sweep on a cron schedule.
type Sweeper struct {
	cron *cron.Cron
}

// New parses the schedule (standard cron spec, or descriptors like
// "@every 5m") and prepares the sweeper. Start begins scheduling.
func New(schedule string, target Target, log logging.Logger) (*Sweeper, error) {
	if log == nil {
		log = logging.Nop{}
	}
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if err := target.Sweep(); err != nil {
			log.Error("sweep failed: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("parsing sweep schedule %q: %w", schedule, err)
	}
	return &Sweeper{cron: c}, nil
}

func (s *Sweeper) Start() { s.cron.Start() }

// Stop stops scheduling new sweeps; a sweep already running completes.
func (s *Sweeper) Stop() { s.cron.Stop() }
