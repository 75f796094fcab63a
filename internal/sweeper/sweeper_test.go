package sweeper

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingTarget struct {
	sweeps atomic.Int32
}

func (c *countingTarget) Sweep() error {
	c.sweeps.Add(1)
	return nil
}

func TestNew_RejectsBadSchedule(t *testing.T) {
	_, err := New("not a cron spec", &countingTarget{}, nil)
	assert.Error(t, err)
}

func TestSweeper_RunsOnSchedule(t *testing.T) {
	target := &countingTarget{}
	s, err := New("@every 100ms", target, nil)
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	deadline := time.After(3 * time.Second)
	for target.sweeps.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("no sweep ran within the deadline")
		case <-time.After(20 * time.Millisecond):
		}
	}
}
