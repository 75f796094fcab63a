package roll

import (
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterval_Checkpoint(t *testing.T) {
	now := time.Date(2026, time.August, 24, 13, 47, 52, 123456789, time.Local)

	tests := []struct {
		name     string
		interval Interval
		want     time.Time
		wantOK   bool
	}{
		{name: "none has no checkpoint", interval: None, wantOK: false},
		{name: "minute", interval: Minute, want: time.Date(2026, time.August, 24, 13, 47, 0, 0, time.Local), wantOK: true},
		{name: "hour", interval: Hour, want: time.Date(2026, time.August, 24, 13, 0, 0, 0, time.Local), wantOK: true},
		{name: "day", interval: Day, want: time.Date(2026, time.August, 24, 0, 0, 0, 0, time.Local), wantOK: true},
		{name: "month", interval: Month, want: time.Date(2026, time.August, 1, 0, 0, 0, 0, time.Local), wantOK: true},
		{name: "year", interval: Year, want: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.Local), wantOK: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.interval.Checkpoint(now)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, tt.want.Equal(got), "got %v", got)
			}
		})
	}
}

func TestInterval_NextBoundary(t *testing.T) {
	now := time.Date(2026, time.December, 31, 23, 59, 30, 0, time.Local)

	tests := []struct {
		name     string
		interval Interval
		want     time.Time
		wantOK   bool
	}{
		{name: "none has no boundary", interval: None, wantOK: false},
		{name: "minute", interval: Minute, want: time.Date(2027, time.January, 1, 0, 0, 0, 0, time.Local), wantOK: true},
		{name: "hour", interval: Hour, want: time.Date(2027, time.January, 1, 0, 0, 0, 0, time.Local), wantOK: true},
		{name: "day", interval: Day, want: time.Date(2027, time.January, 1, 0, 0, 0, 0, time.Local), wantOK: true},
		{name: "month", interval: Month, want: time.Date(2027, time.January, 1, 0, 0, 0, 0, time.Local), wantOK: true},
		{name: "year", interval: Year, want: time.Date(2027, time.January, 1, 0, 0, 0, 0, time.Local), wantOK: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.interval.NextBoundary(now)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, tt.want.Equal(got), "got %v", got)
				assert.True(t, got.After(now), "boundary must be strictly after now")
			}
		})
	}
}

func TestRoller_Filename(t *testing.T) {
	cp := time.Date(2026, time.August, 24, 13, 0, 0, 0, time.Local)
	seq := 7

	tests := []struct {
		name     string
		interval Interval
		cp       *time.Time
		seq      *int
		want     string
	}{
		{name: "none without sequence", interval: None, want: "logs/app.zip"},
		{name: "none with sequence", interval: None, seq: &seq, want: "logs/app_007.zip"},
		{name: "day", interval: Day, cp: &cp, want: "logs/app20260824.zip"},
		{name: "day with sequence", interval: Day, cp: &cp, seq: &seq, want: "logs/app20260824_007.zip"},
		{name: "hour", interval: Hour, cp: &cp, want: "logs/app2026082413.zip"},
		{name: "minute", interval: Minute, cp: &cp, want: "logs/app202608241300.zip"},
		{name: "month", interval: Month, cp: &cp, want: "logs/app202608.zip"},
		{name: "year", interval: Year, cp: &cp, want: "logs/app2026.zip"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New("logs/app.zip", tt.interval)
			assert.Equal(t, tt.want, r.Filename(tt.cp, tt.seq))
		})
	}
}

func TestRoller_DefaultsExtension(t *testing.T) {
	r := New("logs/app", Day)
	cp := time.Date(2026, time.August, 24, 0, 0, 0, 0, time.Local)
	assert.Equal(t, "logs/app20260824.zip", r.Filename(&cp, nil))
	assert.Equal(t, "app.log", r.LogEntryName())
}

func TestRoller_SelectMatches(t *testing.T) {
	r := New("logs/app.zip", Day)
	cp := time.Date(2026, time.August, 24, 0, 0, 0, 0, time.Local)

	files := r.SelectMatches([]string{
		"app20260824.zip",     // match, no sequence
		"app20260824_001.zip", // match, sequence 1
		"app20260824_017.zip", // match, sequence 17
		"app.zip",             // no checkpoint token
		"app2026082.zip",      // token too short
		"other20260824.zip",   // wrong prefix
		"app20260824.zip.bak", // wrong suffix
		"app20260824_01.zip",  // sequence not zero-padded to three digits
	})
	require.Len(t, files, 3)

	assert.Equal(t, "app20260824.zip", files[0].Name)
	require.NotNil(t, files[0].Checkpoint)
	assert.True(t, cp.Equal(*files[0].Checkpoint))
	assert.Nil(t, files[0].Sequence)

	require.NotNil(t, files[1].Sequence)
	assert.Equal(t, 1, *files[1].Sequence)
	require.NotNil(t, files[2].Sequence)
	assert.Equal(t, 17, *files[2].Sequence)
}

func TestRoller_SelectMatches_None(t *testing.T) {
	r := New("logs/app.zip", None)
	files := r.SelectMatches([]string{"app.zip", "app_001.zip", "app20260824.zip"})
	require.Len(t, files, 2)
	assert.Nil(t, files[0].Checkpoint)
	assert.Nil(t, files[0].Sequence)
	require.NotNil(t, files[1].Sequence)
	assert.Equal(t, 1, *files[1].Sequence)
}

func TestRoller_RoundTrip(t *testing.T) {
	for _, interval := range []Interval{Minute, Hour, Day, Month, Year} {
		t.Run(interval.String(), func(t *testing.T) {
			r := New("logs/app.zip", interval)
			cp, ok := interval.Checkpoint(time.Date(2026, time.August, 24, 13, 47, 0, 0, time.Local))
			require.True(t, ok)
			seq := 3

			name := filepath.Base(r.Filename(&cp, &seq))
			parsed := r.SelectMatches([]string{name})
			require.Len(t, parsed, 1)
			require.NotNil(t, parsed[0].Checkpoint)
			assert.True(t, cp.Equal(*parsed[0].Checkpoint))
			require.NotNil(t, parsed[0].Sequence)
			assert.Equal(t, seq, *parsed[0].Sequence)
		})
	}
}

func TestRoller_FilenamesSortChronologically(t *testing.T) {
	r := New("app.zip", Day)
	base := time.Date(2026, time.August, 28, 0, 0, 0, 0, time.Local)

	var names []string
	for i := 0; i < 10; i++ {
		cp := base.AddDate(0, 0, -i)
		names = append(names, r.Filename(&cp, nil))
	}

	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	for i := range sorted {
		assert.Equal(t, names[len(names)-1-i], sorted[i])
	}
}

func TestRoller_Glob(t *testing.T) {
	r := New("logs/app.zip", Day)
	assert.Equal(t, "logs/app*.zip", r.Glob())
}

func TestParseInterval(t *testing.T) {
	got, err := ParseInterval("Day")
	require.NoError(t, err)
	assert.Equal(t, Day, got)

	_, err = ParseInterval("fortnight")
	assert.Error(t, err)
}
