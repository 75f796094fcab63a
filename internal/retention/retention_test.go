package retention

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raoulx24/ziplog/internal/roll"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
}

func remaining(t *testing.T, dir string) map[string]bool {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	out := map[string]bool{}
	for _, e := range entries {
		out[e.Name()] = true
	}
	return out
}

func dayFiles(r *roll.Roller, names ...string) []roll.LogFile {
	return r.SelectMatches(names)
}

func intPtr(n int) *int                      { return &n }
func durPtr(d time.Duration) *time.Duration { return &d }

func TestApply_CountLimit(t *testing.T) {
	dir := t.TempDir()
	r := roll.New(filepath.Join(dir, "app.zip"), roll.Day)
	now := time.Date(2026, time.August, 24, 12, 0, 0, 0, time.Local)

	names := []string{"app20260821.zip", "app20260822.zip", "app20260823.zip", "app20260824.zip"}
	for _, n := range names {
		touch(t, dir, n)
	}

	e := New(intPtr(2), nil, nil)
	e.Apply(dir, dayFiles(r, names...), "app20260824.zip", now)

	left := remaining(t, dir)
	assert.True(t, left["app20260824.zip"], "current file must survive")
	assert.True(t, left["app20260823.zip"], "one non-current slot remains")
	assert.False(t, left["app20260822.zip"])
	assert.False(t, left["app20260821.zip"])
}

func TestApply_CurrentFileNeverDeleted(t *testing.T) {
	dir := t.TempDir()
	r := roll.New(filepath.Join(dir, "app.zip"), roll.Day)
	now := time.Date(2026, time.August, 24, 12, 0, 0, 0, time.Local)

	// current is the oldest on disk; a count of 1 still spares it
	names := []string{"app20260820.zip", "app20260824.zip"}
	for _, n := range names {
		touch(t, dir, n)
	}

	e := New(intPtr(1), nil, nil)
	e.Apply(dir, dayFiles(r, names...), "app20260820.zip", now)

	left := remaining(t, dir)
	assert.True(t, left["app20260820.zip"])
	assert.False(t, left["app20260824.zip"])
}

func TestApply_AgeLimit(t *testing.T) {
	dir := t.TempDir()
	r := roll.New(filepath.Join(dir, "app.zip"), roll.Day)
	now := time.Date(2026, time.August, 24, 12, 0, 0, 0, time.Local)

	names := []string{"app20260820.zip", "app20260823.zip", "app20260824.zip"}
	for _, n := range names {
		touch(t, dir, n)
	}

	// 48h cutoff: the 2026-08-20 checkpoint is out, 2026-08-23 is in even
	// though no count limit would have spared anything older than the first.
	e := New(nil, durPtr(48*time.Hour), nil)
	e.Apply(dir, dayFiles(r, names...), "app20260824.zip", now)

	left := remaining(t, dir)
	assert.True(t, left["app20260824.zip"])
	assert.True(t, left["app20260823.zip"])
	assert.False(t, left["app20260820.zip"])
}

func TestApply_CountAndAgeAreIndependent(t *testing.T) {
	dir := t.TempDir()
	r := roll.New(filepath.Join(dir, "app.zip"), roll.Day)
	now := time.Date(2026, time.August, 24, 12, 0, 0, 0, time.Local)

	names := []string{"app20260819.zip", "app20260823.zip", "app20260824.zip"}
	for _, n := range names {
		touch(t, dir, n)
	}

	// generous count, tight age: 08-19 falls to the age limit alone
	e := New(intPtr(10), durPtr(72*time.Hour), nil)
	e.Apply(dir, dayFiles(r, names...), "app20260824.zip", now)

	left := remaining(t, dir)
	assert.True(t, left["app20260824.zip"])
	assert.True(t, left["app20260823.zip"])
	assert.False(t, left["app20260819.zip"])
}

func TestApply_SequenceOrdering(t *testing.T) {
	dir := t.TempDir()
	r := roll.New(filepath.Join(dir, "app.zip"), roll.Day)
	now := time.Date(2026, time.August, 24, 12, 0, 0, 0, time.Local)

	// same checkpoint: higher sequence is newer, the suffixless file oldest
	names := []string{"app20260824.zip", "app20260824_001.zip", "app20260824_002.zip"}
	for _, n := range names {
		touch(t, dir, n)
	}

	e := New(intPtr(2), nil, nil)
	e.Apply(dir, dayFiles(r, names...), "app20260824_002.zip", now)

	left := remaining(t, dir)
	assert.True(t, left["app20260824_002.zip"])
	assert.True(t, left["app20260824_001.zip"])
	assert.False(t, left["app20260824.zip"])
}

func TestApply_NoLimitsIsNoop(t *testing.T) {
	dir := t.TempDir()
	r := roll.New(filepath.Join(dir, "app.zip"), roll.Day)
	now := time.Date(2026, time.August, 24, 12, 0, 0, 0, time.Local)

	names := []string{"app20260801.zip", "app20260824.zip"}
	for _, n := range names {
		touch(t, dir, n)
	}

	e := New(nil, nil, nil)
	e.Apply(dir, dayFiles(r, names...), "app20260824.zip", now)

	assert.Len(t, remaining(t, dir), 2)
}

func TestApply_FailedDeleteIsSkipped(t *testing.T) {
	dir := t.TempDir()
	r := roll.New(filepath.Join(dir, "app.zip"), roll.Day)
	now := time.Date(2026, time.August, 24, 12, 0, 0, 0, time.Local)

	// only one of the two prune candidates exists on disk; the missing one
	// must not stop the pass
	touch(t, dir, "app20260821.zip")
	touch(t, dir, "app20260824.zip")
	names := []string{"app20260821.zip", "app20260822.zip", "app20260824.zip"}

	e := New(intPtr(1), nil, nil)
	e.Apply(dir, dayFiles(r, names...), "app20260824.zip", now)

	left := remaining(t, dir)
	assert.True(t, left["app20260824.zip"])
	assert.False(t, left["app20260821.zip"])
}
