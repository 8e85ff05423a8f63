package monitor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chtimes(t *testing.T, path string, at time.Time) {
	t.Helper()
	require.NoError(t, os.Chtimes(path, at, at))
}

func TestMaxTreeMtime_DeepestFileWins(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	old := now.Add(-time.Hour)
	newer := now.Add(-time.Minute)

	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.mkv"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "b.mkv"), []byte("x"), 0644))
	chtimes(t, filepath.Join(dir, "a.mkv"), old)
	chtimes(t, filepath.Join(sub, "b.mkv"), newer)
	chtimes(t, sub, old)
	chtimes(t, dir, old)

	got := MaxTreeMtime(dir, now)
	assert.WithinDuration(t, newer, got, time.Second)
}

func TestMaxTreeMtime_SkipsExcludedDirs(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	old := now.Add(-time.Hour)

	sample := filepath.Join(dir, "Sample")
	require.NoError(t, os.Mkdir(sample, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(sample, "s.mkv"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.mkv"), []byte("x"), 0644))
	// sample content is brand new but must not count
	chtimes(t, filepath.Join(sample, "s.mkv"), now)
	chtimes(t, filepath.Join(dir, "a.mkv"), old)
	chtimes(t, sample, old)
	chtimes(t, dir, old)

	got := MaxTreeMtime(dir, now)
	assert.WithinDuration(t, old, got, time.Second)
}

func TestMaxTreeMtime_VanishedReportsNow(t *testing.T) {
	now := time.Now()
	got := MaxTreeMtime(filepath.Join(t.TempDir(), "gone"), now)
	assert.Equal(t, now, got)
}

func TestSettled(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.mkv"), []byte("x"), 0644))

	// freshly written, 15s window: not settled
	chtimes(t, filepath.Join(dir, "a.mkv"), now)
	chtimes(t, dir, now)
	assert.False(t, Settled(dir, 15*time.Second, now))

	// backdate everything past the window
	old := now.Add(-time.Minute)
	chtimes(t, filepath.Join(dir, "a.mkv"), old)
	chtimes(t, dir, old)
	assert.True(t, Settled(dir, 15*time.Second, now))
}

func TestSettled_ZeroWindowAlwaysSettled(t *testing.T) {
	dir := t.TempDir()
	assert.True(t, Settled(dir, 0, time.Now()))
}

func TestSettled_VanishedNeverSettled(t *testing.T) {
	gone := filepath.Join(t.TempDir(), "gone")
	assert.False(t, Settled(gone, 15*time.Second, time.Now()))
}
