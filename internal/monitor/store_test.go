package monitor

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "monitor_state.json"), testLogger())
}

func TestLoad_Missing(t *testing.T) {
	store := newStore(t)
	state, origin, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, OriginMissing, origin)
	assert.Empty(t, state.Processed)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	store := newStore(t)
	state := NewState()
	state.Baseline["/w/old"] = struct{}{}
	state.Pending["/w/new"] = struct{}{}
	state.Planned["/w/mid"] = struct{}{}
	state.Processed["/w/done"] = struct{}{}
	state.Failed["/w/bad"] = struct{}{}

	require.NoError(t, store.Save(state))

	loaded, origin, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, OriginV3, origin)
	assert.Equal(t, state, loaded)
}

func TestSave_CreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "nested", "state.json")
	store := NewFileStore(path, testLogger())
	require.NoError(t, store.Save(NewState()))
	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestSave_NoTempFileLeftBehind(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Save(NewState()))
	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".state-")
	}
}

func TestSave_EmitsCurrentVersionSorted(t *testing.T) {
	store := newStore(t)
	state := NewState()
	state.Processed["/w/b"] = struct{}{}
	state.Processed["/w/a"] = struct{}{}
	require.NoError(t, store.Save(state))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	var v struct {
		Version   int      `json:"version"`
		Processed []string `json:"processed"`
	}
	require.NoError(t, json.Unmarshal(data, &v))
	assert.Equal(t, StateVersion, v.Version)
	assert.Equal(t, []string{"/w/a", "/w/b"}, v.Processed)
}

func TestLoad_V1(t *testing.T) {
	store := newStore(t)
	payload := `{"version": 1, "processed": ["/w/done"]}`
	require.NoError(t, os.WriteFile(store.Path(), []byte(payload), 0644))

	state, origin, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, OriginV1, origin)
	assert.Contains(t, state.Processed, "/w/done")
	assert.Empty(t, state.Pending)
	assert.True(t, origin.NeedsBaseline())
}

func TestLoad_V2(t *testing.T) {
	store := newStore(t)
	payload := `{
  "version": 2,
  "baseline": ["/w/old"],
  "pending": ["/w/new"],
  "planned": ["/w/mid"],
  "processed": ["/w/done"]
}`
	require.NoError(t, os.WriteFile(store.Path(), []byte(payload), 0644))

	state, origin, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, OriginV2, origin)
	assert.Contains(t, state.Baseline, "/w/old")
	assert.Contains(t, state.Pending, "/w/new")
	assert.Contains(t, state.Planned, "/w/mid")
	assert.Contains(t, state.Processed, "/w/done")
	assert.Empty(t, state.Failed)
	assert.False(t, origin.NeedsBaseline())
}

func TestLoad_CorruptStartsEmpty(t *testing.T) {
	store := newStore(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0644))

	state, origin, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, OriginInvalid, origin)
	assert.Empty(t, state.Processed)
	assert.True(t, origin.NeedsBaseline())

	// the corrupt file stays on disk until the first save
	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(data))
}

func TestLoad_UnknownVersionStartsEmpty(t *testing.T) {
	store := newStore(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte(`{"version": 99}`), 0644))

	state, origin, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, OriginInvalid, origin)
	assert.Empty(t, state.Processed)
}

func TestAcquire_SecondMonitorRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	first := NewFileStore(path, testLogger())
	require.NoError(t, first.Acquire())
	defer func() { _ = first.Release() }()

	second := NewFileStore(path, testLogger())
	err := second.Acquire()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locked")
}

func TestAcquire_ReleasedLockReusable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	first := NewFileStore(path, testLogger())
	require.NoError(t, first.Acquire())
	require.NoError(t, first.Release())

	second := NewFileStore(path, testLogger())
	require.NoError(t, second.Acquire())
	require.NoError(t, second.Release())
}
