package monitor

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// StateVersion is the persisted schema version writers emit. Readers
// accept every version ever written and normalize in memory.
const StateVersion = 3

// Origin describes where a loaded state came from; it decides whether
// the first-run baseline bootstrap applies.
type Origin string

const (
	OriginMissing Origin = "missing"
	OriginInvalid Origin = "invalid"
	OriginV1      Origin = "v1"
	OriginV2      Origin = "v2"
	OriginV3      Origin = "v3"
)

// NeedsBaseline reports whether a state of this origin predates the
// baseline concept and requires a bootstrap pass.
func (o Origin) NeedsBaseline() bool {
	return o == OriginMissing || o == OriginInvalid || o == OriginV1
}

type stateV3 struct {
	Version   int      `json:"version"`
	Baseline  []string `json:"baseline"`
	Pending   []string `json:"pending"`
	Planned   []string `json:"planned"`
	Processed []string `json:"processed"`
	Failed    []string `json:"failed"`
}

// FileStore persists monitor state as a versioned JSON snapshot. Every
// save goes through a temp file and an atomic rename so a crash can
// never leave a truncated state file. An advisory lock stops two
// monitors from sharing one state file.
type FileStore struct {
	path string
	lock *flock.Flock
	log  *slog.Logger
}

// NewFileStore creates a store for the given state file path.
func NewFileStore(path string, log *slog.Logger) *FileStore {
	if log == nil {
		log = slog.Default()
	}
	return &FileStore{
		path: path,
		lock: flock.New(path + ".lock"),
		log:  log,
	}
}

// Path returns the state file path.
func (s *FileStore) Path() string { return s.path }

// Acquire takes the advisory lock, failing fast when another monitor
// already owns this state file.
func (s *FileStore) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	locked, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock state file: %w", err)
	}
	if !locked {
		return fmt.Errorf("state file %s is locked by another monitor", s.path)
	}
	return nil
}

// Release drops the advisory lock.
func (s *FileStore) Release() error {
	return s.lock.Unlock()
}

// Load reads and normalizes the persisted state. A missing, corrupt,
// or unknown-version file yields an empty state (the original file is
// left untouched until the first legitimate save).
func (s *FileStore) Load() (*State, Origin, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return NewState(), OriginMissing, nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("read state: %w", err)
	}

	var probe struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		s.log.Warn("state file unreadable, starting empty", "path", s.path, "error", err)
		return NewState(), OriginInvalid, nil
	}

	state := NewState()
	switch probe.Version {
	case 1:
		var v struct {
			Processed []string `json:"processed"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			s.log.Warn("state file unreadable, starting empty", "path", s.path, "error", err)
			return NewState(), OriginInvalid, nil
		}
		fillSet(state.Processed, v.Processed)
		return state, OriginV1, nil
	case 2:
		var v struct {
			Baseline  []string `json:"baseline"`
			Pending   []string `json:"pending"`
			Planned   []string `json:"planned"`
			Processed []string `json:"processed"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			s.log.Warn("state file unreadable, starting empty", "path", s.path, "error", err)
			return NewState(), OriginInvalid, nil
		}
		fillSet(state.Baseline, v.Baseline)
		fillSet(state.Pending, v.Pending)
		fillSet(state.Planned, v.Planned)
		fillSet(state.Processed, v.Processed)
		return state, OriginV2, nil
	case 3:
		var v stateV3
		if err := json.Unmarshal(data, &v); err != nil {
			s.log.Warn("state file unreadable, starting empty", "path", s.path, "error", err)
			return NewState(), OriginInvalid, nil
		}
		fillSet(state.Baseline, v.Baseline)
		fillSet(state.Pending, v.Pending)
		fillSet(state.Planned, v.Planned)
		fillSet(state.Processed, v.Processed)
		fillSet(state.Failed, v.Failed)
		return state, OriginV3, nil
	default:
		s.log.Warn("unknown state version, starting empty", "path", s.path, "version", probe.Version)
		return NewState(), OriginInvalid, nil
	}
}

// Save writes the state at the current version, atomically.
func (s *FileStore) Save(state *State) error {
	payload := stateV3{
		Version:   StateVersion,
		Baseline:  sortedKeys(state.Baseline),
		Pending:   sortedKeys(state.Pending),
		Planned:   sortedKeys(state.Planned),
		Processed: sortedKeys(state.Processed),
		Failed:    sortedKeys(state.Failed),
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".state-*")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp state: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename state: %w", err)
	}
	return nil
}

func fillSet(set map[string]struct{}, keys []string) {
	for _, k := range keys {
		set[k] = struct{}{}
	}
}
