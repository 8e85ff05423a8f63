// Package monitor implements the continuous reconciliation loop:
// discover source directories under watch roots, debounce them until
// settled, plan, apply, and record every lifecycle transition in a
// durable state file that survives restarts.
package monitor

import (
	"fmt"
	"sort"
)

// Stage is the lifecycle stage of a discovered directory.
type Stage string

const (
	StagePending   Stage = "pending"
	StagePlanned   Stage = "planned"
	StageProcessed Stage = "processed"
	StageFailed    Stage = "failed"
)

// validTransitions defines allowed stage transitions. Failed is
// terminal and sticky: nothing leaves it. Re-entering the current
// stage is always allowed (idempotent crash redo).
var validTransitions = map[Stage][]Stage{
	StagePending:   {StagePlanned, StageFailed},
	StagePlanned:   {StageProcessed, StageFailed},
	StageProcessed: {StageFailed},
	StageFailed:    {},
}

// CanTransitionTo returns true if moving from s to target is valid.
func (s Stage) CanTransitionTo(target Stage) bool {
	if s == target {
		return true
	}
	for _, v := range validTransitions[s] {
		if v == target {
			return true
		}
	}
	return false
}

// State tracks every discovered directory, keyed by canonical resolved
// path. Baseline holds the directories present at first run that are
// never processed unless include-existing is set.
type State struct {
	Baseline  map[string]struct{}
	Pending   map[string]struct{}
	Planned   map[string]struct{}
	Processed map[string]struct{}
	Failed    map[string]struct{}
}

// NewState returns an empty state.
func NewState() *State {
	return &State{
		Baseline:  make(map[string]struct{}),
		Pending:   make(map[string]struct{}),
		Planned:   make(map[string]struct{}),
		Processed: make(map[string]struct{}),
		Failed:    make(map[string]struct{}),
	}
}

// StageOf returns the current stage of dir, or "" when untracked.
// Baseline membership is not a stage.
func (s *State) StageOf(dir string) Stage {
	switch {
	case contains(s.Failed, dir):
		return StageFailed
	case contains(s.Processed, dir):
		return StageProcessed
	case contains(s.Planned, dir):
		return StagePlanned
	case contains(s.Pending, dir):
		return StagePending
	default:
		return ""
	}
}

// Transition moves dir into target, removing it from every other
// stage set. An untracked dir may enter any stage (crash redo lands
// here too).
func (s *State) Transition(dir string, target Stage) error {
	current := s.StageOf(dir)
	if current != "" && !current.CanTransitionTo(target) {
		return fmt.Errorf("invalid transition for %s: %s -> %s", dir, current, target)
	}
	delete(s.Pending, dir)
	delete(s.Planned, dir)
	delete(s.Processed, dir)
	delete(s.Failed, dir)
	switch target {
	case StagePending:
		s.Pending[dir] = struct{}{}
	case StagePlanned:
		s.Planned[dir] = struct{}{}
	case StageProcessed:
		s.Processed[dir] = struct{}{}
	case StageFailed:
		s.Failed[dir] = struct{}{}
	default:
		return fmt.Errorf("unknown stage %q", target)
	}
	return nil
}

// DropFailedFromActive defensively removes failed directories that are
// also present in pending or planned. Returns true when anything
// changed.
func (s *State) DropFailedFromActive() bool {
	dirty := false
	for dir := range s.Failed {
		if contains(s.Pending, dir) {
			delete(s.Pending, dir)
			dirty = true
		}
		if contains(s.Planned, dir) {
			delete(s.Planned, dir)
			dirty = true
		}
	}
	return dirty
}

func contains(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
