// Package apply executes rename plans against the filesystem: it
// validates the batch, orders it so moves never clobber paths other
// moves still need, and falls back to a two-phase staged protocol when
// the batch contains cycles.
package apply

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tidyarr/tidyarr/internal/plan"
)

// Options control one Apply invocation.
type Options struct {
	// DryRun validates the plan and mutates nothing.
	DryRun bool
	// Staged forces the two-phase staged executor even for acyclic
	// batches.
	Staged bool
}

// Result describes what an Apply invocation did.
type Result struct {
	DryRun bool
	// Applied lists the moves actually executed, in execution order.
	Applied []plan.Move
	// Rollback is the structural inverse of the entire requested plan,
	// including for dry runs, so a preview shows what a real run's
	// rollback would look like.
	Rollback *plan.Plan
	// StagingDir is the staging directory used, if any.
	StagingDir string
}

// Engine applies rename plans. One invocation owns the output tree for
// its duration; callers must not run two applies over overlapping
// output roots concurrently.
type Engine struct {
	log *slog.Logger
}

// NewEngine creates an engine logging to log (slog.Default when nil).
func NewEngine(log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{log: log.With("component", "apply")}
}

// resolvePath makes path absolute and resolves symlinks through its
// deepest existing ancestor, so paths that do not exist yet still
// compare stably.
func resolvePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	dir := filepath.Dir(abs)
	if dir == abs {
		return abs
	}
	return filepath.Join(resolvePath(dir), filepath.Base(abs))
}

// validateParentChain rejects destinations whose parent chain contains
// a non-directory entry.
func validateParentChain(dst string) error {
	for current := filepath.Dir(dst); ; current = filepath.Dir(current) {
		info, err := os.Stat(current)
		if err == nil && !info.IsDir() {
			return fmt.Errorf("%w: destination parent %s is not a directory", plan.ErrValidation, current)
		}
		if current == filepath.Dir(current) {
			return nil
		}
	}
}

// Apply validates and executes a rename plan.
//
// All preconditions are checked over resolved paths before anything is
// mutated: sources must be regular files, destination parent chains
// must be creatable, and an existing destination is tolerated only when
// it is itself one of the batch's sources (an in-place rename group).
// Moves whose source equals their destination are skipped during
// execution but still appear, as identity mappings, in the rollback
// plan.
func (e *Engine) Apply(p *plan.Plan, opts Options) (*Result, error) {
	e.log.Info("apply start",
		"dry_run", opts.DryRun,
		"staged", opts.Staged,
		"moves", len(p.Moves))

	if err := p.Validate(); err != nil {
		return nil, err
	}

	outputRoot := resolvePath(p.OutputRoot)
	sources := make(map[string]struct{}, len(p.Moves))
	for _, m := range p.Moves {
		sources[resolvePath(m.Src)] = struct{}{}
	}

	var batch []resolvedMove
	for _, m := range p.Moves {
		src := resolvePath(m.Src)
		dst := resolvePath(m.Dst)
		info, err := os.Stat(src)
		if err != nil || !info.Mode().IsRegular() {
			return nil, fmt.Errorf("%w: source %s does not exist or is not a regular file", plan.ErrValidation, src)
		}
		if err := validateParentChain(dst); err != nil {
			return nil, err
		}
		if _, err := os.Lstat(dst); err == nil {
			if _, ok := sources[dst]; !ok {
				return nil, fmt.Errorf("%w: destination already exists: %s", plan.ErrValidation, dst)
			}
		}
		if src == dst {
			continue
		}
		batch = append(batch, resolvedMove{move: m, src: src, dst: dst})
	}

	rollback := p.Rollback()

	if opts.DryRun {
		e.log.Info("apply done", "applied", 0, "dry_run", true)
		return &Result{DryRun: true, Rollback: rollback}, nil
	}
	if len(batch) == 0 {
		e.log.Info("apply done", "applied", 0)
		return &Result{Rollback: rollback}, nil
	}

	if opts.Staged {
		return e.runStagedBatch(batch, outputRoot, rollback)
	}

	order, err := scheduleOrder(batch)
	if errors.Is(err, ErrCycle) {
		e.log.Info("move batch has cycles, switching to staged execution")
		return e.runStagedBatch(batch, outputRoot, rollback)
	}
	if err != nil {
		return nil, err
	}
	return e.runOrdered(batch, order, rollback)
}

// runOrdered executes the batch in scheduler order, one direct rename
// per move. On failure, completed moves are undone in reverse.
func (e *Engine) runOrdered(batch []resolvedMove, order []int, rollback *plan.Plan) (*Result, error) {
	var done []resolvedMove
	for _, idx := range order {
		rm := batch[idx]
		if err := os.MkdirAll(filepath.Dir(rm.dst), 0755); err != nil {
			e.rollbackOrdered(done)
			return nil, fmt.Errorf("%w: create parent for %s: %v", ErrApply, rm.dst, err)
		}
		e.log.Info("move", "src", rm.src, "dst", rm.dst)
		if err := os.Rename(rm.src, rm.dst); err != nil {
			e.rollbackOrdered(done)
			return nil, fmt.Errorf("%w: %v", ErrApply, err)
		}
		done = append(done, rm)
	}

	applied := make([]plan.Move, len(done))
	for i, rm := range done {
		applied[i] = rm.move
	}
	e.log.Info("apply done", "applied", len(applied))
	return &Result{Applied: applied, Rollback: rollback}, nil
}

func (e *Engine) rollbackOrdered(done []resolvedMove) {
	e.log.Error("apply failed, rolling back completed moves", "completed", len(done))
	for i := len(done) - 1; i >= 0; i-- {
		rm := done[i]
		if _, err := os.Lstat(rm.dst); err != nil {
			continue
		}
		e.log.Info("rollback move", "from", rm.dst, "to", rm.src)
		if err := os.Rename(rm.dst, rm.src); err != nil {
			e.log.Error("rollback move failed", "from", rm.dst, "to", rm.src, "error", err)
		}
	}
}

func (e *Engine) runStagedBatch(batch []resolvedMove, outputRoot string, rollback *plan.Plan) (*Result, error) {
	stagingDir, err := runStaged(batch, outputRoot, e.log)
	if err != nil {
		return nil, err
	}
	applied := make([]plan.Move, len(batch))
	for i, rm := range batch {
		applied[i] = rm.move
	}
	e.log.Info("apply done", "applied", len(applied), "staging_dir", stagingDir)
	return &Result{Applied: applied, Rollback: rollback, StagingDir: stagingDir}, nil
}
