package monitor

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tidyarr/tidyarr/internal/apply"
	"github.com/tidyarr/tidyarr/internal/plan"
	"github.com/tidyarr/tidyarr/internal/planner"
)

// RootPair couples a watched input root with the output root its
// discovered directories are organized into.
type RootPair struct {
	Watch  string
	Output string
}

// Applier executes a rename plan. *apply.Engine satisfies this.
type Applier interface {
	Apply(p *plan.Plan, opts apply.Options) (*apply.Result, error)
}

// Journal records completed applies. Nil is allowed.
type Journal interface {
	RecordApply(p *plan.Plan, applied int, staged bool, rollbackPath string) error
}

// Options tune the reconciliation loop.
type Options struct {
	// Apply executes plans after building them; otherwise directories
	// stop at planned.
	Apply bool
	// Staged forces staged execution for applies.
	Staged bool
	// IncludeExisting processes directories already present at first
	// run instead of baselining them away.
	IncludeExisting bool
	// Once runs a single pass and returns.
	Once bool
	// Interval separates passes.
	Interval time.Duration
	// SettleWindow is the quiet time required before a pending
	// directory is promoted.
	SettleWindow time.Duration
}

// Reconciler drives the discover/plan/apply state machine over one or
// more watch roots. Single-threaded: one pass at a time, every
// transition persisted before the loop proceeds.
type Reconciler struct {
	roots     []RootPair
	store     *FileStore
	planner   planner.Planner
	applier   Applier
	journal   Journal
	artifacts ArtifactDir
	opts      Options
	log       *slog.Logger

	now       func() time.Time
	baselined bool
}

// New creates a reconciler. journal may be nil.
func New(roots []RootPair, store *FileStore, pl planner.Planner, ap Applier, journal Journal, artifacts ArtifactDir, opts Options, log *slog.Logger) *Reconciler {
	if log == nil {
		log = slog.Default()
	}
	return &Reconciler{
		roots:     roots,
		store:     store,
		planner:   pl,
		applier:   ap,
		journal:   journal,
		artifacts: artifacts,
		opts:      opts,
		log:       log.With("component", "monitor"),
		now:       time.Now,
	}
}

// discovery is one directory found under a watch root this pass.
type discovery struct {
	dir    string
	watch  string
	output string
}

// Run loops forever on the configured interval, or exactly once. It
// returns nil on context cancellation; an in-flight pass always
// completes before shutdown is observed.
func (r *Reconciler) Run(ctx context.Context) error {
	r.log.Info("monitor start",
		"roots", len(r.roots),
		"apply", r.opts.Apply,
		"once", r.opts.Once,
		"interval", r.opts.Interval,
		"settle", r.opts.SettleWindow)
	for {
		if ctx.Err() != nil {
			r.log.Info("monitor shutdown complete")
			return nil
		}
		if err := r.RunOnce(ctx); err != nil {
			return err
		}
		if r.opts.Once {
			return nil
		}
		if !sleepChunked(ctx, r.opts.Interval) {
			r.log.Info("monitor shutdown complete")
			return nil
		}
	}
}

// RunOnce executes a single reconciliation pass. Errors from
// individual directories are recorded in state, not returned; only
// infrastructure failures (state store unusable) abort the pass.
func (r *Reconciler) RunOnce(ctx context.Context) error {
	state, origin, err := r.store.Load()
	if err != nil {
		return err
	}

	discovered := r.discoverAll()

	if !r.opts.IncludeExisting && !r.baselined && origin.NeedsBaseline() {
		for resolved := range discovered {
			if !contains(state.Processed, resolved) {
				state.Baseline[resolved] = struct{}{}
			}
		}
		if err := r.store.Save(state); err != nil {
			return err
		}
		r.baselined = true
		r.log.Info("baseline bootstrap", "count", len(state.Baseline))
		return nil
	}

	if state.DropFailedFromActive() {
		if err := r.store.Save(state); err != nil {
			return err
		}
	}

	dirty := false
	for _, resolved := range sortedDiscovered(discovered) {
		if state.StageOf(resolved) != "" {
			continue
		}
		if !r.opts.IncludeExisting && contains(state.Baseline, resolved) {
			continue
		}
		if err := state.Transition(resolved, StagePending); err != nil {
			return err
		}
		dirty = true
		r.log.Info("new directory", "dir", resolved)
	}
	if dirty {
		if err := r.store.Save(state); err != nil {
			return err
		}
	}

	if r.opts.Apply {
		if err := r.applyPlanned(ctx, state, discovered); err != nil {
			return err
		}
	}
	return r.processPending(ctx, state, discovered)
}

// discoverAll enumerates immediate subdirectories of every watch root,
// keyed by canonical resolved path. Dot-directories are ignored.
func (r *Reconciler) discoverAll() map[string]discovery {
	found := make(map[string]discovery)
	for _, pair := range r.roots {
		entries, err := os.ReadDir(pair.Watch)
		if err != nil {
			r.log.Debug("watch root unreadable", "root", pair.Watch, "error", err)
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			dir := filepath.Join(pair.Watch, entry.Name())
			resolved := resolvePath(dir)
			found[resolved] = discovery{dir: dir, watch: pair.Watch, output: pair.Output}
		}
	}
	r.log.Debug("discovered", "count", len(found))
	return found
}

// applyPlanned finishes directories that already have a persisted
// plan: the crash-recovery path and the apply half of a normal
// promotion from an earlier pass.
func (r *Reconciler) applyPlanned(ctx context.Context, state *State, discovered map[string]discovery) error {
	for _, resolved := range sortedKeys(state.Planned) {
		if ctx.Err() != nil {
			return nil
		}
		watchRoot := filepath.Dir(resolved)
		if d, ok := discovered[resolved]; ok {
			watchRoot = d.watch
		}
		planPath, rollbackPath := r.artifacts.PlanPaths(resolved)

		changed, err := r.sourceChangedSincePlan(planPath, resolved)
		if err == nil && changed {
			// New content arrived after planning; re-examining later
			// beats silently dropping it.
			r.log.Info("source changed since plan, deferring apply", "dir", resolved)
			continue
		}

		p, err := plan.ReadFile(planPath)
		if err == nil {
			err = r.applyOne(p, rollbackPath)
		}
		if err == nil {
			err = r.finalizeSource(resolved, watchRoot)
		}
		if err != nil {
			r.log.Error("apply failed", "dir", resolved, "error", err)
			if terr := state.Transition(resolved, StageFailed); terr != nil {
				return terr
			}
			if serr := r.store.Save(state); serr != nil {
				return serr
			}
			continue
		}
		if err := state.Transition(resolved, StageProcessed); err != nil {
			return err
		}
		if err := r.store.Save(state); err != nil {
			return err
		}
		r.log.Info("processed", "dir", resolved)
	}
	return nil
}

// processPending promotes settled pending directories: build and
// persist the plan, persist the planned transition, then (when apply
// is on) execute it.
func (r *Reconciler) processPending(ctx context.Context, state *State, discovered map[string]discovery) error {
	for _, resolved := range sortedKeys(state.Pending) {
		if ctx.Err() != nil {
			return nil
		}
		d, ok := discovered[resolved]
		if !ok {
			continue
		}
		if !Settled(resolved, r.opts.SettleWindow, r.now()) {
			r.log.Info("pending not settled", "dir", resolved)
			continue
		}

		planPath, rollbackPath := r.artifacts.PlanPaths(resolved)
		err := EnsureNotWithin(planPath, resolved, d.output)
		if err == nil {
			err = EnsureNotWithin(rollbackPath, resolved, d.output)
		}

		var p *plan.Plan
		if err == nil {
			p, err = r.planner.BuildPlan(ctx, resolved, d.output)
		}
		if err == nil {
			err = plan.WriteFile(planPath, p)
		}
		if err != nil {
			r.log.Error("planning failed", "dir", resolved, "error", err)
			if terr := state.Transition(resolved, StageFailed); terr != nil {
				return terr
			}
			if serr := r.store.Save(state); serr != nil {
				return serr
			}
			continue
		}
		r.log.Info("planned", "dir", resolved, "plan", planPath, "moves", len(p.Moves))

		// Persist planned before applying: a crash between the two
		// resumes at apply instead of re-planning.
		if err := state.Transition(resolved, StagePlanned); err != nil {
			return err
		}
		if err := r.store.Save(state); err != nil {
			return err
		}

		if !r.opts.Apply {
			continue
		}

		changed, cerr := r.sourceChangedSincePlan(planPath, resolved)
		if cerr == nil && changed {
			r.log.Info("source changed since plan, deferring apply", "dir", resolved)
			continue
		}

		err = r.applyOne(p, rollbackPath)
		if err == nil {
			err = r.finalizeSource(resolved, d.watch)
		}
		if err != nil {
			r.log.Error("apply failed", "dir", resolved, "error", err)
			if terr := state.Transition(resolved, StageFailed); terr != nil {
				return terr
			}
			if serr := r.store.Save(state); serr != nil {
				return serr
			}
			continue
		}
		if err := state.Transition(resolved, StageProcessed); err != nil {
			return err
		}
		if err := r.store.Save(state); err != nil {
			return err
		}
		r.log.Info("processed", "dir", resolved)
	}
	return nil
}

// applyOne executes a plan and writes its rollback plan next to it.
func (r *Reconciler) applyOne(p *plan.Plan, rollbackPath string) error {
	result, err := r.applier.Apply(p, apply.Options{Staged: r.opts.Staged})
	if err != nil {
		return err
	}
	if err := plan.WriteFile(rollbackPath, result.Rollback); err != nil {
		return err
	}
	if r.journal != nil {
		if err := r.journal.RecordApply(p, len(result.Applied), result.StagingDir != "", rollbackPath); err != nil {
			r.log.Warn("journal record failed", "error", err)
		}
	}
	r.log.Info("applied", "source_dir", p.SourceDir, "applied", len(result.Applied))
	return nil
}

// sourceChangedSincePlan compares the source tree's newest mtime with
// the plan file's own mtime.
func (r *Reconciler) sourceChangedSincePlan(planPath, sourceDir string) (bool, error) {
	if _, err := os.Lstat(sourceDir); err != nil {
		// Source gone: nothing new can have arrived.
		return false, nil
	}
	info, err := os.Stat(planPath)
	if err != nil {
		return false, err
	}
	return MaxTreeMtime(sourceDir, r.now()).After(info.ModTime()), nil
}

// finalizeSource cleans up a source directory after a successful
// apply: prune it when drained, archive leftovers otherwise.
func (r *Reconciler) finalizeSource(sourceDir, watchRoot string) error {
	if _, err := os.Lstat(sourceDir); err != nil {
		return nil
	}
	hasFiles, err := treeHasFiles(sourceDir)
	if err != nil {
		return err
	}
	if !hasFiles {
		r.log.Info("pruning drained source", "dir", sourceDir)
		return pruneSourceDir(sourceDir, watchRoot)
	}
	archived, err := archiveSourceDir(sourceDir)
	if err != nil {
		return err
	}
	r.log.Info("archived leftover source content", "dir", sourceDir, "archive", archived)
	return nil
}

// resolvePath canonicalizes a path the same way the apply engine does.
func resolvePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

func sortedDiscovered(discovered map[string]discovery) []string {
	keys := make([]string, 0, len(discovered))
	for k := range discovered {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sleepChunked sleeps for the interval in one-second chunks so a
// shutdown request is observed promptly. Returns false when the
// context was canceled.
func sleepChunked(ctx context.Context, interval time.Duration) bool {
	remaining := interval
	for remaining > 0 {
		chunk := time.Second
		if remaining < chunk {
			chunk = remaining
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(chunk):
		}
		remaining -= chunk
	}
	return true
}
