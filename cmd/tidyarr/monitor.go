package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"github.com/tidyarr/tidyarr/internal/apply"
	"github.com/tidyarr/tidyarr/internal/history"
	"github.com/tidyarr/tidyarr/internal/monitor"
	"github.com/tidyarr/tidyarr/internal/planner"
)

var (
	monitorWatches         []string
	monitorApply           bool
	monitorStaged          bool
	monitorOnce            bool
	monitorIncludeExisting bool
	monitorInterval        time.Duration
	monitorSettleWindow    time.Duration
	monitorStateFile       string
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch roots and reconcile new directories",
	Long: `Continuously discovers immediate subdirectories of each watch root,
waits for them to settle, builds rename plans, and optionally applies
them. State survives restarts through a versioned state file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMonitor(cmd)
	},
}

func init() {
	monitorCmd.Flags().StringArrayVar(&monitorWatches, "watch", nil, "Watch root and output root as WATCH=OUTPUT (repeatable)")
	monitorCmd.Flags().BoolVar(&monitorApply, "apply", false, "Apply plans instead of stopping at planned")
	monitorCmd.Flags().BoolVar(&monitorStaged, "staged", false, "Use staged moves through a temp dir")
	monitorCmd.Flags().BoolVar(&monitorOnce, "once", false, "Run a single reconciliation pass and exit")
	monitorCmd.Flags().BoolVar(&monitorIncludeExisting, "include-existing", false, "Process directories already present at first run")
	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", 0, "Time between passes")
	monitorCmd.Flags().DurationVar(&monitorSettleWindow, "settle-window", 0, "Quiet time before a directory is processed")
	monitorCmd.Flags().StringVar(&monitorStateFile, "state-file", "", "Path of the monitor state file")
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command) error {
	roots, err := monitorRoots()
	if err != nil {
		return err
	}
	if len(roots) == 0 {
		return fmt.Errorf("no watch roots: pass --watch WATCH=OUTPUT or configure [[monitor.roots]]")
	}

	opts := monitor.Options{
		Apply:           cfg.Monitor.Apply || monitorApply,
		Staged:          cfg.Monitor.Staged || monitorStaged,
		IncludeExisting: cfg.Monitor.IncludeExisting || monitorIncludeExisting,
		Once:            monitorOnce,
		Interval:        cfg.Monitor.Interval,
		SettleWindow:    cfg.Monitor.SettleWindow,
	}
	if monitorInterval > 0 {
		opts.Interval = monitorInterval
	}
	if monitorSettleWindow > 0 {
		opts.SettleWindow = monitorSettleWindow
	}

	statePath := monitorStateFile
	if statePath == "" {
		statePath = cfg.Monitor.StateFile
	}
	if statePath == "" {
		statePath = filepath.Join(cfg.Log.Path, "monitor_state.json")
	}
	if err := os.MkdirAll(filepath.Dir(statePath), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	log := slog.Default()
	store := monitor.NewFileStore(statePath, log)
	if err := store.Acquire(); err != nil {
		return err
	}
	defer func() {
		if err := store.Release(); err != nil {
			log.Warn("release state lock", "error", err)
		}
	}()

	var journal monitor.Journal
	if cfg.History.Path != "" {
		db, err := openHistoryDB(cfg.History.Path)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		hs, err := history.NewStore(db)
		if err != nil {
			return err
		}
		journal = hs
	}

	pl := &planner.Local{Log: log}
	engine := apply.NewEngine(log)
	artifacts := monitor.ArtifactDir(cfg.Log.Path)
	rec := monitor.New(roots, store, pl, engine, journal, artifacts, opts, log)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return rec.Run(ctx)
	})

	log.Info("monitor started",
		"roots", len(roots),
		"apply", opts.Apply,
		"interval", opts.Interval,
		"settle_window", opts.SettleWindow,
		"state_file", statePath,
	)
	return g.Wait()
}

// monitorRoots merges --watch flags with configured roots. Flags, when
// present, replace the configuration entirely.
func monitorRoots() ([]monitor.RootPair, error) {
	if len(monitorWatches) > 0 {
		roots := make([]monitor.RootPair, 0, len(monitorWatches))
		for _, spec := range monitorWatches {
			watch, output, ok := strings.Cut(spec, "=")
			if !ok || watch == "" || output == "" {
				return nil, fmt.Errorf("invalid --watch %q: expected WATCH=OUTPUT", spec)
			}
			roots = append(roots, monitor.RootPair{Watch: watch, Output: output})
		}
		return roots, nil
	}
	roots := make([]monitor.RootPair, 0, len(cfg.Monitor.Roots))
	for _, rc := range cfg.Monitor.Roots {
		roots = append(roots, monitor.RootPair{Watch: rc.Watch, Output: rc.Output})
	}
	return roots, nil
}

// openHistoryDB opens the sqlite journal database, creating parent
// directories as needed.
func openHistoryDB(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db %s: %w", path, err)
	}
	return db, nil
}
