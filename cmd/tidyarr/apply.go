package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tidyarr/tidyarr/internal/apply"
	"github.com/tidyarr/tidyarr/internal/monitor"
	"github.com/tidyarr/tidyarr/internal/plan"
)

var (
	applyDryRun       bool
	applyStaged       bool
	applyRollbackFile string
)

var applyCmd = &cobra.Command{
	Use:   "apply <plan.json>",
	Short: "Apply a rename plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApply(args[0], applyDryRun, applyStaged, applyRollbackFile)
	},
}

func init() {
	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "Validate without moving files")
	applyCmd.Flags().BoolVar(&applyStaged, "staged", false, "Use staged moves through a temp dir")
	applyCmd.Flags().StringVar(&applyRollbackFile, "rollback-file", "", "Rollback plan output path")
	rootCmd.AddCommand(applyCmd)
}

func runApply(planPath string, dryRun, staged bool, rollbackFile string) error {
	p, err := plan.ReadFile(planPath)
	if err != nil {
		return err
	}

	if rollbackFile == "" {
		rollbackFile = defaultRollbackPath(planPath)
	}
	if err := monitor.EnsureNotWithin(rollbackFile, p.SourceDir, p.OutputRoot); err != nil {
		return err
	}

	engine := apply.NewEngine(slog.Default())
	result, err := engine.Apply(p, apply.Options{DryRun: dryRun, Staged: staged})
	if err != nil {
		return err
	}

	if err := plan.WriteFile(rollbackFile, result.Rollback); err != nil {
		return err
	}
	if !dryRun {
		recordApplyHistory(p, len(result.Applied), result.StagingDir != "", rollbackFile)
	}

	if dryRun {
		fmt.Println(renderMoveTable(p))
		fmt.Printf("Apply dry-run: %d moves\n", len(p.Moves))
	} else {
		fmt.Printf("Apply applied: %d moves\n", len(result.Applied))
	}
	fmt.Printf("Rollback plan: %s\n", rollbackFile)
	return nil
}

// defaultRollbackPath mirrors the plan file's name under the log
// path's plans directory.
func defaultRollbackPath(planPath string) string {
	plansDir := filepath.Join(cfg.Log.Path, "plans")
	name := filepath.Base(planPath)
	if strings.HasSuffix(name, ".rename_plan.json") {
		base := strings.TrimSuffix(name, ".rename_plan.json")
		return filepath.Join(plansDir, base+".rollback_plan.json")
	}
	ext := filepath.Ext(name)
	return filepath.Join(plansDir, strings.TrimSuffix(name, ext)+".rollback_plan.json")
}

// recordApplyHistory journals an apply when a history db is
// configured. Journal trouble never fails the apply itself.
func recordApplyHistory(p *plan.Plan, applied int, staged bool, rollbackPath string) {
	store, closeStore, err := openHistory()
	if err != nil || store == nil {
		if err != nil {
			slog.Warn("history unavailable", "error", err)
		}
		return
	}
	defer closeStore()
	if err := store.RecordApply(p, applied, staged, rollbackPath); err != nil {
		slog.Warn("history record failed", "error", err)
	}
}
