package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tidyarr/tidyarr/internal/apply"
	"github.com/tidyarr/tidyarr/internal/plan"
)

var (
	rollbackDryRun bool
	rollbackStaged bool
)

var rollbackCmd = &cobra.Command{
	Use:   "rollback <rollback_plan.json>",
	Short: "Undo a previous apply from its rollback plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRollback(args[0], rollbackDryRun, rollbackStaged)
	},
}

func init() {
	rollbackCmd.Flags().BoolVar(&rollbackDryRun, "dry-run", false, "Validate without moving files")
	rollbackCmd.Flags().BoolVar(&rollbackStaged, "staged", false, "Use staged moves through a temp dir")
	rootCmd.AddCommand(rollbackCmd)
}

// runRollback applies a rollback plan. A rollback plan is an ordinary
// rename plan with sources and destinations inverted, so the engine
// runs it like any other.
func runRollback(planPath string, dryRun, staged bool) error {
	p, err := plan.ReadFile(planPath)
	if err != nil {
		return err
	}

	engine := apply.NewEngine(slog.Default())
	result, err := engine.Apply(p, apply.Options{DryRun: dryRun, Staged: staged})
	if err != nil {
		return err
	}

	if dryRun {
		fmt.Println(renderMoveTable(p))
		fmt.Printf("Rollback dry-run: %d moves\n", len(p.Moves))
		return nil
	}
	fmt.Printf("Rollback applied: %d moves\n", len(result.Applied))
	return nil
}
