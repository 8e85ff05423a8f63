package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tidyarr/tidyarr/internal/monitor"
	"github.com/tidyarr/tidyarr/internal/plan"
	"github.com/tidyarr/tidyarr/internal/planner"
)

var (
	planOut           string
	planCatalogID     int64
	planTitle         string
	planYear          int
	planFile          string
	planAllowExisting bool
)

var planCmd = &cobra.Command{
	Use:   "plan <source-dir>",
	Short: "Build a rename plan for a source directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlan(cmd, args[0])
	},
}

func init() {
	planCmd.Flags().StringVar(&planOut, "out", "", "Output root the plan moves files into")
	planCmd.Flags().Int64Var(&planCatalogID, "catalog-id", 0, "Catalog id when the directory name carries no tag")
	planCmd.Flags().StringVar(&planTitle, "title", "", "Series title override")
	planCmd.Flags().IntVar(&planYear, "year", 0, "Series year for the folder name")
	planCmd.Flags().StringVar(&planFile, "plan-file", "", "Plan output path")
	planCmd.Flags().BoolVar(&planAllowExisting, "allow-existing-dest", false, "Tolerate destinations that already exist")
	_ = planCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, sourceDir string) error {
	pl := &planner.Local{
		CatalogID:         planCatalogID,
		Title:             planTitle,
		AllowExistingDest: planAllowExisting,
		Log:               slog.Default(),
	}
	if planYear != 0 {
		y := planYear
		pl.Year = &y
	}

	p, err := pl.BuildPlan(cmd.Context(), sourceDir, planOut)
	if err != nil {
		return err
	}

	outPath := planFile
	if outPath == "" {
		artifacts := monitor.ArtifactDir(cfg.Log.Path)
		outPath, _ = artifacts.PlanPaths(absOrSelf(sourceDir))
	}
	if err := monitor.EnsureNotWithin(outPath, p.SourceDir, p.OutputRoot); err != nil {
		return err
	}
	if err := plan.WriteFile(outPath, p); err != nil {
		return err
	}

	fmt.Println(renderMoveTable(p))
	fmt.Printf("Plan: %d moves for %q (catalog %d)\n", len(p.Moves), p.Title, p.CatalogID)
	fmt.Printf("Plan file: %s\n", outPath)
	return nil
}

func absOrSelf(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
