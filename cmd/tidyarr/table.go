package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/tidyarr/tidyarr/internal/history"
	"github.com/tidyarr/tidyarr/internal/plan"
)

// movePreviewLimit caps how many moves a summary table shows.
const movePreviewLimit = 20

// renderMoveTable formats a plan's moves for terminal output,
// truncating long plans with a trailing count row.
func renderMoveTable(p *plan.Plan) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Kind", "Source", "Destination"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
	})

	for i, m := range p.Moves {
		if i == movePreviewLimit {
			tw.AppendFooter(table.Row{"", "", "", fmt.Sprintf("… and %d more", len(p.Moves)-movePreviewLimit)})
			break
		}
		tw.AppendRow(table.Row{i + 1, string(m.Kind), m.Src, m.Dst})
	}
	return tw.Render()
}

// renderHistoryTable formats journal entries for terminal output.
func renderHistoryTable(entries []history.Entry) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"When", "Catalog", "Title", "Moves", "Staged", "Source"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	for _, e := range entries {
		staged := ""
		if e.Staged {
			staged = "yes"
		}
		tw.AppendRow(table.Row{
			e.AppliedAt.Local().Format("2006-01-02 15:04"),
			e.CatalogID,
			e.Title,
			e.MoveCount,
			staged,
			e.SourceDir,
		})
	}
	return tw.Render()
}
