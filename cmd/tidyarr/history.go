package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tidyarr/tidyarr/internal/history"
)

var (
	historyLimit     int
	historyCatalogID int64
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded applies",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistory()
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum entries to show")
	historyCmd.Flags().Int64Var(&historyCatalogID, "catalog-id", 0, "Only entries for this catalog id")
	rootCmd.AddCommand(historyCmd)
}

func runHistory() error {
	store, closeStore, err := openHistory()
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("history disabled: set history.path in the config")
	}
	defer closeStore()

	filter := history.Filter{Limit: historyLimit}
	if historyCatalogID != 0 {
		id := historyCatalogID
		filter.CatalogID = &id
	}
	entries, err := store.List(filter)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No applies recorded.")
		return nil
	}
	fmt.Println(renderHistoryTable(entries))
	return nil
}

// openHistory opens the configured journal store. A nil store with a
// nil error means the journal is disabled.
func openHistory() (*history.Store, func(), error) {
	if cfg.History.Path == "" {
		return nil, nil, nil
	}
	db, err := openHistoryDB(cfg.History.Path)
	if err != nil {
		return nil, nil, err
	}
	store, err := history.NewStore(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return store, func() { _ = db.Close() }, nil
}
