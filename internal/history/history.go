// Package history keeps a durable journal of executed applies in
// sqlite, so past runs and their rollback plans stay discoverable.
package history

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/tidyarr/tidyarr/internal/plan"
)

// Schema creates the journal table.
const Schema = `
CREATE TABLE IF NOT EXISTS applies (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    catalog_id INTEGER NOT NULL,
    title TEXT NOT NULL,
    source_dir TEXT NOT NULL,
    move_count INTEGER NOT NULL,
    staged INTEGER NOT NULL,
    rollback_path TEXT NOT NULL,
    applied_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_applies_applied_at ON applies(applied_at);
`

// Entry is one recorded apply.
type Entry struct {
	ID           int64
	CatalogID    int64
	Title        string
	SourceDir    string
	MoveCount    int
	Staged       bool
	RollbackPath string
	AppliedAt    time.Time
}

// Filter narrows List results.
type Filter struct {
	CatalogID *int64
	Limit     int
}

// Store persists apply records.
type Store struct {
	db *sql.DB
}

// NewStore creates a store and ensures the schema exists.
func NewStore(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(Schema); err != nil {
		return nil, fmt.Errorf("apply history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// RecordApply journals a completed apply.
func (s *Store) RecordApply(p *plan.Plan, applied int, staged bool, rollbackPath string) error {
	_, err := s.db.Exec(`
		INSERT INTO applies (catalog_id, title, source_dir, move_count, staged, rollback_path, applied_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.CatalogID, p.Title, p.SourceDir, applied, staged, rollbackPath, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert apply record: %w", err)
	}
	return nil
}

// List returns recorded applies, newest first.
func (s *Store) List(f Filter) ([]Entry, error) {
	query := `SELECT id, catalog_id, title, source_dir, move_count, staged, rollback_path, applied_at FROM applies`
	var conds []string
	var args []any
	if f.CatalogID != nil {
		conds = append(conds, "catalog_id = ?")
		args = append(args, *f.CatalogID)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY applied_at DESC, id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.CatalogID, &e.Title, &e.SourceDir, &e.MoveCount, &e.Staged, &e.RollbackPath, &e.AppliedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}
