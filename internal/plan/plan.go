// Package plan defines the rename plan model: an immutable batch of
// source-to-destination file moves plus provenance metadata.
package plan

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MoveKind classifies the file a move relocates.
type MoveKind string

const (
	KindVideo    MoveKind = "video"
	KindSubtitle MoveKind = "subtitle"
)

// Valid returns true for the known move kinds.
func (k MoveKind) Valid() bool {
	return k == KindVideo || k == KindSubtitle
}

// Move describes one planned file move. SrcID is an opaque identity
// assigned by the scanner; it is stable for the plan's lifetime only.
type Move struct {
	Src   string
	Dst   string
	Kind  MoveKind
	SrcID int64
}

// Plan is a batch of moves with provenance. Plans are built once,
// validated, and then treated as read-only.
type Plan struct {
	CatalogID  int64
	Title      string
	Year       *int
	SourceDir  string
	OutputRoot string
	Moves      []Move
}

// Validate checks the structural invariants: every destination is
// unique and stays inside OutputRoot, every source appears at most once,
// and every move carries a known kind.
func (p *Plan) Validate() error {
	root := filepath.Clean(p.OutputRoot)
	seenDst := make(map[string]struct{}, len(p.Moves))
	seenSrc := make(map[string]struct{}, len(p.Moves))
	for i, m := range p.Moves {
		if !m.Kind.Valid() {
			return fmt.Errorf("%w: moves[%d]: unknown kind %q", ErrValidation, i, m.Kind)
		}
		if m.Src == "" || m.Dst == "" {
			return fmt.Errorf("%w: moves[%d]: empty src or dst", ErrValidation, i)
		}
		dst := filepath.Clean(m.Dst)
		if !within(dst, root) {
			return fmt.Errorf("%w: destination %s is outside output root %s", ErrValidation, dst, root)
		}
		if _, dup := seenDst[dst]; dup {
			return fmt.Errorf("%w: destination collision at %s", ErrValidation, dst)
		}
		seenDst[dst] = struct{}{}
		src := filepath.Clean(m.Src)
		if _, dup := seenSrc[src]; dup {
			return fmt.Errorf("%w: source %s moved more than once", ErrValidation, src)
		}
		seenSrc[src] = struct{}{}
	}
	return nil
}

// Rollback returns the structural inverse of the plan: every move with
// src and dst swapped, same kind and id, original order preserved. The
// inverse covers the whole plan, including moves that a real apply would
// skip as no-ops. SourceDir and OutputRoot swap too, since a rollback
// moves files back into the original source tree.
func (p *Plan) Rollback() *Plan {
	moves := make([]Move, len(p.Moves))
	for i, m := range p.Moves {
		moves[i] = Move{Src: m.Dst, Dst: m.Src, Kind: m.Kind, SrcID: m.SrcID}
	}
	return &Plan{
		CatalogID:  p.CatalogID,
		Title:      p.Title,
		Year:       p.Year,
		SourceDir:  p.OutputRoot,
		OutputRoot: p.SourceDir,
		Moves:      moves,
	}
}

// within reports whether path sits at or below root, comparing cleaned
// paths lexically.
func within(path, root string) bool {
	path = filepath.Clean(path)
	root = filepath.Clean(root)
	if path == root {
		return true
	}
	sep := string(filepath.Separator)
	if !strings.HasSuffix(root, sep) {
		root += sep
	}
	return strings.HasPrefix(path, root)
}
