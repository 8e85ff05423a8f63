package plan

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Version is the plan file schema version. The schema is closed: a
// reader rejects any other version and any unexpected or missing key.
const Version = 1

type planJSON struct {
	Version    int        `json:"version"`
	CatalogID  int64      `json:"catalog_id"`
	Title      string     `json:"title"`
	Year       *int       `json:"year"`
	SourceDir  string     `json:"source_dir"`
	OutputRoot string     `json:"output_root"`
	Moves      []moveJSON `json:"moves"`
}

type moveJSON struct {
	SrcID int64  `json:"src_id"`
	Kind  string `json:"kind"`
	Src   string `json:"src"`
	Dst   string `json:"dst"`
}

var planKeys = []string{"version", "catalog_id", "title", "year", "source_dir", "output_root", "moves"}

var moveKeys = []string{"src_id", "kind", "src", "dst"}

// checkKeys enforces the closed schema: the object must carry exactly
// the expected keys, nothing more, nothing less.
func checkKeys(raw map[string]json.RawMessage, expected []string, label string) error {
	var missing, extra []string
	want := make(map[string]bool, len(expected))
	for _, k := range expected {
		want[k] = true
		if _, ok := raw[k]; !ok {
			missing = append(missing, k)
		}
	}
	for k := range raw {
		if !want[k] {
			extra = append(extra, k)
		}
	}
	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}
	sort.Strings(missing)
	sort.Strings(extra)
	return fmt.Errorf("%w: %s keys invalid: missing=%v extra=%v", ErrValidation, label, missing, extra)
}

// Unmarshal decodes a plan from its versioned JSON form.
func Unmarshal(data []byte) (*Plan, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: plan must be a JSON object: %v", ErrValidation, err)
	}
	if err := checkKeys(raw, planKeys, "plan"); err != nil {
		return nil, err
	}

	var rawMoves []map[string]json.RawMessage
	if err := json.Unmarshal(raw["moves"], &rawMoves); err != nil {
		return nil, fmt.Errorf("%w: moves must be a list of objects: %v", ErrValidation, err)
	}
	for i, entry := range rawMoves {
		if err := checkKeys(entry, moveKeys, fmt.Sprintf("moves[%d]", i)); err != nil {
			return nil, err
		}
	}

	var pj planJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if pj.Version != Version {
		return nil, fmt.Errorf("%w: unsupported plan version %d", ErrValidation, pj.Version)
	}

	p := &Plan{
		CatalogID:  pj.CatalogID,
		Title:      pj.Title,
		Year:       pj.Year,
		SourceDir:  pj.SourceDir,
		OutputRoot: pj.OutputRoot,
		Moves:      make([]Move, 0, len(pj.Moves)),
	}
	for i, m := range pj.Moves {
		kind := MoveKind(m.Kind)
		if !kind.Valid() {
			return nil, fmt.Errorf("%w: moves[%d].kind must be video or subtitle", ErrValidation, i)
		}
		p.Moves = append(p.Moves, Move{Src: m.Src, Dst: m.Dst, Kind: kind, SrcID: m.SrcID})
	}
	return p, nil
}

// Marshal encodes a plan into its versioned JSON form.
func Marshal(p *Plan) ([]byte, error) {
	pj := planJSON{
		Version:    Version,
		CatalogID:  p.CatalogID,
		Title:      p.Title,
		Year:       p.Year,
		SourceDir:  p.SourceDir,
		OutputRoot: p.OutputRoot,
		Moves:      make([]moveJSON, 0, len(p.Moves)),
	}
	for _, m := range p.Moves {
		pj.Moves = append(pj.Moves, moveJSON{SrcID: m.SrcID, Kind: string(m.Kind), Src: m.Src, Dst: m.Dst})
	}
	return json.MarshalIndent(pj, "", "  ")
}

// ReadFile loads and decodes a plan file.
func ReadFile(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	return Unmarshal(data)
}

// WriteFile encodes a plan and writes it, creating parent directories.
func WriteFile(path string, p *Plan) error {
	data, err := Marshal(p)
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create plan dir: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	return nil
}
