package plan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePlanJSON = `{
  "version": 1,
  "catalog_id": 1396,
  "title": "Breaking Bad",
  "year": 2008,
  "source_dir": "/downloads/breaking.bad.s01",
  "output_root": "/library",
  "moves": [
    {
      "src_id": 1,
      "kind": "video",
      "src": "/downloads/breaking.bad.s01/e01.mkv",
      "dst": "/library/Breaking Bad (2008) {tmdb-1396}/S01/Breaking Bad S01E01.mkv"
    }
  ]
}`

func TestUnmarshal_OK(t *testing.T) {
	p, err := Unmarshal([]byte(samplePlanJSON))
	require.NoError(t, err)

	assert.Equal(t, int64(1396), p.CatalogID)
	assert.Equal(t, "Breaking Bad", p.Title)
	require.NotNil(t, p.Year)
	assert.Equal(t, 2008, *p.Year)
	require.Len(t, p.Moves, 1)
	assert.Equal(t, KindVideo, p.Moves[0].Kind)
	assert.Equal(t, int64(1), p.Moves[0].SrcID)
}

func TestUnmarshal_NullYear(t *testing.T) {
	data := []byte(`{
  "version": 1, "catalog_id": 7, "title": "X", "year": null,
  "source_dir": "/in", "output_root": "/out", "moves": []
}`)
	p, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Nil(t, p.Year)
	assert.Empty(t, p.Moves)
}

func TestUnmarshal_MissingKey(t *testing.T) {
	data := []byte(`{
  "version": 1, "catalog_id": 7, "title": "X",
  "source_dir": "/in", "output_root": "/out", "moves": []
}`)
	_, err := Unmarshal(data)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "missing=[year]")
}

func TestUnmarshal_ExtraKey(t *testing.T) {
	data := []byte(`{
  "version": 1, "catalog_id": 7, "title": "X", "year": null,
  "source_dir": "/in", "output_root": "/out", "moves": [], "notes": "hi"
}`)
	_, err := Unmarshal(data)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "extra=[notes]")
}

func TestUnmarshal_ExtraMoveKey(t *testing.T) {
	data := []byte(`{
  "version": 1, "catalog_id": 7, "title": "X", "year": null,
  "source_dir": "/in", "output_root": "/out",
  "moves": [{"src_id": 1, "kind": "video", "src": "/in/a", "dst": "/out/a", "size": 12}]
}`)
	_, err := Unmarshal(data)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "moves[0]")
}

func TestUnmarshal_WrongVersion(t *testing.T) {
	data := []byte(`{
  "version": 2, "catalog_id": 7, "title": "X", "year": null,
  "source_dir": "/in", "output_root": "/out", "moves": []
}`)
	_, err := Unmarshal(data)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "version")
}

func TestUnmarshal_BadKind(t *testing.T) {
	data := []byte(`{
  "version": 1, "catalog_id": 7, "title": "X", "year": null,
  "source_dir": "/in", "output_root": "/out",
  "moves": [{"src_id": 1, "kind": "audio", "src": "/in/a", "dst": "/out/a"}]
}`)
	_, err := Unmarshal(data)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUnmarshal_NotAnObject(t *testing.T) {
	_, err := Unmarshal([]byte(`[1, 2, 3]`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestMarshal_RoundTrip(t *testing.T) {
	p, err := Unmarshal([]byte(samplePlanJSON))
	require.NoError(t, err)

	data, err := Marshal(p)
	require.NoError(t, err)

	p2, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, p, p2)
}

func TestWriteFile_ReadFile(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "plans", "show.rename_plan.json")

	p, err := Unmarshal([]byte(samplePlanJSON))
	require.NoError(t, err)
	require.NoError(t, WriteFile(path, p))

	// written files end in a newline
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, byte('\n'), data[len(data)-1])

	p2, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, p, p2)
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read plan")
}
