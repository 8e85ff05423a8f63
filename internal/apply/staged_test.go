package apply

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidyarr/tidyarr/internal/plan"
)

func TestUniqueTempPath_NoCollision(t *testing.T) {
	tmp := t.TempDir()
	got := uniqueTempPath(tmp, "video_1.mkv")
	assert.Equal(t, filepath.Join(tmp, "video_1.mkv"), got)
}

func TestUniqueTempPath_Suffixes(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, filepath.Join(tmp, "video_1.mkv"), "a")
	writeFile(t, filepath.Join(tmp, "video_1.mkv.1"), "b")

	got := uniqueTempPath(tmp, "video_1.mkv")
	assert.Equal(t, filepath.Join(tmp, "video_1.mkv.2"), got)
}

func TestStagingDirName_UniqueAndHidden(t *testing.T) {
	a := stagingDirName()
	b := stagingDirName()
	assert.True(t, strings.HasPrefix(a, ".tidyarr_tmp_"))
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "-")
}

func TestRunStaged_Swap(t *testing.T) {
	out := t.TempDir()
	a := filepath.Join(out, "a.mkv")
	b := filepath.Join(out, "b.mkv")
	writeFile(t, a, "content-a")
	writeFile(t, b, "content-b")

	batch := []resolvedMove{
		{move: plan.Move{Src: a, Dst: b, Kind: plan.KindVideo, SrcID: 1}, src: a, dst: b},
		{move: plan.Move{Src: b, Dst: a, Kind: plan.KindVideo, SrcID: 2}, src: b, dst: a},
	}
	stagingDir, err := runStaged(batch, out, testLogger())
	require.NoError(t, err)

	assert.Equal(t, "content-a", readFile(t, b))
	assert.Equal(t, "content-b", readFile(t, a))

	// emptied staging dir is cleaned up
	_, statErr := os.Lstat(stagingDir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunStaged_CommitFailureRestoresSources(t *testing.T) {
	out := t.TempDir()
	src1 := filepath.Join(out, "one.mkv")
	src2 := filepath.Join(out, "two.mkv")
	writeFile(t, src1, "one")
	writeFile(t, src2, "two")

	// The second destination's parent chain runs through a regular
	// file, so its MkdirAll fails during commit.
	writeFile(t, filepath.Join(out, "blocked"), "not a dir")
	batch := []resolvedMove{
		{move: plan.Move{Src: src1, Dst: filepath.Join(out, "ok", "one.mkv"), Kind: plan.KindVideo, SrcID: 1},
			src: src1, dst: filepath.Join(out, "ok", "one.mkv")},
		{move: plan.Move{Src: src2, Dst: filepath.Join(out, "blocked", "two.mkv"), Kind: plan.KindVideo, SrcID: 2},
			src: src2, dst: filepath.Join(out, "blocked", "two.mkv")},
	}

	_, err := runStaged(batch, out, testLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrApply)

	// both sources are back, nothing landed
	assert.Equal(t, "one", readFile(t, src1))
	assert.Equal(t, "two", readFile(t, src2))
	_, statErr := os.Lstat(filepath.Join(out, "ok", "one.mkv"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRollbackStaged_MixedTmpAndCommitted(t *testing.T) {
	out := t.TempDir()
	staging := filepath.Join(out, ".tidyarr_tmp_test")
	require.NoError(t, os.Mkdir(staging, 0755))

	// one file still in its temp slot, one already at its destination
	tmpSlot := filepath.Join(staging, "video_1.mkv")
	writeFile(t, tmpSlot, "in-tmp")
	committed := filepath.Join(out, "committed.mkv")
	writeFile(t, committed, "committed")

	src1 := filepath.Join(out, "orig1.mkv")
	src2 := filepath.Join(out, "orig2.mkv")
	staged := []stagedRecord{
		{rm: resolvedMove{src: src1, dst: filepath.Join(out, "never.mkv")}, tmp: tmpSlot},
		{rm: resolvedMove{src: src2, dst: committed}, tmp: filepath.Join(staging, "video_2.mkv")},
	}

	rollbackStaged(staged, testLogger())

	assert.Equal(t, "in-tmp", readFile(t, src1))
	assert.Equal(t, "committed", readFile(t, src2))
}
