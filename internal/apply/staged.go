package apply

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// stagedRecord tracks one move through the two-phase protocol.
type stagedRecord struct {
	rm  resolvedMove
	tmp string
}

// stagingDirName builds a unique staging directory name under the
// output root.
func stagingDirName() string {
	return ".tidyarr_tmp_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// uniqueTempPath returns dir/base, disambiguated with a numeric suffix
// if taken.
func uniqueTempPath(dir, base string) string {
	candidate := filepath.Join(dir, base)
	if _, err := os.Lstat(candidate); os.IsNotExist(err) {
		return candidate
	}
	for counter := 1; ; counter++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s.%d", base, counter))
		if _, err := os.Lstat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// runStaged executes the batch through a staging directory: phase one
// moves every source into a temp slot keyed by (kind, src id), phase
// two moves each slot to its destination. Every file visits an
// intermediate path that belongs to no other move, so cyclic batches
// are safe. On any failure, records staged so far are rolled back in
// reverse before the original cause is returned.
func runStaged(batch []resolvedMove, outputRoot string, log *slog.Logger) (stagingDir string, err error) {
	if err := os.MkdirAll(outputRoot, 0755); err != nil {
		return "", fmt.Errorf("%w: create output root %s: %v", ErrApply, outputRoot, err)
	}
	stagingDir = filepath.Join(outputRoot, stagingDirName())
	if err := os.Mkdir(stagingDir, 0755); err != nil {
		return "", fmt.Errorf("%w: create staging dir %s: %v", ErrApply, stagingDir, err)
	}

	var staged []stagedRecord
	fail := func(cause error) (string, error) {
		log.Error("apply failed, rolling back staged moves", "staged", len(staged), "error", cause)
		rollbackStaged(staged, log)
		return stagingDir, fmt.Errorf("%w: %v", ErrApply, cause)
	}

	for _, rm := range batch {
		base := fmt.Sprintf("%s_%d%s", rm.move.Kind, rm.move.SrcID, filepath.Ext(rm.src))
		tmp := uniqueTempPath(stagingDir, base)
		log.Debug("stage move", "src", rm.src, "tmp", tmp)
		if err := os.Rename(rm.src, tmp); err != nil {
			return fail(err)
		}
		staged = append(staged, stagedRecord{rm: rm, tmp: tmp})
	}
	log.Info("staged all moves", "count", len(staged), "staging_dir", stagingDir)

	for _, rec := range staged {
		if err := os.MkdirAll(filepath.Dir(rec.rm.dst), 0755); err != nil {
			return fail(err)
		}
		log.Debug("commit move", "tmp", rec.tmp, "dst", rec.rm.dst)
		if err := os.Rename(rec.tmp, rec.rm.dst); err != nil {
			return fail(err)
		}
	}

	// Best effort: an emptied staging dir is just clutter.
	if entries, err := os.ReadDir(stagingDir); err == nil && len(entries) == 0 {
		_ = os.Remove(stagingDir)
	}
	return stagingDir, nil
}

// rollbackStaged returns every staged file to its original source, in
// reverse staging order. A file still in its temp slot moves back from
// there; a file already committed moves back from its destination.
// Sub-failures are logged, not returned, so the original cause is not
// masked.
func rollbackStaged(staged []stagedRecord, log *slog.Logger) {
	for i := len(staged) - 1; i >= 0; i-- {
		rec := staged[i]
		from := ""
		if _, err := os.Lstat(rec.tmp); err == nil {
			from = rec.tmp
		} else if _, err := os.Lstat(rec.rm.dst); err == nil {
			from = rec.rm.dst
		}
		if from == "" {
			continue
		}
		log.Info("rollback move", "from", from, "to", rec.rm.src)
		if err := os.Rename(from, rec.rm.src); err != nil {
			log.Error("rollback move failed", "from", from, "to", rec.rm.src, "error", err)
		}
	}
}
