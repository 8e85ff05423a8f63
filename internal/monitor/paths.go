package monitor

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tidyarr/tidyarr/internal/namer"
)

// ArtifactDir is where plan and rollback files for monitored
// directories live.
type ArtifactDir string

const artifactNameMaxLen = 80

// hash8 gives a short stable fingerprint of a resolved path, so two
// source dirs with the same base name get distinct artifacts.
func hash8(path string) string {
	sum := sha1.Sum([]byte(path))
	return hex.EncodeToString(sum[:])[:8]
}

// PlanPaths returns the plan and rollback file paths for a source
// directory.
func (a ArtifactDir) PlanPaths(sourceDir string) (planPath, rollbackPath string) {
	safe := namer.SafeFileComponent(filepath.Base(sourceDir), artifactNameMaxLen)
	h := hash8(sourceDir)
	plansDir := filepath.Join(string(a), "plans")
	planPath = filepath.Join(plansDir, fmt.Sprintf("%s_%s.rename_plan.json", safe, h))
	rollbackPath = filepath.Join(plansDir, fmt.Sprintf("%s_%s.rollback_plan.json", safe, h))
	return planPath, rollbackPath
}

// EnsureNotWithin rejects artifact locations inside the trees the
// system mutates; a plan file that gets swept up in its own apply is
// not recoverable.
func EnsureNotWithin(artifact string, roots ...string) error {
	art := filepath.Clean(artifact)
	for _, root := range roots {
		if root == "" {
			continue
		}
		r := filepath.Clean(root)
		if art == r || strings.HasPrefix(art, r+string(filepath.Separator)) {
			return fmt.Errorf("refusing to write %s under %s; use another --log-path", artifact, root)
		}
	}
	return nil
}
