package monitor

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanPaths(t *testing.T) {
	a := ArtifactDir("/var/log/tidyarr")
	planPath, rollbackPath := a.PlanPaths("/watch/Some Show S01")

	assert.Equal(t, filepath.Join("/var/log/tidyarr", "plans"), filepath.Dir(planPath))
	assert.True(t, strings.HasPrefix(filepath.Base(planPath), "Some Show S01_"))
	assert.True(t, strings.HasSuffix(planPath, ".rename_plan.json"))
	assert.True(t, strings.HasSuffix(rollbackPath, ".rollback_plan.json"))

	// same stem except for the suffix
	assert.Equal(t,
		strings.TrimSuffix(planPath, ".rename_plan.json"),
		strings.TrimSuffix(rollbackPath, ".rollback_plan.json"))
}

func TestPlanPaths_SameBaseNameDifferentDirs(t *testing.T) {
	a := ArtifactDir("/var/log/tidyarr")
	p1, _ := a.PlanPaths("/watch1/Show")
	p2, _ := a.PlanPaths("/watch2/Show")
	assert.NotEqual(t, p1, p2, "hash suffix keeps same-named dirs apart")
}

func TestPlanPaths_SanitizesBaseName(t *testing.T) {
	a := ArtifactDir("/logs")
	planPath, _ := a.PlanPaths(`/watch/what: "a" name?`)
	base := filepath.Base(planPath)
	assert.NotContains(t, base, ":")
	assert.NotContains(t, base, "?")
	assert.NotContains(t, base, `"`)
}

func TestPlanPaths_Deterministic(t *testing.T) {
	a := ArtifactDir("/logs")
	p1, r1 := a.PlanPaths("/watch/Show")
	p2, r2 := a.PlanPaths("/watch/Show")
	assert.Equal(t, p1, p2)
	assert.Equal(t, r1, r2)
}

func TestEnsureNotWithin(t *testing.T) {
	require.NoError(t, EnsureNotWithin("/logs/plans/x.json", "/watch/show", "/library"))
	require.NoError(t, EnsureNotWithin("/librarything/x.json", "/library"))

	assert.Error(t, EnsureNotWithin("/watch/show/x.json", "/watch/show", "/library"))
	assert.Error(t, EnsureNotWithin("/library/plans/x.json", "/watch/show", "/library"))
	assert.Error(t, EnsureNotWithin("/library", "/library"))
}

func TestEnsureNotWithin_EmptyRootIgnored(t *testing.T) {
	require.NoError(t, EnsureNotWithin("/logs/x.json", "", "/library"))
}
