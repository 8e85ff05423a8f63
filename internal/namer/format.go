package namer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// SeriesRootFolder formats the top-level series folder:
// "Title (Year) {tmdb-ID}", year omitted when unknown.
func SeriesRootFolder(title string, year *int, catalogID int64) string {
	part := SanitizeComponent(title)
	tag := fmt.Sprintf("{tmdb-%d}", catalogID)
	if year == nil {
		return fmt.Sprintf("%s %s", part, tag)
	}
	return fmt.Sprintf("%s (%d) %s", part, *year, tag)
}

// SeasonFolder formats a season directory name.
func SeasonFolder(season int) string {
	return fmt.Sprintf("S%02d", season)
}

// EpisodeBase formats the destination file stem for one episode, or an
// episode span when a file covers several.
func EpisodeBase(title string, season, epStart, epEnd int) string {
	part := SanitizeComponent(title)
	if epStart == epEnd {
		return fmt.Sprintf("%s S%02dE%02d", part, season, epStart)
	}
	return fmt.Sprintf("%s S%02dE%02d-E%02d", part, season, epStart, epEnd)
}

var catalogTagPattern = regexp.MustCompile(`(?i)\{\s*tmdb-([^{}]+)\s*\}`)

// ExtractCatalogTag pulls a catalog id out of a "{tmdb-123}" tag in a
// directory name. Returns 0, false when no tag is present; errors on a
// malformed or repeated tag.
func ExtractCatalogTag(name string) (int64, bool, error) {
	matches := catalogTagPattern.FindAllStringSubmatch(name, -1)
	if len(matches) == 0 {
		return 0, false, nil
	}
	if len(matches) > 1 {
		return 0, false, fmt.Errorf("multiple catalog tags in %q", name)
	}
	raw := strings.TrimSpace(matches[0][1])
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, false, fmt.Errorf("catalog tag in %q must be a positive integer", name)
	}
	return id, true, nil
}
