package namer

import (
	"regexp"
	"strconv"
)

// Episode is a season/episode span parsed from a filename. Files that
// cover more than one episode have End > Start.
type Episode struct {
	Season int
	Start  int
	End    int
}

// Filename patterns tried in order. Bare numbers are a last resort:
// fansub names like "[Group] Title - 07 [1080p]" carry no SxxEyy
// marker.
var (
	seasonEpisodeSpanRe = regexp.MustCompile(`(?i)S(\d{1,2})E(\d{1,3})[-_]E?(\d{1,3})`)
	seasonEpisodeRe     = regexp.MustCompile(`(?i)S(\d{1,2})E(\d{1,3})`)
	bareEpisodeRe       = regexp.MustCompile(`(?i)(?:^|[^a-z0-9])(?:E|EP|第)?(\d{1,3})(?:话|話|集)?(?:[^a-z0-9]|$)`)
)

// ParseEpisode extracts an episode number (and season, defaulting to
// 1) from a filename stem. Returns false when the name yields nothing
// usable.
func ParseEpisode(stem string) (Episode, bool) {
	if m := seasonEpisodeSpanRe.FindStringSubmatch(stem); m != nil {
		season, _ := strconv.Atoi(m[1])
		start, _ := strconv.Atoi(m[2])
		end, _ := strconv.Atoi(m[3])
		if end >= start {
			return Episode{Season: season, Start: start, End: end}, true
		}
	}
	if m := seasonEpisodeRe.FindStringSubmatch(stem); m != nil {
		season, _ := strconv.Atoi(m[1])
		ep, _ := strconv.Atoi(m[2])
		return Episode{Season: season, Start: ep, End: ep}, true
	}
	// Strip bracketed release tags before falling back to bare numbers,
	// otherwise CRC sums and resolutions win.
	cleaned := stripBracketed(stem)
	if m := bareEpisodeRe.FindStringSubmatch(cleaned); m != nil {
		ep, _ := strconv.Atoi(m[1])
		if ep > 0 {
			return Episode{Season: 1, Start: ep, End: ep}, true
		}
	}
	return Episode{}, false
}

var bracketedRe = regexp.MustCompile(`\[[^\[\]]*\]|\([^()]*\)|\{[^{}]*\}`)

func stripBracketed(s string) string {
	for {
		next := bracketedRe.ReplaceAllString(s, " ")
		if next == s {
			return s
		}
		s = next
	}
}
