package namer

import (
	"regexp"
	"strings"
)

// releaseTokens are rip/encode markers that never belong in a series
// title.
var releaseTokens = []string{
	"2160p", "1080p", "720p", "480p", "4k",
	"x264", "x265", "h264", "h265", "hevc", "avc",
	"aac", "flac", "10bit", "8bit", "hi10p", "ma10p",
	"bdrip", "bluray", "bd", "web", "webrip", "web-dl",
	"hdr", "dv", "remux", "batch",
}

var (
	releaseTokenRe = func() *regexp.Regexp {
		escaped := make([]string, len(releaseTokens))
		for i, t := range releaseTokens {
			escaped[i] = regexp.QuoteMeta(t)
		}
		return regexp.MustCompile(`(?i)(^|[^a-z0-9])(` + strings.Join(escaped, "|") + `)($|[^a-z0-9])`)
	}()
	seasonMarkerRe = regexp.MustCompile(`(?i)(^|[^a-z0-9])(s\d{1,2}|season\s*\d{1,2}|\d{1,2}(st|nd|rd|th)\s*season)($|[^a-z0-9])`)
	strayBracketRe = regexp.MustCompile(`[\[\](){}]`)
)

// CleanDirTitle derives a series title from a release-style directory
// name: bracketed segments, release tokens, season markers, and
// catalog tags go; what remains, whitespace-normalized, is the title.
func CleanDirTitle(name string) string {
	working := strings.NewReplacer("_", " ", ".", " ").Replace(name)
	working = catalogTagPattern.ReplaceAllString(working, " ")
	working = stripBracketed(working)
	working = strayBracketRe.ReplaceAllString(working, " ")
	for {
		next := seasonMarkerRe.ReplaceAllString(working, "$1 $4")
		if next == working {
			break
		}
		working = next
	}
	for {
		next := releaseTokenRe.ReplaceAllString(working, "$1 $3")
		if next == working {
			break
		}
		working = next
	}
	cleaned := strings.Join(strings.Fields(working), " ")
	if cleaned != "" {
		return cleaned
	}

	// Everything was release furniture; fall back to the raw name with
	// separators normalized.
	fallback := strings.NewReplacer("_", " ", ".", " ").Replace(name)
	fallback = strayBracketRe.ReplaceAllString(fallback, " ")
	cleaned = strings.Join(strings.Fields(fallback), " ")
	if cleaned == "" {
		return "Unknown"
	}
	return cleaned
}
