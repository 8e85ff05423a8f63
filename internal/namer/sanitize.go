// Package namer builds canonical library path names: sanitized series
// folders, season folders, and episode file names, plus the filename
// parsing helpers the local planner relies on.
package namer

import (
	"strings"
)

// illegalPathChars are characters not allowed in path components on
// common filesystems.
const illegalPathChars = `<>:"/\|?*`

// SanitizeComponent makes name safe as a single path component.
// Illegal characters become spaces, whitespace collapses, and trailing
// dots and spaces are trimmed. A name with nothing left becomes
// "Unknown".
func SanitizeComponent(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r == 0 || strings.ContainsRune(illegalPathChars, r) {
			b.WriteRune(' ')
		} else {
			b.WriteRune(r)
		}
	}
	cleaned := strings.Join(strings.Fields(b.String()), " ")
	cleaned = strings.TrimRight(cleaned, " .")
	if cleaned == "" || strings.Trim(cleaned, ".") == "" {
		return "Unknown"
	}
	return cleaned
}

// SafeFileComponent is like SanitizeComponent but substitutes rather
// than drops, and bounds the length, for log-artifact filenames.
func SafeFileComponent(name string, maxLen int) string {
	var b strings.Builder
	for _, r := range name {
		if r == 0 || strings.ContainsRune(illegalPathChars, r) {
			b.WriteRune('_')
		} else {
			b.WriteRune(r)
		}
	}
	cleaned := strings.Join(strings.Fields(b.String()), " ")
	if cleaned == "" {
		return "Unknown"
	}
	if maxLen > 0 && len(cleaned) > maxLen {
		cleaned = strings.TrimSpace(cleaned[:maxLen])
		if cleaned == "" {
			return "Unknown"
		}
	}
	return cleaned
}
