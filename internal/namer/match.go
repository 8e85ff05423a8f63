package namer

import (
	"strings"
	"unicode"

	"github.com/hbollon/go-edlib"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeStem prepares a filename stem for similarity comparison:
// lowercase, accents stripped, separators collapsed to single spaces.
func NormalizeStem(stem string) string {
	s := strings.ToLower(stem)
	s = removeAccents(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

func removeAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// StemSimilarity scores how closely two filename stems match, in
// [0, 1]. Used to pair subtitle files with the video they belong to
// when both carry the same base name plus language tags.
func StemSimilarity(a, b string) float64 {
	na, nb := NormalizeStem(a), NormalizeStem(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}
	return float64(edlib.JaroWinklerSimilarity(na, nb))
}
