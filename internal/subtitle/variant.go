// Package subtitle classifies the Chinese variant of subtitle files so
// destinations can carry a language suffix (.chs, .cht, .chi).
package subtitle

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Variant is the detected Chinese subtitle variant.
type Variant string

const (
	Simplified  Variant = "chs"
	Traditional Variant = "cht"
	Unknown     Variant = "chi"
)

// DotSuffix returns the variant as a filename suffix segment.
func (v Variant) DotSuffix() string {
	return "." + string(v)
}

var (
	simplifiedTokens  = []string{"chs", "hans", "zh-hans", "zh_cn", "zh-cn", "gb"}
	traditionalTokens = []string{"cht", "hant", "zh-hant", "zh_tw", "zh-tw", "big5"}
	simplifiedWords   = []string{"简体", "简中"}
	traditionalWords  = []string{"繁体", "繁中"}
)

func tokenPattern(tokens []string) *regexp.Regexp {
	escaped := make([]string, len(tokens))
	for i, t := range tokens {
		escaped[i] = regexp.QuoteMeta(t)
	}
	// Token must not butt against other alphanumerics, e.g. "chs" in
	// "chsaw" is not a tag.
	return regexp.MustCompile(`(?i)(^|[^a-z0-9])(` + strings.Join(escaped, "|") + `)($|[^a-z0-9])`)
}

var (
	simplifiedPattern  = tokenPattern(simplifiedTokens)
	traditionalPattern = tokenPattern(traditionalTokens)
)

// Characters that differ between simplified and traditional forms,
// weighted toward dialogue-heavy content.
const (
	simplifiedChars  = "为国云马门见车长乐书这爱气网与万广后台里发复钟东说时来会过对话听开头觉点样经认关现离让给请学问还没虽该谁写买卖读语词饭馆银钱"
	traditionalChars = "為國雲馬門見車長樂書這愛氣網與萬廣後臺裡發復鐘東說時來會過對話聽開頭覺點樣經認關現離讓給請學問還沒雖該誰寫買賣讀語詞飯館銀錢"
)

// FromFilename detects a variant from filename tags alone. Returns
// Unknown and false when the name carries no tag.
func FromFilename(name string) (Variant, bool) {
	if simplifiedPattern.MatchString(name) {
		return Simplified, true
	}
	for _, w := range simplifiedWords {
		if strings.Contains(name, w) {
			return Simplified, true
		}
	}
	if traditionalPattern.MatchString(name) {
		return Traditional, true
	}
	for _, w := range traditionalWords {
		if strings.Contains(name, w) {
			return Traditional, true
		}
	}
	return Unknown, false
}

// FromText counts variant-distinguishing characters in subtitle text.
func FromText(text string) (Variant, bool) {
	var simplified, traditional int
	for _, r := range text {
		if strings.ContainsRune(simplifiedChars, r) {
			simplified++
		}
		if strings.ContainsRune(traditionalChars, r) {
			traditional++
		}
	}
	switch {
	case simplified > traditional:
		return Simplified, true
	case traditional > simplified:
		return Traditional, true
	default:
		return Unknown, false
	}
}

// maxProbeBytes bounds how much of a subtitle file content detection
// reads.
const maxProbeBytes = 64 * 1024

// Detect classifies a subtitle file: filename tags first, then a
// character-frequency probe of the content. Image-based formats and
// undecidable content fall back to Unknown.
func Detect(path string) Variant {
	if v, ok := FromFilename(filepath.Base(path)); ok {
		return v
	}
	if strings.EqualFold(filepath.Ext(path), ".sup") {
		return Unknown
	}
	f, err := os.Open(path)
	if err != nil {
		return Unknown
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, maxProbeBytes)
	n, _ := f.Read(buf)
	if v, ok := FromText(string(buf[:n])); ok {
		return v
	}
	return Unknown
}
