package metrics

import (
	"strings"
	"unicode/utf8"
)

// Features holds basic local text features of a turn or reply.
type Features struct {
	Bytes int `json:"bytes"`
	Runes int `json:"runes"`
	Words int `json:"words"`
	Lines int `json:"lines"`
}

// TextFeatures computes byte, rune, word and line counts for s.
func TextFeatures(s string) Features {
	return Features{
		Bytes: len(s),
		Runes: utf8.RuneCountInString(s),
		Words: len(strings.Fields(s)),
		Lines: lineCount(s),
	}
}

// lineCount is 0 for "" and otherwise one more than the number of '\n'.
func lineCount(s string) int {
	if s == "" {
		return 0
	}
	return 1 + strings.Count(s, "\n")
}
