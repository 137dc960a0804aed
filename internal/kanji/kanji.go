// Package kanji classifies characters and maps card intervals to knowledge tiers.
package kanji

import "unicode/utf8"

// Knowledge tiers stored in the kanji table.
const (
	LevelNone = iota
	LevelSeen
	LevelRecognize
	LevelFamiliar
	LevelWrite
	LevelMaster
)

var levelNames = [...]string{"None", "Seen", "Recognize", "Familiar", "Write", "Master"}

// LevelName returns the display name of a tier.
func LevelName(level int) string {
	if level < LevelNone || level > LevelMaster {
		return "Unknown"
	}
	return levelNames[level]
}

type block struct {
	lo, hi rune
}

// CJK unified ideographs: main block, extension A, extensions B through G.
var blocks = []block{
	{0x4E00, 0x9FFF},
	{0x3400, 0x4DBF},
	{0x20000, 0x2A6DF},
	{0x2A700, 0x2B73F},
	{0x2B740, 0x2B81F},
	{0x2B820, 0x2CEAF},
	{0x2CEB0, 0x2EBEF},
}

// IsKanji reports whether r lies in one of the CJK ideograph blocks.
func IsKanji(r rune) bool {
	for _, b := range blocks {
		if r >= b.lo && r <= b.hi {
			return true
		}
	}
	return false
}

// RecommendedLevel maps a card's review interval in days to a tier.
func RecommendedLevel(interval int) int {
	switch {
	case interval >= 100:
		return LevelFamiliar
	case interval >= 60:
		return LevelRecognize
	case interval > 0:
		return LevelSeen
	default:
		return LevelNone
	}
}

// Extract returns the distinct kanji of s in order of first appearance.
func Extract(s string) []rune {
	var out []rune
	seen := make(map[rune]bool)
	for _, r := range s {
		if !IsKanji(r) || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

// Single decodes s as exactly one kanji.
func Single(s string) (rune, bool) {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || size != len(s) || !IsKanji(r) {
		return 0, false
	}
	return r, true
}
