package fixer

import (
	"strings"
	"unicode"
)

// unicodeReplacements is applied before the generic strip; longer keys
// (with variation selectors) come first so they win over their base rune
var unicodeReplacements = []struct {
	from string
	to   string
}{
	{"\u26a0\ufe0f", "[WARN]"},
	{"✅", "[OK]"},
	{"❌", "[FAIL]"},
	{"⚠", "[WARN]"},
	{"\U0001f680", "[LAUNCH]"},
	{"→", "->"},
	{"←", "<-"},
	{"“", "\""},
	{"”", "\""},
	{"‘", "'"},
	{"’", "'"},
	{"—", "--"},
	{"–", "-"},
	{"…", "..."},
	{"•", "*"},
	{"✓", "[OK]"},
	{"✗", "[X]"},
	{"\U0001f50d", "[SEARCH]"},
	{"\U0001f4ca", "[CHART]"},
}

// UnicodeResult is the outcome of RemoveUnicode
type UnicodeResult struct {
	Content       []byte
	Substitutions int
	Stripped      int
}

// Changed reports whether any rune was replaced or removed
func (r UnicodeResult) Changed() bool {
	return r.Substitutions+r.Stripped > 0
}

// RemoveUnicode replaces the known decorative runes with ASCII and drops
// any other emoji or pictographic symbol. Letters in other scripts are
// kept. The result is a fixed point: a second pass changes nothing.
func RemoveUnicode(src []byte) UnicodeResult {
	text := string(src)
	result := UnicodeResult{}

	for _, r := range unicodeReplacements {
		if n := strings.Count(text, r.from); n > 0 {
			text = strings.ReplaceAll(text, r.from, r.to)
			result.Substitutions += n
		}
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if isStrippable(r) {
			result.Stripped++
			continue
		}
		b.WriteRune(r)
	}

	result.Content = []byte(b.String())
	return result
}

// isStrippable matches emoji, pictographs, dingbats, arrows and the
// invisible joiners that come with them
func isStrippable(r rune) bool {
	switch {
	case r < 0x80:
		return false
	case r >= 0xfe00 && r <= 0xfe0f: // variation selectors
		return true
	case r == 0x200d: // zero width joiner
		return true
	case r >= 0x1f000 && r <= 0x1faff: // emoji and pictograph blocks
		return true
	case r >= 0x2600 && r <= 0x27bf: // misc symbols, dingbats
		return true
	case r >= 0x2190 && r <= 0x21ff: // arrows
		return true
	case r >= 0x2b00 && r <= 0x2bff: // misc symbols and arrows
		return true
	case r >= 0xe0020 && r <= 0xe007f: // tag characters
		return true
	}
	return unicode.Is(unicode.So, r) && !unicode.IsLetter(r)
}

// FindUnicode reports the 1-based line and column of every strippable or
// replaceable rune without changing anything
func FindUnicode(src []byte) []Position {
	var positions []Position
	line, col := 1, 0
	for _, r := range string(src) {
		col++
		if r == '\n' {
			line++
			col = 0
			continue
		}
		if isStrippable(r) || isReplaceable(r) {
			positions = append(positions, Position{Line: line, Column: col, Text: string(r)})
		}
	}
	return positions
}

func isReplaceable(r rune) bool {
	for _, rep := range unicodeReplacements {
		if []rune(rep.from)[0] == r {
			return true
		}
	}
	return false
}

// Position locates a detected token
type Position struct {
	Line   int
	Column int
	Text   string
}
