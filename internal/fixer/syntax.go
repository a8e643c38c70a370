package fixer

import (
	"regexp"
	"strings"

	"github.com/ludo-technologies/qgate/internal/parser"
)

// Heuristic names, in the order they are tried
const (
	HeuristicWhitespace   = "whitespace"
	HeuristicTripleQuotes = "triple-quotes"
	HeuristicDecimals     = "decimal-literals"
	HeuristicFStrings     = "fstring-braces"
	HeuristicIndentation  = "indentation"
)

// heuristic rewrites source text; it returns the input when it has nothing to do
type heuristic struct {
	name  string
	apply func(string) string
}

var syntaxHeuristics = []heuristic{
	{HeuristicWhitespace, normalizeWhitespace},
	{HeuristicTripleQuotes, closeTripleQuotes},
	{HeuristicDecimals, repairDecimals},
	{HeuristicFStrings, balanceFStrings},
	{HeuristicIndentation, reindentBlocks},
}

// SyntaxResult is the outcome of a syntax fixing attempt
type SyntaxResult struct {
	Content []byte
	// AlreadyValid means the input parsed and was left untouched
	AlreadyValid bool
	// Fixed means Content differs from the input and parses
	Fixed bool
	// Applied lists the heuristics that changed the text
	Applied []string
	// ErrorLine is the first error line of the input (0 when valid)
	ErrorLine int
}

// SyntaxFixer repairs common corruption in Python sources
type SyntaxFixer struct {
	parser *parser.Parser
}

// NewSyntaxFixer creates a fixer owning its own parser
func NewSyntaxFixer() *SyntaxFixer {
	return &SyntaxFixer{parser: parser.NewParser()}
}

// Close frees the parser
func (f *SyntaxFixer) Close() {
	f.parser.Close()
}

// Fix tries the heuristics in order, re-parsing after each, and returns
// the first cumulative state that parses. When none does, Content is the
// unmodified input and Fixed is false.
func (f *SyntaxFixer) Fix(src []byte) SyntaxResult {
	if f.parser.Valid(src) {
		return SyntaxResult{Content: src, AlreadyValid: true}
	}

	result := SyntaxResult{Content: src}
	if mod, err := f.parser.Parse(src); err == nil {
		result.ErrorLine = mod.ErrorLine
	}

	text := string(src)
	var applied []string
	for _, h := range syntaxHeuristics {
		next := h.apply(text)
		if next == text {
			continue
		}
		text = next
		applied = append(applied, h.name)
		if f.parser.Valid([]byte(text)) {
			result.Content = []byte(text)
			result.Fixed = true
			result.Applied = applied
			return result
		}
	}
	return result
}

func normalizeWhitespace(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if !strings.Contains(line[:indent], "\t") {
			continue
		}
		width := 0
		for _, c := range line[:indent] {
			if c == '\t' {
				width += 4 - width%4
			} else {
				width++
			}
		}
		lines[i] = strings.Repeat(" ", width) + line[indent:]
	}
	return strings.Join(lines, "\n")
}

// closeTripleQuotes terminates the last unbalanced triple-quoted string at
// the end of its paragraph (the next blank line) or at end of file
func closeTripleQuotes(text string) string {
	for _, quote := range []string{`"""`, `'''`} {
		positions := indexAll(text, quote)
		if len(positions)%2 == 0 {
			continue
		}
		open := positions[len(positions)-1]
		rest := text[open+len(quote):]
		if blank := strings.Index(rest, "\n\n"); blank >= 0 {
			at := open + len(quote) + blank
			text = text[:at] + quote + text[at:]
		} else {
			trimmed := strings.TrimRight(text, "\n")
			text = trimmed + quote + text[len(trimmed):]
		}
	}
	return text
}

func indexAll(text, sub string) []int {
	var out []int
	for i := 0; ; {
		j := strings.Index(text[i:], sub)
		if j < 0 {
			return out
		}
		out = append(out, i+j)
		i += j + len(sub)
	}
}

var (
	splitDecimalRe    = regexp.MustCompile(`\b(\d+)\. +(\d+)\b`)
	trailingUnderRe   = regexp.MustCompile(`\b(\d(?:[\d_]*\d)?)_+([^\w]|$)`)
	fstringLiteralRe  = regexp.MustCompile(`\b[fF][rR]?("|')(.*?)("|')`)
	trailingCommentRe = regexp.MustCompile(`\s*#.*$`)
)

// repairDecimals joins "0. 85" into "0.85" and drops trailing digit
// separators ("1_000_" -> "1_000")
func repairDecimals(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		line = splitDecimalRe.ReplaceAllString(line, "$1.$2")
		lines[i] = trailingUnderRe.ReplaceAllString(line, "$1$2")
	}
	return strings.Join(lines, "\n")
}

// balanceFStrings drops unmatched "}" and closes unmatched "{" inside
// single-line f-strings; doubled braces are literal and left alone
func balanceFStrings(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = fstringLiteralRe.ReplaceAllStringFunc(line, func(lit string) string {
			m := fstringLiteralRe.FindStringSubmatch(lit)
			if m[1] != m[3] {
				return lit
			}
			bodyStart := strings.Index(lit, m[1]) + 1
			body := balanceBraces(lit[bodyStart : len(lit)-1])
			return lit[:bodyStart] + body + m[3]
		})
	}
	return strings.Join(lines, "\n")
}

func balanceBraces(body string) string {
	var b strings.Builder
	depth := 0
	for i := 0; i < len(body); i++ {
		c := body[i]
		if (c == '{' || c == '}') && i+1 < len(body) && body[i+1] == c && depth == 0 {
			b.WriteByte(c)
			b.WriteByte(c)
			i++
			continue
		}
		switch c {
		case '{':
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
		}
		b.WriteByte(c)
	}
	b.WriteString(strings.Repeat("}", depth))
	return b.String()
}

// reindentBlocks indents the first statement after a ":"-terminated line
// when it is not deeper than the header
func reindentBlocks(text string) string {
	lines := strings.Split(text, "\n")
	for i := 0; i < len(lines)-1; i++ {
		header := trailingCommentRe.ReplaceAllString(lines[i], "")
		if !strings.HasSuffix(strings.TrimRight(header, " "), ":") {
			continue
		}
		j := i + 1
		for j < len(lines) && strings.TrimSpace(lines[j]) == "" {
			j++
		}
		if j >= len(lines) {
			break
		}
		headerIndent := indentOf(lines[i])
		if indentOf(lines[j]) <= headerIndent {
			lines[j] = strings.Repeat(" ", headerIndent+4) + strings.TrimLeft(lines[j], " \t")
		}
	}
	return strings.Join(lines, "\n")
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " "))
}
