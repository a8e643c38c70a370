package fixer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ludo-technologies/qgate/internal/parser"
	"github.com/spf13/cast"
)

// MagicResult is the outcome of ReplaceMagicNumbers
type MagicResult struct {
	Content       []byte
	Substitutions int
	// Inserted lists the constant definitions added to the module
	Inserted []string
}

// ReplaceMagicNumbers replaces literals inside function bodies that are
// keys of table with the mapped constant name, and defines every constant
// used but not yet bound at module level right after the import block.
func ReplaceMagicNumbers(mod *parser.Module, src []byte, table map[string]string) MagicResult {
	var edits []edit
	used := make(map[string]string)
	for _, n := range mod.Numbers {
		if n.Contextual || n.Function == "" {
			continue
		}
		name, ok := table[n.Text]
		if !ok {
			continue
		}
		edits = append(edits, edit{span: n.Span, text: name})
		used[name] = n.Text
	}

	if len(edits) == 0 {
		return MagicResult{Content: src}
	}

	names := make([]string, 0, len(used))
	for name := range used {
		if !mod.TopLevelNames[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var defs []string
	for _, name := range names {
		defs = append(defs, fmt.Sprintf("%s = %s", name, used[name]))
	}
	if len(defs) > 0 {
		block := strings.Join(defs, "\n") + "\n"
		if mod.ImportsEnd > 0 {
			block = "\n" + block
		}
		if mod.ImportsEnd < len(src) {
			block += "\n"
		}
		edits = append(edits, edit{span: parser.Span{Start: mod.ImportsEnd, End: mod.ImportsEnd}, text: block})
	}

	return MagicResult{
		Content:       applyEdits(src, edits),
		Substitutions: len(edits) - boolToInt(len(defs) > 0),
		Inserted:      defs,
	}
}

// MagicNumber is a literal the detect mode reports
type MagicNumber struct {
	Text     string
	Function string
	Line     int
	Column   int
}

// DetectMagicNumbers lists literals in function bodies outside allowed
func DetectMagicNumbers(mod *parser.Module, allowed []float64) []MagicNumber {
	allow := make(map[float64]bool, len(allowed))
	for _, a := range allowed {
		allow[a] = true
	}

	var found []MagicNumber
	for _, n := range mod.Numbers {
		if n.Contextual || n.Function == "" {
			continue
		}
		if v, err := literalValue(n.Text); err == nil && allow[v] {
			continue
		}
		found = append(found, MagicNumber{
			Text:     n.Text,
			Function: n.Function,
			Line:     n.Location.StartLine,
			Column:   n.Location.StartCol + 1,
		})
	}
	return found
}

// literalValue converts a Python numeric literal to float64
func literalValue(text string) (float64, error) {
	clean := strings.ReplaceAll(strings.ReplaceAll(text, "_", ""), " ", "")
	clean = strings.TrimRight(clean, "jJlL")
	return cast.ToFloat64E(clean)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
