package fixer

import (
	"sort"
	"strings"
	"unicode"

	"github.com/ludo-technologies/qgate/internal/parser"
)

// Rename is one function rename applied by StandardizeNames
type Rename struct {
	From string
	To   string
	Line int
}

// NamingResult is the outcome of StandardizeNames
type NamingResult struct {
	Content       []byte
	Renames       []Rename
	Substitutions int
}

// StandardizeNames renames camelCase function definitions to snake_case
// and rewrites every identifier token in the module that refers to them.
// Strings and comments are left alone. Dunder names keep their
// underscores, as does a leading underscore marking a private name.
// Names in keep are never renamed, nor are methods of a class with a base
// defined outside the module, since they may override an inherited hook.
func StandardizeNames(mod *parser.Module, src []byte, keep []string) NamingResult {
	pinned := pinnedNames(mod, keep)
	renames := make(map[string]string)
	var ordered []Rename
	for _, fn := range mod.Functions {
		if _, done := renames[fn.Name]; done || pinned[fn.Name] {
			continue
		}
		snake := ToSnakeCase(fn.Name)
		if snake == fn.Name {
			continue
		}
		// never merge into a name that already exists in the module
		if mod.TopLevelNames[snake] || len(mod.FunctionsNamed(snake)) > 0 {
			continue
		}
		renames[fn.Name] = snake
		ordered = append(ordered, Rename{From: fn.Name, To: snake, Line: fn.Location.StartLine})
	}

	if len(renames) == 0 {
		return NamingResult{Content: src}
	}

	var edits []edit
	for _, id := range mod.Identifiers {
		if to, ok := renames[id.Name]; ok {
			edits = append(edits, edit{span: id.Span, text: to})
		}
	}

	return NamingResult{
		Content:       applyEdits(src, edits),
		Renames:       ordered,
		Substitutions: len(edits),
	}
}

// pinnedNames returns the function names StandardizeNames must not touch
func pinnedNames(mod *parser.Module, keep []string) map[string]bool {
	pinned := make(map[string]bool, len(keep))
	for _, name := range keep {
		pinned[name] = true
	}

	local := make(map[string]bool, len(mod.Classes))
	for _, c := range mod.Classes {
		local[c.Name] = true
	}
	for _, c := range mod.Classes {
		external := false
		for _, base := range c.Bases {
			if !local[base] && base != "object" {
				external = true
				break
			}
		}
		if !external {
			continue
		}
		for _, m := range c.Methods {
			pinned[m.Name] = true
		}
	}
	return pinned
}

// IsCamelCase reports whether name has an upper case letter after a
// lower case letter or digit, ignoring leading and trailing underscores
func IsCamelCase(name string) bool {
	core := strings.Trim(name, "_")
	if core == "" || strings.ToUpper(core) == core {
		return false
	}
	prev := rune(0)
	for _, r := range core {
		if unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)) {
			return true
		}
		prev = r
	}
	return false
}

// ToSnakeCase converts camelCase or PascalCase to snake_case. Names that
// are not camelCase, including dunders and ALL_CAPS, are returned as is.
func ToSnakeCase(name string) string {
	if !IsCamelCase(name) {
		return name
	}
	if strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__") {
		return name
	}

	lead := len(name) - len(strings.TrimLeft(name, "_"))
	trail := len(name) - len(strings.TrimRight(name, "_"))
	core := []rune(name[lead : len(name)-trail])

	var b strings.Builder
	for i, r := range core {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := core[i-1]
				nextLower := i+1 < len(core) && unicode.IsLower(core[i+1])
				if prev != '_' && (unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower)) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}

	return name[:lead] + b.String() + name[len(name)-trail:]
}

// edit replaces span with text
type edit struct {
	span parser.Span
	text string
}

// applyEdits applies non-overlapping edits in one pass
func applyEdits(src []byte, edits []edit) []byte {
	sort.Slice(edits, func(i, j int) bool { return edits[i].span.Start < edits[j].span.Start })

	var b strings.Builder
	b.Grow(len(src))
	last := 0
	for _, e := range edits {
		if e.span.Start < last {
			continue
		}
		b.Write(src[last:e.span.Start])
		b.WriteString(e.text)
		last = e.span.End
	}
	b.Write(src[last:])
	return []byte(b.String())
}
