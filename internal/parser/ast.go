package parser

import "fmt"

// NodeType is a tree-sitter Python node type
type NodeType string

// Python node types the extractors care about
const (
	NodeModule             NodeType = "module"
	NodeFunction           NodeType = "function_definition"
	NodeClass              NodeType = "class_definition"
	NodeDecorated          NodeType = "decorated_definition"
	NodeBlock              NodeType = "block"
	NodeParameters         NodeType = "parameters"
	NodeIdentifier         NodeType = "identifier"
	NodeInteger            NodeType = "integer"
	NodeFloat              NodeType = "float"
	NodeUnaryOperator      NodeType = "unary_operator"
	NodeImport             NodeType = "import_statement"
	NodeImportFrom         NodeType = "import_from_statement"
	NodeFutureImport       NodeType = "future_import_statement"
	NodeExpressionStmt     NodeType = "expression_statement"
	NodeAssignment         NodeType = "assignment"
	NodeString             NodeType = "string"
	NodeComment            NodeType = "comment"
	NodeKeywordSeparator   NodeType = "keyword_separator"
	NodePositionalSep      NodeType = "positional_separator"
	NodeListSplatPattern   NodeType = "list_splat_pattern"
	NodeDictSplatPattern   NodeType = "dictionary_splat_pattern"
	NodeTypedParameter     NodeType = "typed_parameter"
	NodeDefaultParameter   NodeType = "default_parameter"
	NodeTypedDefaultParam  NodeType = "typed_default_parameter"
	NodeKeywordArgument    NodeType = "keyword_argument"
	NodeListSplat          NodeType = "list_splat"
	NodeDictSplat          NodeType = "dictionary_splat"
	NodeSubscript          NodeType = "subscript"
	NodeSlice              NodeType = "slice"
	NodeError              NodeType = "ERROR"
)

// Location represents the position of a node in the source code
type Location struct {
	File      string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// String returns a string representation of the location
func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.StartLine, l.StartCol)
}

// Lines returns the number of source lines the location spans
func (l Location) Lines() int {
	return l.EndLine - l.StartLine + 1
}

// Span is a half-open byte range in the source
type Span struct {
	Start int
	End   int
}

// Function is a def (top level, nested or method)
type Function struct {
	Name     string
	Class    string
	Params   []string
	Location Location
	NameSpan Span
	Body     Span
}

// IsMethod reports whether the function is defined directly in a class
func (f *Function) IsMethod() bool {
	return f.Class != ""
}

// QualifiedName returns Class.name for methods
func (f *Function) QualifiedName() string {
	if f.Class == "" {
		return f.Name
	}
	return f.Class + "." + f.Name
}

// Class is a class definition and the methods defined directly in it
type Class struct {
	Name     string
	Location Location
	Methods  []*Function
	// Bases holds the source text of each positional base class
	Bases []string
}

// Number is a numeric literal. Negated literals ("-1") span the operator.
type Number struct {
	Text     string
	Location Location
	Span     Span
	// Function is the innermost function whose body contains the literal
	Function string
	// Contextual literals (default values, subscripts, slices) are not magic
	Contextual bool
}

// Identifier is one identifier token
type Identifier struct {
	Name string
	Span Span
	Line int
}

// Module is the extracted view of one parsed Python file
type Module struct {
	File      string
	HasErrors bool
	// ErrorLine is the first line containing a syntax error (0 if none)
	ErrorLine int

	Functions   []*Function
	Classes     []*Class
	Numbers     []Number
	Identifiers []Identifier

	// TopLevelNames holds names bound by module level assignments
	TopLevelNames map[string]bool

	// ImportsEnd is the byte offset just after the last top level import,
	// or after the module docstring when there are no imports, or after
	// the leading comment lines when there is neither
	ImportsEnd int
}

// FunctionsNamed returns every function with the given name
func (m *Module) FunctionsNamed(name string) []*Function {
	var out []*Function
	for _, f := range m.Functions {
		if f.Name == name {
			out = append(out, f)
		}
	}
	return out
}
