package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// ASTBuilder extracts a Module from a tree-sitter Python CST
type ASTBuilder struct {
	filename string
	source   []byte
	module   *Module
}

// NewASTBuilder creates a new AST builder
func NewASTBuilder(filename string, source []byte) *ASTBuilder {
	return &ASTBuilder{
		filename: filename,
		source:   source,
	}
}

// scope tracks the enclosing definitions during the walk
type scope struct {
	class    *Class
	function string
	inBody   bool
}

// Build walks the tree rooted at root
func (b *ASTBuilder) Build(root *sitter.Node) *Module {
	b.module = &Module{
		File:          b.filename,
		TopLevelNames: make(map[string]bool),
	}
	if root == nil {
		return b.module
	}

	if root.HasError() {
		b.module.HasErrors = true
		b.module.ErrorLine = firstErrorLine(root)
	}

	b.scanTopLevel(root)
	b.walk(root, scope{})
	return b.module
}

// scanTopLevel records module level bindings and the import block end
func (b *ASTBuilder) scanTopLevel(root *sitter.Node) {
	seenStatement := false
	count := int(root.NamedChildCount())
	for i := 0; i < count; i++ {
		child := root.NamedChild(i)
		kind := NodeType(child.Type())
		if kind == NodeComment {
			// shebang, encoding cookie and header comments stay on top
			if !seenStatement {
				b.module.ImportsEnd = lineEnd(b.source, int(child.EndByte()))
			}
			continue
		}
		first := !seenStatement
		seenStatement = true

		switch kind {
		case NodeImport, NodeImportFrom, NodeFutureImport:
			b.module.ImportsEnd = lineEnd(b.source, int(child.EndByte()))
		case NodeExpressionStmt:
			if first && isDocstring(child) {
				b.module.ImportsEnd = lineEnd(b.source, int(child.EndByte()))
			}
			for j := 0; j < int(child.NamedChildCount()); j++ {
				assign := child.NamedChild(j)
				if NodeType(assign.Type()) != NodeAssignment {
					continue
				}
				if left := assign.ChildByFieldName("left"); left != nil && NodeType(left.Type()) == NodeIdentifier {
					b.module.TopLevelNames[left.Content(b.source)] = true
				}
			}
		}
	}
}

func (b *ASTBuilder) walk(n *sitter.Node, sc scope) {
	switch NodeType(n.Type()) {
	case NodeClass:
		b.buildClass(n, sc)
		return
	case NodeFunction:
		b.buildFunction(n, sc)
		return
	case NodeIdentifier:
		b.module.Identifiers = append(b.module.Identifiers, Identifier{
			Name: n.Content(b.source),
			Span: span(n),
			Line: int(n.StartPoint().Row) + 1,
		})
		return
	case NodeInteger, NodeFloat:
		b.addNumber(n, sc)
		return
	case NodeUnaryOperator:
		if arg := n.ChildByFieldName("argument"); arg != nil && isNumber(arg) {
			if op := n.ChildByFieldName("operator"); op != nil && op.Type() == "-" {
				b.addNumber(n, sc)
				return
			}
		}
	case NodeDefaultParameter, NodeTypedDefaultParam, NodeKeywordArgument, NodeSubscript, NodeSlice:
		sc.inBody = false
	case NodeComment:
		return
	}

	count := int(n.NamedChildCount())
	for i := 0; i < count; i++ {
		b.walk(n.NamedChild(i), sc)
	}
}

func (b *ASTBuilder) buildClass(n *sitter.Node, sc scope) {
	class := &Class{Location: b.getLocation(n)}
	if name := n.ChildByFieldName("name"); name != nil {
		class.Name = name.Content(b.source)
		b.walk(name, sc)
	}
	if bases := n.ChildByFieldName("superclasses"); bases != nil {
		for i := 0; i < int(bases.NamedChildCount()); i++ {
			base := bases.NamedChild(i)
			switch NodeType(base.Type()) {
			case NodeKeywordArgument, NodeComment, NodeListSplat, NodeDictSplat:
				continue
			}
			class.Bases = append(class.Bases, base.Content(b.source))
		}
	}
	b.module.Classes = append(b.module.Classes, class)

	if body := n.ChildByFieldName("body"); body != nil {
		b.walk(body, scope{class: class, function: sc.function, inBody: sc.inBody})
	}
}

func (b *ASTBuilder) buildFunction(n *sitter.Node, sc scope) {
	fn := &Function{Location: b.getLocation(n)}
	if sc.class != nil {
		fn.Class = sc.class.Name
		sc.class.Methods = append(sc.class.Methods, fn)
	}

	if name := n.ChildByFieldName("name"); name != nil {
		fn.Name = name.Content(b.source)
		fn.NameSpan = span(name)
		b.walk(name, sc)
	}
	if params := n.ChildByFieldName("parameters"); params != nil {
		fn.Params = b.buildParameters(params, fn.IsMethod())
		b.walk(params, scope{function: sc.function, inBody: false})
	}
	if ret := n.ChildByFieldName("return_type"); ret != nil {
		b.walk(ret, scope{function: sc.function, inBody: false})
	}

	b.module.Functions = append(b.module.Functions, fn)

	if body := n.ChildByFieldName("body"); body != nil {
		fn.Body = span(body)
		b.walk(body, scope{function: fn.QualifiedName(), inBody: true})
	}
}

// buildParameters returns parameter names, dropping the receiver of methods
// and the bare * and / separators
func (b *ASTBuilder) buildParameters(params *sitter.Node, method bool) []string {
	var names []string
	count := int(params.NamedChildCount())
	for i := 0; i < count; i++ {
		p := params.NamedChild(i)
		var name string
		switch NodeType(p.Type()) {
		case NodeIdentifier:
			name = p.Content(b.source)
		case NodeDefaultParameter, NodeTypedDefaultParam:
			if id := p.ChildByFieldName("name"); id != nil {
				name = id.Content(b.source)
			}
		case NodeTypedParameter, NodeListSplatPattern, NodeDictSplatPattern:
			name = b.firstIdentifier(p)
		case NodeKeywordSeparator, NodePositionalSep:
			continue
		default:
			continue
		}
		if name == "" {
			continue
		}
		if method && i == 0 && (name == "self" || name == "cls") {
			continue
		}
		names = append(names, name)
	}
	if names == nil {
		names = []string{}
	}
	return names
}

func (b *ASTBuilder) firstIdentifier(n *sitter.Node) string {
	if NodeType(n.Type()) == NodeIdentifier {
		return n.Content(b.source)
	}
	count := int(n.NamedChildCount())
	for i := 0; i < count; i++ {
		if name := b.firstIdentifier(n.NamedChild(i)); name != "" {
			return name
		}
	}
	return ""
}

func (b *ASTBuilder) addNumber(n *sitter.Node, sc scope) {
	num := Number{
		Text:       n.Content(b.source),
		Location:   b.getLocation(n),
		Span:       span(n),
		Contextual: !sc.inBody,
	}
	if sc.inBody {
		num.Function = sc.function
	}
	b.module.Numbers = append(b.module.Numbers, num)
}

// getLocation converts a tree-sitter node position to a 1-based Location
func (b *ASTBuilder) getLocation(n *sitter.Node) Location {
	return Location{
		File:      b.filename,
		StartLine: int(n.StartPoint().Row) + 1,
		StartCol:  int(n.StartPoint().Column),
		EndLine:   int(n.EndPoint().Row) + 1,
		EndCol:    int(n.EndPoint().Column),
	}
}

func span(n *sitter.Node) Span {
	return Span{Start: int(n.StartByte()), End: int(n.EndByte())}
}

func isNumber(n *sitter.Node) bool {
	t := NodeType(n.Type())
	return t == NodeInteger || t == NodeFloat
}

func isDocstring(stmt *sitter.Node) bool {
	return stmt.NamedChildCount() == 1 && NodeType(stmt.NamedChild(0).Type()) == NodeString
}

// lineEnd returns the offset just past the newline ending the line at offset
func lineEnd(source []byte, offset int) int {
	for i := offset; i < len(source); i++ {
		if source[i] == '\n' {
			return i + 1
		}
	}
	return len(source)
}

// firstErrorLine finds the first ERROR or missing node, 1-based
func firstErrorLine(n *sitter.Node) int {
	if NodeType(n.Type()) == NodeError || n.IsMissing() {
		return int(n.StartPoint().Row) + 1
	}
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		child := n.Child(i)
		if child == nil || !child.HasError() && !child.IsMissing() {
			continue
		}
		if line := firstErrorLine(child); line > 0 {
			return line
		}
	}
	return int(n.StartPoint().Row) + 1
}
