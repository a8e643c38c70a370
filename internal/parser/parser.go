package parser

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Parser wraps a tree-sitter parser for Python. A Parser is not safe for
// concurrent use; create one per goroutine.
type Parser struct {
	parser   *sitter.Parser
	language *sitter.Language
}

// NewParser creates a new Python parser
func NewParser() *Parser {
	parser := sitter.NewParser()
	lang := python.GetLanguage()
	parser.SetLanguage(lang)

	return &Parser{
		parser:   parser,
		language: lang,
	}
}

// ParseFile parses a Python file into a Module. Sources with syntax
// errors still produce a Module with HasErrors set.
func (p *Parser) ParseFile(filename string, source []byte) (*Module, error) {
	tree, err := p.parser.ParseCtx(context.Background(), nil, source)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse file %s: %v", filename, err)
	}
	defer tree.Close()

	rootNode := tree.RootNode()
	if rootNode == nil {
		return nil, fmt.Errorf("no root node in parse tree for %s", filename)
	}

	builder := NewASTBuilder(filename, source)
	return builder.Build(rootNode), nil
}

// Parse parses Python source code
func (p *Parser) Parse(source []byte) (*Module, error) {
	return p.ParseFile("<input>", source)
}

// Valid reports whether source parses without syntax errors
func (p *Parser) Valid(source []byte) bool {
	tree, err := p.parser.ParseCtx(context.Background(), nil, source)
	if err != nil || tree == nil {
		return false
	}
	defer tree.Close()
	root := tree.RootNode()
	return root != nil && !root.HasError()
}

// SExpression returns the tree-sitter s-expression of source, which
// ignores formatting; used to check that a rewrite kept the structure
func (p *Parser) SExpression(source []byte) (string, error) {
	tree, err := p.parser.ParseCtx(context.Background(), nil, source)
	if tree == nil {
		return "", fmt.Errorf("failed to parse: %v", err)
	}
	defer tree.Close()
	return tree.RootNode().String(), nil
}

// Close closes the parser and frees resources
func (p *Parser) Close() {
	if p.parser != nil {
		p.parser.Close()
	}
}

// ParseSource parses one file with a short-lived parser
func ParseSource(filename string, source []byte) (*Module, error) {
	p := NewParser()
	defer p.Close()
	return p.ParseFile(filename, source)
}

// Valid reports whether source is syntactically valid Python
func Valid(source []byte) bool {
	p := NewParser()
	defer p.Close()
	return p.Valid(source)
}
