// Package testutil provides helper functions for testing qgate components
package testutil

import (
	"testing"

	"github.com/ludo-technologies/qgate/internal/parser"
)

// CreateTestModule parses Python source and fails the test on error.
// Syntax errors are allowed; they are reported on the module.
func CreateTestModule(t *testing.T, file, source string) *parser.Module {
	t.Helper()
	mod, err := parser.ParseSource(file, []byte(source))
	if err != nil {
		t.Fatalf("Failed to parse %s: %v", file, err)
	}
	return mod
}

// CreateValidTestModule is CreateTestModule for fixtures that must parse cleanly
func CreateValidTestModule(t *testing.T, source string) *parser.Module {
	t.Helper()
	mod := CreateTestModule(t, "test.py", source)
	if mod.HasErrors {
		t.Fatalf("Fixture has a syntax error at line %d", mod.ErrorLine)
	}
	return mod
}
