package fixer

import (
	"testing"

	"github.com/ludo-technologies/qgate/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoveUnicode(t *testing.T) {
	src := "print(\"✅ done → next … \u26a0\ufe0f careful 🎉\")\n# “quoted” — ‘single’ • 🚀\n"

	got := RemoveUnicode([]byte(src))

	assert.Equal(t,
		"print(\"[OK] done -> next ... [WARN] careful \")\n# \"quoted\" -- 'single' * [LAUNCH]\n",
		string(got.Content))
	assert.Equal(t, 11, got.Substitutions)
	assert.Equal(t, 1, got.Stripped)
	assert.True(t, got.Changed())
}

func TestRemoveUnicodeIsIdempotent(t *testing.T) {
	src := "x = '✓ ✗ 🔍 📊 ← – ❌ ⚠ 😀‍🔥 ★'\n"

	first := RemoveUnicode([]byte(src))
	second := RemoveUnicode(first.Content)

	assert.False(t, second.Changed())
	assert.Equal(t, 0, second.Substitutions)
	assert.Equal(t, string(first.Content), string(second.Content))
}

func TestRemoveUnicodeKeepsLetters(t *testing.T) {
	src := "name = 'Zoë Ωmega 東京'\n"
	got := RemoveUnicode([]byte(src))
	assert.False(t, got.Changed())
	assert.Equal(t, src, string(got.Content))
}

func TestFindUnicode(t *testing.T) {
	positions := FindUnicode([]byte("ok\nx = '✅'\n"))
	require.Len(t, positions, 1)
	assert.Equal(t, Position{Line: 2, Column: 6, Text: "✅"}, positions[0])
}

func TestToSnakeCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"camelCase", "camel_case"},
		{"getHTTPResponse", "get_http_response"},
		{"_privateHelper", "_private_helper"},
		{"__init__", "__init__"},
		{"already_snake", "already_snake"},
		{"CONSTANT_NAME", "CONSTANT_NAME"},
		{"parseV2Data", "parse_v2_data"},
		{"MyFunc", "my_func"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ToSnakeCase(tt.in))
		})
	}
}

func TestStandardizeNames(t *testing.T) {
	src := `def loadData(path):
    return path

class Repo:
    def fetchAll(self):
        return loadData("loadData")

result = loadData("x")  # loadData stays in comments
`
	mod := testutil.CreateValidTestModule(t, src)

	got := StandardizeNames(mod, []byte(src), nil)

	want := `def load_data(path):
    return path

class Repo:
    def fetch_all(self):
        return load_data("loadData")

result = load_data("x")  # loadData stays in comments
`
	assert.Equal(t, want, string(got.Content))
	assert.Equal(t, 4, got.Substitutions)
	require.Len(t, got.Renames, 2)
	assert.Equal(t, Rename{From: "loadData", To: "load_data", Line: 1}, got.Renames[0])
}

func TestStandardizeNamesSkipsCollisions(t *testing.T) {
	src := "def load_data():\n    pass\n\ndef loadData():\n    pass\n"
	mod := testutil.CreateValidTestModule(t, src)

	got := StandardizeNames(mod, []byte(src), nil)
	assert.Equal(t, src, string(got.Content))
	assert.Empty(t, got.Renames)
}

func TestStandardizeNamesKeepsInheritedHooks(t *testing.T) {
	src := `import unittest

class Base:
    def loadAll(self):
        pass

class Local(Base):
    def fetchOne(self):
        pass

class T(unittest.TestCase):
    def setUp(self):
        self.maxDiff = None

    def checkValue(self):
        pass

def setUpModule():
    pass

def buildIndex():
    pass
`
	mod := testutil.CreateValidTestModule(t, src)

	got := StandardizeNames(mod, []byte(src), []string{"setUpModule"})

	out := string(got.Content)
	assert.Contains(t, out, "def setUp(self):")
	assert.Contains(t, out, "def checkValue(self):", "methods of a class with an imported base are kept")
	assert.Contains(t, out, "def setUpModule():")
	assert.Contains(t, out, "def load_all(self):")
	assert.Contains(t, out, "def fetch_one(self):", "a base defined in the module does not pin methods")
	assert.Contains(t, out, "def build_index():")
	assert.Len(t, got.Renames, 3)
}

func TestReplaceMagicNumbersKeepsShebangFirst(t *testing.T) {
	src := "#!/usr/bin/env python3\n# -*- coding: utf-8 -*-\ndef wait():\n    return 86400\n"
	mod := testutil.CreateValidTestModule(t, src)

	got := ReplaceMagicNumbers(mod, []byte(src), map[string]string{"86400": "SECONDS_PER_DAY"})

	want := "#!/usr/bin/env python3\n# -*- coding: utf-8 -*-\n\nSECONDS_PER_DAY = 86400\n\ndef wait():\n    return SECONDS_PER_DAY\n"
	assert.Equal(t, want, string(got.Content))
}

func TestReplaceMagicNumbers(t *testing.T) {
	src := `import time

def wait(days=2):
    time.sleep(86400 * days)
    return 1024
`
	mod := testutil.CreateValidTestModule(t, src)
	table := map[string]string{"86400": "SECONDS_PER_DAY", "1024": "BYTES_PER_KIB"}

	got := ReplaceMagicNumbers(mod, []byte(src), table)

	want := `import time

BYTES_PER_KIB = 1024
SECONDS_PER_DAY = 86400


def wait(days=2):
    time.sleep(SECONDS_PER_DAY * days)
    return BYTES_PER_KIB
`
	assert.Equal(t, want, string(got.Content))
	assert.Equal(t, 2, got.Substitutions)
	assert.Equal(t, []string{"BYTES_PER_KIB = 1024", "SECONDS_PER_DAY = 86400"}, got.Inserted)

	// a second pass finds nothing left to replace
	again := ReplaceMagicNumbers(testutil.CreateValidTestModule(t, string(got.Content)), got.Content, table)
	assert.Equal(t, 0, again.Substitutions)
	assert.Equal(t, string(got.Content), string(again.Content))
}

func TestReplaceMagicNumbersReusesExistingConstant(t *testing.T) {
	src := "SECONDS_PER_HOUR = 3600\n\ndef f():\n    return 3600\n"
	mod := testutil.CreateValidTestModule(t, src)

	got := ReplaceMagicNumbers(mod, []byte(src), map[string]string{"3600": "SECONDS_PER_HOUR"})

	assert.Equal(t, "SECONDS_PER_HOUR = 3600\n\ndef f():\n    return SECONDS_PER_HOUR\n", string(got.Content))
	assert.Empty(t, got.Inserted)
}

func TestDetectMagicNumbers(t *testing.T) {
	src := `LIMIT = 500

def f(x=10):
    if x > 1:
        return x * 42 - 1
    return -1 + 3.14
`
	mod := testutil.CreateValidTestModule(t, src)

	found := DetectMagicNumbers(mod, []float64{-1, 0, 1, 2})

	var texts []string
	for _, m := range found {
		texts = append(texts, m.Text)
	}
	assert.Equal(t, []string{"42", "3.14"}, texts)
	assert.Equal(t, "f", found[0].Function)
	assert.Equal(t, 5, found[0].Line)
}

func TestSyntaxFixerLeavesValidSourceAlone(t *testing.T) {
	f := NewSyntaxFixer()
	defer f.Close()

	src := []byte("def f():\n    return 1\n")
	got := f.Fix(src)
	assert.True(t, got.AlreadyValid)
	assert.False(t, got.Fixed)
	assert.Equal(t, src, got.Content)
}

func TestSyntaxFixerHeuristics(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		want      string
		heuristic string
	}{
		{
			name:      "decimal literal",
			src:       "THRESHOLD = 0. 85\n",
			want:      "THRESHOLD = 0.85\n",
			heuristic: HeuristicDecimals,
		},
		{
			name:      "missing indentation",
			src:       "def f():\nreturn 1\n",
			want:      "def f():\n    return 1\n",
			heuristic: HeuristicIndentation,
		},
		{
			name:      "unterminated docstring",
			src:       "def f():\n    \"\"\"Doc\n\n    return 1\n",
			want:      "def f():\n    \"\"\"Doc\"\"\"\n\n    return 1\n",
			heuristic: HeuristicTripleQuotes,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewSyntaxFixer()
			defer f.Close()

			got := f.Fix([]byte(tt.src))
			require.True(t, got.Fixed, "expected a fix")
			assert.Equal(t, tt.want, string(got.Content))
			assert.Contains(t, got.Applied, tt.heuristic)

			again := f.Fix(got.Content)
			assert.True(t, again.AlreadyValid, "fixed output must be a fixed point")
		})
	}
}

func TestSyntaxFixerDiscardsUnfixable(t *testing.T) {
	f := NewSyntaxFixer()
	defer f.Close()

	src := []byte("def (:\n  ))\n")
	got := f.Fix(src)
	assert.False(t, got.Fixed)
	assert.Equal(t, src, got.Content)
	assert.Equal(t, 1, got.ErrorLine)
}

func TestRepairDecimals(t *testing.T) {
	assert.Equal(t, "x = 0.85\ny = 1_000 + 2\nz1_ = 3", repairDecimals("x = 0. 85\ny = 1_000_ + 2\nz1_ = 3"))
}

func TestBalanceBraces(t *testing.T) {
	assert.Equal(t, "{x}", balanceBraces("{x"))
	assert.Equal(t, "x", balanceBraces("x}"))
	assert.Equal(t, "{{literal}} {v}", balanceBraces("{{literal}} {v}"))
}
