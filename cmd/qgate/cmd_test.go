package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ludo-technologies/qgate/domain"
	"github.com/ludo-technologies/qgate/internal/config"
)

func TestRootCmd_SubcommandsExist(t *testing.T) {
	root := newRootCmd()

	expected := []string{"check", "consolidate", "scan", "mece", "analyze", "fix",
		"validate-workflow", "compare", "publish", "mock-github", "init", "version"}
	for _, name := range expected {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd == root {
			t.Errorf("Missing subcommand: %s", name)
		}
	}
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	root := newRootCmd()

	for _, name := range []string{"config", "artifacts-dir", "verbose"} {
		if root.PersistentFlags().Lookup(name) == nil {
			t.Errorf("Missing persistent flag: --%s", name)
		}
	}
	if root.PersistentFlags().ShorthandLookup("c") == nil {
		t.Error("Missing short flag -c for --config")
	}
}

func TestCheckCmd_FlagsExist(t *testing.T) {
	cmd := checkCmd(&rootOptions{})

	expectedFlags := []string{"gate", "threshold", "metrics-file", "fail-on-degraded",
		"fail-on-unavailable", "advisory", "format", "json"}
	for _, flagName := range expectedFlags {
		if cmd.Flags().Lookup(flagName) == nil {
			t.Errorf("Missing expected flag: --%s", flagName)
		}
	}
}

func TestCompareCmd_DefaultValues(t *testing.T) {
	cmd := compareCmd(&rootOptions{})

	threshold := cmd.Flags().Lookup("threshold")
	if threshold == nil {
		t.Fatal("threshold flag not found")
	}
	if threshold.DefValue != "0.05" {
		t.Errorf("Expected default threshold 0.05, got %s", threshold.DefValue)
	}
}

func TestMockGitHubCmd_DefaultAddr(t *testing.T) {
	cmd := mockGitHubCmd(&rootOptions{})

	addr := cmd.Flags().Lookup("addr")
	if addr == nil || addr.DefValue != ":8089" {
		t.Errorf("Expected default addr :8089, got %v", addr)
	}
}

// cliEnv is a project directory with a config file pointing at its own
// artifacts directory
type cliEnv struct {
	dir       string
	config    string
	artifacts string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	for _, d := range config.GateDefinitions() {
		t.Setenv(d.EnvVar, "")
	}

	dir := t.TempDir()
	env := &cliEnv{
		dir:       dir,
		config:    filepath.Join(dir, "qgate.yaml"),
		artifacts: filepath.Join(dir, "artifacts"),
	}
	if err := os.MkdirAll(env.artifacts, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(env.config, []byte("artifacts:\n  dir: \""+env.artifacts+"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return env
}

func (e *cliEnv) writeArtifact(t *testing.T, name, content string) {
	t.Helper()
	path := filepath.Join(e.artifacts, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// run executes the CLI and returns the exit code and stdout
func (e *cliEnv) run(t *testing.T, args ...string) (int, string) {
	t.Helper()
	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	full := append([]string{"--config", e.config}, args...)
	code := execute(context.Background(), root, full)
	if stderr.Len() > 0 {
		t.Logf("stderr: %s", stderr.String())
	}
	return code, stdout.String()
}

func TestCheckCmd_ExitCodes(t *testing.T) {
	env := newCLIEnv(t)
	env.writeArtifact(t, domain.ArtifactConnascence, `{"nasa_compliance": {"score": 0.80}}`)

	code, out := env.run(t, "check", "--gate", "nasa_compliance")
	if code != domain.ExitFail {
		t.Errorf("Expected exit %d, got %d", domain.ExitFail, code)
	}
	if !strings.Contains(out, "NASA compliance: 80.00% < 85.00%") {
		t.Errorf("Unexpected output:\n%s", out)
	}

	code, _ = env.run(t, "check", "--gate", "nasa_compliance", "--threshold", "nasa_min_score=0.75")
	if code != domain.ExitPass {
		t.Errorf("Expected exit 0 with lowered threshold, got %d", code)
	}

	code, _ = env.run(t, "check", "--gate", "nasa_compliance", "--advisory")
	if code != domain.ExitPass {
		t.Errorf("Expected exit 0 in advisory mode, got %d", code)
	}

	if _, err := os.Stat(filepath.Join(env.artifacts, domain.ArtifactReport)); err != nil {
		t.Errorf("Report not written: %v", err)
	}
}

func TestCheckCmd_UnavailablePolicy(t *testing.T) {
	env := newCLIEnv(t)

	code, _ := env.run(t, "check", "--gate", "security_critical")
	if code != domain.ExitPass {
		t.Errorf("Missing artifact should not fail by default, got %d", code)
	}

	code, _ = env.run(t, "check", "--gate", "security_critical", "--fail-on-unavailable")
	if code != domain.ExitFail {
		t.Errorf("Expected exit 1 with --fail-on-unavailable, got %d", code)
	}
}

func TestCheckCmd_ToolErrors(t *testing.T) {
	env := newCLIEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown gate", []string{"check", "--gate", "nope"}},
		{"bad threshold", []string{"check", "--threshold", "nasa_min_score"}},
		{"bad format", []string{"check", "--format", "xml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := env.run(t, tt.args...)
			if code != domain.ExitError {
				t.Errorf("Expected exit %d, got %d", domain.ExitError, code)
			}
		})
	}
}

func TestConsolidateCmd_JSON(t *testing.T) {
	env := newCLIEnv(t)
	env.writeArtifact(t, domain.ArtifactMECE, `{"mece_score": 0.9, "duplication_percentage": 1}`)

	code, out := env.run(t, "consolidate", "--json")
	if code != domain.ExitPass {
		t.Fatalf("Expected exit 0, got %d", code)
	}

	var report domain.ConsolidatedReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("Output is not a JSON report: %v\n%s", err, out)
	}
	if report.OverallScores.AnalysesAvailable != 1 {
		t.Errorf("Expected 1 available analysis, got %d", report.OverallScores.AnalysesAvailable)
	}
}

func TestValidateWorkflowCmd(t *testing.T) {
	env := newCLIEnv(t)

	good := filepath.Join(env.dir, "good.yml")
	bad := filepath.Join(env.dir, "bad.yml")
	if err := os.WriteFile(good, []byte("name: ci\non: push\njobs:\n  test:\n    runs-on: ubuntu-latest\n    steps:\n      - run: make test\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bad, []byte("name: ci\njobs:\n  test:\n    steps: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if code, out := env.run(t, "validate-workflow", good); code != domain.ExitPass {
		t.Errorf("Expected valid workflow to exit 0, got %d\n%s", code, out)
	}
	if code, _ := env.run(t, "validate-workflow", good, bad); code != domain.ExitFail {
		t.Errorf("Expected invalid workflow to exit 1, got %d", code)
	}
}

func TestCompareCmd_Regression(t *testing.T) {
	env := newCLIEnv(t)
	env.writeArtifact(t, "previous.json", `{"overall_scores": {"average_quality": 0.90}, "critical_issues": []}`)
	env.writeArtifact(t, "current.json", `{"overall_scores": {"average_quality": 0.70}, "critical_issues": []}`)

	args := []string{"compare",
		"--current", filepath.Join(env.artifacts, "current.json"),
		"--previous", filepath.Join(env.artifacts, "previous.json")}

	code, out := env.run(t, args...)
	if code != domain.ExitFail {
		t.Errorf("Expected regression to exit 1, got %d\n%s", code, out)
	}
	if _, err := os.Stat(filepath.Join(env.artifacts, domain.ArtifactComparison)); err != nil {
		t.Errorf("Comparison not written: %v", err)
	}

	code, _ = env.run(t, append(args, "--advisory")...)
	if code != domain.ExitPass {
		t.Errorf("Expected advisory compare to exit 0, got %d", code)
	}
}

func TestFixCmd_UnknownKind(t *testing.T) {
	env := newCLIEnv(t)

	code, _ := env.run(t, "fix", "tabs", env.dir)
	if code != domain.ExitError {
		t.Errorf("Expected exit %d for unknown kind, got %d", domain.ExitError, code)
	}
}

func TestFixCmd_DetectExitCode(t *testing.T) {
	env := newCLIEnv(t)
	src := filepath.Join(env.dir, "calc.py")
	if err := os.WriteFile(src, []byte("def ok():\n    return 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if code, out := env.run(t, "fix", "unicode", "--detect", src); code != domain.ExitPass {
		t.Errorf("Expected clean file to exit 0, got %d\n%s", code, out)
	}

	if err := os.WriteFile(src, []byte("def ok():\n    return 1  # → one\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if code, _ := env.run(t, "fix", "unicode", "--detect", src); code != domain.ExitFail {
		t.Errorf("Expected findings to exit 1, got %d", code)
	}

	content, _ := os.ReadFile(src)
	if !strings.Contains(string(content), "→") {
		t.Error("--detect must not modify files")
	}
}

func TestPublishCmd_RequiresToken(t *testing.T) {
	env := newCLIEnv(t)
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GITHUB_REPOSITORY", "acme/widgets")

	code, _ := env.run(t, "publish", "--pr", "1")
	if code != domain.ExitError {
		t.Errorf("Expected exit %d without a token, got %d", domain.ExitError, code)
	}
}

func TestVersionCmd(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)

	if code := execute(context.Background(), root, []string{"version"}); code != 0 {
		t.Fatalf("version exited %d", code)
	}
	if !strings.HasPrefix(out.String(), "qgate version ") {
		t.Errorf("Unexpected version output: %q", out.String())
	}
}
