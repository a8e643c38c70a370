package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ludo-technologies/qgate/internal/config"
	"github.com/ludo-technologies/qgate/service"
)

func runInitCmd(t *testing.T, args ...string) error {
	t.Helper()
	cmd := initCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestInitCommand_BasicConfigCreation(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "qgate.yaml")

	if err := runInitCmd(t, "--output", configPath); err != nil {
		t.Fatalf("init command failed: %v", err)
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}

	contentStr := string(content)
	expectedSections := []string{
		"artifacts:",
		"thresholds:",
		"policy:",
		"consolidation:",
		"analysis:",
		"nasa_min_score",
		"NASA_MIN_SCORE",
	}
	for _, section := range expectedSections {
		if !strings.Contains(contentStr, section) {
			t.Errorf("Config file missing expected section: %s", section)
		}
	}
}

func TestInitCommand_ForceOverwrite(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "qgate.yaml")
	if err := os.WriteFile(configPath, []byte("existing: true\n"), 0644); err != nil {
		t.Fatalf("Failed to create existing file: %v", err)
	}

	err := runInitCmd(t, "--output", configPath)
	if err == nil {
		t.Fatal("Expected error when file exists without --force")
	}
	if !strings.Contains(err.Error(), "already exists") {
		t.Errorf("Expected 'already exists' error, got: %v", err)
	}

	if err := runInitCmd(t, "--output", configPath, "--force"); err != nil {
		t.Fatalf("init --force failed: %v", err)
	}
	content, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}
	if !strings.Contains(string(content), "thresholds:") {
		t.Error("Config file was not overwritten with new content")
	}
}

func TestInitCommand_MinimalConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "qgate.yaml")

	if err := runInitCmd(t, "--output", configPath, "--minimal"); err != nil {
		t.Fatalf("init --minimal failed: %v", err)
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}
	if !strings.Contains(string(content), "minimal") {
		t.Error("Minimal config should indicate it's minimal")
	}
	if strings.Contains(string(content), "consolidation:") {
		t.Error("Minimal config should not carry the consolidation section")
	}
}

func TestInitCommand_InvalidDirectory(t *testing.T) {
	err := runInitCmd(t, "--output", "/nonexistent/directory/qgate.yaml")
	if err == nil {
		t.Fatal("Expected error when directory doesn't exist")
	}
	if !strings.Contains(err.Error(), "directory does not exist") {
		t.Errorf("Expected 'directory does not exist' error, got: %v", err)
	}
}

func TestInitCommand_UnknownStrictness(t *testing.T) {
	err := runInitCmd(t, "--output", filepath.Join(t.TempDir(), "qgate.yaml"), "--strictness", "paranoid")
	if err == nil || !strings.Contains(err.Error(), "unknown strictness") {
		t.Errorf("Expected unknown strictness error, got: %v", err)
	}
}

func TestInitCommand_GeneratedConfigLoads(t *testing.T) {
	for _, d := range config.GateDefinitions() {
		t.Setenv(d.EnvVar, "")
	}

	for level, preset := range config.GetStrictnessPresets() {
		t.Run(string(level), func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "qgate.yaml")
			if err := runInitCmd(t, "--output", configPath, "--strictness", string(level)); err != nil {
				t.Fatalf("init failed: %v", err)
			}

			cfg, err := service.NewConfigurationLoader(nil).LoadConfig(configPath, "")
			if err != nil {
				t.Fatalf("Generated config does not load: %v", err)
			}
			got, _ := cfg.FrozenThresholds().Get(config.KeyNASAMinScore)
			if got.Value != preset.Thresholds[config.KeyNASAMinScore] {
				t.Errorf("nasa_min_score = %v, want %v", got.Value, preset.Thresholds[config.KeyNASAMinScore])
			}
			if cfg.Policy.FailOnDegraded != preset.FailOnDegraded {
				t.Errorf("fail_on_degraded = %v, want %v", cfg.Policy.FailOnDegraded, preset.FailOnDegraded)
			}
		})
	}
}

func TestInitCmd_FlagsExist(t *testing.T) {
	cmd := initCmd()

	expectedFlags := []string{"output", "force", "minimal", "strictness", "interactive"}
	for _, flagName := range expectedFlags {
		if cmd.Flags().Lookup(flagName) == nil {
			t.Errorf("Missing expected flag: --%s", flagName)
		}
	}

	shortFlags := map[string]string{"o": "output", "f": "force", "i": "interactive"}
	for short, long := range shortFlags {
		if cmd.Flags().ShorthandLookup(short) == nil {
			t.Errorf("Missing short flag -%s for --%s", short, long)
		}
	}

	if def := cmd.Flags().Lookup("output").DefValue; def != "qgate.yaml" {
		t.Errorf("Expected default output qgate.yaml, got %s", def)
	}
}
