package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ludo-technologies/qgate/internal/config"
	"github.com/ludo-technologies/qgate/internal/constants"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a qgate configuration file",
		Long: `Generate a documented qgate configuration file with the thresholds of
a strictness preset.

By default, creates qgate.yaml in the current directory with full
documentation. Use --interactive for a guided setup wizard.

Examples:
  # Create qgate.yaml in current directory
  qgate init

  # Strict thresholds that also fail on degraded gates
  qgate init --strictness strict

  # Custom output path, overwriting an existing file
  qgate init --output ci/qgate.yaml --force

  # Interactive setup wizard
  qgate init -i`,
		RunE: runInit,
	}

	cmd.Flags().StringP("output", "o", constants.ConfigFileName,
		"Output path for the config file")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing config file")
	cmd.Flags().Bool("minimal", false,
		"Generate minimal config with essential options only")
	cmd.Flags().String("strictness", string(config.StrictnessStandard),
		"Threshold preset: relaxed, standard, strict")
	cmd.Flags().BoolP("interactive", "i", false,
		"Interactive setup wizard")

	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("output")
	force, _ := cmd.Flags().GetBool("force")
	minimal, _ := cmd.Flags().GetBool("minimal")
	interactive, _ := cmd.Flags().GetBool("interactive")
	level, _ := cmd.Flags().GetString("strictness")

	strictness := config.Strictness(level)
	if _, ok := config.GetStrictnessPresets()[strictness]; !ok {
		return fmt.Errorf("unknown strictness '%s' (use relaxed, standard or strict)", level)
	}
	artifactsDir := constants.DefaultArtifactsDir

	if interactive {
		var err error
		strictness, artifactsDir, configPath, err = runInteractiveSetup(cmd, configPath)
		if err != nil {
			return err
		}
	}

	if !force {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("%s already exists. Use --force to overwrite", configPath)
		}
	}

	dir := filepath.Dir(configPath)
	if dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", dir)
		}
	}

	var content string
	if minimal {
		content = config.GetMinimalConfigTemplate()
	} else {
		content = config.GetFullConfigTemplate(strictness, artifactsDir)
	}

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	displayPath := configPath
	if absPath, err := filepath.Abs(configPath); err == nil {
		displayPath = absPath
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created %s\n", displayPath)
	fmt.Fprintln(out, "\nRun 'qgate check' to evaluate your quality gates.")

	return nil
}

func runInteractiveSetup(cmd *cobra.Command, defaultConfigPath string) (config.Strictness, string, string, error) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintln(out, "qgate Configuration Setup")
	fmt.Fprintln(out, "=========================")
	fmt.Fprintln(out)

	strictnessLevels := []struct {
		Label       string
		Description string
		Value       config.Strictness
	}{
		{"Standard (recommended)", "Default thresholds, missing analyses are reported only", config.StrictnessStandard},
		{"Relaxed", "Lower score thresholds for legacy code", config.StrictnessRelaxed},
		{"Strict", "Higher thresholds, degraded gates fail the build", config.StrictnessStrict},
	}

	strictnessTemplates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "\U0001F449 {{ .Label | cyan }} - {{ .Description | faint }}",
		Inactive: "   {{ .Label | white }} - {{ .Description | faint }}",
		Selected: "\U00002705 {{ .Label | green }}",
	}

	strictnessPrompt := promptui.Select{
		Label:     "How strict should the gates be?",
		Items:     strictnessLevels,
		Templates: strictnessTemplates,
	}

	strictnessIdx, _, err := strictnessPrompt.Run()
	if err != nil {
		return "", "", "", fmt.Errorf("strictness selection cancelled: %w", err)
	}
	selectedStrictness := strictnessLevels[strictnessIdx].Value

	fmt.Fprintln(out)

	artifactsPrompt := promptui.Prompt{
		Label:   "Artifacts directory",
		Default: constants.DefaultArtifactsDir,
	}
	artifactsDir, err := artifactsPrompt.Run()
	if err != nil {
		return "", "", "", fmt.Errorf("artifacts directory input cancelled: %w", err)
	}
	if artifactsDir == "" {
		artifactsDir = constants.DefaultArtifactsDir
	}

	outputPrompt := promptui.Prompt{
		Label:   "Output file path",
		Default: defaultConfigPath,
	}
	outputPath, err := outputPrompt.Run()
	if err != nil {
		return "", "", "", fmt.Errorf("output path input cancelled: %w", err)
	}
	if outputPath == "" {
		outputPath = defaultConfigPath
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Creating %s... ", outputPath)

	return selectedStrictness, artifactsDir, outputPath, nil
}
