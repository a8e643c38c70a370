package main

import (
	"fmt"

	"github.com/ludo-technologies/qgate/app"
	"github.com/ludo-technologies/qgate/domain"
	"github.com/ludo-technologies/qgate/service"
	"github.com/spf13/cobra"
)

func scanCmd(root *rootOptions) *cobra.Command {
	var (
		tools   []string
		workDir string
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run the security scanners and write the SAST artifact",
		Long: `Run the configured security scanners (bandit, semgrep, safety,
pip-audit) concurrently, write each tool's raw output under
security/ and the normalized summary to sast_analysis.json.

A scanner that is not installed, times out or crashes is recorded and
lowers the scan coverage; it never fails the command.

Examples:
  qgate scan
  qgate scan --tool bandit,semgrep --workdir src/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root, workDir)
			if err != nil {
				return err
			}
			format, err := outputFormat(cmd, cfg)
			if err != nil {
				return err
			}

			pm := service.NewProgressManager(format == domain.OutputFormatText && !root.verbose)
			defer pm.Close()

			store := service.NewArtifactStore(cfg.Artifacts.Dir, root.log())
			uc := app.NewScanUseCase(cfg, store, service.NewOutputFormatter(root.verbose), pm, root.log())
			if _, err := uc.Execute(cmd.Context(), app.ScanRequest{
				Tools:        tools,
				WorkDir:      workDir,
				OutputFormat: format,
				OutputWriter: cmd.OutOrStdout(),
			}); err != nil {
				return toolError(err)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&tools, "tool", nil, "Scanners to run (default: all enabled)")
	cmd.Flags().StringVar(&workDir, "workdir", ".", "Directory the scanners run in")
	addFormatFlags(cmd)

	return cmd
}

func meceCmd(root *rootOptions) *cobra.Command {
	var workDir string

	cmd := &cobra.Command{
		Use:   "mece",
		Short: "Run the MECE duplication analyzer",
		Long: `Run the configured MECE analyzer. When it is missing, fails or leaves
no valid mece_analysis.json behind, a fallback artifact with the
configured fallback score is written instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root, workDir)
			if err != nil {
				return err
			}
			format, err := outputFormat(cmd, cfg)
			if err != nil {
				return err
			}

			store := service.NewArtifactStore(cfg.Artifacts.Dir, root.log())
			uc := app.NewScanUseCase(cfg, store, service.NewOutputFormatter(root.verbose), nil, root.log())
			outcome, err := uc.RunMECE(cmd.Context(), workDir)
			if err != nil {
				return toolError(err)
			}

			out := cmd.OutOrStdout()
			if format != domain.OutputFormatText {
				if format == domain.OutputFormatYAML {
					return toolError(service.WriteYAML(out, outcome))
				}
				return toolError(service.WriteJSON(out, outcome))
			}
			if outcome.Fallback {
				fmt.Fprintf(out, "MECE analyzer unavailable (%s), fallback written to %s\n", outcome.Reason, outcome.Path)
			} else {
				fmt.Fprintf(out, "MECE analysis written to %s\n", outcome.Path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&workDir, "workdir", ".", "Directory the analyzer runs in")
	addFormatFlags(cmd)

	return cmd
}
