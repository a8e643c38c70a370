package main

import (
	"path/filepath"

	"github.com/ludo-technologies/qgate/app"
	"github.com/ludo-technologies/qgate/domain"
	"github.com/ludo-technologies/qgate/service"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

type compareOptions struct {
	current   string
	previous  string
	output    string
	threshold float64
	advisory  bool
}

func compareCmd(root *rootOptions) *cobra.Command {
	opts := &compareOptions{}

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare two consolidated reports for regressions",
		Long: `Compare the current consolidated report with a previous one. A
regression is an average quality drop larger than the threshold, or a
critical issue that was not present before.

Examples:
  qgate compare --previous baseline/quality_gates_report.json
  qgate compare --current a.json --previous b.json --threshold 0.1 --advisory`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root, ".")
			if err != nil {
				return err
			}
			format, err := outputFormat(cmd, cfg)
			if err != nil {
				return err
			}

			current := opts.current
			if current == "" {
				current = cfg.ReportPath()
			}
			output := opts.output
			if !cmd.Flags().Changed("output") {
				output = filepath.Join(cfg.Artifacts.Dir, domain.ArtifactComparison)
			}

			uc := app.NewCompareUseCase(afero.NewOsFs(), service.NewOutputFormatter(root.verbose))
			result, err := uc.Execute(app.CompareRequest{
				Current:      current,
				Previous:     opts.previous,
				Threshold:    opts.threshold,
				OutputPath:   output,
				OutputFormat: format,
				OutputWriter: cmd.OutOrStdout(),
			})
			if err != nil {
				return toolError(err)
			}
			if result.Regression && !opts.advisory {
				return exitWith(domain.ExitFail, "")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.current, "current", "", "Current report (default: the artifacts report)")
	cmd.Flags().StringVar(&opts.previous, "previous", "", "Previous report to compare against")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Comparison JSON path (empty to skip)")
	cmd.Flags().Float64Var(&opts.threshold, "threshold", 0.05, "Allowed average quality drop")
	cmd.Flags().BoolVar(&opts.advisory, "advisory", false, "Report regressions but always exit 0")
	_ = cmd.MarkFlagRequired("previous")
	addFormatFlags(cmd)

	return cmd
}
