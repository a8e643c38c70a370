package main

import (
	"github.com/ludo-technologies/qgate/app"
	"github.com/ludo-technologies/qgate/service"
	"github.com/spf13/cobra"
)

type checkOptions struct {
	gates       []string
	thresholds  []string
	metricsFile string
	policy      policyFlags
}

func checkCmd(root *rootOptions) *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate quality gates against the analysis artifacts",
		Long: `Evaluate every quality gate against the artifacts in the artifacts
directory, write the consolidated report and print the verdict.

Thresholds come from defaults, then the config file, then the
NASA_MIN_SCORE style environment variables, then --threshold flags.

Exit codes:
  0 - All blocking gates passed (or --advisory)
  1 - A blocking gate failed
  2 - Tool error

Examples:
  # Run every gate
  qgate check

  # Only the security gates, failing on missing scans
  qgate check --gate security_critical,security_high --fail-on-unavailable

  # Stricter NASA threshold for this run
  qgate check --threshold nasa_min_score=0.95

  # Export Prometheus metrics for the textfile collector
  qgate check --metrics-file /var/lib/node_exporter/qgate.prom`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, root, opts, false)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.gates, "gate", "g", nil,
		"Gates to evaluate (default: all)")
	cmd.Flags().StringArrayVarP(&opts.thresholds, "threshold", "t", nil,
		"Threshold override key=value (repeatable)")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "",
		"Write gate results in Prometheus text format to this file")
	opts.policy.register(cmd)
	addFormatFlags(cmd)

	return cmd
}

func consolidateCmd(root *rootOptions) *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "consolidate",
		Short: "Consolidate analysis artifacts into the quality gates report",
		Long: `Load every analysis artifact, average the available quality scores,
collect critical issues and write quality_gates_report.json.

Missing analyses are reported as unavailable and never stop the run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, root, opts, true)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.thresholds, "threshold", "t", nil,
		"Threshold override key=value (repeatable)")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "",
		"Write gate results in Prometheus text format to this file")
	opts.policy.register(cmd)
	addFormatFlags(cmd)

	return cmd
}

func runCheck(cmd *cobra.Command, root *rootOptions, opts *checkOptions, consolidate bool) error {
	cfg, err := loadConfig(root, ".")
	if err != nil {
		return err
	}
	format, err := outputFormat(cmd, cfg)
	if err != nil {
		return err
	}
	overrides, err := service.ParseThresholdOverrides(opts.thresholds)
	if err != nil {
		return toolError(err)
	}

	metricsFile := cfg.Output.MetricsFile
	if cmd.Flags().Changed("metrics-file") {
		metricsFile = opts.metricsFile
	}

	store := service.NewArtifactStore(cfg.Artifacts.Dir, root.log())
	uc := app.NewCheckUseCase(cfg, store, service.NewOutputFormatter(root.verbose), root.log())
	req := app.CheckRequest{
		Gates:        opts.gates,
		Overrides:    overrides,
		Policy:       opts.policy.merge(cmd, cfg.ExitPolicy()),
		OutputFormat: format,
		OutputWriter: cmd.OutOrStdout(),
		MetricsFile:  metricsFile,
	}

	var outcome *app.CheckOutcome
	if consolidate {
		outcome, err = uc.Consolidate(cmd.Context(), req)
	} else {
		outcome, err = uc.Execute(cmd.Context(), req)
	}
	if err != nil {
		return toolError(err)
	}

	// output already printed
	return exitWith(outcome.Result.ExitCode, "")
}
