package main

import (
	"github.com/ludo-technologies/qgate/app"
	"github.com/ludo-technologies/qgate/domain"
	"github.com/ludo-technologies/qgate/service"
	"github.com/spf13/cobra"
)

type analyzeOptions struct {
	include    []string
	exclude    []string
	noArtifact bool
}

func analyzeCmd(root *rootOptions) *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze [path...]",
		Short: "Run the fallback connascence analysis on Python sources",
		Long: `Analyze Python files with the built-in heuristics (god objects,
long parameter lists, magic numbers, oversized functions) and write a
connascence_full.json artifact marked as fallback data.

Use it when the full connascence analyzer is unavailable. Gates fed by
this artifact are reported as degraded.

Examples:
  qgate analyze src/
  qgate analyze --exclude tests --json .`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"."}
			}
			cfg, err := loadConfig(root, args[0])
			if err != nil {
				return err
			}
			format, err := outputFormat(cmd, cfg)
			if err != nil {
				return err
			}

			collect := app.CollectOptions{
				Recursive:        cfg.Analysis.Recursive,
				IncludePatterns:  cfg.Analysis.IncludePatterns,
				ExcludePatterns:  cfg.Analysis.ExcludePatterns,
				RespectGitignore: cfg.Analysis.RespectGitignore,
			}
			if len(opts.include) > 0 {
				collect.IncludePatterns = opts.include
			}
			if len(opts.exclude) > 0 {
				collect.ExcludePatterns = opts.exclude
			}

			pm := service.NewProgressManager(format == domain.OutputFormatText && !root.verbose)
			defer pm.Close()

			store := service.NewArtifactStore(cfg.Artifacts.Dir, root.log())
			uc := app.NewAnalyzeUseCase(cfg, store, app.NewFileHelper(), service.NewOutputFormatter(root.verbose), pm, root.log())
			if _, err := uc.Execute(cmd.Context(), app.AnalyzeRequest{
				Paths:        args,
				Collect:      collect,
				NoArtifact:   opts.noArtifact,
				OutputFormat: format,
				OutputWriter: cmd.OutOrStdout(),
			}); err != nil {
				return toolError(err)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&opts.include, "include", nil, "File patterns to include (default from config)")
	cmd.Flags().StringSliceVar(&opts.exclude, "exclude", nil, "File or directory patterns to exclude")
	cmd.Flags().BoolVar(&opts.noArtifact, "no-artifact", false, "Print the report without writing the artifact")
	addFormatFlags(cmd)

	return cmd
}
