package main

import (
	"fmt"

	"github.com/ludo-technologies/qgate/app"
	"github.com/ludo-technologies/qgate/domain"
	"github.com/ludo-technologies/qgate/service"
	"github.com/spf13/cobra"
)

type fixOptions struct {
	dryRun  bool
	detect  bool
	include []string
	exclude []string
}

func fixCmd(root *rootOptions) *cobra.Command {
	opts := &fixOptions{}

	cmd := &cobra.Command{
		Use:   "fix <unicode|naming|magic|syntax> [path...]",
		Short: "Rewrite Python sources to remove common quality problems",
		Long: `Apply one rewriting pass to Python files:

  unicode  replace non-ASCII symbols with ASCII equivalents
  naming   rename camelCase functions and variables to snake_case
  magic    replace configured magic numbers with named constants
  syntax   repair common syntax errors (missing colons, brackets, quotes)

Files are written only when the result still parses. Running a pass twice
changes nothing the second time.

Exit codes:
  0 - Done (or nothing found with --detect)
  1 - --detect found problems, or some files could not be fixed
  2 - Tool error

Examples:
  qgate fix unicode --dry-run src/
  qgate fix magic --detect .
  qgate fix syntax broken.py`,
		Args:      cobra.MinimumNArgs(1),
		ValidArgs: []string{string(domain.FixUnicode), string(domain.FixNaming), string(domain.FixMagic), string(domain.FixSyntax)},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := domain.FixKind(args[0])
			paths := args[1:]
			if len(paths) == 0 {
				paths = []string{"."}
			}

			cfg, err := loadConfig(root, paths[0])
			if err != nil {
				return err
			}
			format, err := outputFormat(cmd, cfg)
			if err != nil {
				return err
			}

			pm := service.NewProgressManager(format == domain.OutputFormatText && !root.verbose)
			defer pm.Close()

			uc := app.NewFixUseCase(cfg, app.NewFileHelper(), service.NewOutputFormatter(root.verbose), pm, root.log())
			resp, err := uc.Execute(cmd.Context(), domain.FixRequest{
				Kind:            kind,
				Paths:           paths,
				DryRun:          opts.dryRun,
				DetectOnly:      opts.detect,
				IncludePatterns: opts.include,
				ExcludePatterns: opts.exclude,
			}, cmd.OutOrStdout(), format)
			if err != nil {
				return toolError(err)
			}

			if opts.detect && (len(resp.Findings) > 0 || resp.FilesChanged > 0) {
				return exitWith(domain.ExitFail, "")
			}
			if resp.FilesUnfixed > 0 {
				return exitWith(domain.ExitFail, fmt.Sprintf("%d file(s) could not be fixed", resp.FilesUnfixed))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&opts.dryRun, "dry-run", "n", false, "Report changes without writing files")
	cmd.Flags().BoolVar(&opts.detect, "detect", false, "Only report problems; exit 1 when any are found")
	cmd.Flags().StringSliceVar(&opts.include, "include", nil, "File patterns to include (default from config)")
	cmd.Flags().StringSliceVar(&opts.exclude, "exclude", nil, "File or directory patterns to exclude")
	addFormatFlags(cmd)

	return cmd
}
