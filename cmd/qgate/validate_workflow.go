package main

import (
	"path/filepath"
	"sort"

	"github.com/ludo-technologies/qgate/domain"
	"github.com/ludo-technologies/qgate/service"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

const defaultWorkflowDir = ".github/workflows"

func validateWorkflowCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate-workflow [file...]",
		Short: "Validate GitHub Actions workflow files",
		Long: `Check GitHub Actions workflows for the structure the runner needs:
name, on and jobs at the top level, runs-on and steps (or uses) for every
job, and run or uses for every step. All problems are reported with line
numbers.

Without arguments every .yml and .yaml file under .github/workflows is
checked. Exits 1 when any file is invalid.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root, ".")
			if err != nil {
				return err
			}
			format, err := outputFormat(cmd, cfg)
			if err != nil {
				return err
			}

			fsys := afero.NewOsFs()
			files := args
			if len(files) == 0 {
				files, err = discoverWorkflows(fsys, defaultWorkflowDir)
				if err != nil {
					return toolError(err)
				}
				if len(files) == 0 {
					return exitWith(domain.ExitError, "no workflow files found in %s", defaultWorkflowDir)
				}
			}

			validator := service.NewWorkflowValidator(fsys)
			results := make([]domain.WorkflowValidation, 0, len(files))
			invalid := 0
			for _, f := range files {
				res, err := validator.ValidateFile(f)
				if err != nil {
					return toolError(err)
				}
				if !res.Valid {
					invalid++
				}
				results = append(results, res)
			}

			if err := service.NewOutputFormatter(root.verbose).WriteWorkflows(results, format, cmd.OutOrStdout()); err != nil {
				return toolError(err)
			}
			if invalid > 0 {
				return exitWith(domain.ExitFail, "")
			}
			return nil
		},
	}

	addFormatFlags(cmd)
	return cmd
}

func discoverWorkflows(fsys afero.Fs, dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.yml", "*.yaml"} {
		matches, err := afero.Glob(fsys, filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}
