package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ludo-technologies/qgate/domain"
	"github.com/ludo-technologies/qgate/internal/logging"
	"github.com/ludo-technologies/qgate/internal/version"
	"github.com/ludo-technologies/qgate/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ExitError carries the process exit code out of a command
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// rootOptions holds the persistent flags and what PersistentPreRunE builds
type rootOptions struct {
	configPath   string
	artifactsDir string
	verbose      bool
	logger       *zap.Logger
}

func (o *rootOptions) log() *zap.Logger {
	return logging.OrNop(o.logger)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, newRootCmd(), os.Args[1:])
	stop()
	os.Exit(code)
}

// execute runs root with args and maps the result to an exit code
func execute(ctx context.Context, root *cobra.Command, args []string) int {
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return domain.ExitPass
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Message != "" {
			fmt.Fprintf(root.ErrOrStderr(), "Error: %s\n", exitErr.Message)
		}
		return exitErr.Code
	}
	fmt.Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
	return domain.ExitError
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "qgate",
		Short: "qgate - quality gate evaluation for CI pipelines",
		Long: `qgate evaluates analysis artifacts against configurable quality gates,
consolidates them into a single report and publishes the verdict.

Exit codes:
  0 - All blocking gates passed (or advisory mode)
  1 - A blocking gate failed
  2 - Tool error (bad configuration, unwritable report, ...)`,
		Version:       version.GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(opts.verbose)
			if err != nil {
				return &ExitError{Code: domain.ExitError, Message: err.Error()}
			}
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"Path to config file (default: discovered qgate.yaml)")
	rootCmd.PersistentFlags().StringVar(&opts.artifactsDir, "artifacts-dir", "",
		"Artifacts directory (overrides artifacts.dir)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false,
		"Verbose output and debug logging")

	rootCmd.AddCommand(checkCmd(opts))
	rootCmd.AddCommand(consolidateCmd(opts))
	rootCmd.AddCommand(scanCmd(opts))
	rootCmd.AddCommand(meceCmd(opts))
	rootCmd.AddCommand(analyzeCmd(opts))
	rootCmd.AddCommand(fixCmd(opts))
	rootCmd.AddCommand(validateWorkflowCmd(opts))
	rootCmd.AddCommand(compareCmd(opts))
	rootCmd.AddCommand(publishCmd(opts))
	rootCmd.AddCommand(mockGitHubCmd(opts))
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func versionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			full, _ := cmd.Flags().GetBool("full")
			asJSON, _ := cmd.Flags().GetBool("json")
			switch {
			case asJSON:
				return toolError(service.WriteJSON(cmd.OutOrStdout(), version.Get()))
			case full:
				fmt.Fprintln(cmd.OutOrStdout(), version.GetFullVersion())
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "qgate version %s\n", version.GetVersion())
			}
			return nil
		},
	}

	cmd.Flags().Bool("full", false, "Show detailed version information")
	cmd.Flags().Bool("json", false, "Print version information as JSON")
	return cmd
}
