package main

import (
	"errors"
	"fmt"

	"github.com/ludo-technologies/qgate/domain"
	"github.com/ludo-technologies/qgate/internal/config"
	"github.com/ludo-technologies/qgate/service"
	"github.com/spf13/cobra"
)

// loadConfig loads the configuration for target and applies root overrides
func loadConfig(opts *rootOptions, target string) (*config.Config, error) {
	cfg, err := service.NewConfigurationLoader(opts.log()).LoadConfig(opts.configPath, target)
	if err != nil {
		return nil, toolError(err)
	}
	if opts.artifactsDir != "" {
		cfg.Artifacts.Dir = opts.artifactsDir
	}
	return cfg, nil
}

// outputFormat resolves --format/--json against the configured default
func outputFormat(cmd *cobra.Command, cfg *config.Config) (domain.OutputFormat, error) {
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return domain.OutputFormatJSON, nil
	}
	name := cfg.Output.Format
	if cmd.Flags().Changed("format") {
		name, _ = cmd.Flags().GetString("format")
	}
	format, err := domain.ParseOutputFormat(name)
	if err != nil {
		return "", &ExitError{Code: domain.ExitError, Message: err.Error()}
	}
	return format, nil
}

func addFormatFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", "text", "Output format: text, json, yaml")
	cmd.Flags().Bool("json", false, "Shorthand for --format json")
}

// policyFlags binds the exit policy flags of check-like commands
type policyFlags struct {
	failOnDegraded    bool
	failOnUnavailable bool
	advisory          bool
}

func (p *policyFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&p.failOnDegraded, "fail-on-degraded", false,
		"Fail when a gate computed from fallback or partial data fails")
	cmd.Flags().BoolVar(&p.failOnUnavailable, "fail-on-unavailable", false,
		"Fail when a gate's artifact is missing or malformed")
	cmd.Flags().BoolVar(&p.advisory, "advisory", false,
		"Report failures but always exit 0")
}

// merge applies only the flags the user set over the configured policy
func (p *policyFlags) merge(cmd *cobra.Command, base domain.ExitPolicy) domain.ExitPolicy {
	var o service.PolicyOverrides
	if cmd.Flags().Changed("fail-on-degraded") {
		o.FailOnDegraded = &p.failOnDegraded
	}
	if cmd.Flags().Changed("fail-on-unavailable") {
		o.FailOnUnavailable = &p.failOnUnavailable
	}
	if cmd.Flags().Changed("advisory") {
		o.Advisory = &p.advisory
	}
	return service.MergePolicy(base, o)
}

// toolError wraps err as exit code 2 unless it already carries a code
func toolError(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	return &ExitError{Code: domain.ExitError, Message: err.Error()}
}

// exitWith returns nil for code 0 and an ExitError otherwise
func exitWith(code int, format string, args ...interface{}) error {
	if code == domain.ExitPass {
		return nil
	}
	msg := ""
	if format != "" {
		msg = fmt.Sprintf(format, args...)
	}
	return &ExitError{Code: code, Message: msg}
}
