package service

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/ludo-technologies/qgate/domain"
	"gopkg.in/yaml.v3"
)

// OutputFormatterImpl renders command results as text, JSON or YAML
type OutputFormatterImpl struct {
	// Verbose adds per-item detail to text output
	Verbose bool
}

// NewOutputFormatter creates a new output formatter
func NewOutputFormatter(verbose bool) *OutputFormatterImpl {
	return &OutputFormatterImpl{Verbose: verbose}
}

// WriteJSON writes data as JSON to the writer
func WriteJSON(writer io.Writer, data interface{}) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// WriteYAML writes data as YAML to the writer
func WriteYAML(writer io.Writer, data interface{}) error {
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return err
	}
	return encoder.Close()
}

// writeStructured handles the machine formats shared by every result type
func writeStructured(data interface{}, format domain.OutputFormat, writer io.Writer) (bool, error) {
	var err error
	switch format {
	case domain.OutputFormatJSON:
		err = WriteJSON(writer, data)
	case domain.OutputFormatYAML:
		err = WriteYAML(writer, data)
	case domain.OutputFormatText, "":
		return false, nil
	default:
		return true, domain.NewUnsupportedFormatError(string(format))
	}
	if err != nil {
		return true, domain.NewOutputError("failed to encode output", err)
	}
	return true, nil
}

// WriteCheck writes a gate run verdict
func (f *OutputFormatterImpl) WriteCheck(result *domain.CheckResult, format domain.OutputFormat, writer io.Writer) error {
	if done, err := writeStructured(result, format, writer); done {
		return err
	}

	switch {
	case result.Passed:
		fmt.Fprintln(writer, "PASS: All quality gates passed")
	case result.ExitCode == domain.ExitPass:
		fmt.Fprintln(writer, "WARN: Quality gates failed (not blocking)")
	default:
		fmt.Fprintln(writer, "FAIL: Quality gates failed")
	}

	for _, g := range result.Gates {
		if g.Passed && !f.Verbose {
			continue
		}
		fmt.Fprintf(writer, "  [%s] %s\n", gateTag(g, result.Policy), g.Message)
	}

	if f.Verbose {
		s := result.Summary
		fmt.Fprintf(writer, "\nSummary:\n")
		fmt.Fprintf(writer, "  Gates: %d (passed %d, failed %d)\n", s.TotalGates, s.PassedGates, s.FailedGates)
		fmt.Fprintf(writer, "  Degraded: %d\n", s.DegradedGates)
		fmt.Fprintf(writer, "  Unavailable: %d\n", s.UnavailableGates)
		fmt.Fprintf(writer, "  Blocking: %d\n", s.BlockingGates)
		fmt.Fprintf(writer, "  Duration: %dms\n", result.Duration)
	}
	return nil
}

func gateTag(g domain.GateResult, policy domain.ExitPolicy) string {
	switch {
	case g.Passed && g.Outcome == domain.OutcomeOK:
		return "PASS"
	case g.Passed:
		return "PASS*"
	case g.Outcome == domain.OutcomeUnavailable:
		return "N/A"
	case policy.Blocks(g):
		return "FAIL"
	default:
		return "WARN"
	}
}

// WriteReport writes a consolidated report
func (f *OutputFormatterImpl) WriteReport(report *domain.ConsolidatedReport, format domain.OutputFormat, writer io.Writer) error {
	if done, err := writeStructured(report, format, writer); done {
		return err
	}

	fmt.Fprintf(writer, "\n=== Quality Gates Report ===\n\n")
	fmt.Fprintf(writer, "Run: %s\n", report.RunID)
	fmt.Fprintf(writer, "Generated: %s\n", report.GeneratedAt)
	fmt.Fprintf(writer, "Version: %s\n\n", report.Version)

	fmt.Fprintf(writer, "Average quality: %.2f (%d analyses available)\n\n",
		report.OverallScores.AverageQuality, report.OverallScores.AnalysesAvailable)

	keys := make([]string, 0, len(report.Analyses))
	for k := range report.Analyses {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(writer, "Analyses:\n")
	for _, k := range keys {
		a := report.Analyses[k]
		if a.Status == domain.OutcomeUnavailable {
			fmt.Fprintf(writer, "  %-14s n/a (%s)\n", k, a.Reason)
			continue
		}
		line := fmt.Sprintf("  %-14s %.2f", k, a.Score)
		if a.Status == domain.OutcomeDegraded {
			line += fmt.Sprintf(" [degraded: %s]", a.Reason)
		}
		fmt.Fprintln(writer, line)
	}

	if len(report.CriticalIssues) > 0 {
		fmt.Fprintf(writer, "\nCritical issues:\n")
		for _, issue := range report.CriticalIssues {
			fmt.Fprintf(writer, "  - %s\n", issue)
		}
	}
	return nil
}

// WriteFix writes the result of a source rewriting pass
func (f *OutputFormatterImpl) WriteFix(response *domain.FixResponse, format domain.OutputFormat, writer io.Writer) error {
	if done, err := writeStructured(response, format, writer); done {
		return err
	}

	mode := "applied"
	if response.DryRun {
		mode = "dry run"
	}
	fmt.Fprintf(writer, "%s fix (%s): %d files scanned, %d changed, %d substitutions\n",
		response.Kind, mode, response.FilesScanned, response.FilesChanged, response.Substitutions)
	if response.FilesUnfixed > 0 {
		fmt.Fprintf(writer, "  %d files could not be fixed\n", response.FilesUnfixed)
	}

	for _, c := range response.Changes {
		if c.Status == domain.FixStatusUnchanged && !f.Verbose {
			continue
		}
		fmt.Fprintf(writer, "  %s: %s", c.Path, c.Status)
		if c.Substitutions > 0 {
			fmt.Fprintf(writer, " (%d)", c.Substitutions)
		}
		if c.Reason != "" {
			fmt.Fprintf(writer, " - %s", c.Reason)
		}
		fmt.Fprintln(writer)
	}

	for _, finding := range response.Findings {
		fmt.Fprintf(writer, "  %s:%d:%d: %s: %s\n", finding.Path, finding.Line, finding.Column, finding.Rule, finding.Message)
	}
	return nil
}

// WriteComparison writes a report comparison
func (f *OutputFormatterImpl) WriteComparison(result *domain.ComparisonResult, format domain.OutputFormat, writer io.Writer) error {
	if done, err := writeStructured(result, format, writer); done {
		return err
	}

	verdict := "OK"
	if result.Regression {
		verdict = "REGRESSION"
	}
	fmt.Fprintf(writer, "%s: %s\n", verdict, result.Message)
	fmt.Fprintf(writer, "  Current: %.4f  Previous: %.4f  Delta: %+.4f\n",
		result.CurrentQuality, result.PreviousQuality, result.Delta)
	for _, issue := range result.NewIssues {
		fmt.Fprintf(writer, "  + %s\n", issue)
	}
	for _, issue := range result.ResolvedIssues {
		fmt.Fprintf(writer, "  - %s\n", issue)
	}
	return nil
}

// WriteWorkflows writes workflow validation results
func (f *OutputFormatterImpl) WriteWorkflows(results []domain.WorkflowValidation, format domain.OutputFormat, writer io.Writer) error {
	if done, err := writeStructured(results, format, writer); done {
		return err
	}

	for _, r := range results {
		if r.Valid {
			fmt.Fprintf(writer, "VALID: %s (%d jobs)\n", r.File, r.Jobs)
			continue
		}
		fmt.Fprintf(writer, "INVALID: %s\n", r.File)
		for _, p := range r.Problems {
			if p.Path != "" {
				fmt.Fprintf(writer, "  line %d: %s: %s\n", p.Line, p.Path, p.Message)
			} else {
				fmt.Fprintf(writer, "  line %d: %s\n", p.Line, p.Message)
			}
		}
	}
	return nil
}

// WriteScan writes a security scan summary
func (f *OutputFormatterImpl) WriteScan(analysis *domain.SASTAnalysis, format domain.OutputFormat, writer io.Writer) error {
	if done, err := writeStructured(analysis, format, writer); done {
		return err
	}

	s := analysis.Summary
	fmt.Fprintf(writer, "Security scan: %d critical, %d high, %d medium, %d low\n",
		s.CriticalFindings, s.HighFindings, s.MediumFindings, s.LowFindings)
	fmt.Fprintf(writer, "  Tools: %d run, %d skipped (coverage %.0f%%)\n", s.ToolsRun, s.ToolsSkipped, s.Coverage*100)
	for _, t := range analysis.Tools {
		fmt.Fprintf(writer, "  %-10s %s", t.Tool, t.Status)
		if t.Status == domain.ToolStatusOK {
			fmt.Fprintf(writer, " (%d findings)", t.Findings.Total())
		} else if t.Reason != "" {
			fmt.Fprintf(writer, " - %s", t.Reason)
		}
		fmt.Fprintln(writer)
	}
	return nil
}

// WriteConnascence writes the fallback analyzer result
func (f *OutputFormatterImpl) WriteConnascence(report *domain.ConnascenceReport, format domain.OutputFormat, writer io.Writer) error {
	if done, err := writeStructured(report, format, writer); done {
		return err
	}

	s := report.Summary
	fmt.Fprintf(writer, "Fallback analysis: %d files, %d functions\n", s.FilesAnalyzed, s.FunctionsAnalyzed)
	fmt.Fprintf(writer, "  NASA compliance score: %.2f\n", report.NASACompliance.Score)
	fmt.Fprintf(writer, "  Violations: %d (critical %d, high %d, medium %d)\n",
		s.TotalViolations, s.CriticalViolations, s.HighViolations, s.MediumViolations)
	fmt.Fprintf(writer, "  God objects: %d\n", s.GodObjects)
	if s.ParseFailures > 0 {
		fmt.Fprintf(writer, "  Parse failures: %d\n", s.ParseFailures)
	}
	if f.Verbose {
		for _, v := range report.Violations {
			fmt.Fprintf(writer, "  [%s] %s:%d: %s\n", v.Severity, v.File, v.Line, v.Message)
		}
	}
	return nil
}

// WriteMarkdown renders a consolidated report as a pull request comment
func (f *OutputFormatterImpl) WriteMarkdown(report *domain.ConsolidatedReport, writer io.Writer) error {
	verdict := ":white_check_mark: All quality gates passed"
	if !report.Passed {
		verdict = ":x: Quality gates failed"
	}
	fmt.Fprintf(writer, "## Quality Gates\n\n%s\n\n", verdict)
	fmt.Fprintf(writer, "**Average quality:** %.2f (%d analyses available)\n\n",
		report.OverallScores.AverageQuality, report.OverallScores.AnalysesAvailable)

	if len(report.Gates) > 0 {
		fmt.Fprintf(writer, "| Gate | Result | Detail |\n|---|---|---|\n")
		for _, g := range report.Gates {
			fmt.Fprintf(writer, "| %s | %s | %s |\n", g.Name, gateTag(g, domain.ExitPolicy{}), g.Message)
		}
		fmt.Fprintln(writer)
	}

	if len(report.CriticalIssues) > 0 {
		fmt.Fprintf(writer, "### Critical issues\n\n")
		for _, issue := range report.CriticalIssues {
			fmt.Fprintf(writer, "- %s\n", issue)
		}
		fmt.Fprintln(writer)
	}

	_, err := fmt.Fprintf(writer, "<sub>qgate %s, run %s</sub>\n", report.Version, report.RunID)
	return err
}
