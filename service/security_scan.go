package service

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/ludo-technologies/qgate/domain"
	"github.com/ludo-technologies/qgate/internal/logging"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// FindingsParser turns raw tool output into severity counts
type FindingsParser func(output []byte) (domain.SeverityCounts, error)

// DefaultFindingsParsers maps known scanners to their output parsers
func DefaultFindingsParsers() map[string]FindingsParser {
	return map[string]FindingsParser{
		"bandit":    ParseBanditOutput,
		"semgrep":   ParseSemgrepOutput,
		"safety":    ParseSafetyOutput,
		"pip-audit": ParsePipAuditOutput,
	}
}

// ParseBanditOutput counts results[].issue_severity
func ParseBanditOutput(output []byte) (domain.SeverityCounts, error) {
	var doc struct {
		Results []struct {
			IssueSeverity string `json:"issue_severity"`
		} `json:"results"`
	}
	if err := json.Unmarshal(output, &doc); err != nil {
		return domain.SeverityCounts{}, fmt.Errorf("bandit output: %w", err)
	}
	var counts domain.SeverityCounts
	for _, r := range doc.Results {
		countSeverity(&counts, r.IssueSeverity)
	}
	return counts, nil
}

// ParseSemgrepOutput counts results[].extra.severity (ERROR/WARNING/INFO)
func ParseSemgrepOutput(output []byte) (domain.SeverityCounts, error) {
	var doc struct {
		Results []struct {
			Extra struct {
				Severity string `json:"severity"`
			} `json:"extra"`
		} `json:"results"`
	}
	if err := json.Unmarshal(output, &doc); err != nil {
		return domain.SeverityCounts{}, fmt.Errorf("semgrep output: %w", err)
	}
	var counts domain.SeverityCounts
	for _, r := range doc.Results {
		switch strings.ToUpper(r.Extra.Severity) {
		case "ERROR":
			counts.High++
		case "WARNING":
			counts.Medium++
		case "INFO":
			counts.Low++
		default:
			countSeverity(&counts, r.Extra.Severity)
		}
	}
	return counts, nil
}

// ParseSafetyOutput counts vulnerabilities as high findings. Both the
// legacy list format and the object with a "vulnerabilities" list are read.
func ParseSafetyOutput(output []byte) (domain.SeverityCounts, error) {
	var raw interface{}
	if err := json.Unmarshal(output, &raw); err != nil {
		return domain.SeverityCounts{}, fmt.Errorf("safety output: %w", err)
	}
	switch doc := raw.(type) {
	case []interface{}:
		return domain.SeverityCounts{High: len(doc)}, nil
	case map[string]interface{}:
		return domain.SeverityCounts{High: LookupLen(doc, "vulnerabilities")}, nil
	}
	return domain.SeverityCounts{}, fmt.Errorf("safety output: unexpected %s", jsonKind(raw))
}

// ParsePipAuditOutput counts dependencies[].vulns entries as high findings
func ParsePipAuditOutput(output []byte) (domain.SeverityCounts, error) {
	var raw interface{}
	if err := json.Unmarshal(output, &raw); err != nil {
		return domain.SeverityCounts{}, fmt.Errorf("pip-audit output: %w", err)
	}

	var deps []interface{}
	switch doc := raw.(type) {
	case []interface{}:
		deps = doc
	case map[string]interface{}:
		deps = cast.ToSlice(doc["dependencies"])
	default:
		return domain.SeverityCounts{}, fmt.Errorf("pip-audit output: unexpected %s", jsonKind(raw))
	}

	var counts domain.SeverityCounts
	for _, d := range deps {
		if m, ok := d.(map[string]interface{}); ok {
			counts.High += LookupLen(m, "vulns")
		}
	}
	return counts, nil
}

func countSeverity(counts *domain.SeverityCounts, severity string) {
	switch strings.ToLower(severity) {
	case "critical":
		counts.Critical++
	case "high", "error":
		counts.High++
	case "medium", "moderate", "warning":
		counts.Medium++
	default:
		counts.Low++
	}
}

// SecurityScanner runs the configured scanners and writes the SAST artifact
type SecurityScanner struct {
	runner   *ToolRunner
	executor *ParallelExecutorImpl
	store    *ArtifactStore
	parsers  map[string]FindingsParser
	logger   *zap.Logger
	now      func() time.Time
}

// NewSecurityScanner wires a scanner over runner, executor and store
func NewSecurityScanner(runner *ToolRunner, executor *ParallelExecutorImpl, store *ArtifactStore, logger *zap.Logger) *SecurityScanner {
	return &SecurityScanner{
		runner:   runner,
		executor: executor,
		store:    store,
		parsers:  DefaultFindingsParsers(),
		logger:   logging.OrNop(logger),
		now:      time.Now,
	}
}

// Scan runs every tool concurrently, stores raw outputs and writes
// security/sast_analysis.json. Tool failures are recorded, not returned.
func (s *SecurityScanner) Scan(ctx context.Context, specs []domain.ToolSpec) (*domain.SASTAnalysis, error) {
	runs := s.runner.RunAll(ctx, s.executor, specs)

	for i := range runs {
		run := &runs[i]
		if run.Status != domain.ToolStatusOK {
			continue
		}
		if len(run.Output) > 0 {
			name := path.Join(path.Dir(domain.ArtifactSAST), run.Tool+".json")
			outPath, err := s.store.WriteRaw(name, run.Output)
			if err != nil {
				return nil, err
			}
			run.OutputPath = outPath
		}
		parse, ok := s.parsers[run.Tool]
		if !ok {
			continue
		}
		counts, err := parse(run.Output)
		if err != nil {
			run.Status = domain.ToolStatusFailed
			run.Reason = err.Error()
			s.logger.Warn("tool output unreadable", zap.String("tool", run.Tool), zap.Error(err))
			continue
		}
		run.Findings = counts
	}

	analysis := SummarizeScan(runs, s.now())
	if _, err := s.store.WriteJSON(domain.ArtifactSAST, analysis); err != nil {
		return nil, err
	}
	return analysis, nil
}

// SummarizeScan aggregates tool runs into the SAST artifact. Coverage is
// the share of tools that produced usable output.
func SummarizeScan(runs []domain.ToolRun, now time.Time) *domain.SASTAnalysis {
	var total domain.SeverityCounts
	summary := domain.SecuritySummary{}
	for _, run := range runs {
		if run.Status == domain.ToolStatusOK {
			summary.ToolsRun++
			total.Add(run.Findings)
		} else {
			summary.ToolsSkipped++
		}
	}
	summary.CriticalFindings = total.Critical
	summary.HighFindings = total.High
	summary.MediumFindings = total.Medium
	summary.LowFindings = total.Low
	if len(runs) > 0 {
		summary.Coverage = round4(float64(summary.ToolsRun) / float64(len(runs)))
	}

	if runs == nil {
		runs = []domain.ToolRun{}
	}
	return &domain.SASTAnalysis{
		GeneratedAt:     now.Format(time.RFC3339),
		Summary:         summary,
		SecurityScore:   round4(SecurityScore(total.Critical, total.High)),
		ReducedCoverage: summary.Coverage < 1,
		Tools:           runs,
	}
}
