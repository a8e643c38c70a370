package analyzer

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ludo-technologies/qgate/domain"
	"github.com/ludo-technologies/qgate/internal/config"
	"github.com/ludo-technologies/qgate/internal/fixer"
	"github.com/ludo-technologies/qgate/internal/parser"
)

// AnalyzerName identifies reports produced by the heuristic analyzer
const AnalyzerName = "qgate-heuristic"

// Violation types
const (
	ViolationGodObject    = "god_object"
	ViolationParameters   = "connascence_of_position"
	ViolationLongFunction = "long_function"
	ViolationMagicLiteral = "connascence_of_meaning"
)

// severityWeights feed the compliance score; low findings are informational
var severityWeights = map[domain.Severity]float64{
	domain.SeverityCritical: 1.0,
	domain.SeverityHigh:     0.5,
	domain.SeverityMedium:   0.1,
}

// ConnascenceAnalyzer approximates the connascence report from syntax
// trees when the real engine is not installed. Add modules, then Report.
type ConnascenceAnalyzer struct {
	limits        config.AnalyzerConfig
	minCompliance float64

	violations    []domain.ConnascenceViolation
	files         int
	functions     int
	godObjects    int
	parseFailures int
}

// NewConnascenceAnalyzer creates an analyzer. minCompliance only sets the
// report's compliant flag.
func NewConnascenceAnalyzer(limits config.AnalyzerConfig, minCompliance float64) *ConnascenceAnalyzer {
	return &ConnascenceAnalyzer{limits: limits, minCompliance: minCompliance}
}

// Add analyzes one parsed module. Modules with syntax errors are counted
// as parse failures and otherwise skipped.
func (a *ConnascenceAnalyzer) Add(mod *parser.Module) {
	a.files++
	if mod.HasErrors {
		a.parseFailures++
		return
	}
	a.functions += len(mod.Functions)

	for _, c := range mod.Classes {
		if len(c.Methods) > a.limits.GodObjectMethods {
			a.godObjects++
			a.add(domain.ConnascenceViolation{
				Type:     ViolationGodObject,
				Severity: domain.SeverityCritical,
				File:     mod.File,
				Line:     c.Location.StartLine,
				Name:     c.Name,
				Message:  fmt.Sprintf("class %s has %d methods (max %d)", c.Name, len(c.Methods), a.limits.GodObjectMethods),
			})
		}
	}

	for _, fn := range mod.Functions {
		if n := len(fn.Params); n > a.limits.MaxParameters {
			a.add(domain.ConnascenceViolation{
				Type:     ViolationParameters,
				Severity: domain.SeverityHigh,
				File:     mod.File,
				Line:     fn.Location.StartLine,
				Name:     fn.QualifiedName(),
				Message:  fmt.Sprintf("%s takes %d parameters (max %d)", fn.QualifiedName(), n, a.limits.MaxParameters),
			})
		}
		if lines := fn.Location.Lines(); lines > a.limits.MaxFunctionLines {
			a.add(domain.ConnascenceViolation{
				Type:     ViolationLongFunction,
				Severity: domain.SeverityMedium,
				File:     mod.File,
				Line:     fn.Location.StartLine,
				Name:     fn.QualifiedName(),
				Message:  fmt.Sprintf("%s is %d lines long (max %d)", fn.QualifiedName(), lines, a.limits.MaxFunctionLines),
			})
		}
	}

	for _, m := range fixer.DetectMagicNumbers(mod, a.limits.AllowedNumbers) {
		a.add(domain.ConnascenceViolation{
			Type:     ViolationMagicLiteral,
			Severity: domain.SeverityMedium,
			File:     mod.File,
			Line:     m.Line,
			Name:     m.Function,
			Message:  fmt.Sprintf("magic literal %s in %s", m.Text, m.Function),
		})
	}
}

// AddParseFailure records a file that could not be read or parsed at all
func (a *ConnascenceAnalyzer) AddParseFailure() {
	a.files++
	a.parseFailures++
}

func (a *ConnascenceAnalyzer) add(v domain.ConnascenceViolation) {
	a.violations = append(a.violations, v)
}

// Report builds the connascence_full.json document. Violations are sorted
// so the output does not depend on the order files were added.
func (a *ConnascenceAnalyzer) Report(now time.Time) *domain.ConnascenceReport {
	violations := make([]domain.ConnascenceViolation, len(a.violations))
	copy(violations, a.violations)
	sort.Slice(violations, func(i, j int) bool {
		vi, vj := violations[i], violations[j]
		if vi.File != vj.File {
			return vi.File < vj.File
		}
		if vi.Line != vj.Line {
			return vi.Line < vj.Line
		}
		return vi.Type < vj.Type
	})

	summary := domain.ConnascenceSummary{
		TotalViolations:   len(violations),
		GodObjects:        a.godObjects,
		FilesAnalyzed:     a.files,
		FunctionsAnalyzed: a.functions,
		ParseFailures:     a.parseFailures,
	}
	var weighted float64
	for _, v := range violations {
		switch v.Severity {
		case domain.SeverityCritical:
			summary.CriticalViolations++
		case domain.SeverityHigh:
			summary.HighViolations++
		case domain.SeverityMedium:
			summary.MediumViolations++
		}
		weighted += severityWeights[v.Severity]
	}

	score := ComplianceScore(weighted, a.functions)
	return &domain.ConnascenceReport{
		Fallback:    true,
		Analyzer:    AnalyzerName,
		GeneratedAt: now.Format(time.RFC3339),
		NASACompliance: domain.NASACompliance{
			Score:     score,
			Compliant: score >= a.minCompliance && summary.CriticalViolations == 0,
		},
		Summary:    summary,
		Violations: violations,
	}
}

// ComplianceScore is max(0, 1 - weighted/max(1, functions)), rounded to 4 places
func ComplianceScore(weighted float64, functions int) float64 {
	score := 1 - weighted/math.Max(1, float64(functions))
	if score < 0 {
		score = 0
	}
	return math.Round(score*10000) / 10000
}
