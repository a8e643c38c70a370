package service

import (
	"fmt"

	"github.com/ludo-technologies/qgate/domain"
	"github.com/ludo-technologies/qgate/internal/config"
)

// GateCheck is one uniformly evaluated quality gate
type GateCheck struct {
	Name      string
	Label     string
	Artifact  string
	Extractor MetricExtractor
	Threshold domain.GateThreshold
	Format    domain.MetricFormat
}

// BuildStandardChecks turns the gate catalog and a frozen threshold set
// into evaluable checks, in catalog order
func BuildStandardChecks(thresholds config.Thresholds) []GateCheck {
	defs := config.GateDefinitions()
	checks := make([]GateCheck, 0, len(defs))
	for _, d := range defs {
		th, ok := thresholds.Get(d.Key)
		if !ok {
			continue
		}
		checks = append(checks, GateCheck{
			Name:      d.Name,
			Label:     d.Label,
			Artifact:  d.Artifact,
			Extractor: NewExtractor(d.Paths),
			Threshold: th,
			Format:    d.Format,
		})
	}
	return checks
}

// SelectChecks keeps the checks whose name is in names; empty names keeps all
func SelectChecks(checks []GateCheck, names []string) []GateCheck {
	if len(names) == 0 {
		return checks
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	selected := make([]GateCheck, 0, len(checks))
	for _, c := range checks {
		if want[c.Name] {
			selected = append(selected, c)
		}
	}
	return selected
}

// Evaluate applies a check to an already loaded artifact. It is pure:
// the same inputs always produce the same result.
func Evaluate(check GateCheck, artifact domain.ArtifactResult) domain.GateResult {
	result := domain.GateResult{
		Name:      check.Name,
		Artifact:  check.Artifact,
		Threshold: check.Threshold.Value,
		Direction: check.Threshold.Direction,
		Outcome:   domain.OutcomeOK,
	}

	if !artifact.Available() {
		result.Passed = false
		result.Outcome = domain.OutcomeUnavailable
		result.Reason = artifact.Reason
		result.Message = fmt.Sprintf("%s: data not available (%s)", check.Label, artifact.Reason)
		return result
	}

	metric, err := check.Extractor.Extract(artifact.Data)
	if err != nil {
		metric = 0
		result.Outcome = domain.OutcomeDegraded
		result.Reason = err.Error()
	} else if artifact.Status == domain.OutcomeDegraded {
		result.Outcome = domain.OutcomeDegraded
		result.Reason = artifact.Reason
	}

	result.Metric = metric
	result.Passed = check.Threshold.Satisfied(metric)
	result.Message = FormatGateMessage(check.Label, metric, check.Threshold, check.Format, result.Passed)
	if result.Outcome == domain.OutcomeDegraded {
		result.Message += fmt.Sprintf(" (degraded: %s)", result.Reason)
	}
	return result
}

// FormatGateMessage renders "Label: metric op threshold"
func FormatGateMessage(label string, metric float64, th domain.GateThreshold, format domain.MetricFormat, passed bool) string {
	passOp, failOp := th.Operators()
	op := failOp
	if passed {
		op = passOp
	}
	return fmt.Sprintf("%s: %s %s %s", label,
		domain.FormatMetric(metric, format), op, domain.FormatMetric(th.Value, format))
}

// GateEvaluator evaluates checks against artifacts from a loader
type GateEvaluator struct {
	loader domain.ArtifactLoader
}

// NewGateEvaluator creates an evaluator reading through loader
func NewGateEvaluator(loader domain.ArtifactLoader) *GateEvaluator {
	return &GateEvaluator{loader: loader}
}

// EvaluateAll loads each referenced artifact once and evaluates every check
func (e *GateEvaluator) EvaluateAll(checks []GateCheck) []domain.GateResult {
	cache := make(map[string]domain.ArtifactResult)
	results := make([]domain.GateResult, 0, len(checks))
	for _, c := range checks {
		artifact, ok := cache[c.Artifact]
		if !ok {
			artifact = e.loader.Load(c.Artifact)
			cache[c.Artifact] = artifact
		}
		results = append(results, Evaluate(c, artifact))
	}
	return results
}

// CheckNASACompliance evaluates the NASA compliance score and then the
// critical violation count; the first failure message wins.
func CheckNASACompliance(artifact domain.ArtifactResult, thresholds config.Thresholds) (bool, string) {
	var checks []GateCheck
	for _, c := range BuildStandardChecks(thresholds) {
		if c.Name == "nasa_compliance" || c.Name == "nasa_critical" {
			checks = append(checks, c)
		}
	}

	var last domain.GateResult
	for _, c := range checks {
		last = Evaluate(c, artifact)
		if !last.Passed {
			return false, last.Message
		}
	}
	if len(checks) == 0 {
		return false, "NASA compliance: no thresholds configured"
	}
	return true, Evaluate(checks[0], artifact).Message
}
