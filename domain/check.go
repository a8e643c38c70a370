package domain

import (
	"fmt"
	"math"
	"strconv"
)

// Direction is the comparison direction of a threshold
type Direction string

const (
	// DirectionMin passes when the metric is >= the threshold
	DirectionMin Direction = "min"
	// DirectionMax passes when the metric is <= the threshold
	DirectionMax Direction = "max"
)

// ThresholdSource records where a threshold value came from
type ThresholdSource string

const (
	SourceDefault ThresholdSource = "default"
	SourceConfig  ThresholdSource = "config"
	SourceEnv     ThresholdSource = "env"
	SourceFlag    ThresholdSource = "flag"
)

// MetricFormat controls how a metric is rendered in gate messages
type MetricFormat string

const (
	// FormatPercent renders ratios in [0,1] as percentages with two decimals
	FormatPercent MetricFormat = "percent"
	// FormatCount renders integers
	FormatCount MetricFormat = "count"
	// FormatDecimal renders floats with two decimals
	FormatDecimal MetricFormat = "decimal"
)

// Outcome classifies the quality of the data behind a gate result
type Outcome string

const (
	// OutcomeOK means the metric was read from a complete artifact
	OutcomeOK Outcome = "ok"
	// OutcomeDegraded means the artifact was a fallback or the metric was missing
	OutcomeDegraded Outcome = "degraded"
	// OutcomeUnavailable means the artifact could not be loaded
	OutcomeUnavailable Outcome = "unavailable"
)

// GateThreshold is a named numeric bound, immutable for a run
type GateThreshold struct {
	Name      string          `json:"name" yaml:"name"`
	Value     float64         `json:"value" yaml:"value"`
	Direction Direction       `json:"direction" yaml:"direction"`
	Source    ThresholdSource `json:"source" yaml:"source"`
	EnvVar    string          `json:"env_var,omitempty" yaml:"env_var,omitempty"`
}

// Satisfied reports whether metric satisfies the threshold in its direction
func (t GateThreshold) Satisfied(metric float64) bool {
	if t.Direction == DirectionMax {
		return metric <= t.Value
	}
	return metric >= t.Value
}

// Operators returns the (passing, failing) comparison symbols for messages
func (t GateThreshold) Operators() (string, string) {
	if t.Direction == DirectionMax {
		return "<=", ">"
	}
	return ">=", "<"
}

// FormatMetric renders v according to the format
func FormatMetric(v float64, format MetricFormat) string {
	switch format {
	case FormatPercent:
		return fmt.Sprintf("%.2f%%", v*100)
	case FormatCount:
		if v == math.Trunc(v) {
			return fmt.Sprintf("%d", int64(v))
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

// GateResult is the outcome of evaluating a single gate
type GateResult struct {
	Name      string    `json:"name" yaml:"name"`
	Passed    bool      `json:"passed" yaml:"passed"`
	Message   string    `json:"message" yaml:"message"`
	Outcome   Outcome   `json:"outcome" yaml:"outcome"`
	Reason    string    `json:"reason,omitempty" yaml:"reason,omitempty"`
	Artifact  string    `json:"artifact" yaml:"artifact"`
	Metric    float64   `json:"metric" yaml:"metric"`
	Threshold float64   `json:"threshold" yaml:"threshold"`
	Direction Direction `json:"direction" yaml:"direction"`
}

// ExitPolicy decides, at the top level, which gate results block the build
type ExitPolicy struct {
	FailOnDegraded    bool `json:"fail_on_degraded" yaml:"fail_on_degraded"`
	FailOnUnavailable bool `json:"fail_on_unavailable" yaml:"fail_on_unavailable"`
	// Advisory never blocks: the verdict is reported but the exit code is 0
	Advisory bool `json:"advisory" yaml:"advisory"`
}

// Exit codes shared by all commands
const (
	ExitPass  = 0
	ExitFail  = 1
	ExitError = 2
)

// Blocks reports whether r should fail the process under this policy
func (p ExitPolicy) Blocks(r GateResult) bool {
	if r.Passed {
		return false
	}
	switch r.Outcome {
	case OutcomeDegraded:
		return p.FailOnDegraded
	case OutcomeUnavailable:
		return p.FailOnUnavailable
	default:
		return true
	}
}

// ExitCode computes the process exit code for a set of gate results
func (p ExitPolicy) ExitCode(results []GateResult) int {
	if p.Advisory {
		return ExitPass
	}
	for _, r := range results {
		if p.Blocks(r) {
			return ExitFail
		}
	}
	return ExitPass
}

// CheckSummary provides aggregate statistics over gate results
type CheckSummary struct {
	TotalGates       int `json:"total_gates" yaml:"total_gates"`
	PassedGates      int `json:"passed_gates" yaml:"passed_gates"`
	FailedGates      int `json:"failed_gates" yaml:"failed_gates"`
	DegradedGates    int `json:"degraded_gates" yaml:"degraded_gates"`
	UnavailableGates int `json:"unavailable_gates" yaml:"unavailable_gates"`
	BlockingGates    int `json:"blocking_gates" yaml:"blocking_gates"`
}

// Summarize builds a CheckSummary for results under policy p
func Summarize(results []GateResult, p ExitPolicy) CheckSummary {
	s := CheckSummary{TotalGates: len(results)}
	for _, r := range results {
		if r.Passed {
			s.PassedGates++
		} else {
			s.FailedGates++
		}
		switch r.Outcome {
		case OutcomeDegraded:
			s.DegradedGates++
		case OutcomeUnavailable:
			s.UnavailableGates++
		}
		if p.Blocks(r) {
			s.BlockingGates++
		}
	}
	return s
}

// CheckResult represents the result of a quality gate run
type CheckResult struct {
	Passed      bool         `json:"passed" yaml:"passed"`
	ExitCode    int          `json:"exit_code" yaml:"exit_code"`
	Gates       []GateResult `json:"gates" yaml:"gates"`
	Summary     CheckSummary `json:"summary" yaml:"summary"`
	Policy      ExitPolicy   `json:"policy" yaml:"policy"`
	Duration    int64        `json:"duration_ms" yaml:"duration_ms"`
	GeneratedAt string       `json:"generated_at" yaml:"generated_at"`
	Version     string       `json:"version" yaml:"version"`
}
