package domain

// AnalysisScore is the per-analysis contribution to a consolidated report
type AnalysisScore struct {
	Key      string  `json:"key" yaml:"key"`
	Artifact string  `json:"artifact" yaml:"artifact"`
	Score    float64 `json:"score" yaml:"score"`
	Status   Outcome `json:"status" yaml:"status"`
	Reason   string  `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// OverallScores holds the derived scalar fields of a consolidated report
type OverallScores struct {
	AverageQuality    float64 `json:"average_quality" yaml:"average_quality"`
	AnalysesAvailable int     `json:"analyses_available" yaml:"analyses_available"`
}

// ConsolidatedReport aggregates per-tool analyses and gate results.
// It is written once per run and overwritten on the next.
type ConsolidatedReport struct {
	RunID          string                   `json:"run_id" yaml:"run_id"`
	GeneratedAt    string                   `json:"generated_at" yaml:"generated_at"`
	Version        string                   `json:"version" yaml:"version"`
	Commit         string                   `json:"commit,omitempty" yaml:"commit,omitempty"`
	OverallScores  OverallScores            `json:"overall_scores" yaml:"overall_scores"`
	Analyses       map[string]AnalysisScore `json:"analyses" yaml:"analyses"`
	Gates          []GateResult             `json:"gates,omitempty" yaml:"gates,omitempty"`
	CriticalIssues []string                 `json:"critical_issues" yaml:"critical_issues"`
	Passed         bool                     `json:"passed" yaml:"passed"`
	ExitCode       int                      `json:"exit_code" yaml:"exit_code"`
}

// ComparisonResult is the outcome of comparing two consolidated reports
type ComparisonResult struct {
	CurrentQuality  float64  `json:"current_quality" yaml:"current_quality"`
	PreviousQuality float64  `json:"previous_quality" yaml:"previous_quality"`
	Delta           float64  `json:"delta" yaml:"delta"`
	Threshold       float64  `json:"threshold" yaml:"threshold"`
	Regression      bool     `json:"regression" yaml:"regression"`
	NewIssues       []string `json:"new_issues" yaml:"new_issues"`
	ResolvedIssues  []string `json:"resolved_issues" yaml:"resolved_issues"`
	Message         string   `json:"message" yaml:"message"`
	GeneratedAt     string   `json:"generated_at" yaml:"generated_at"`
}
