package domain

import "time"

// ToolStatus is the status of an external tool invocation
type ToolStatus string

const (
	ToolStatusOK      ToolStatus = "ok"
	ToolStatusSkipped ToolStatus = "skipped"
	ToolStatusFailed  ToolStatus = "failed"
	ToolStatusTimeout ToolStatus = "timeout"
)

// Severity of a security finding
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// ToolSpec describes how to invoke an external scanner
type ToolSpec struct {
	Name    string        `json:"name" yaml:"name"`
	Command []string      `json:"command" yaml:"command"`
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
	// FindingsExitCodes are non-zero exit codes that mean "findings present"
	FindingsExitCodes []int `json:"findings_exit_codes,omitempty" yaml:"findings_exit_codes,omitempty"`
}

// SeverityCounts holds finding counts per severity
type SeverityCounts struct {
	Critical int `json:"critical" yaml:"critical"`
	High     int `json:"high" yaml:"high"`
	Medium   int `json:"medium" yaml:"medium"`
	Low      int `json:"low" yaml:"low"`
}

// Add accumulates other into c
func (c *SeverityCounts) Add(other SeverityCounts) {
	c.Critical += other.Critical
	c.High += other.High
	c.Medium += other.Medium
	c.Low += other.Low
}

// Total returns the number of findings
func (c SeverityCounts) Total() int {
	return c.Critical + c.High + c.Medium + c.Low
}

// ToolRun records one external tool invocation
type ToolRun struct {
	Tool       string         `json:"tool" yaml:"tool"`
	Status     ToolStatus     `json:"status" yaml:"status"`
	Reason     string         `json:"reason,omitempty" yaml:"reason,omitempty"`
	ExitCode   int            `json:"exit_code" yaml:"exit_code"`
	DurationMs int64          `json:"duration_ms" yaml:"duration_ms"`
	OutputPath string         `json:"output_path,omitempty" yaml:"output_path,omitempty"`
	Findings   SeverityCounts `json:"findings" yaml:"findings"`
	Output     []byte         `json:"-" yaml:"-"`
}

// SecuritySummary is the summary block of security/sast_analysis.json
type SecuritySummary struct {
	CriticalFindings int     `json:"critical_findings" yaml:"critical_findings"`
	HighFindings     int     `json:"high_findings" yaml:"high_findings"`
	MediumFindings   int     `json:"medium_findings" yaml:"medium_findings"`
	LowFindings      int     `json:"low_findings" yaml:"low_findings"`
	ToolsRun         int     `json:"tools_run" yaml:"tools_run"`
	ToolsSkipped     int     `json:"tools_skipped" yaml:"tools_skipped"`
	Coverage         float64 `json:"coverage" yaml:"coverage"`
}

// SASTAnalysis is the consolidated security artifact
type SASTAnalysis struct {
	GeneratedAt     string          `json:"generated_at" yaml:"generated_at"`
	Summary         SecuritySummary `json:"summary" yaml:"summary"`
	SecurityScore   float64         `json:"security_score" yaml:"security_score"`
	ReducedCoverage bool            `json:"reduced_coverage" yaml:"reduced_coverage"`
	Tools           []ToolRun       `json:"tools" yaml:"tools"`
}
