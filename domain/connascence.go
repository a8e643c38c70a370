package domain

// ConnascenceViolation is a single finding of the fallback analyzer
type ConnascenceViolation struct {
	Type     string   `json:"type" yaml:"type"`
	Severity Severity `json:"severity" yaml:"severity"`
	File     string   `json:"file" yaml:"file"`
	Line     int      `json:"line" yaml:"line"`
	Name     string   `json:"name,omitempty" yaml:"name,omitempty"`
	Message  string   `json:"message" yaml:"message"`
}

// NASACompliance is the compliance block of connascence_full.json
type NASACompliance struct {
	Score     float64 `json:"score" yaml:"score"`
	Compliant bool    `json:"compliant" yaml:"compliant"`
}

// ConnascenceSummary is the summary block of connascence_full.json
type ConnascenceSummary struct {
	TotalViolations    int `json:"total_violations" yaml:"total_violations"`
	CriticalViolations int `json:"critical_violations" yaml:"critical_violations"`
	HighViolations     int `json:"high_violations" yaml:"high_violations"`
	MediumViolations   int `json:"medium_violations" yaml:"medium_violations"`
	GodObjects         int `json:"god_objects" yaml:"god_objects"`
	FilesAnalyzed      int `json:"files_analyzed" yaml:"files_analyzed"`
	FunctionsAnalyzed  int `json:"functions_analyzed" yaml:"functions_analyzed"`
	ParseFailures      int `json:"parse_failures" yaml:"parse_failures"`
}

// ConnascenceReport is the artifact written by the fallback analyzer.
// Fallback is always true: the report stands in for the real engine.
type ConnascenceReport struct {
	Fallback       bool                   `json:"fallback" yaml:"fallback"`
	Analyzer       string                 `json:"analyzer" yaml:"analyzer"`
	GeneratedAt    string                 `json:"generated_at" yaml:"generated_at"`
	NASACompliance NASACompliance         `json:"nasa_compliance" yaml:"nasa_compliance"`
	Summary        ConnascenceSummary     `json:"summary" yaml:"summary"`
	Violations     []ConnascenceViolation `json:"violations" yaml:"violations"`
}

// MECEFallback is written when no MECE analysis could be produced
type MECEFallback struct {
	Fallback              bool     `json:"fallback"`
	MECEScore             float64  `json:"mece_score"`
	DuplicationPercentage float64  `json:"duplication_percentage"`
	Duplications          []string `json:"duplications"`
	Reason                string   `json:"reason"`
	GeneratedAt           string   `json:"generated_at"`
}

// DefaultMECEFallbackScore is the score recorded by the MECE fallback
const DefaultMECEFallbackScore = 0.75
