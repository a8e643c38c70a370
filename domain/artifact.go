package domain

// Well-known artifact names, relative to the artifacts directory
const (
	ArtifactConnascence  = "connascence_full.json"
	ArtifactArchitecture = "architecture_analysis.json"
	ArtifactMECE         = "mece_analysis.json"
	ArtifactSAST         = "security/sast_analysis.json"
	ArtifactCacheHealth  = "performance/cache_health.json"
	ArtifactReport       = "quality_gates_report.json"
	ArtifactComparison   = "quality_comparison.json"
)

// ArtifactResult is the total result of loading an analysis artifact.
// Status is OutcomeUnavailable when Data is nil.
type ArtifactResult struct {
	Path   string         `json:"path"`
	Status Outcome        `json:"status"`
	Reason string         `json:"reason,omitempty"`
	Data   map[string]any `json:"-"`
}

// Available reports whether the artifact carried a JSON object
func (a ArtifactResult) Available() bool {
	return a.Status != OutcomeUnavailable && a.Data != nil
}

// ArtifactLoader loads artifacts without ever failing the caller
type ArtifactLoader interface {
	Load(name string) ArtifactResult
}
