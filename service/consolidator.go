package service

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/ludo-technologies/qgate/domain"
	"github.com/ludo-technologies/qgate/internal/config"
	"github.com/ludo-technologies/qgate/internal/constants"
	"github.com/ludo-technologies/qgate/internal/version"
)

// AnalysisSource pairs an artifact with the key it is reported under
type AnalysisSource struct {
	Artifact string
	Key      string
}

// DefaultAnalysisSources is the fixed list of analyses the consolidator reads
func DefaultAnalysisSources() []AnalysisSource {
	return []AnalysisSource{
		{Artifact: domain.ArtifactConnascence, Key: constants.AnalysisConnascence},
		{Artifact: domain.ArtifactArchitecture, Key: constants.AnalysisArchitecture},
		{Artifact: domain.ArtifactMECE, Key: constants.AnalysisMECE},
		{Artifact: domain.ArtifactSAST, Key: constants.AnalysisSecurity},
		{Artifact: domain.ArtifactCacheHealth, Key: constants.AnalysisCache},
	}
}

// Consolidator merges per-tool artifacts into one report
type Consolidator struct {
	loader  domain.ArtifactLoader
	limits  config.ConsolidationConfig
	sources []AnalysisSource
	now     func() time.Time
}

// NewConsolidator creates a consolidator over the default analysis sources
func NewConsolidator(loader domain.ArtifactLoader, limits config.ConsolidationConfig) *Consolidator {
	return &Consolidator{
		loader:  loader,
		limits:  limits,
		sources: DefaultAnalysisSources(),
		now:     time.Now,
	}
}

// WithSources replaces the analysis list (used to prove order independence)
func (c *Consolidator) WithSources(sources []AnalysisSource) *Consolidator {
	c.sources = sources
	return c
}

// Consolidate loads every analysis, averages the available quality
// scores with equal weight and collects critical issues.
// gates are folded into the report as-is.
func (c *Consolidator) Consolidate(gates []domain.GateResult, policy domain.ExitPolicy) *domain.ConsolidatedReport {
	report := &domain.ConsolidatedReport{
		RunID:          uuid.NewString(),
		GeneratedAt:    c.now().Format(time.RFC3339),
		Version:        version.GetVersion(),
		Analyses:       make(map[string]domain.AnalysisScore, len(c.sources)),
		Gates:          gates,
		CriticalIssues: []string{},
	}

	var sum float64
	var count int
	for _, src := range c.sources {
		artifact := c.loader.Load(src.Artifact)
		entry := domain.AnalysisScore{
			Key:      src.Key,
			Artifact: src.Artifact,
			Status:   artifact.Status,
			Reason:   artifact.Reason,
		}
		if artifact.Available() {
			entry.Score = clamp01(analysisScore(src.Key, artifact.Data))
			sum += entry.Score
			count++
			report.CriticalIssues = append(report.CriticalIssues, c.criticalIssues(src.Key, artifact.Data)...)
		}
		report.Analyses[src.Key] = entry
	}

	if count > 0 {
		report.OverallScores.AverageQuality = round4(sum / float64(count))
	}
	report.OverallScores.AnalysesAvailable = count
	sort.Strings(report.CriticalIssues)

	report.Passed = true
	for _, g := range gates {
		if !g.Passed {
			report.Passed = false
			break
		}
	}
	report.ExitCode = policy.ExitCode(gates)
	return report
}

// analysisScore extracts the single quality scalar of an analysis type
func analysisScore(key string, data map[string]interface{}) float64 {
	switch key {
	case constants.AnalysisConnascence:
		return LookupFloat(data, "nasa_compliance.score", 0)
	case constants.AnalysisArchitecture:
		return LookupFloat(data, "system_overview.architectural_health", 0)
	case constants.AnalysisMECE:
		return LookupFloat(data, "mece_score", 0)
	case constants.AnalysisSecurity:
		if _, ok := Lookup(data, "security_score"); ok {
			return LookupFloat(data, "security_score", 0)
		}
		critical := LookupFloat(data, "summary.critical_findings", 0)
		high := LookupFloat(data, "summary.high_findings", 0)
		return SecurityScore(int(critical), int(high))
	case constants.AnalysisCache:
		if _, ok := Lookup(data, "cache_health.health_score"); ok {
			return LookupFloat(data, "cache_health.health_score", 0)
		}
		return LookupFloat(data, "cache_health.hit_rate", 0)
	}
	return 0
}

// SecurityScore derives a [0,1] score from finding counts
func SecurityScore(critical, high int) float64 {
	return math.Max(0, 1-0.25*float64(critical)-0.05*float64(high))
}

func (c *Consolidator) criticalIssues(key string, data map[string]interface{}) []string {
	var issues []string
	switch key {
	case constants.AnalysisConnascence:
		if v := int(LookupFloat(data, "summary.total_violations", 0)); v > c.limits.MaxViolations {
			issues = append(issues, fmt.Sprintf("High connascence violations: %d", v))
		}
		if g := int(LookupFloat(data, "summary.god_objects", 0)); g > c.limits.MaxGodObjects {
			issues = append(issues, fmt.Sprintf("Excessive god objects: %d", g))
		}
	case constants.AnalysisArchitecture:
		if _, ok := Lookup(data, "system_overview.architectural_health"); ok {
			if h := LookupFloat(data, "system_overview.architectural_health", 0); h < c.limits.MinArchHealth {
				issues = append(issues, fmt.Sprintf("Low architectural health: %.2f", h))
			}
		}
	case constants.AnalysisMECE:
		if n := LookupLen(data, "duplications"); n > c.limits.MaxDuplicationClusters {
			issues = append(issues, fmt.Sprintf("High duplication clusters: %d", n))
		}
	case constants.AnalysisSecurity:
		if n := int(LookupFloat(data, "summary.critical_findings", 0)); n > c.limits.MaxCriticalSecurity {
			issues = append(issues, fmt.Sprintf("Critical security findings: %d", n))
		}
	}
	return issues
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// round4 rounds away float noise so that equal inputs in any order give
// byte-identical reports
func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
