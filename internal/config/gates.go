package config

import (
	"sort"

	"github.com/ludo-technologies/qgate/domain"
)

// Threshold keys, as used under the `thresholds` config section
const (
	KeyNASAMinScore      = "nasa_min_score"
	KeyNASAMaxCritical   = "nasa_max_critical"
	KeyGodObjectsMax     = "god_objects_max"
	KeyArchMinHealth     = "arch_min_health"
	KeyArchMaxHotspots   = "arch_max_hotspots"
	KeyMECEMinScore      = "mece_min_score"
	KeyMaxDuplicationPct = "max_duplication_pct"
	KeySecMaxCritical    = "sec_max_critical"
	KeySecMaxHigh        = "sec_max_high"
	KeyCacheMinHealth    = "cache_min_health"
)

// GateDefinition describes one standard gate: where its metric lives,
// how it compares, and which environment variable overrides it.
type GateDefinition struct {
	Name      string
	Label     string
	Key       string
	Artifact  string
	Paths     []string
	Direction domain.Direction
	Format    domain.MetricFormat
	EnvVar    string
	Default   float64
}

var gateDefinitions = []GateDefinition{
	{
		Name: "nasa_compliance", Label: "NASA compliance", Key: KeyNASAMinScore,
		Artifact: domain.ArtifactConnascence, Paths: []string{"nasa_compliance.score"},
		Direction: domain.DirectionMin, Format: domain.FormatPercent,
		EnvVar: "NASA_MIN_SCORE", Default: 0.85,
	},
	{
		Name: "nasa_critical", Label: "NASA critical violations", Key: KeyNASAMaxCritical,
		Artifact: domain.ArtifactConnascence, Paths: []string{"summary.critical_violations"},
		Direction: domain.DirectionMax, Format: domain.FormatCount,
		EnvVar: "NASA_MAX_CRITICAL", Default: 0,
	},
	{
		Name: "god_objects", Label: "God objects", Key: KeyGodObjectsMax,
		Artifact: domain.ArtifactConnascence, Paths: []string{"summary.god_objects"},
		Direction: domain.DirectionMax, Format: domain.FormatCount,
		EnvVar: "GOD_OBJECTS_MAX", Default: 5,
	},
	{
		Name: "architecture_health", Label: "Architecture health", Key: KeyArchMinHealth,
		Artifact: domain.ArtifactArchitecture, Paths: []string{"system_overview.architectural_health"},
		Direction: domain.DirectionMin, Format: domain.FormatPercent,
		EnvVar: "ARCH_MIN_HEALTH", Default: 0.75,
	},
	{
		Name: "architecture_hotspots", Label: "Architecture hotspots", Key: KeyArchMaxHotspots,
		Artifact: domain.ArtifactArchitecture, Paths: []string{"system_overview.hotspot_count"},
		Direction: domain.DirectionMax, Format: domain.FormatCount,
		EnvVar: "ARCH_MAX_HOTSPOTS", Default: 10,
	},
	{
		Name: "mece_score", Label: "MECE score", Key: KeyMECEMinScore,
		Artifact: domain.ArtifactMECE, Paths: []string{"mece_score"},
		Direction: domain.DirectionMin, Format: domain.FormatPercent,
		EnvVar: "MECE_MIN_SCORE", Default: 0.75,
	},
	{
		Name: "duplication", Label: "Duplication percentage", Key: KeyMaxDuplicationPct,
		Artifact: domain.ArtifactMECE, Paths: []string{"duplication_percentage"},
		Direction: domain.DirectionMax, Format: domain.FormatDecimal,
		EnvVar: "MAX_DUPLICATION_PCT", Default: 10,
	},
	{
		Name: "security_critical", Label: "Security critical findings", Key: KeySecMaxCritical,
		Artifact: domain.ArtifactSAST, Paths: []string{"summary.critical_findings"},
		Direction: domain.DirectionMax, Format: domain.FormatCount,
		EnvVar: "SEC_MAX_CRITICAL", Default: 0,
	},
	{
		Name: "security_high", Label: "Security high findings", Key: KeySecMaxHigh,
		Artifact: domain.ArtifactSAST, Paths: []string{"summary.high_findings"},
		Direction: domain.DirectionMax, Format: domain.FormatCount,
		EnvVar: "SEC_MAX_HIGH", Default: 5,
	},
	{
		Name: "cache_health", Label: "Cache health", Key: KeyCacheMinHealth,
		Artifact: domain.ArtifactCacheHealth, Paths: []string{"cache_health.health_score", "cache_health.hit_rate"},
		Direction: domain.DirectionMin, Format: domain.FormatPercent,
		EnvVar: "CACHE_MIN_HEALTH", Default: 0.75,
	},
}

// GateDefinitions returns a copy of the standard gate catalog
func GateDefinitions() []GateDefinition {
	defs := make([]GateDefinition, len(gateDefinitions))
	copy(defs, gateDefinitions)
	return defs
}

// LookupGate finds a gate definition by gate name or threshold key
func LookupGate(nameOrKey string) (GateDefinition, bool) {
	for _, d := range gateDefinitions {
		if d.Name == nameOrKey || d.Key == nameOrKey {
			return d, true
		}
	}
	return GateDefinition{}, false
}

// Thresholds is the frozen set of gate thresholds for one run.
// The zero value has no thresholds; use DefaultThresholds or Config.Thresholds.
type Thresholds struct {
	byKey map[string]domain.GateThreshold
}

// DefaultThresholds returns the catalog defaults
func DefaultThresholds() Thresholds {
	t := Thresholds{byKey: make(map[string]domain.GateThreshold, len(gateDefinitions))}
	for _, d := range gateDefinitions {
		t.byKey[d.Key] = domain.GateThreshold{
			Name:      d.Key,
			Value:     d.Default,
			Direction: d.Direction,
			Source:    domain.SourceDefault,
			EnvVar:    d.EnvVar,
		}
	}
	return t
}

// Get returns the threshold for key
func (t Thresholds) Get(key string) (domain.GateThreshold, bool) {
	th, ok := t.byKey[key]
	return th, ok
}

// With returns a copy of t with key set to value from source.
// Unknown keys are ignored.
func (t Thresholds) With(key string, value float64, source domain.ThresholdSource) Thresholds {
	next := Thresholds{byKey: make(map[string]domain.GateThreshold, len(t.byKey))}
	for k, v := range t.byKey {
		next.byKey[k] = v
	}
	if th, ok := next.byKey[key]; ok {
		th.Value = value
		th.Source = source
		next.byKey[key] = th
	}
	return next
}

// All returns the thresholds sorted by key
func (t Thresholds) All() []domain.GateThreshold {
	all := make([]domain.GateThreshold, 0, len(t.byKey))
	for _, th := range t.byKey {
		all = append(all, th)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all
}
