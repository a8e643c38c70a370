package config

import (
	"sort"
	"strconv"
	"strings"
)

// Strictness represents the gate strictness level
type Strictness string

const (
	StrictnessRelaxed  Strictness = "relaxed"
	StrictnessStandard Strictness = "standard"
	StrictnessStrict   Strictness = "strict"
)

// StrictnessPreset holds threshold and policy values for a strictness level
type StrictnessPreset struct {
	Thresholds        map[string]float64
	FailOnDegraded    bool
	FailOnUnavailable bool
}

// GetStrictnessPresets returns presets for different strictness levels
func GetStrictnessPresets() map[Strictness]StrictnessPreset {
	return map[Strictness]StrictnessPreset{
		StrictnessRelaxed: {
			Thresholds: map[string]float64{
				KeyNASAMinScore:      0.75,
				KeyNASAMaxCritical:   3,
				KeyGodObjectsMax:     10,
				KeyArchMinHealth:     0.6,
				KeyArchMaxHotspots:   20,
				KeyMECEMinScore:      0.6,
				KeyMaxDuplicationPct: 20,
				KeySecMaxCritical:    0,
				KeySecMaxHigh:        10,
				KeyCacheMinHealth:    0.6,
			},
		},
		StrictnessStandard: {
			Thresholds: defaultThresholdMap(),
		},
		StrictnessStrict: {
			Thresholds: map[string]float64{
				KeyNASAMinScore:      0.95,
				KeyNASAMaxCritical:   0,
				KeyGodObjectsMax:     2,
				KeyArchMinHealth:     0.85,
				KeyArchMaxHotspots:   5,
				KeyMECEMinScore:      0.85,
				KeyMaxDuplicationPct: 5,
				KeySecMaxCritical:    0,
				KeySecMaxHigh:        0,
				KeyCacheMinHealth:    0.85,
			},
			FailOnDegraded:    true,
			FailOnUnavailable: true,
		},
	}
}

func defaultThresholdMap() map[string]float64 {
	m := make(map[string]float64, len(gateDefinitions))
	for _, d := range gateDefinitions {
		m[d.Key] = d.Default
	}
	return m
}

// GetFullConfigTemplate returns the documented config template as YAML
func GetFullConfigTemplate(strictness Strictness, artifactsDir string) string {
	preset, ok := GetStrictnessPresets()[strictness]
	if !ok {
		preset = GetStrictnessPresets()[StrictnessStandard]
	}
	if artifactsDir == "" {
		artifactsDir = DefaultConfig().Artifacts.Dir
	}

	var b strings.Builder
	b.WriteString(`# qgate configuration (` + string(strictness) + `)

# ============================================================================
# ARTIFACTS
# ============================================================================
# Where analyzers write their JSON output and where the consolidated
# report is written (overwritten on every run).
artifacts:
  dir: "` + artifactsDir + `"
  report: "quality_gates_report.json"

# ============================================================================
# THRESHOLDS
# ============================================================================
# Ratios are in [0, 1]. Each value can be overridden by the environment
# variable shown next to it.
thresholds:
`)
	for _, d := range sortedDefinitions() {
		b.WriteString("  " + d.Key + ": " + formatFloat(preset.Thresholds[d.Key]) +
			"  # " + d.EnvVar + " (" + string(d.Direction) + ")\n")
	}

	b.WriteString(`
# ============================================================================
# EXIT POLICY
# ============================================================================
# degraded: artifact is a fallback or a metric was missing
# unavailable: artifact missing or malformed
# advisory: report the verdict but always exit 0
policy:
  fail_on_degraded: ` + strconv.FormatBool(preset.FailOnDegraded) + `
  fail_on_unavailable: ` + strconv.FormatBool(preset.FailOnUnavailable) + `
  advisory: false

# ============================================================================
# CONSOLIDATION
# ============================================================================
consolidation:
  max_violations: ` + strconv.Itoa(DefaultMaxViolations) + `
  max_god_objects: ` + strconv.Itoa(DefaultMaxGodObjects) + `
  min_arch_health: ` + formatFloat(DefaultMinArchHealth) + `
  max_duplication_clusters: ` + strconv.Itoa(DefaultMaxDuplicationClusters) + `
  max_critical_security: 0

# ============================================================================
# SOURCE TREE
# ============================================================================
analysis:
  include_patterns: ["*.py"]
  exclude_patterns: [".git", ".venv", "venv", "__pycache__", "build", "dist"]
  respect_gitignore: true
  recursive: true

output:
  format: "text"
`)
	return b.String()
}

// GetMinimalConfigTemplate returns a minimal config template
func GetMinimalConfigTemplate() string {
	return `# qgate configuration (minimal)
artifacts:
  dir: ".claude/.artifacts"

thresholds:
  nasa_min_score: 0.85
  sec_max_critical: 0

policy:
  fail_on_unavailable: false
`
}

func sortedDefinitions() []GateDefinition {
	defs := GateDefinitions()
	sort.Slice(defs, func(i, j int) bool { return defs[i].Key < defs[j].Key })
	return defs
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
