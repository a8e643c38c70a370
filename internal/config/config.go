package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ludo-technologies/qgate/domain"
	"github.com/ludo-technologies/qgate/internal/constants"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Default consolidation limits
const (
	// DefaultMaxViolations is the connascence violation count above which
	// a critical issue is raised
	DefaultMaxViolations = 10

	// DefaultMaxGodObjects is the god object count above which a critical issue is raised
	DefaultMaxGodObjects = 5

	// DefaultMinArchHealth is the architectural health below which a critical issue is raised
	DefaultMinArchHealth = 0.6

	// DefaultMaxDuplicationClusters is the MECE duplication cluster count above which
	// a critical issue is raised
	DefaultMaxDuplicationClusters = 5
)

// Default fallback analyzer limits
const (
	DefaultGodObjectMethods = 20
	DefaultMaxParameters    = 6
	DefaultMaxFunctionLines = 60
)

// Config represents the main configuration structure
type Config struct {
	// Artifacts locates analysis inputs and report outputs
	Artifacts ArtifactsConfig `json:"artifacts" mapstructure:"artifacts" yaml:"artifacts"`

	// Thresholds maps threshold keys to values; see GateDefinitions
	Thresholds map[string]float64 `json:"thresholds" mapstructure:"thresholds" yaml:"thresholds"`

	// Consolidation holds the limits used to raise critical issues
	Consolidation ConsolidationConfig `json:"consolidation" mapstructure:"consolidation" yaml:"consolidation"`

	// Policy decides which gate outcomes fail the process
	Policy PolicyConfig `json:"policy" mapstructure:"policy" yaml:"policy"`

	// Scan configures the external security scanners
	Scan ScanConfig `json:"scan" mapstructure:"scan" yaml:"scan"`

	// MECE configures the MECE analyzer invocation
	MECE MECEConfig `json:"mece" mapstructure:"mece" yaml:"mece"`

	// Analyzer configures the fallback heuristic analyzer
	Analyzer AnalyzerConfig `json:"analyzer" mapstructure:"analyzer" yaml:"analyzer"`

	// Fix configures the source rewriting passes
	Fix FixConfig `json:"fix" mapstructure:"fix" yaml:"fix"`

	// GitHub configures report publishing
	GitHub GitHubConfig `json:"github" mapstructure:"github" yaml:"github"`

	// Output holds output formatting configuration
	Output OutputConfig `json:"output" mapstructure:"output" yaml:"output"`

	// Analysis holds source tree selection configuration
	Analysis AnalysisConfig `json:"analysis" mapstructure:"analysis" yaml:"analysis"`

	// sources records where each threshold value came from
	sources map[string]domain.ThresholdSource
}

// ArtifactsConfig locates the artifacts tree
type ArtifactsConfig struct {
	// Dir is the root directory for analysis artifacts
	Dir string `json:"dir" mapstructure:"dir" yaml:"dir"`

	// Report is the consolidated report file name, relative to Dir
	Report string `json:"report" mapstructure:"report" yaml:"report"`
}

// ConsolidationConfig holds the critical issue limits of the consolidator
type ConsolidationConfig struct {
	MaxViolations          int     `json:"max_violations" mapstructure:"max_violations" yaml:"max_violations"`
	MaxGodObjects          int     `json:"max_god_objects" mapstructure:"max_god_objects" yaml:"max_god_objects"`
	MinArchHealth          float64 `json:"min_arch_health" mapstructure:"min_arch_health" yaml:"min_arch_health"`
	MaxDuplicationClusters int     `json:"max_duplication_clusters" mapstructure:"max_duplication_clusters" yaml:"max_duplication_clusters"`
	MaxCriticalSecurity    int     `json:"max_critical_security" mapstructure:"max_critical_security" yaml:"max_critical_security"`
}

// PolicyConfig mirrors domain.ExitPolicy
type PolicyConfig struct {
	FailOnDegraded    bool `json:"fail_on_degraded" mapstructure:"fail_on_degraded" yaml:"fail_on_degraded"`
	FailOnUnavailable bool `json:"fail_on_unavailable" mapstructure:"fail_on_unavailable" yaml:"fail_on_unavailable"`
	Advisory          bool `json:"advisory" mapstructure:"advisory" yaml:"advisory"`
}

// ToolConfig describes one external scanner
type ToolConfig struct {
	Name              string   `json:"name" mapstructure:"name" yaml:"name"`
	Enabled           bool     `json:"enabled" mapstructure:"enabled" yaml:"enabled"`
	Command           []string `json:"command" mapstructure:"command" yaml:"command"`
	TimeoutSeconds    int      `json:"timeout_seconds" mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	FindingsExitCodes []int    `json:"findings_exit_codes" mapstructure:"findings_exit_codes" yaml:"findings_exit_codes"`
}

// ScanConfig configures the scanner orchestration
type ScanConfig struct {
	Tools []ToolConfig `json:"tools" mapstructure:"tools" yaml:"tools"`

	// Performance bounds the parallel executor
	Performance PerformanceConfig `json:"performance" mapstructure:"performance" yaml:"performance"`
}

// PerformanceConfig bounds concurrent execution
type PerformanceConfig struct {
	// MaxGoroutines is the maximum number of tools run at once (0 = default)
	MaxGoroutines int `json:"max_goroutines" mapstructure:"max_goroutines" yaml:"max_goroutines"`

	// TimeoutSeconds bounds the whole scan
	TimeoutSeconds int `json:"timeout_seconds" mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// MECEConfig configures the MECE analyzer run
type MECEConfig struct {
	// Command is the analyzer command line; "{output}" is replaced by the artifact path
	Command        []string `json:"command" mapstructure:"command" yaml:"command"`
	TimeoutSeconds int      `json:"timeout_seconds" mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	FallbackScore  float64  `json:"fallback_score" mapstructure:"fallback_score" yaml:"fallback_score"`
}

// AnalyzerConfig configures the fallback heuristic analyzer
type AnalyzerConfig struct {
	GodObjectMethods int       `json:"god_object_methods" mapstructure:"god_object_methods" yaml:"god_object_methods"`
	MaxParameters    int       `json:"max_parameters" mapstructure:"max_parameters" yaml:"max_parameters"`
	MaxFunctionLines int       `json:"max_function_lines" mapstructure:"max_function_lines" yaml:"max_function_lines"`
	AllowedNumbers   []float64 `json:"allowed_numbers" mapstructure:"allowed_numbers" yaml:"allowed_numbers"`
}

// FixConfig configures the rewriting passes
type FixConfig struct {
	// MagicNumbers maps literal text to the constant name replacing it
	MagicNumbers map[string]string `json:"magic_numbers" mapstructure:"magic_numbers" yaml:"magic_numbers"`
	// KeepNames are function names the naming pass never renames
	KeepNames []string `json:"keep_names" mapstructure:"keep_names" yaml:"keep_names"`
}

// GitHubConfig configures the GitHub bridge
type GitHubConfig struct {
	APIURL     string `json:"api_url" mapstructure:"api_url" yaml:"api_url"`
	Repository string `json:"repository" mapstructure:"repository" yaml:"repository"`
	Context    string `json:"context" mapstructure:"context" yaml:"context"`
	MaxRetries int    `json:"max_retries" mapstructure:"max_retries" yaml:"max_retries"`
}

// OutputConfig holds configuration for output formatting
type OutputConfig struct {
	// Format specifies the output format: text, json, yaml
	Format string `json:"format" mapstructure:"format" yaml:"format"`

	// MetricsFile, when set, receives Prometheus text exposition of gate results
	MetricsFile string `json:"metrics_file" mapstructure:"metrics_file" yaml:"metrics_file"`
}

// AnalysisConfig holds general source tree configuration
type AnalysisConfig struct {
	// IncludePatterns specifies file patterns to include
	IncludePatterns []string `json:"include_patterns" mapstructure:"include_patterns" yaml:"include_patterns"`

	// ExcludePatterns specifies file patterns to exclude
	ExcludePatterns []string `json:"exclude_patterns" mapstructure:"exclude_patterns" yaml:"exclude_patterns"`

	// RespectGitignore skips files matched by the root .gitignore
	RespectGitignore bool `json:"respect_gitignore" mapstructure:"respect_gitignore" yaml:"respect_gitignore"`

	// Recursive controls whether to analyze directories recursively
	Recursive bool `json:"recursive" mapstructure:"recursive" yaml:"recursive"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	thresholds := make(map[string]float64, len(gateDefinitions))
	for _, d := range gateDefinitions {
		thresholds[d.Key] = d.Default
	}

	return &Config{
		Artifacts: ArtifactsConfig{
			Dir:    constants.DefaultArtifactsDir,
			Report: domain.ArtifactReport,
		},
		Thresholds: thresholds,
		Consolidation: ConsolidationConfig{
			MaxViolations:          DefaultMaxViolations,
			MaxGodObjects:          DefaultMaxGodObjects,
			MinArchHealth:          DefaultMinArchHealth,
			MaxDuplicationClusters: DefaultMaxDuplicationClusters,
			MaxCriticalSecurity:    0,
		},
		Policy: PolicyConfig{},
		Scan: ScanConfig{
			Tools: DefaultTools(),
			Performance: PerformanceConfig{
				MaxGoroutines:  4,
				TimeoutSeconds: 600,
			},
		},
		MECE: MECEConfig{
			Command:        []string{"python", "-m", "analyzer.dup_detection.mece_analyzer", "--comprehensive", "--output", "{output}"},
			TimeoutSeconds: 300,
			FallbackScore:  domain.DefaultMECEFallbackScore,
		},
		Analyzer: AnalyzerConfig{
			GodObjectMethods: DefaultGodObjectMethods,
			MaxParameters:    DefaultMaxParameters,
			MaxFunctionLines: DefaultMaxFunctionLines,
			AllowedNumbers:   []float64{-1, 0, 1, 2},
		},
		Fix: FixConfig{
			MagicNumbers: map[string]string{
				"86400": "SECONDS_PER_DAY",
				"3600":  "SECONDS_PER_HOUR",
				"1024":  "BYTES_PER_KIB",
			},
			KeepNames: DefaultKeepNames(),
		},
		GitHub: GitHubConfig{
			APIURL:     "https://api.github.com",
			Context:    "qgate/quality-gates",
			MaxRetries: 3,
		},
		Output: OutputConfig{
			Format: "text",
		},
		Analysis: AnalysisConfig{
			IncludePatterns: []string{"*.py"},
			ExcludePatterns: []string{
				".git",
				".venv",
				"venv",
				"__pycache__",
				"node_modules",
				"build",
				"dist",
				".tox",
				".mypy_cache",
			},
			RespectGitignore: true,
			Recursive:        true,
		},
	}
}

// DefaultKeepNames returns the unittest hooks the naming pass leaves alone
func DefaultKeepNames() []string {
	return []string{
		"setUp", "tearDown",
		"setUpClass", "tearDownClass",
		"setUpModule", "tearDownModule",
		"asyncSetUp", "asyncTearDown",
	}
}

// DefaultTools returns the default scanner set
func DefaultTools() []ToolConfig {
	return []ToolConfig{
		{Name: "bandit", Enabled: true, Command: []string{"bandit", "-r", ".", "-f", "json", "-q"}, TimeoutSeconds: 300, FindingsExitCodes: []int{1}},
		{Name: "semgrep", Enabled: true, Command: []string{"semgrep", "--config", "auto", "--json", "--quiet"}, TimeoutSeconds: 300, FindingsExitCodes: []int{1}},
		{Name: "safety", Enabled: true, Command: []string{"safety", "check", "--json"}, TimeoutSeconds: 120, FindingsExitCodes: []int{64}},
		{Name: "pip-audit", Enabled: true, Command: []string{"pip-audit", "-f", "json"}, TimeoutSeconds: 180, FindingsExitCodes: []int{1}},
	}
}

// LoadConfig loads configuration from file or returns default config
func LoadConfig(configPath string) (*Config, error) {
	return LoadConfigWithTarget(configPath, "")
}

// LoadConfigWithTarget loads configuration with target path context.
// Discovery runs only when configPath is empty.
func LoadConfigWithTarget(configPath string, targetPath string) (*Config, error) {
	if configPath == "" {
		configPath = findDefaultConfig(targetPath)
	}
	return loadConfigFromFile(configPath)
}

// loadConfigFromFile reads a configuration file (if any), applies
// environment overrides and validates the result
func loadConfigFromFile(configPath string) (*Config, error) {
	// A fresh viper instance per load avoids shared global state
	v := viper.New()
	cfg := DefaultConfig()

	setDefaults(v, cfg)
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.sources = make(map[string]domain.ThresholdSource, len(gateDefinitions))
	for _, d := range gateDefinitions {
		switch {
		case envSet(d.EnvVar):
			cfg.sources[d.Key] = domain.SourceEnv
		case configPath != "" && v.InConfig("thresholds."+d.Key):
			cfg.sources[d.Key] = domain.SourceConfig
		default:
			cfg.sources[d.Key] = domain.SourceDefault
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults registers every default so that env-only keys unmarshal
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("artifacts.dir", cfg.Artifacts.Dir)
	v.SetDefault("artifacts.report", cfg.Artifacts.Report)
	for key, value := range cfg.Thresholds {
		v.SetDefault("thresholds."+key, value)
	}
	v.SetDefault("output.format", cfg.Output.Format)
	v.SetDefault("policy.fail_on_degraded", cfg.Policy.FailOnDegraded)
	v.SetDefault("policy.fail_on_unavailable", cfg.Policy.FailOnUnavailable)
	v.SetDefault("policy.advisory", cfg.Policy.Advisory)
	v.SetDefault("github.api_url", cfg.GitHub.APIURL)
	v.SetDefault("github.repository", cfg.GitHub.Repository)
}

// bindEnv binds the unprefixed CI threshold variables and the QGATE_ prefixed keys
func bindEnv(v *viper.Viper) error {
	for _, d := range gateDefinitions {
		if err := v.BindEnv("thresholds."+d.Key, d.EnvVar); err != nil {
			return fmt.Errorf("failed to bind %s: %w", d.EnvVar, err)
		}
	}

	v.SetEnvPrefix(constants.EnvVarPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	extra := map[string][]string{
		"artifacts.dir":              {constants.EnvVarPrefix + "_ARTIFACTS_DIR"},
		"output.format":              {constants.EnvVarPrefix + "_OUTPUT_FORMAT"},
		"policy.advisory":            {constants.EnvVarPrefix + "_ADVISORY"},
		"policy.fail_on_degraded":    {constants.EnvVarPrefix + "_FAIL_ON_DEGRADED"},
		"policy.fail_on_unavailable": {constants.EnvVarPrefix + "_FAIL_ON_UNAVAILABLE"},
		"github.api_url":             {"GITHUB_API_URL"},
		"github.repository":          {"GITHUB_REPOSITORY"},
	}
	for key, envs := range extra {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}

func envSet(name string) bool {
	value, ok := os.LookupEnv(name)
	return ok && value != ""
}

// FrozenThresholds builds the immutable threshold set for this run
func (c *Config) FrozenThresholds() Thresholds {
	t := DefaultThresholds()
	for _, d := range gateDefinitions {
		value, ok := c.Thresholds[d.Key]
		if !ok {
			continue
		}
		source := domain.SourceDefault
		if c.sources != nil {
			if s, ok := c.sources[d.Key]; ok {
				source = s
			}
		}
		if source == domain.SourceDefault && value != d.Default {
			source = domain.SourceConfig
		}
		t = t.With(d.Key, cast.ToFloat64(value), source)
	}
	return t
}

// ExitPolicy converts the policy section into a domain.ExitPolicy
func (c *Config) ExitPolicy() domain.ExitPolicy {
	return domain.ExitPolicy{
		FailOnDegraded:    c.Policy.FailOnDegraded,
		FailOnUnavailable: c.Policy.FailOnUnavailable,
		Advisory:          c.Policy.Advisory,
	}
}

// ToolSpecs converts enabled tool configs into domain.ToolSpecs
func (c *Config) ToolSpecs() []domain.ToolSpec {
	specs := make([]domain.ToolSpec, 0, len(c.Scan.Tools))
	for _, t := range c.Scan.Tools {
		if !t.Enabled {
			continue
		}
		specs = append(specs, domain.ToolSpec{
			Name:              t.Name,
			Command:           t.Command,
			Timeout:           time.Duration(t.TimeoutSeconds) * time.Second,
			FindingsExitCodes: t.FindingsExitCodes,
		})
	}
	return specs
}

// ReportPath returns the consolidated report location
func (c *Config) ReportPath() string {
	return filepath.Join(c.Artifacts.Dir, c.Artifacts.Report)
}

// searchConfigInDirectory searches for configuration files in a specific directory
func searchConfigInDirectory(dir string, candidates []string) string {
	for _, candidate := range candidates {
		path := filepath.Join(dir, candidate)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// configCandidates lists config file names in order of preference
var configCandidates = []string{
	"qgate.yaml",
	"qgate.yml",
	".qgate.yaml",
	".qgate.yml",
	".qgate.toml",
	"qgate.json",
	".qgate.json",
}

// findDefaultConfig looks for default configuration files in common locations
func findDefaultConfig(targetPath string) string {
	if targetPath != "" {
		absPath, err := filepath.Abs(targetPath)
		if err == nil {
			info, err := os.Stat(absPath)
			if err == nil && !info.IsDir() {
				absPath = filepath.Dir(absPath)
			}

			volume := filepath.VolumeName(absPath)
			for dir := absPath; ; dir = filepath.Dir(dir) {
				if config := searchConfigInDirectory(dir, configCandidates); config != "" {
					return config
				}

				parent := filepath.Dir(dir)
				if parent == dir ||
					dir == volume ||
					(volume != "" && dir == volume+string(filepath.Separator)) {
					break
				}
			}
		}
	}

	if config := searchConfigInDirectory(".", configCandidates); config != "" {
		return config
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		if config := searchConfigInDirectory(filepath.Join(xdgConfig, constants.ToolName), configCandidates); config != "" {
			return config
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		if config := searchConfigInDirectory(filepath.Join(home, ".config", constants.ToolName), configCandidates); config != "" {
			return config
		}
	}

	if envConfig := os.Getenv(constants.EnvVarPrefix + "_CONFIG"); envConfig != "" {
		if _, err := os.Stat(envConfig); err == nil {
			return envConfig
		}
	}

	return ""
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	if c.Artifacts.Dir == "" {
		return fmt.Errorf("artifacts.dir cannot be empty")
	}
	if c.Artifacts.Report == "" {
		return fmt.Errorf("artifacts.report cannot be empty")
	}

	for key, value := range c.Thresholds {
		d, ok := LookupGate(key)
		if !ok {
			return fmt.Errorf("unknown threshold '%s'", key)
		}
		if value < 0 {
			return fmt.Errorf("thresholds.%s must be >= 0, got %v", key, value)
		}
		if d.Format == domain.FormatPercent && value > 1 {
			return fmt.Errorf("thresholds.%s is a ratio and must be <= 1, got %v", key, value)
		}
	}

	if c.Consolidation.MaxViolations < 0 || c.Consolidation.MaxGodObjects < 0 ||
		c.Consolidation.MaxDuplicationClusters < 0 || c.Consolidation.MaxCriticalSecurity < 0 {
		return fmt.Errorf("consolidation limits must be >= 0")
	}
	if c.Consolidation.MinArchHealth < 0 || c.Consolidation.MinArchHealth > 1 {
		return fmt.Errorf("consolidation.min_arch_health must be within [0, 1], got %v", c.Consolidation.MinArchHealth)
	}

	if _, err := domain.ParseOutputFormat(c.Output.Format); err != nil {
		return fmt.Errorf("invalid output.format '%s', must be one of: text, json, yaml", c.Output.Format)
	}

	seen := make(map[string]bool, len(c.Scan.Tools))
	for _, t := range c.Scan.Tools {
		if t.Name == "" {
			return fmt.Errorf("scan.tools entries require a name")
		}
		if seen[t.Name] {
			return fmt.Errorf("duplicate scan tool '%s'", t.Name)
		}
		seen[t.Name] = true
		if t.Enabled && len(t.Command) == 0 {
			return fmt.Errorf("scan tool '%s' has no command", t.Name)
		}
		if t.TimeoutSeconds < 0 {
			return fmt.Errorf("scan tool '%s' timeout must be >= 0", t.Name)
		}
	}

	if c.MECE.FallbackScore < 0 || c.MECE.FallbackScore > 1 {
		return fmt.Errorf("mece.fallback_score must be within [0, 1], got %v", c.MECE.FallbackScore)
	}

	if c.Analyzer.GodObjectMethods < 1 || c.Analyzer.MaxParameters < 1 || c.Analyzer.MaxFunctionLines < 1 {
		return fmt.Errorf("analyzer limits must be >= 1")
	}

	for literal, name := range c.Fix.MagicNumbers {
		if _, err := cast.ToFloat64E(literal); err != nil {
			return fmt.Errorf("fix.magic_numbers key '%s' is not a number", literal)
		}
		if !isConstantName(name) {
			return fmt.Errorf("fix.magic_numbers value '%s' is not an UPPER_CASE identifier", name)
		}
	}

	if len(c.Analysis.IncludePatterns) == 0 {
		return fmt.Errorf("analysis.include_patterns cannot be empty")
	}

	return nil
}

func isConstantName(name string) bool {
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		return false
	}
	for _, r := range name {
		if !(r == '_' || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}
