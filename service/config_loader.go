package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ludo-technologies/qgate/domain"
	"github.com/ludo-technologies/qgate/internal/config"
	"github.com/ludo-technologies/qgate/internal/logging"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// ConfigurationLoaderImpl loads configuration and layers CLI overrides on top
type ConfigurationLoaderImpl struct {
	logger *zap.Logger
}

// NewConfigurationLoader creates a new configuration loader service
func NewConfigurationLoader(logger *zap.Logger) *ConfigurationLoaderImpl {
	return &ConfigurationLoaderImpl{logger: logging.OrNop(logger)}
}

// LoadConfig loads the configuration at path, or discovers one starting
// from targetPath when path is empty
func (c *ConfigurationLoaderImpl) LoadConfig(path, targetPath string) (*config.Config, error) {
	cfg, err := config.LoadConfigWithTarget(path, targetPath)
	if err != nil {
		return nil, domain.NewConfigError("failed to load configuration", err)
	}

	for _, th := range cfg.FrozenThresholds().All() {
		c.logger.Debug("threshold",
			zap.String("key", th.Name),
			zap.Float64("value", th.Value),
			zap.String("source", string(th.Source)))
	}
	return cfg, nil
}

// ParseThresholdOverrides parses repeated "key=value" flags. Keys may be
// threshold keys (nasa_min_score) or gate names (nasa_compliance).
func ParseThresholdOverrides(pairs []string) (map[string]float64, error) {
	overrides := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, domain.NewInvalidInputError(fmt.Sprintf("threshold override '%s' must be key=value", pair), nil)
		}
		def, found := config.LookupGate(strings.TrimSpace(key))
		if !found {
			return nil, domain.NewInvalidInputError(fmt.Sprintf("unknown threshold '%s'", key), nil)
		}
		value, err := cast.ToFloat64E(strings.TrimSpace(raw))
		if err != nil {
			return nil, domain.NewInvalidInputError(fmt.Sprintf("threshold '%s' value '%s' is not a number", key, raw), err)
		}
		if value < 0 || (def.Format == domain.FormatPercent && value > 1) {
			return nil, domain.NewInvalidInputError(fmt.Sprintf("threshold '%s' value %v out of range", key, value), nil)
		}
		overrides[def.Key] = value
	}
	return overrides, nil
}

// ApplyThresholdOverrides returns t with every override recorded as a flag value
func ApplyThresholdOverrides(t config.Thresholds, overrides map[string]float64) config.Thresholds {
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		t = t.With(k, overrides[k], domain.SourceFlag)
	}
	return t
}

// PolicyOverrides carries the policy flags the user explicitly set
type PolicyOverrides struct {
	FailOnDegraded    *bool
	FailOnUnavailable *bool
	Advisory          *bool
}

// MergePolicy applies explicitly set flags over the configured policy
func MergePolicy(base domain.ExitPolicy, o PolicyOverrides) domain.ExitPolicy {
	merged := base
	if o.FailOnDegraded != nil {
		merged.FailOnDegraded = *o.FailOnDegraded
	}
	if o.FailOnUnavailable != nil {
		merged.FailOnUnavailable = *o.FailOnUnavailable
	}
	if o.Advisory != nil {
		merged.Advisory = *o.Advisory
	}
	return merged
}
