package service

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/qgate/domain"
	"github.com/ludo-technologies/qgate/internal/config"
)

func TestConfigurationLoader_LoadConfig(t *testing.T) {
	for _, d := range config.GateDefinitions() {
		t.Setenv(d.EnvVar, "")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, ".qgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte("thresholds:\n  mece_min_score: 0.8\n"), 0o644))

	cfg, err := NewConfigurationLoader(nil).LoadConfig(path, "")
	require.NoError(t, err)
	th, ok := cfg.FrozenThresholds().Get(config.KeyMECEMinScore)
	require.True(t, ok)
	assert.Equal(t, 0.8, th.Value)
	assert.Equal(t, domain.SourceConfig, th.Source)

	_, err = NewConfigurationLoader(nil).LoadConfig(filepath.Join(dir, "missing.yaml"), "")
	var de domain.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, domain.ErrCodeConfigError, de.Code)
}

func TestParseThresholdOverrides(t *testing.T) {
	got, err := ParseThresholdOverrides([]string{"nasa_min_score=0.9", "god_objects = 3", "mece_score=0.6"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{
		config.KeyNASAMinScore:  0.9,
		config.KeyGodObjectsMax: 3,
		config.KeyMECEMinScore:  0.6,
	}, got)

	for _, bad := range []string{"nasa_min_score", "unknown=1", "nasa_min_score=high", "nasa_min_score=1.5", "god_objects=-1"} {
		_, err := ParseThresholdOverrides([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestApplyThresholdOverrides(t *testing.T) {
	base := config.DefaultThresholds()
	applied := ApplyThresholdOverrides(base, map[string]float64{config.KeyNASAMinScore: 0.95})

	th, _ := applied.Get(config.KeyNASAMinScore)
	assert.Equal(t, 0.95, th.Value)
	assert.Equal(t, domain.SourceFlag, th.Source)

	original, _ := base.Get(config.KeyNASAMinScore)
	assert.Equal(t, 0.85, original.Value)
}

func TestMergePolicy(t *testing.T) {
	yes, no := true, false
	base := domain.ExitPolicy{FailOnDegraded: true}

	assert.Equal(t, base, MergePolicy(base, PolicyOverrides{}))
	assert.Equal(t, domain.ExitPolicy{FailOnUnavailable: true, Advisory: true},
		MergePolicy(base, PolicyOverrides{FailOnDegraded: &no, FailOnUnavailable: &yes, Advisory: &yes}))
}
