package service

import (
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/qgate/domain"
)

func reportWith(quality float64, issues ...string) *domain.ConsolidatedReport {
	return &domain.ConsolidatedReport{
		OverallScores:  domain.OverallScores{AverageQuality: quality},
		CriticalIssues: issues,
	}
}

func TestCompareReports(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		current    *domain.ConsolidatedReport
		previous   *domain.ConsolidatedReport
		regression bool
		message    string
	}{
		{
			name:       "drop beyond threshold",
			current:    reportWith(0.70),
			previous:   reportWith(0.80),
			regression: true,
			message:    "Quality regressed by 0.1000 (threshold 0.0500)",
		},
		{
			name:     "drop at threshold tolerated",
			current:  reportWith(0.75),
			previous: reportWith(0.80),
			message:  "No significant quality change",
		},
		{
			name:       "new critical issue",
			current:    reportWith(0.80, "Critical security findings: 1"),
			previous:   reportWith(0.80),
			regression: true,
			message:    "1 new critical issue(s)",
		},
		{
			name:     "improvement",
			current:  reportWith(0.90),
			previous: reportWith(0.80, "Excessive god objects: 7"),
			message:  "Quality improved by 0.1000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompareReports(tt.current, tt.previous, DefaultRegressionThreshold, now)
			assert.Equal(t, tt.regression, got.Regression)
			assert.Equal(t, tt.message, got.Message)
			assert.Equal(t, "2026-05-01T12:00:00Z", got.GeneratedAt)
		})
	}
}

func TestCompareReports_IssueSets(t *testing.T) {
	got := CompareReports(
		reportWith(0.8, "b", "a", "c"),
		reportWith(0.8, "c", "d"),
		DefaultRegressionThreshold, time.Now())

	assert.Equal(t, []string{"a", "b"}, got.NewIssues)
	assert.Equal(t, []string{"d"}, got.ResolvedIssues)

	same := CompareReports(reportWith(0.8), reportWith(0.8), DefaultRegressionThreshold, time.Now())
	assert.NotNil(t, same.NewIssues)
	assert.Empty(t, same.NewIssues)
}

func TestReadReport(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/r/good.json",
		[]byte(`{"run_id": "abc", "overall_scores": {"average_quality": 0.66}, "critical_issues": []}`), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/r/bad.json", []byte(`{`), 0o644))

	report, err := ReadReport(fsys, "/r/good.json")
	require.NoError(t, err)
	assert.Equal(t, "abc", report.RunID)
	assert.Equal(t, 0.66, report.OverallScores.AverageQuality)

	var de domain.DomainError
	_, err = ReadReport(fsys, "/r/missing.json")
	require.True(t, errors.As(err, &de))
	assert.Equal(t, domain.ErrCodeFileNotFound, de.Code)

	_, err = ReadReport(fsys, "/r/bad.json")
	require.True(t, errors.As(err, &de))
	assert.Equal(t, domain.ErrCodeParseError, de.Code)
}
