package service

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/ludo-technologies/qgate/domain"
	"github.com/spf13/afero"
)

// DefaultRegressionThreshold is the tolerated drop in average quality
const DefaultRegressionThreshold = 0.05

// ReadReport loads a consolidated report. Unlike artifact loading this is
// strict: compare has nothing to say about a report it cannot read.
func ReadReport(fsys afero.Fs, path string) (*domain.ConsolidatedReport, error) {
	content, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, domain.NewFileNotFoundError(path, err)
	}
	var report domain.ConsolidatedReport
	if err := json.Unmarshal(content, &report); err != nil {
		return nil, domain.NewParseError(path, err)
	}
	return &report, nil
}

// CompareReports flags a regression when average quality dropped by more
// than threshold or a critical issue appeared
func CompareReports(current, previous *domain.ConsolidatedReport, threshold float64, now time.Time) *domain.ComparisonResult {
	cur := current.OverallScores.AverageQuality
	prev := previous.OverallScores.AverageQuality

	result := &domain.ComparisonResult{
		CurrentQuality:  cur,
		PreviousQuality: prev,
		Delta:           round4(cur - prev),
		Threshold:       threshold,
		NewIssues:       setDifference(current.CriticalIssues, previous.CriticalIssues),
		ResolvedIssues:  setDifference(previous.CriticalIssues, current.CriticalIssues),
		GeneratedAt:     now.Format(time.RFC3339),
	}

	drop := round4(prev - cur)
	switch {
	case drop > threshold:
		result.Regression = true
		result.Message = fmt.Sprintf("Quality regressed by %.4f (threshold %.4f)", drop, threshold)
	case len(result.NewIssues) > 0:
		result.Regression = true
		result.Message = fmt.Sprintf("%d new critical issue(s)", len(result.NewIssues))
	case result.Delta > 0:
		result.Message = fmt.Sprintf("Quality improved by %.4f", result.Delta)
	default:
		result.Message = "No significant quality change"
	}
	return result
}

// setDifference returns the sorted entries of a that are not in b
func setDifference(a, b []string) []string {
	seen := make(map[string]bool, len(b))
	for _, s := range b {
		seen[s] = true
	}
	out := []string{}
	for _, s := range a {
		if !seen[s] {
			out = append(out, s)
			seen[s] = true
		}
	}
	sort.Strings(out)
	return out
}
