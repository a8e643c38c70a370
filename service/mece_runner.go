package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ludo-technologies/qgate/domain"
	"github.com/ludo-technologies/qgate/internal/config"
	"github.com/ludo-technologies/qgate/internal/logging"
	"go.uber.org/zap"
)

// outputPlaceholder is replaced by the artifact path in the MECE command
const outputPlaceholder = "{output}"

// MECEOutcome describes what RunMECEAnalysis left on disk
type MECEOutcome struct {
	Path     string         `json:"path"`
	Fallback bool           `json:"fallback"`
	Reason   string         `json:"reason,omitempty"`
	Run      domain.ToolRun `json:"run"`
}

// MECERunner runs the MECE analyzer and guarantees an artifact afterwards
type MECERunner struct {
	runner *ToolRunner
	store  *ArtifactStore
	cfg    config.MECEConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewMECERunner creates a MECE runner
func NewMECERunner(runner *ToolRunner, store *ArtifactStore, cfg config.MECEConfig, logger *zap.Logger) *MECERunner {
	return &MECERunner{
		runner: runner,
		store:  store,
		cfg:    cfg,
		logger: logging.OrNop(logger),
		now:    time.Now,
	}
}

// RunMECEAnalysis invokes the analyzer (when a command is configured) and
// writes the fallback document if no usable mece_analysis.json exists
// afterwards. Only a failure to write the fallback is an error.
func (m *MECERunner) RunMECEAnalysis(ctx context.Context) (*MECEOutcome, error) {
	outPath := m.store.Path(domain.ArtifactMECE)
	outcome := &MECEOutcome{Path: outPath}

	// the analyzer runs in the scan working directory
	absPath, err := filepath.Abs(outPath)
	if err != nil {
		absPath = outPath
	}
	spec := domain.ToolSpec{
		Name:    "mece",
		Command: expandCommand(m.cfg.Command, absPath),
		Timeout: time.Duration(m.cfg.TimeoutSeconds) * time.Second,
	}
	outcome.Run = m.runner.Run(ctx, spec)

	artifact := m.store.Load(domain.ArtifactMECE)
	if artifact.Available() {
		return outcome, nil
	}

	reason := fmt.Sprintf("mece analyzer %s", outcome.Run.Status)
	if outcome.Run.Reason != "" {
		reason += ": " + outcome.Run.Reason
	}
	if outcome.Run.Status == domain.ToolStatusOK {
		reason = "mece analyzer produced no usable output: " + artifact.Reason
	}

	m.logger.Warn("writing MECE fallback", zap.String("reason", reason))
	fallback := domain.MECEFallback{
		Fallback:              true,
		MECEScore:             m.cfg.FallbackScore,
		DuplicationPercentage: 0,
		Duplications:          []string{},
		Reason:                reason,
		GeneratedAt:           m.now().Format(time.RFC3339),
	}
	if _, err := m.store.WriteJSON(domain.ArtifactMECE, fallback); err != nil {
		return nil, err
	}
	outcome.Fallback = true
	outcome.Reason = reason
	return outcome, nil
}

func expandCommand(command []string, output string) []string {
	expanded := make([]string, len(command))
	for i, arg := range command {
		expanded[i] = strings.ReplaceAll(arg, outputPlaceholder, output)
	}
	return expanded
}
