package app

import (
	"context"
	"fmt"
	"io"

	"github.com/ludo-technologies/qgate/domain"
	"github.com/ludo-technologies/qgate/internal/config"
	"github.com/ludo-technologies/qgate/internal/logging"
	"github.com/ludo-technologies/qgate/service"
	"go.uber.org/zap"
)

// ScanRequest configures a security scan
type ScanRequest struct {
	// Tools restricts the scan to the named tools; empty runs every enabled tool
	Tools   []string
	WorkDir string

	OutputFormat domain.OutputFormat
	OutputWriter io.Writer
}

// ScanUseCase runs the security scanners and the MECE analyzer
type ScanUseCase struct {
	cfg       *config.Config
	store     *service.ArtifactStore
	formatter *service.OutputFormatterImpl
	progress  domain.ProgressManager
	logger    *zap.Logger
}

// NewScanUseCase creates a scan use case
func NewScanUseCase(cfg *config.Config, store *service.ArtifactStore, formatter *service.OutputFormatterImpl, progress domain.ProgressManager, logger *zap.Logger) *ScanUseCase {
	if progress == nil {
		progress = service.NewProgressManager(false)
	}
	return &ScanUseCase{
		cfg:       cfg,
		store:     store,
		formatter: formatter,
		progress:  progress,
		logger:    logging.OrNop(logger),
	}
}

// Execute runs the selected scanners concurrently and writes the SAST artifact
func (uc *ScanUseCase) Execute(ctx context.Context, req ScanRequest) (*domain.SASTAnalysis, error) {
	specs, err := selectTools(uc.cfg.ToolSpecs(), req.Tools)
	if err != nil {
		return nil, err
	}

	executor := service.NewParallelExecutorWithProgress(&uc.cfg.Scan.Performance, uc.progress)
	scanner := service.NewSecurityScanner(service.NewToolRunner(req.WorkDir, uc.logger), executor, uc.store, uc.logger)

	analysis, err := scanner.Scan(ctx, specs)
	if err != nil {
		return nil, err
	}

	if req.OutputWriter != nil {
		if err := uc.formatter.WriteScan(analysis, req.OutputFormat, req.OutputWriter); err != nil {
			return nil, err
		}
	}
	return analysis, nil
}

// RunMECE runs the MECE analyzer and writes the fallback artifact when needed
func (uc *ScanUseCase) RunMECE(ctx context.Context, workDir string) (*service.MECEOutcome, error) {
	runner := service.NewMECERunner(service.NewToolRunner(workDir, uc.logger), uc.store, uc.cfg.MECE, uc.logger)
	return runner.RunMECEAnalysis(ctx)
}

func selectTools(specs []domain.ToolSpec, names []string) ([]domain.ToolSpec, error) {
	if len(names) == 0 {
		return specs, nil
	}
	byName := make(map[string]domain.ToolSpec, len(specs))
	for _, s := range specs {
		byName[s.Name] = s
	}
	selected := make([]domain.ToolSpec, 0, len(names))
	for _, n := range names {
		spec, ok := byName[n]
		if !ok {
			return nil, domain.NewInvalidInputError(fmt.Sprintf("tool '%s' is not configured or disabled", n), nil)
		}
		selected = append(selected, spec)
	}
	return selected, nil
}
