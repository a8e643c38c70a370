package app

import (
	"context"
	"io"
	"time"

	"github.com/ludo-technologies/qgate/domain"
	"github.com/ludo-technologies/qgate/internal/analyzer"
	"github.com/ludo-technologies/qgate/internal/config"
	"github.com/ludo-technologies/qgate/internal/logging"
	"github.com/ludo-technologies/qgate/internal/parser"
	"github.com/ludo-technologies/qgate/service"
	"go.uber.org/zap"
)

// AnalyzeRequest configures the fallback heuristic analysis
type AnalyzeRequest struct {
	Paths   []string
	Collect CollectOptions
	// NoArtifact skips writing connascence_full.json
	NoArtifact bool

	OutputFormat domain.OutputFormat
	OutputWriter io.Writer
}

// AnalyzeUseCase builds a connascence-shaped report from Python syntax trees
type AnalyzeUseCase struct {
	cfg        *config.Config
	store      *service.ArtifactStore
	fileHelper *FileHelper
	formatter  *service.OutputFormatterImpl
	progress   domain.ProgressManager
	logger     *zap.Logger
	now        func() time.Time
}

// NewAnalyzeUseCase creates a new analyze use case
func NewAnalyzeUseCase(cfg *config.Config, store *service.ArtifactStore, fileHelper *FileHelper, formatter *service.OutputFormatterImpl, progress domain.ProgressManager, logger *zap.Logger) *AnalyzeUseCase {
	if fileHelper == nil {
		fileHelper = NewFileHelper()
	}
	if progress == nil {
		progress = service.NewProgressManager(false)
	}
	return &AnalyzeUseCase{
		cfg:        cfg,
		store:      store,
		fileHelper: fileHelper,
		formatter:  formatter,
		progress:   progress,
		logger:     logging.OrNop(logger),
		now:        time.Now,
	}
}

// Execute analyzes every collected file and writes the fallback artifact
func (uc *AnalyzeUseCase) Execute(ctx context.Context, req AnalyzeRequest) (*domain.ConnascenceReport, error) {
	if len(req.Paths) == 0 {
		return nil, domain.NewInvalidInputError("no input paths specified", nil)
	}

	files, err := ResolveFilePaths(uc.fileHelper, req.Paths, req.Collect)
	if err != nil {
		return nil, domain.NewFileNotFoundError("failed to collect files", err)
	}
	if len(files) == 0 {
		return nil, domain.NewInvalidInputError("no Python files found in the specified paths", nil)
	}

	// only sets the report's compliant flag
	minCompliance, _ := uc.cfg.FrozenThresholds().Get(config.KeyNASAMinScore)
	a := analyzer.NewConnascenceAnalyzer(uc.cfg.Analyzer, minCompliance.Value)

	p := parser.NewParser()
	defer p.Close()

	task := uc.progress.StartTask("Analyzing files", len(files))
	defer task.Complete()

	parsed := 0
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		task.Increment(1)

		source, err := uc.fileHelper.ReadFile(file)
		if err != nil {
			uc.logger.Warn("cannot read file", zap.String("file", file), zap.Error(err))
			a.AddParseFailure()
			continue
		}
		mod, err := p.ParseFile(file, source)
		if err != nil {
			uc.logger.Warn("cannot parse file", zap.String("file", file), zap.Error(err))
			a.AddParseFailure()
			continue
		}
		a.Add(mod)
		if !mod.HasErrors {
			parsed++
		}
	}
	if parsed == 0 {
		return nil, domain.NewAnalysisError("no file could be parsed", nil)
	}

	report := a.Report(uc.now())
	if !req.NoArtifact {
		path, err := uc.store.WriteJSON(domain.ArtifactConnascence, report)
		if err != nil {
			return nil, err
		}
		uc.logger.Info("fallback analysis written", zap.String("path", path))
	}

	if req.OutputWriter != nil {
		if err := uc.formatter.WriteConnascence(report, req.OutputFormat, req.OutputWriter); err != nil {
			return nil, err
		}
	}
	return report, nil
}
