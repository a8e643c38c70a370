package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ludo-technologies/qgate/domain"
	"github.com/ludo-technologies/qgate/internal/config"
	"github.com/ludo-technologies/qgate/internal/logging"
	"github.com/ludo-technologies/qgate/internal/version"
	"github.com/ludo-technologies/qgate/service"
	"go.uber.org/zap"
)

// CheckRequest configures one quality gate run
type CheckRequest struct {
	// Gates restricts the run to the named gates; empty runs all of them
	Gates []string
	// Overrides are threshold values given on the command line
	Overrides map[string]float64
	Policy    domain.ExitPolicy

	OutputFormat domain.OutputFormat
	OutputWriter io.Writer

	// MetricsFile receives the Prometheus textfile when set
	MetricsFile string
}

// CheckOutcome is what a gate run produced
type CheckOutcome struct {
	Result     *domain.CheckResult
	Report     *domain.ConsolidatedReport
	ReportPath string
}

// CheckUseCase evaluates the gates, consolidates the report and writes it
type CheckUseCase struct {
	cfg       *config.Config
	store     *service.ArtifactStore
	formatter *service.OutputFormatterImpl
	logger    *zap.Logger
	now       func() time.Time
}

// NewCheckUseCase creates a check use case over store
func NewCheckUseCase(cfg *config.Config, store *service.ArtifactStore, formatter *service.OutputFormatterImpl, logger *zap.Logger) *CheckUseCase {
	return &CheckUseCase{
		cfg:       cfg,
		store:     store,
		formatter: formatter,
		logger:    logging.OrNop(logger),
		now:       time.Now,
	}
}

// Execute runs the gates and prints the verdict. The returned exit code
// is in Result.ExitCode; an error means the run itself failed.
func (uc *CheckUseCase) Execute(ctx context.Context, req CheckRequest) (*CheckOutcome, error) {
	outcome, err := uc.evaluate(ctx, req)
	if err != nil {
		return nil, err
	}
	if req.OutputWriter != nil {
		if err := uc.formatter.WriteCheck(outcome.Result, req.OutputFormat, req.OutputWriter); err != nil {
			return nil, err
		}
	}
	return outcome, nil
}

// Consolidate runs the same evaluation but prints the consolidated report
func (uc *CheckUseCase) Consolidate(ctx context.Context, req CheckRequest) (*CheckOutcome, error) {
	outcome, err := uc.evaluate(ctx, req)
	if err != nil {
		return nil, err
	}
	if req.OutputWriter != nil {
		if err := uc.formatter.WriteReport(outcome.Report, req.OutputFormat, req.OutputWriter); err != nil {
			return nil, err
		}
	}
	return outcome, nil
}

func (uc *CheckUseCase) evaluate(ctx context.Context, req CheckRequest) (*CheckOutcome, error) {
	start := uc.now()

	for _, name := range req.Gates {
		if _, ok := config.LookupGate(name); !ok {
			return nil, domain.NewInvalidInputError(fmt.Sprintf("unknown gate '%s'", name), nil)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	thresholds := service.ApplyThresholdOverrides(uc.cfg.FrozenThresholds(), req.Overrides)
	checks := service.SelectChecks(service.BuildStandardChecks(thresholds), req.Gates)
	gates := service.NewGateEvaluator(uc.store).EvaluateAll(checks)

	for _, g := range gates {
		uc.logger.Debug("gate evaluated",
			zap.String("gate", g.Name),
			zap.Bool("passed", g.Passed),
			zap.String("outcome", string(g.Outcome)),
			zap.Float64("metric", g.Metric))
	}

	summary := domain.Summarize(gates, req.Policy)
	result := &domain.CheckResult{
		Passed:      summary.FailedGates == 0,
		ExitCode:    req.Policy.ExitCode(gates),
		Gates:       gates,
		Summary:     summary,
		Policy:      req.Policy,
		GeneratedAt: start.Format(time.RFC3339),
		Version:     version.GetVersion(),
	}

	report := service.NewConsolidator(uc.store, uc.cfg.Consolidation).Consolidate(gates, req.Policy)
	report.Commit = version.Get().Commit
	reportPath, err := uc.store.WriteJSON(uc.cfg.Artifacts.Report, report)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("report written", zap.String("path", reportPath), zap.String("run_id", report.RunID))

	if req.MetricsFile != "" {
		exporter := service.NewMetricsExporter()
		exporter.Record(gates, report)
		if err := exporter.WriteTextfile(req.MetricsFile); err != nil {
			return nil, err
		}
	}

	result.Duration = uc.now().Sub(start).Milliseconds()
	return &CheckOutcome{Result: result, Report: report, ReportPath: reportPath}, nil
}
