package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/ludo-technologies/qgate/domain"
	"github.com/ludo-technologies/qgate/internal/logging"
	"go.uber.org/zap"
)

// DefaultToolTimeout bounds a tool run when its spec has no timeout
const DefaultToolTimeout = 5 * time.Minute

// maxStderrInReason caps how much stderr is copied into a failure reason
const maxStderrInReason = 200

// ToolRunner invokes external CLIs and classifies the outcome
type ToolRunner struct {
	workDir string
	logger  *zap.Logger
}

// NewToolRunner creates a runner executing commands in workDir
func NewToolRunner(workDir string, logger *zap.Logger) *ToolRunner {
	return &ToolRunner{workDir: workDir, logger: logging.OrNop(logger)}
}

// Run executes spec and never returns an error: a missing binary is
// skipped, a deadline is a timeout, any other failure is failed.
func (r *ToolRunner) Run(ctx context.Context, spec domain.ToolSpec) domain.ToolRun {
	run := domain.ToolRun{Tool: spec.Name, ExitCode: -1}
	if len(spec.Command) == 0 {
		run.Status = domain.ToolStatusSkipped
		run.Reason = "no command configured"
		return run
	}

	binary, err := exec.LookPath(spec.Command[0])
	if err != nil {
		run.Status = domain.ToolStatusSkipped
		run.Reason = fmt.Sprintf("%s not installed", spec.Command[0])
		r.logger.Info("tool skipped", zap.String("tool", spec.Name), zap.String("reason", run.Reason))
		return run
	}

	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = DefaultToolTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, binary, spec.Command[1:]...)
	cmd.Dir = r.workDir
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()
	run.DurationMs = time.Since(start).Milliseconds()
	run.Output = stdout.Bytes()

	if cmd.ProcessState != nil {
		run.ExitCode = cmd.ProcessState.ExitCode()
	}

	switch {
	case runCtx.Err() == context.DeadlineExceeded:
		run.Status = domain.ToolStatusTimeout
		run.Reason = fmt.Sprintf("timed out after %s", timeout)
	case ctx.Err() != nil:
		run.Status = domain.ToolStatusFailed
		run.Reason = ctx.Err().Error()
	case err == nil:
		run.Status = domain.ToolStatusOK
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && containsInt(spec.FindingsExitCodes, exitErr.ExitCode()) {
			// the tool signals findings through its exit code
			run.Status = domain.ToolStatusOK
			break
		}
		run.Status = domain.ToolStatusFailed
		run.Reason = failureReason(err, stderr.String())
	}

	r.logger.Debug("tool finished",
		zap.String("tool", spec.Name),
		zap.String("status", string(run.Status)),
		zap.Int("exit_code", run.ExitCode),
		zap.Int64("duration_ms", run.DurationMs))
	return run
}

// toolTask adapts a tool run to the parallel executor
type toolTask struct {
	runner *ToolRunner
	spec   domain.ToolSpec
}

func (t *toolTask) Name() string    { return t.spec.Name }
func (t *toolTask) IsEnabled() bool { return true }

func (t *toolTask) Execute(ctx context.Context) (interface{}, error) {
	return t.runner.Run(ctx, t.spec), nil
}

// RunAll runs every spec concurrently through executor and returns runs
// in spec order
func (r *ToolRunner) RunAll(ctx context.Context, executor *ParallelExecutorImpl, specs []domain.ToolSpec) []domain.ToolRun {
	tasks := make([]domain.ExecutableTask, len(specs))
	for i, spec := range specs {
		tasks[i] = &toolTask{runner: r, spec: spec}
	}

	results, _ := executor.Run(ctx, tasks)

	runs := make([]domain.ToolRun, len(specs))
	for i, spec := range specs {
		runs[i] = domain.ToolRun{Tool: spec.Name, Status: domain.ToolStatusSkipped, Reason: "not executed", ExitCode: -1}
		if i >= len(results) {
			continue
		}
		if run, ok := results[i].Value.(domain.ToolRun); ok {
			runs[i] = run
		} else if results[i].Err != nil {
			runs[i].Status = domain.ToolStatusFailed
			runs[i].Reason = results[i].Err.Error()
		}
	}
	return runs
}

func failureReason(err error, stderr string) string {
	stderr = strings.TrimSpace(stderr)
	if len(stderr) > maxStderrInReason {
		stderr = stderr[:maxStderrInReason] + "..."
	}
	if stderr == "" {
		return err.Error()
	}
	return fmt.Sprintf("%v: %s", err, stderr)
}

func containsInt(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
