package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ludo-technologies/qgate/domain"
	"github.com/ludo-technologies/qgate/internal/config"
)

// funcTask adapts a function to domain.ExecutableTask
type funcTask struct {
	name    string
	enabled bool
	fn      func(ctx context.Context) (interface{}, error)
}

func (t *funcTask) Name() string    { return t.name }
func (t *funcTask) IsEnabled() bool { return t.enabled }
func (t *funcTask) Execute(ctx context.Context) (interface{}, error) {
	if t.fn == nil {
		return nil, nil
	}
	return t.fn(ctx)
}

func task(name string, fn func(ctx context.Context) (interface{}, error)) *funcTask {
	return &funcTask{name: name, enabled: true, fn: fn}
}

func TestNewParallelExecutorFromConfig(t *testing.T) {
	executor := NewParallelExecutorFromConfig(&config.PerformanceConfig{MaxGoroutines: 8, TimeoutSeconds: 120})
	assert.Equal(t, 8, executor.maxConcurrency)
	assert.Equal(t, 120*time.Second, executor.timeout)

	defaults := NewParallelExecutorFromConfig(&config.PerformanceConfig{})
	assert.Equal(t, DefaultMaxConcurrency, defaults.maxConcurrency)
	assert.Equal(t, DefaultTimeout, defaults.timeout)
}

func TestParallelExecutor_EmptyAndDisabled(t *testing.T) {
	defer goleak.VerifyNone(t)

	executor := NewParallelExecutor()
	assert.NoError(t, executor.Execute(context.Background(), nil))

	var ran atomic.Int32
	tasks := []domain.ExecutableTask{
		&funcTask{name: "off", enabled: false, fn: func(context.Context) (interface{}, error) {
			ran.Add(1)
			return nil, nil
		}},
	}
	assert.NoError(t, executor.Execute(context.Background(), tasks))
	assert.Zero(t, ran.Load())
}

func TestParallelExecutor_ResultsInTaskOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	executor := NewParallelExecutor()
	var tasks []domain.ExecutableTask
	for i := 0; i < 6; i++ {
		delay := time.Duration(6-i) * 5 * time.Millisecond
		tasks = append(tasks, task(fmt.Sprintf("t%d", i), func(context.Context) (interface{}, error) {
			time.Sleep(delay)
			return i, nil
		}))
	}

	results, err := executor.Run(context.Background(), tasks)
	require.NoError(t, err)
	require.Len(t, results, 6)
	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("t%d", i), r.Name)
		assert.Equal(t, i, r.Value)
	}
}

func TestParallelExecutor_FailuresDoNotCancelSiblings(t *testing.T) {
	defer goleak.VerifyNone(t)

	executor := NewParallelExecutor()
	errA := errors.New("a failed")
	errC := errors.New("c failed")

	results, err := executor.Run(context.Background(), []domain.ExecutableTask{
		task("a", func(context.Context) (interface{}, error) { return nil, errA }),
		task("b", func(ctx context.Context) (interface{}, error) {
			time.Sleep(20 * time.Millisecond)
			return "done", ctx.Err()
		}),
		task("c", func(context.Context) (interface{}, error) { return nil, errC }),
	})

	var agg *AggregatedError
	require.ErrorAs(t, err, &agg)
	require.Len(t, agg.Errors, 2)
	assert.Equal(t, "a", agg.Errors[0].TaskName)
	assert.Equal(t, "c", agg.Errors[1].TaskName)
	assert.ErrorIs(t, err, errA)
	assert.Contains(t, err.Error(), "2 tasks failed")

	assert.NoError(t, results[1].Err)
	assert.Equal(t, "done", results[1].Value)
}

func TestParallelExecutor_Timeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	executor := NewParallelExecutor()
	executor.SetTimeout(50 * time.Millisecond)

	err := executor.Execute(context.Background(), []domain.ExecutableTask{
		task("slow", func(ctx context.Context) (interface{}, error) {
			select {
			case <-time.After(time.Second):
				return "done", nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestParallelExecutor_Cancellation(t *testing.T) {
	defer goleak.VerifyNone(t)

	executor := NewParallelExecutor()
	ctx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{})
	errCh := make(chan error, 1)
	go func() {
		errCh <- executor.Execute(ctx, []domain.ExecutableTask{
			task("wait", func(ctx context.Context) (interface{}, error) {
				close(started)
				<-ctx.Done()
				return nil, ctx.Err()
			}),
		})
	}()

	<-started
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
}

func TestParallelExecutor_ConcurrencyLimit(t *testing.T) {
	defer goleak.VerifyNone(t)

	executor := NewParallelExecutorFromConfig(&config.PerformanceConfig{MaxGoroutines: 2, TimeoutSeconds: 30})

	var current, peak atomic.Int32
	var tasks []domain.ExecutableTask
	for i := 0; i < 5; i++ {
		tasks = append(tasks, task(fmt.Sprintf("t%d", i), func(context.Context) (interface{}, error) {
			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			current.Add(-1)
			return nil, nil
		}))
	}

	require.NoError(t, executor.Execute(context.Background(), tasks))
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestParallelExecutor_Setters(t *testing.T) {
	executor := NewParallelExecutor()
	original := executor.maxConcurrency

	executor.SetMaxConcurrency(0)
	executor.SetMaxConcurrency(-1)
	assert.Equal(t, original, executor.maxConcurrency)
	executor.SetMaxConcurrency(16)
	assert.Equal(t, 16, executor.maxConcurrency)

	executor.SetTimeout(0)
	assert.Equal(t, DefaultTimeout, executor.timeout)
	executor.SetTimeout(time.Minute)
	assert.Equal(t, time.Minute, executor.timeout)
}

func TestParallelExecutor_ReportsProgress(t *testing.T) {
	pm := &countingProgress{}
	executor := NewParallelExecutorWithProgress(&config.PerformanceConfig{MaxGoroutines: 2}, pm)

	require.NoError(t, executor.Execute(context.Background(), []domain.ExecutableTask{
		task("a", nil), task("b", nil), task("c", nil),
	}))
	assert.Equal(t, int32(3), pm.increments.Load())
	assert.Equal(t, 3, pm.total)
}

type countingProgress struct {
	NoOpProgressManager
	total      int
	increments atomic.Int32
}

func (p *countingProgress) StartTask(_ string, total int) domain.TaskProgress {
	p.total = total
	return &countingTask{p: p}
}

type countingTask struct {
	NoOpTaskProgress
	p *countingProgress
}

func (t *countingTask) Increment(n int) { t.p.increments.Add(int32(n)) }
