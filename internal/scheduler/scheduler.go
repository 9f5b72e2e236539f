// Package scheduler runs maintenance callbacks on a fixed interval.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Func is a scheduled callback.
type Func func(ctx context.Context) error

// Job calls its Func every interval until its context ends or Stop is called.
// A failing or panicking call is logged and the schedule continues.
type Job struct {
	name     string
	interval time.Duration
	fn       Func
	logger   *zap.Logger

	runs     atomic.Int64
	failures atomic.Int64

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}
}

// New creates a stopped job. The first call happens one interval after Start.
func New(interval time.Duration, name string, fn Func, logger *zap.Logger) (*Job, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", interval)
	}
	if fn == nil {
		return nil, fmt.Errorf("callback cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Job{
		name:     name,
		interval: interval,
		fn:       fn,
		logger:   logger.With(zap.String("job", name)),
	}, nil
}

// Start launches the ticker goroutine.
func (j *Job) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.running {
		return fmt.Errorf("job %s is already running", j.name)
	}
	j.running = true
	j.stopCh = make(chan struct{})
	j.done = make(chan struct{})
	go j.loop(ctx, j.stopCh, j.done)
	j.logger.Info("scheduled job started", zap.Duration("interval", j.interval))
	return nil
}

// Stop ends the schedule and waits for an in-flight call to return.
// Stopping a job that is not running is a no-op.
func (j *Job) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	j.running = false
	close(j.stopCh)
	done := j.done
	j.mu.Unlock()

	<-done
	j.logger.Info("scheduled job stopped", zap.Int64("runs", j.runs.Load()))
}

// Runs returns how many calls have completed, failed ones included.
func (j *Job) Runs() int64 { return j.runs.Load() }

// Failures returns how many calls returned an error or panicked.
func (j *Job) Failures() int64 { return j.failures.Load() }

func (j *Job) loop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			j.mu.Lock()
			j.running = false
			j.mu.Unlock()
			return
		case <-stop:
			return
		case <-ticker.C:
			j.runOnce(ctx)
		}
	}
}

func (j *Job) runOnce(ctx context.Context) {
	defer j.runs.Add(1)
	defer func() {
		if r := recover(); r != nil {
			j.failures.Add(1)
			j.logger.Error("scheduled job panicked", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()
	if err := j.fn(ctx); err != nil {
		j.failures.Add(1)
		j.logger.Warn("scheduled job failed", zap.Error(err))
	}
}
