package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	_, err := New(0, "zero", func(context.Context) error { return nil }, nil)
	assert.Error(t, err)
	_, err = New(time.Second, "nil", nil, nil)
	assert.Error(t, err)
}

func TestJob_RunsRepeatedly(t *testing.T) {
	calls := make(chan struct{}, 100)
	job, err := New(5*time.Millisecond, "tick", func(context.Context) error {
		calls <- struct{}{}
		return nil
	}, nil)
	require.NoError(t, err)
	require.NoError(t, job.Start(context.Background()))
	defer job.Stop()

	for i := 0; i < 3; i++ {
		select {
		case <-calls:
		case <-time.After(2 * time.Second):
			t.Fatalf("call %d never happened", i)
		}
	}
	assert.Error(t, job.Start(context.Background()), "second start")
}

func TestJob_SurvivesErrorsAndPanics(t *testing.T) {
	n := 0
	calls := make(chan int, 100)
	job, err := New(5*time.Millisecond, "flaky", func(context.Context) error {
		n++
		calls <- n
		switch n % 3 {
		case 1:
			return errors.New("boom")
		case 2:
			panic("worse")
		}
		return nil
	}, nil)
	require.NoError(t, err)
	require.NoError(t, job.Start(context.Background()))

	deadline := time.After(2 * time.Second)
	for got := 0; got < 4; {
		select {
		case got = <-calls:
		case <-deadline:
			t.Fatal("schedule stopped after a failing call")
		}
	}
	job.Stop()
	assert.GreaterOrEqual(t, job.Failures(), int64(2))
	assert.GreaterOrEqual(t, job.Runs(), int64(3))
}

func TestJob_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	job, err := New(time.Hour, "idle", func(context.Context) error { return nil }, nil)
	require.NoError(t, err)
	require.NoError(t, job.Start(ctx))
	cancel()

	// Stop must not hang once the loop has exited on its own.
	stopped := make(chan struct{})
	go func() {
		job.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop hung after context cancellation")
	}
	assert.Equal(t, int64(0), job.Runs())
}

func TestJob_StopIdempotent(t *testing.T) {
	job, err := New(time.Hour, "idle", func(context.Context) error { return nil }, nil)
	require.NoError(t, err)
	job.Stop()
	require.NoError(t, job.Start(context.Background()))
	job.Stop()
	job.Stop()
}
