package scheduler

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ajitpratap0/flightsync/pkg/connector/core"
	"github.com/ajitpratap0/flightsync/pkg/errors"
	"github.com/ajitpratap0/flightsync/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

type fakeRunner struct {
	calls   atomic.Int64
	err     error
	release chan struct{}
	mu      sync.Mutex
	ctxs    []context.Context
}

func (f *fakeRunner) RunCycle(ctx context.Context) (core.State, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.ctxs = append(f.ctxs, ctx)
	f.mu.Unlock()

	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return core.State{}, f.err
}

func TestNew_InvalidSchedule(t *testing.T) {
	_, err := New("every five minutes", &fakeRunner{}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestScheduler_RunOnStart(t *testing.T) {
	runner := &fakeRunner{}
	s, err := New("@every 1h", runner, testutil.TestLogger(t))
	require.NoError(t, err)

	s.Start(context.Background(), true)
	testutil.AssertEventually(t, func() bool { return s.Runs() == 1 }, time.Second, "immediate run")
	require.NoError(t, s.Stop(context.Background()))

	assert.Equal(t, int64(1), runner.calls.Load())
	assert.False(t, s.LastRun().IsZero())
	assert.WithinDuration(t, time.Now().Add(time.Hour), s.Next(), time.Minute)
}

func TestScheduler_FiresOnSchedule(t *testing.T) {
	runner := &fakeRunner{err: stderrors.New("sink down")}
	s, err := New("@every 1s", runner, testutil.TestLogger(t))
	require.NoError(t, err)

	s.Start(context.Background(), false)
	testutil.AssertEventually(t, func() bool { return s.Runs() >= 1 }, 3*time.Second, "scheduled run")
	require.NoError(t, s.Stop(context.Background()))

	assert.Equal(t, s.Runs(), s.Failures())
}

func TestScheduler_SkipsOverlappingRuns(t *testing.T) {
	log, logs := testutil.ObservedLogger(zapcore.DebugLevel)
	runner := &fakeRunner{release: make(chan struct{})}
	s, err := New("@every 1h", runner, log)
	require.NoError(t, err)

	s.Start(context.Background(), true)
	testutil.AssertEventually(t, func() bool { return runner.calls.Load() == 1 }, time.Second, "first run started")

	s.RunNow()
	testutil.AssertEventually(t, func() bool { return logs.FilterMessage("skip").Len() == 1 }, time.Second, "overlap skipped")

	close(runner.release)
	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, int64(1), runner.calls.Load())
	assert.Equal(t, int64(1), s.Runs())
}

func TestScheduler_StopWaitsForRunningCycle(t *testing.T) {
	runner := &fakeRunner{release: make(chan struct{})}
	s, err := New("@every 1h", runner, nil)
	require.NoError(t, err)

	s.Start(context.Background(), true)
	testutil.AssertEventually(t, func() bool { return runner.calls.Load() == 1 }, time.Second, "run started")

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(runner.release)
	}()
	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, int64(1), s.Runs())
}

func TestScheduler_StopTimeoutCancelsCycle(t *testing.T) {
	runner := &fakeRunner{release: make(chan struct{})}
	s, err := New("@every 1h", runner, nil)
	require.NoError(t, err)

	s.Start(context.Background(), true)
	testutil.AssertEventually(t, func() bool { return runner.calls.Load() == 1 }, time.Second, "run started")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Stop(ctx), context.DeadlineExceeded)

	runner.mu.Lock()
	runCtx := runner.ctxs[0]
	runner.mu.Unlock()
	testutil.AssertEventually(t, func() bool { return runCtx.Err() != nil }, time.Second, "cycle cancelled")
}
