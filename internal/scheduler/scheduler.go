// Package scheduler runs sync cycles on a cron schedule for the serve command.
// A cycle that is still running when the next tick fires causes that tick to
// be skipped, so cycles never overlap.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ajitpratap0/flightsync/pkg/connector/core"
	"github.com/ajitpratap0/flightsync/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Runner runs one cycle. *pipeline.Engine satisfies it.
type Runner interface {
	RunCycle(ctx context.Context) (core.State, error)
}

// Scheduler triggers a Runner on a cron spec
type Scheduler struct {
	spec   string
	runner Runner
	logger *zap.Logger

	cron  *cron.Cron
	job   cron.Job
	entry cron.EntryID

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	runs     atomic.Int64
	failures atomic.Int64
	lastRun  atomic.Int64
}

// New parses spec ("@every 5m", "*/5 * * * *", ...) and prepares a scheduler
func New(spec string, runner Runner, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "scheduler"))
	cl := cronLogger{l: logger.Sugar()}

	s := &Scheduler{
		spec:   spec,
		runner: runner,
		logger: logger,
		cron:   cron.New(cron.WithLogger(cl)),
	}
	s.job = cron.NewChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)).Then(cron.FuncJob(s.run))

	id, err := s.cron.AddJob(spec, s.job)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid sync schedule").
			WithDetail("schedule", spec)
	}
	s.entry = id
	return s, nil
}

// Start begins firing on the schedule. Cycles run under ctx; with runNow set
// one cycle is triggered immediately.
func (s *Scheduler) Start(ctx context.Context, runNow bool) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron.Start()

	s.logger.Info("scheduler started",
		zap.String("schedule", s.spec),
		zap.Time("next", s.Next()))

	if runNow {
		s.RunNow()
	}
}

// RunNow triggers a cycle outside the schedule. It is skipped when a cycle
// is already running.
func (s *Scheduler) RunNow() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.job.Run()
	}()
}

// Stop stops firing and waits for a running cycle to finish. If ctx expires
// first the running cycle is cancelled and ctx's error returned.
func (s *Scheduler) Stop(ctx context.Context) error {
	stopped := s.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-stopped.Done()
		s.wg.Wait()
		close(done)
	}()

	defer func() {
		if s.cancel != nil {
			s.cancel()
		}
	}()

	select {
	case <-done:
		s.logger.Info("scheduler stopped", zap.Int64("runs", s.runs.Load()))
		return nil
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out; cancelling running cycle")
		return ctx.Err()
	}
}

// Next returns the next scheduled fire time
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

// Runs returns the number of completed cycles
func (s *Scheduler) Runs() int64 {
	return s.runs.Load()
}

// Failures returns the number of cycles that returned an error
func (s *Scheduler) Failures() int64 {
	return s.failures.Load()
}

// LastRun returns when the last cycle completed, or the zero time
func (s *Scheduler) LastRun() time.Time {
	ns := s.lastRun.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

func (s *Scheduler) run() {
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		return
	}

	if _, err := s.runner.RunCycle(ctx); err != nil {
		s.failures.Add(1)
		s.logger.Error("scheduled cycle failed", zap.Error(err))
	}
	s.runs.Add(1)
	s.lastRun.Store(time.Now().UnixNano())
}

// cronLogger adapts zap to cron.Logger. cron's routine messages go to debug.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
