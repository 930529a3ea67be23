package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/ajitpratap0/flightsync/internal/pipeline"
	"github.com/ajitpratap0/flightsync/internal/scheduler"
	"github.com/ajitpratap0/flightsync/pkg/config"
	"github.com/ajitpratap0/flightsync/pkg/connector/core"
	"github.com/ajitpratap0/flightsync/pkg/connector/registry"
	"github.com/ajitpratap0/flightsync/pkg/connector/sources/opensky"
	"github.com/ajitpratap0/flightsync/pkg/logger"
	"github.com/ajitpratap0/flightsync/pkg/metrics"
	"github.com/ajitpratap0/flightsync/pkg/observability"
)

const shutdownTimeout = 30 * time.Second

// app holds the components of one configured connector
type app struct {
	cfg         *config.Config
	log         *zap.Logger
	collector   *metrics.Collector
	source      core.Source
	destination core.Destination
	store       core.CheckpointStore
	engine      *pipeline.Engine

	shutdownTracing observability.ShutdownFunc
}

// newApp creates the source, destination and checkpoint store named by cfg
// and prepares the destination table.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	err := logger.Init(cfg.Logging)
	if err != nil {
		return nil, err
	}
	log := logger.With(zap.String("component", "flightsync-cli"))

	a := &app{
		cfg:       cfg,
		log:       log,
		collector: metrics.NewCollector(cfg.Connector),
	}

	a.shutdownTracing, err = observability.InitTracing(observability.TracingConfig{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    "flightsync",
		ServiceVersion: version,
	})
	if err != nil {
		return nil, err
	}

	opts := registry.Options{Logger: log, Metrics: a.collector}

	if a.source, err = registry.CreateSource(cfg.Connector, cfg, opts); err != nil {
		a.Close()
		return nil, err
	}
	if a.destination, err = registry.CreateDestination(cfg.Destination.Type, cfg, opts); err != nil {
		a.Close()
		return nil, err
	}
	if a.store, err = registry.CreateCheckpoint(cfg.Checkpoint.Type, cfg, opts); err != nil {
		a.Close()
		return nil, err
	}

	engineCfg := pipeline.Config{
		Limit:        cfg.Limit(),
		FetchTimeout: cfg.Timeouts.Request,
	}
	if cfg.Sync.Incremental {
		engineCfg.CursorColumn = opensky.ColLastContact
	}
	a.engine = pipeline.NewEngine(a.source, a.destination, a.store, engineCfg, log, a.collector)

	if err := a.engine.Prepare(ctx); err != nil {
		a.Close()
		return nil, err
	}

	log.Info("connector ready",
		zap.String("connector", cfg.Connector),
		zap.String("destination", cfg.Destination.Type),
		zap.String("checkpoint", cfg.Checkpoint.Type),
		zap.Int("flight_limit", cfg.Limit()))
	return a, nil
}

// Serve runs cycles on the configured schedule until ctx is cancelled
func (a *app) Serve(ctx context.Context) error {
	sched, err := scheduler.New(a.cfg.Sync.Schedule, a.engine, a.log)
	if err != nil {
		return err
	}

	var srv *http.Server
	if a.cfg.Metrics.Enabled {
		srv = &http.Server{
			Addr:              a.cfg.Metrics.Listen,
			Handler:           newServeMux(a.collector, sched),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			a.log.Info("serving metrics", zap.String("listen", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	sched.Start(ctx, a.cfg.Sync.RunOnStart)
	<-ctx.Done()
	a.log.Info("shutting down")

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err = sched.Stop(stopCtx)
	if srv != nil {
		if serr := srv.Shutdown(stopCtx); serr != nil && err == nil {
			err = serr
		}
	}
	return err
}

// Close releases every component that was created
func (a *app) Close() {
	type closer struct {
		name string
		fn   func() error
	}
	var closers []closer
	if a.source != nil {
		closers = append(closers, closer{"source", a.source.Close})
	}
	if a.destination != nil {
		closers = append(closers, closer{"destination", a.destination.Close})
	}
	if a.store != nil {
		closers = append(closers, closer{"checkpoint store", a.store.Close})
	}

	for _, c := range closers {
		if err := c.fn(); err != nil {
			a.log.Warn("failed to close "+c.name, zap.Error(err))
		}
	}

	if a.shutdownTracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.shutdownTracing(ctx); err != nil {
			a.log.Warn("failed to flush traces", zap.Error(err))
		}
	}
	_ = logger.Sync()
}

// health is the /healthz payload
type health struct {
	Status   string     `json:"status"`
	Runs     int64      `json:"runs"`
	Failures int64      `json:"failures"`
	LastRun  *time.Time `json:"last_run,omitempty"`
	NextRun  time.Time  `json:"next_run"`
}

func newServeMux(collector *metrics.Collector, sched *scheduler.Scheduler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		h := health{
			Status:   "ok",
			Runs:     sched.Runs(),
			Failures: sched.Failures(),
			NextRun:  sched.Next(),
		}
		if last := sched.LastRun(); !last.IsZero() {
			h.LastRun = &last
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(h)
	})
	return mux
}
