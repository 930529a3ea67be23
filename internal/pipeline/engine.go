// Package pipeline runs flightsync sync cycles: fetch one snapshot from a
// source, bound it, normalize and upsert each record into a destination, and
// checkpoint the resulting state.
//
// # Basic Usage
//
//	engine := pipeline.NewEngine(source, destination, store, pipeline.Config{
//	    Limit:        300,
//	    FetchTimeout: 15 * time.Second,
//	}, logger, collector)
//
//	if err := engine.Prepare(ctx); err != nil {
//	    return err
//	}
//	state, err := engine.RunCycle(ctx)
//
// A cycle is all-or-nothing with respect to the checkpoint: the state is
// written only after every bounded record has been handed to the sink. A
// transport failure while fetching abandons the cycle without error and
// writes the prior state back unchanged. Cancelling ctx only interrupts the
// fetch; once a snapshot is in hand it is emitted and checkpointed in full.
package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ajitpratap0/flightsync/pkg/connector/core"
	"github.com/ajitpratap0/flightsync/pkg/errors"
	"github.com/ajitpratap0/flightsync/pkg/logger"
	"github.com/ajitpratap0/flightsync/pkg/metrics"
	"github.com/ajitpratap0/flightsync/pkg/observability"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Phase is the position of an engine within a cycle
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseFetching
	PhaseBounding
	PhaseEmitting
	PhaseCheckpointing
)

// String returns the phase name
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseFetching:
		return "fetching"
	case PhaseBounding:
		return "bounding"
	case PhaseEmitting:
		return "emitting"
	case PhaseCheckpointing:
		return "checkpointing"
	default:
		return "unknown"
	}
}

// DefaultFetchTimeout bounds a fetch when Config.FetchTimeout is unset
const DefaultFetchTimeout = 15 * time.Second

// Config controls a single engine
type Config struct {
	// Limit is the maximum number of records emitted per cycle; <= 0 is unbounded
	Limit int
	// FetchTimeout bounds the fetch phase
	FetchTimeout time.Duration
	// CursorColumn enables incremental mode when set. It must name a
	// UTC_DATETIME column; its maximum emitted value is kept in the state
	// under the same name.
	CursorColumn string
}

// Engine drives sync cycles for one source/destination pair
type Engine struct {
	source      core.Source
	destination core.Destination
	store       core.CheckpointStore
	schema      *core.TableSchema
	config      Config

	logger  *zap.Logger
	metrics *metrics.Collector
	tracer  *observability.ConnectorTracer

	phase atomic.Int32
	mu    sync.Mutex
}

// NewEngine creates an engine. store may be nil when the engine is only
// driven through a Connector; a nil collector gets a private one.
func NewEngine(source core.Source, destination core.Destination, store core.CheckpointStore, config Config, log *zap.Logger, collector *metrics.Collector) *Engine {
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = DefaultFetchTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	if collector == nil {
		collector = metrics.NewCollector(source.Name())
	}

	return &Engine{
		source:      source,
		destination: destination,
		store:       store,
		schema:      source.Schema(),
		config:      config,
		logger:      log.With(zap.String("component", "engine")),
		metrics:     collector,
		tracer:      observability.NewConnectorTracer(source.Name()),
	}
}

// Phase returns the current phase
func (e *Engine) Phase() Phase {
	return Phase(e.phase.Load())
}

func (e *Engine) setPhase(p Phase) {
	e.phase.Store(int32(p))
}

// Schema returns the table the engine populates
func (e *Engine) Schema() *core.TableSchema {
	return e.schema
}

// Prepare validates the schema and registers the table with the destination
func (e *Engine) Prepare(ctx context.Context) error {
	if err := e.schema.Validate(); err != nil {
		return err
	}
	if e.config.CursorColumn != "" {
		col, ok := e.schema.Column(e.config.CursorColumn)
		if !ok || col.Type != core.ColumnTypeUTCDateTime {
			return errors.Newf(errors.ErrorTypeConfig, "cursor column %s must be a %s column of %s",
				e.config.CursorColumn, core.ColumnTypeUTCDateTime, e.schema.Table)
		}
	}
	if err := e.destination.CreateTable(ctx, e.schema); err != nil {
		return errors.Wrap(err, errors.ErrorTypeSink, "failed to create destination table").
			WithDetail("table", e.schema.Table)
	}
	return nil
}

// RunCycle reads the prior state from the checkpoint store, runs one cycle
// and writes the resulting state back. Overlapping calls are serialized.
func (e *Engine) RunCycle(ctx context.Context) (core.State, error) {
	if e.store == nil {
		return nil, errors.New(errors.ErrorTypeConfig, "engine has no checkpoint store")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	prior, err := e.store.Read(ctx)
	if err != nil {
		if !errors.HasType(err, errors.ErrorTypeCheckpoint) {
			err = errors.Wrap(err, errors.ErrorTypeCheckpoint, "failed to read checkpoint")
		}
		e.logger.Error("checkpoint read failed", zap.Error(err))
		return nil, err
	}

	next, err := e.run(ctx, prior, true)
	if err != nil {
		return nil, err
	}
	return next, nil
}

// cycleStats are the counters of one cycle
type cycleStats struct {
	fetched int
	bounded int
	emitted int
	skipped int
}

// run executes one cycle from prior. With persist set the resulting state is
// written to the store before returning.
func (e *Engine) run(ctx context.Context, prior core.State, persist bool) (core.State, error) {
	defer e.setPhase(PhaseIdle)

	cycleID := uuid.NewString()
	ctx = logger.WithCycleID(logger.WithConnector(ctx, e.source.Name()), cycleID)
	log := logger.FromContext(ctx, e.logger)
	timer := metrics.NewTimer("cycle")

	ctx, span := e.tracer.StartSpan(ctx, "cycle")
	defer span.End()
	span.SetAttribute("cycle.id", cycleID)
	span.SetAttribute("cycle.limit", e.config.Limit)

	prior = prior.Clone()
	log.Info("sync cycle started",
		zap.Int("limit", e.config.Limit),
		zap.Bool("incremental", e.config.CursorColumn != ""))

	records, err := e.fetch(ctx, prior)

	// Past the fetch the cycle no longer observes cancellation.
	parent := ctx
	ctx = context.WithoutCancel(ctx)

	if err != nil {
		if parent.Err() != nil || !errors.IsTransport(err) {
			log.Error("sync cycle failed", zap.Error(err))
			span.RecordError(err)
			e.metrics.ObserveCycle(metrics.OutcomeFailed, timer.Stop())
			return nil, err
		}

		log.Error("fetch failed; keeping prior checkpoint", zap.Error(err))
		span.RecordError(err)
		return e.finish(ctx, log, prior, persist, metrics.OutcomeFetchFailed, timer, cycleStats{})
	}

	stats := cycleStats{fetched: len(records)}
	e.metrics.RecordsFetched(stats.fetched)
	span.SetAttribute("records.fetched", stats.fetched)

	if len(records) == 0 {
		log.Info("no records returned; checkpoint unchanged")
		return e.finish(ctx, log, prior, persist, metrics.OutcomeEmpty, timer, stats)
	}

	e.setPhase(PhaseBounding)
	records = bound(records, e.config.Limit)
	stats.bounded = len(records)

	e.setPhase(PhaseEmitting)
	next, err := e.emit(ctx, log, prior, records, &stats)
	e.metrics.RecordsUpserted(stats.emitted)
	e.metrics.RecordsSkipped(stats.skipped)
	if err != nil {
		log.Error("sync cycle failed; checkpoint not written",
			zap.Int("emitted", stats.emitted),
			zap.Error(err))
		span.RecordError(err)
		e.metrics.ObserveCycle(metrics.OutcomeFailed, timer.Stop())
		return nil, err
	}

	span.SetAttribute("records.emitted", stats.emitted)
	span.SetAttribute("records.skipped", stats.skipped)
	return e.finish(ctx, log, next, persist, metrics.OutcomeSuccess, timer, stats)
}

// fetch calls the source under the fetch timeout. A deadline hit by our own
// timeout is reported as a timeout even if the source returned a bare
// context error.
func (e *Engine) fetch(ctx context.Context, state core.State) ([]core.SourceRecord, error) {
	e.setPhase(PhaseFetching)

	ctx, span := e.tracer.StartSpan(ctx, "fetch")
	defer span.End()

	fetchCtx, cancel := context.WithTimeout(ctx, e.config.FetchTimeout)
	defer cancel()

	records, err := e.source.Fetch(fetchCtx, state)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			err = errors.Wrap(ctx.Err(), errors.ErrorTypeInternal, "cycle cancelled during fetch")
		case !errors.IsTransport(err) && fetchCtx.Err() != nil:
			err = errors.Wrap(err, errors.ErrorTypeTimeout, "fetch timed out").
				WithDetail("timeout", e.config.FetchTimeout.String())
		}
		span.RecordError(err)
		return nil, err
	}
	return records, nil
}

// bound keeps the first limit records in source order
func bound(records []core.SourceRecord, limit int) []core.SourceRecord {
	if limit > 0 && len(records) > limit {
		return records[:limit]
	}
	return records
}

// emit normalizes and upserts records in order and returns the next state.
// The first sink error aborts the emission.
func (e *Engine) emit(ctx context.Context, log *zap.Logger, prior core.State, records []core.SourceRecord, stats *cycleStats) (core.State, error) {
	ctx, span := e.tracer.StartSpan(ctx, "emit")
	defer span.End()

	cur := e.newCursor(log, prior)
	table := e.schema.Table

	for i, raw := range records {
		record := e.source.Normalize(raw)

		if _, err := e.schema.Key(record); err != nil {
			stats.skipped++
			log.Warn("skipping record with null primary key",
				zap.Int("position", i),
				zap.Strings("primary_key", e.schema.PrimaryKey))
			continue
		}

		if !cur.admit(record) {
			stats.skipped++
			continue
		}

		if err := e.destination.Upsert(ctx, table, record); err != nil {
			wrapped := errors.Wrap(err, errors.ErrorTypeSink, "failed to upsert record").
				WithDetail("table", table).
				WithDetail("position", i)
			span.RecordError(wrapped)
			return nil, wrapped
		}
		stats.emitted++
		cur.advance(record)
	}

	return cur.state(prior), nil
}

// finish writes the state (when persisting), records the outcome and logs
// completion.
func (e *Engine) finish(ctx context.Context, log *zap.Logger, state core.State, persist bool, outcome metrics.Outcome, timer *metrics.Timer, stats cycleStats) (core.State, error) {
	if persist {
		e.setPhase(PhaseCheckpointing)
		if err := e.store.Write(ctx, state); err != nil {
			if !errors.HasType(err, errors.ErrorTypeCheckpoint) {
				err = errors.Wrap(err, errors.ErrorTypeCheckpoint, "failed to write checkpoint")
			}
			log.Error("checkpoint write failed", zap.Error(err))
			e.metrics.ObserveCycle(metrics.OutcomeFailed, timer.Stop())
			return nil, err
		}
	}

	duration := timer.Stop()
	e.metrics.ObserveCycle(outcome, duration)

	log.Info("sync cycle completed",
		zap.String("outcome", string(outcome)),
		zap.Int("fetched", stats.fetched),
		zap.Int("bounded", stats.bounded),
		zap.Int("emitted", stats.emitted),
		zap.Int("skipped", stats.skipped),
		zap.Duration("duration", duration))

	return state, nil
}

// cursor tracks the incremental high-water mark of one cycle. The zero
// value (no column) admits everything and leaves the state untouched.
type cursor struct {
	column string
	since  time.Time
	max    time.Time
}

func (e *Engine) newCursor(log *zap.Logger, prior core.State) *cursor {
	c := &cursor{column: e.config.CursorColumn}
	if c.column == "" {
		return c
	}

	raw, ok := prior[c.column]
	if !ok || raw == nil {
		return c
	}
	s, ok := raw.(string)
	if !ok {
		log.Warn("ignoring non-string cursor in checkpoint", zap.String("column", c.column))
		return c
	}
	since, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		log.Warn("ignoring malformed cursor in checkpoint",
			zap.String("column", c.column),
			zap.String("value", s))
		return c
	}
	c.since = since.UTC()
	c.max = c.since
	return c
}

// admit reports whether record is newer than the stored cursor. Records
// without a cursor value are always admitted.
func (c *cursor) admit(record core.Record) bool {
	if c.column == "" || c.since.IsZero() {
		return true
	}
	ts, ok := record[c.column].(time.Time)
	if !ok {
		return true
	}
	return ts.After(c.since)
}

func (c *cursor) advance(record core.Record) {
	if c.column == "" {
		return
	}
	if ts, ok := record[c.column].(time.Time); ok && ts.After(c.max) {
		c.max = ts.UTC()
	}
}

// state returns prior with the cursor applied
func (c *cursor) state(prior core.State) core.State {
	if c.column == "" || c.max.IsZero() {
		return prior
	}
	next := prior.Clone()
	next[c.column] = c.max.Format(time.RFC3339Nano)
	return next
}
