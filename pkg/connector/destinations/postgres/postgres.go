// Package postgres provides a PostgreSQL destination using pgx connection pools.
package postgres

import (
	"context"
	"sync"
	"time"

	"github.com/ajitpratap0/flightsync/pkg/config"
	"github.com/ajitpratap0/flightsync/pkg/connector/core"
	"github.com/ajitpratap0/flightsync/pkg/connector/destinations/sqlgen"
	"github.com/ajitpratap0/flightsync/pkg/connector/registry"
	"github.com/ajitpratap0/flightsync/pkg/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Name is the registry name of the destination
const Name = "postgres"

func init() {
	_ = registry.RegisterDestination(Name, func(cfg *config.Config, opts registry.Options) (core.Destination, error) {
		ctx, cancel := cfg.SinkContext()
		defer cancel()
		return Open(ctx, cfg.Destination.DSN, opts.Log())
	})
}

// Destination upserts records with INSERT ... ON CONFLICT DO UPDATE
type Destination struct {
	pool   *pgxpool.Pool
	logger *zap.Logger

	mu     sync.RWMutex
	tables map[string]table
}

type table struct {
	schema *core.TableSchema
	upsert string
}

// Open connects to dsn and verifies the connection
func Open(ctx context.Context, dsn string, logger *zap.Logger) (*Destination, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse connection string")
	}
	if poolConfig.MaxConns <= 0 {
		poolConfig.MaxConns = 4
	}
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to create connection pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to validate connection")
	}

	logger = logger.With(zap.String("destination", Name))
	logger.Info("connected to PostgreSQL",
		zap.String("host", poolConfig.ConnConfig.Host),
		zap.String("database", poolConfig.ConnConfig.Database),
		zap.Int32("max_connections", poolConfig.MaxConns))

	return &Destination{
		pool:   pool,
		logger: logger,
		tables: make(map[string]table),
	}, nil
}

// Pool exposes the connection pool
func (d *Destination) Pool() *pgxpool.Pool {
	return d.pool
}

// CreateTable creates the table if it does not exist
func (d *Destination) CreateTable(ctx context.Context, schema *core.TableSchema) error {
	if err := schema.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.tables[schema.Table]; ok {
		return nil
	}
	if _, err := d.pool.Exec(ctx, sqlgen.CreateTable(sqlgen.Postgres, schema)); err != nil {
		return errors.Wrap(err, errors.ErrorTypeSink, "failed to create table "+schema.Table)
	}

	d.tables[schema.Table] = table{schema: schema, upsert: sqlgen.Upsert(sqlgen.Postgres, schema)}
	d.logger.Info("table registered", zap.String("table", schema.Table))
	return nil
}

// Upsert writes record, replacing the row with the same primary key
func (d *Destination) Upsert(ctx context.Context, name string, record core.Record) error {
	d.mu.RLock()
	t, ok := d.tables[name]
	d.mu.RUnlock()
	if !ok {
		return errors.Newf(errors.ErrorTypeSink, "table %s is not registered", name)
	}

	if _, err := t.schema.Key(record); err != nil {
		return errors.Wrap(err, errors.ErrorTypeSink, "cannot upsert record without a key")
	}

	// pgx caches the prepared statement per connection
	if _, err := d.pool.Exec(ctx, t.upsert, sqlgen.Args(t.schema, record)...); err != nil {
		return errors.Wrap(err, errors.ErrorTypeSink, "upsert into "+name+" failed")
	}
	return nil
}

// Close closes the pool
func (d *Destination) Close() error {
	d.pool.Close()
	return nil
}
