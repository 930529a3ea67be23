package sqlgen

import (
	"context"
	"database/sql"
	"sync"

	"github.com/ajitpratap0/flightsync/pkg/connector/core"
	"github.com/ajitpratap0/flightsync/pkg/errors"
	"go.uber.org/zap"
)

// Sink is a core.Destination over database/sql. The mysql and sqlite
// destinations wrap it with their driver.
type Sink struct {
	db      *sql.DB
	dialect Dialect
	logger  *zap.Logger

	mu     sync.RWMutex
	tables map[string]*table
}

type table struct {
	schema *core.TableSchema
	stmt   *sql.Stmt
}

// NewSink wraps an open database handle
func NewSink(db *sql.DB, dialect Dialect, logger *zap.Logger) *Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{
		db:      db,
		dialect: dialect,
		logger:  logger,
		tables:  make(map[string]*table),
	}
}

// DB returns the underlying handle
func (s *Sink) DB() *sql.DB {
	return s.db
}

// CreateTable creates the table if needed and prepares its upsert
func (s *Sink) CreateTable(ctx context.Context, schema *core.TableSchema) error {
	if err := schema.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tables[schema.Table]; ok {
		return nil
	}

	if _, err := s.db.ExecContext(ctx, CreateTable(s.dialect, schema)); err != nil {
		return errors.Wrap(err, errors.ErrorTypeSink, "failed to create table "+schema.Table)
	}

	stmt, err := s.db.PrepareContext(ctx, Upsert(s.dialect, schema))
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeSink, "failed to prepare upsert for "+schema.Table)
	}

	s.tables[schema.Table] = &table{schema: schema, stmt: stmt}
	s.logger.Info("table registered",
		zap.String("table", schema.Table),
		zap.String("dialect", s.dialect.String()))
	return nil
}

// Upsert writes record, replacing the row with the same primary key
func (s *Sink) Upsert(ctx context.Context, name string, record core.Record) error {
	s.mu.RLock()
	t, ok := s.tables[name]
	s.mu.RUnlock()
	if !ok {
		return errors.Newf(errors.ErrorTypeSink, "table %s is not registered", name)
	}

	if _, err := t.schema.Key(record); err != nil {
		return errors.Wrap(err, errors.ErrorTypeSink, "cannot upsert record without a key")
	}

	if _, err := t.stmt.ExecContext(ctx, Args(t.schema, record)...); err != nil {
		return errors.Wrap(err, errors.ErrorTypeSink, "upsert into "+name+" failed")
	}
	return nil
}

// Close closes prepared statements and the database
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tables {
		_ = t.stmt.Close()
	}
	s.tables = make(map[string]*table)
	return s.db.Close()
}
