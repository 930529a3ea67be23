package checkpoint

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/ajitpratap0/flightsync/pkg/connector/core"
	"github.com/ajitpratap0/flightsync/pkg/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps states in the checkpoints table of a sqlite database
type SQLiteStore struct {
	db        *sql.DB
	connector string
}

// OpenSQLiteStore opens path and ensures the checkpoints table exists
func OpenSQLiteStore(path, connector string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeCheckpoint, "failed to open checkpoint database")
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS ` + Table + ` (
		connector TEXT PRIMARY KEY,
		state TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`)
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeCheckpoint, "failed to create checkpoints table")
	}

	return &SQLiteStore{db: db, connector: connector}, nil
}

// Read returns the stored state of the connector
func (s *SQLiteStore) Read(ctx context.Context) (core.State, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM `+Table+` WHERE connector = ?`, s.connector).Scan(&data)
	if stderrors.Is(err, sql.ErrNoRows) {
		return core.State{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeCheckpoint, "failed to read checkpoint")
	}
	return decode([]byte(data))
}

// Write replaces the stored state of the connector
func (s *SQLiteStore) Write(ctx context.Context, state core.State) error {
	data, err := encode(state)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO `+Table+` (connector, state, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (connector) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		s.connector, string(data), time.Now().UTC())
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeCheckpoint, "failed to write checkpoint")
	}
	return nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// PostgresStore keeps states in a checkpoints table with a JSONB column
type PostgresStore struct {
	pool      *pgxpool.Pool
	connector string
}

// OpenPostgresStore connects to dsn and ensures the checkpoints table exists
func OpenPostgresStore(ctx context.Context, dsn, connector string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeCheckpoint, "failed to create checkpoint pool")
	}

	_, err = pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+Table+` (
		connector TEXT PRIMARY KEY,
		state JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`)
	if err != nil {
		pool.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeCheckpoint, "failed to create checkpoints table")
	}

	return NewPostgresStore(pool, connector), nil
}

// NewPostgresStore uses an existing pool. The table must exist.
func NewPostgresStore(pool *pgxpool.Pool, connector string) *PostgresStore {
	return &PostgresStore{pool: pool, connector: connector}
}

// Read returns the stored state of the connector
func (s *PostgresStore) Read(ctx context.Context) (core.State, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT state FROM `+Table+` WHERE connector = $1`, s.connector).Scan(&data)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return core.State{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeCheckpoint, "failed to read checkpoint")
	}
	return decode(data)
}

// Write replaces the stored state of the connector
func (s *PostgresStore) Write(ctx context.Context, state core.State) error {
	data, err := encode(state)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+Table+` (connector, state, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (connector) DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`,
		s.connector, string(data), time.Now().UTC())
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeCheckpoint, "failed to write checkpoint")
	}
	return nil
}

// Close closes the pool
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
