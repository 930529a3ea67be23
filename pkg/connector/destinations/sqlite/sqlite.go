// Package sqlite provides a local-file destination backed by modernc.org/sqlite.
// It doubles as the debug warehouse when no remote sink is configured.
package sqlite

import (
	"context"
	"database/sql"

	"github.com/ajitpratap0/flightsync/pkg/config"
	"github.com/ajitpratap0/flightsync/pkg/connector/core"
	"github.com/ajitpratap0/flightsync/pkg/connector/destinations/sqlgen"
	"github.com/ajitpratap0/flightsync/pkg/connector/registry"
	"github.com/ajitpratap0/flightsync/pkg/errors"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Name is the registry name of the destination
const Name = "sqlite"

func init() {
	_ = registry.RegisterDestination(Name, func(cfg *config.Config, opts registry.Options) (core.Destination, error) {
		return Open(context.Background(), cfg.Destination.Path, opts.Log())
	})
}

// Open opens (creating if needed) the database at path
func Open(ctx context.Context, path string, logger *zap.Logger) (*sqlgen.Sink, error) {
	db, err := sql.Open("sqlite", DSN(path))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to open sqlite database")
	}
	// one writer keeps WAL contention out of the picture
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to open sqlite database "+path)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	return sqlgen.NewSink(db, sqlgen.SQLite, logger.With(zap.String("destination", Name))), nil
}

// DSN returns the modernc connection string for path with WAL and a busy timeout
func DSN(path string) string {
	return path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}
