// Package mysql provides a MySQL destination over go-sql-driver/mysql.
package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/ajitpratap0/flightsync/pkg/config"
	"github.com/ajitpratap0/flightsync/pkg/connector/core"
	"github.com/ajitpratap0/flightsync/pkg/connector/destinations/sqlgen"
	"github.com/ajitpratap0/flightsync/pkg/connector/registry"
	"github.com/ajitpratap0/flightsync/pkg/errors"
	driver "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// Name is the registry name of the destination
const Name = "mysql"

func init() {
	_ = registry.RegisterDestination(Name, func(cfg *config.Config, opts registry.Options) (core.Destination, error) {
		ctx, cancel := cfg.SinkContext()
		defer cancel()
		return Open(ctx, cfg.Destination.DSN, opts.Log())
	})
}

// Open connects to dsn. Time values are always exchanged in UTC.
func Open(ctx context.Context, dsn string, logger *zap.Logger) (*sqlgen.Sink, error) {
	mc, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}

	connector, err := driver.NewConnector(mc)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid mysql configuration")
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to connect to mysql")
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("destination", Name))
	logger.Info("connected to MySQL", zap.String("addr", mc.Addr), zap.String("database", mc.DBName))

	return sqlgen.NewSink(db, sqlgen.MySQL, logger), nil
}

// ParseDSN parses dsn and forces the options the destination relies on:
// parseTime for DATETIME scanning and a UTC session location.
func ParseDSN(dsn string) (*driver.Config, error) {
	mc, err := driver.ParseDSN(dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse mysql dsn")
	}
	mc.ParseTime = true
	mc.Loc = time.UTC
	return mc, nil
}
