// Package checkpoint provides the stores that persist connector state
// between sync cycles.
//
// Every store is keyed by connector name, returns an empty non-nil state
// when nothing was written yet and replaces the whole state on Write.
package checkpoint

import (
	"bytes"

	"github.com/ajitpratap0/flightsync/pkg/config"
	"github.com/ajitpratap0/flightsync/pkg/connector/core"
	"github.com/ajitpratap0/flightsync/pkg/connector/registry"
	"github.com/ajitpratap0/flightsync/pkg/errors"
	"github.com/goccy/go-json"
)

// Table is the relational table used by the SQL stores
const Table = "checkpoints"

func init() {
	_ = registry.RegisterCheckpoint("memory", func(*config.Config, registry.Options) (core.CheckpointStore, error) {
		return NewMemoryStore(), nil
	})
	_ = registry.RegisterCheckpoint("file", func(cfg *config.Config, _ registry.Options) (core.CheckpointStore, error) {
		return NewFileStore(cfg.Checkpoint.Path)
	})
	_ = registry.RegisterCheckpoint("sqlite", func(cfg *config.Config, _ registry.Options) (core.CheckpointStore, error) {
		return OpenSQLiteStore(cfg.Checkpoint.Path, cfg.Connector)
	})
	_ = registry.RegisterCheckpoint("postgres", func(cfg *config.Config, _ registry.Options) (core.CheckpointStore, error) {
		ctx, cancel := cfg.SinkContext()
		defer cancel()
		return OpenPostgresStore(ctx, cfg.Checkpoint.DSN, cfg.Connector)
	})
	_ = registry.RegisterCheckpoint("redis", func(cfg *config.Config, _ registry.Options) (core.CheckpointStore, error) {
		ctx, cancel := cfg.SinkContext()
		defer cancel()
		return OpenRedisStore(ctx, RedisOptions{
			Addr:     cfg.Checkpoint.Addr,
			Password: cfg.Checkpoint.Password,
			DB:       cfg.Checkpoint.DB,
		}, cfg.Connector)
	})
}

// encode serializes state; a nil state encodes as an empty object
func encode(state core.State) ([]byte, error) {
	if state == nil {
		state = core.State{}
	}
	data, err := json.Marshal(state)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeCheckpoint, "failed to encode state")
	}
	return data, nil
}

// decode parses a stored state; empty input is an empty state
func decode(data []byte) (core.State, error) {
	state := core.State{}
	if len(bytes.TrimSpace(data)) == 0 {
		return state, nil
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeCheckpoint, "stored state is not valid JSON")
	}
	if state == nil {
		// a stored JSON null
		state = core.State{}
	}
	return state, nil
}
