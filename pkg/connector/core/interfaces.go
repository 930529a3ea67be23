package core

import (
	"context"
)

// ConnectorType represents the type of connector
type ConnectorType string

const (
	ConnectorTypeSource      ConnectorType = "source"
	ConnectorTypeDestination ConnectorType = "destination"
	ConnectorTypeCheckpoint  ConnectorType = "checkpoint"
)

// State is the opaque checkpoint value carried between cycles.
// Only the sync engine writes it.
type State map[string]interface{}

// Clone returns a shallow copy of the state. A nil state clones to an empty one.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// SourceRecord is one positional, loosely-typed record as delivered upstream.
// Trailing fields may be missing.
type SourceRecord []interface{}

// At returns the field at index i, or nil when the record is too short.
func (r SourceRecord) At(i int) interface{} {
	if i < 0 || i >= len(r) {
		return nil
	}
	return r[i]
}

// Record is a normalized record: column name to strictly typed value.
// A nil value is null.
type Record map[string]interface{}

// Source fetches raw records and knows how to normalize them
type Source interface {
	// Name returns the connector name used for registration and checkpoint keys
	Name() string
	// Schema returns the table the source populates
	Schema() *TableSchema
	// Fetch performs one bounded request to the upstream API.
	// A missing or empty collection is not an error.
	Fetch(ctx context.Context, state State) ([]SourceRecord, error)
	// Normalize maps one raw record to the schema. It never fails.
	Normalize(record SourceRecord) Record
	Close() error
}

// Destination is the sink that receives normalized records
type Destination interface {
	// CreateTable registers the table. It must be idempotent.
	CreateTable(ctx context.Context, schema *TableSchema) error
	// Upsert inserts or replaces the record identified by the table's primary key
	Upsert(ctx context.Context, table string, record Record) error
	Close() error
}

// CheckpointStore persists State across cycles
type CheckpointStore interface {
	// Read returns the stored state, or an empty state when none exists
	Read(ctx context.Context) (State, error)
	Write(ctx context.Context, state State) error
	Close() error
}

// Connector is what a scheduler or host needs from a connector:
// its schema and one sync cycle from a prior state.
type Connector interface {
	DescribeSchema() []*TableSchema
	RunCycle(ctx context.Context, prior State) (State, error)
}
