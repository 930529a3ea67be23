// Package memory provides an in-process destination for tests and dry runs.
package memory

import (
	"context"
	"sync"

	"github.com/ajitpratap0/flightsync/pkg/config"
	"github.com/ajitpratap0/flightsync/pkg/connector/core"
	"github.com/ajitpratap0/flightsync/pkg/connector/registry"
	"github.com/ajitpratap0/flightsync/pkg/errors"
)

// Name is the registry name of the destination
const Name = "memory"

func init() {
	_ = registry.RegisterDestination(Name, func(*config.Config, registry.Options) (core.Destination, error) {
		return New(), nil
	})
}

// Call is one Upsert invocation as received
type Call struct {
	Table  string
	Record core.Record
}

// Destination keeps the latest record per primary key per table
type Destination struct {
	mu      sync.Mutex
	schemas map[string]*core.TableSchema
	rows    map[string]map[string]core.Record
	order   map[string][]string
	calls   []Call

	// failAt makes the n-th Upsert (1-based) return failErr
	failAt  int
	failErr error
}

// New creates an empty destination
func New() *Destination {
	return &Destination{
		schemas: make(map[string]*core.TableSchema),
		rows:    make(map[string]map[string]core.Record),
		order:   make(map[string][]string),
	}
}

// FailAt makes the n-th Upsert call fail with err
func (d *Destination) FailAt(n int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failAt = n
	d.failErr = err
}

// CreateTable registers schema. Registering the same table again is a no-op.
func (d *Destination) CreateTable(_ context.Context, schema *core.TableSchema) error {
	if err := schema.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.schemas[schema.Table]; ok {
		return nil
	}
	d.schemas[schema.Table] = schema
	d.rows[schema.Table] = make(map[string]core.Record)
	return nil
}

// Upsert stores record under its primary key, replacing any previous value
func (d *Destination) Upsert(_ context.Context, table string, record core.Record) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls = append(d.calls, Call{Table: table, Record: record})
	if d.failAt > 0 && len(d.calls) == d.failAt {
		return d.failErr
	}

	schema, ok := d.schemas[table]
	if !ok {
		return errors.Newf(errors.ErrorTypeSink, "table %s is not registered", table)
	}
	key, err := schema.KeyString(record)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeSink, "cannot derive primary key")
	}

	if _, exists := d.rows[table][key]; !exists {
		d.order[table] = append(d.order[table], key)
	}
	d.rows[table][key] = copyRecord(record)
	return nil
}

// Get returns the stored record for key
func (d *Destination) Get(table, key string) (core.Record, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.rows[table][key]
	return r, ok
}

// Rows returns the stored records in first-insert order
func (d *Destination) Rows(table string) []core.Record {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]core.Record, 0, len(d.order[table]))
	for _, k := range d.order[table] {
		out = append(out, d.rows[table][k])
	}
	return out
}

// Count returns the number of distinct keys stored in table
func (d *Destination) Count(table string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.rows[table])
}

// Calls returns every Upsert call in arrival order, including failed ones
func (d *Destination) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Call(nil), d.calls...)
}

// Tables returns the registered schemas
func (d *Destination) Tables() map[string]*core.TableSchema {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]*core.TableSchema, len(d.schemas))
	for k, v := range d.schemas {
		out[k] = v
	}
	return out
}

// Close is a no-op
func (d *Destination) Close() error {
	return nil
}

func copyRecord(r core.Record) core.Record {
	out := make(core.Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
