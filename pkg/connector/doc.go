// Package connector groups the flightsync connector framework.
//
// # Layout
//
//   - core: the Source, Destination, CheckpointStore and Connector
//     interfaces, plus TableSchema, the declaration every destination
//     table is created from.
//
//   - sources: upstream connectors. opensky fetches live state vectors and
//     normalizes them onto live_flights.
//
//   - destinations: sinks keyed by the table's primary key: sqlite,
//     postgres, mysql, mongodb, kafka and an in-memory sink for tests.
//     The SQL sinks share statement generation in sqlgen.
//
//   - registry: name-to-factory lookup. Connectors register themselves in
//     init, so importing a package for side effects makes it available.
//
// # Records
//
// A source yields positional core.SourceRecord values exactly as delivered
// upstream. Normalize turns each into a core.Record keyed by column name
// whose values are strictly typed (string, float64, int64, bool or UTC
// time.Time) or nil. Normalization never fails; malformed fields become
// null.
//
// # Usage
//
//	source, err := registry.CreateSource("opensky", cfg, registry.Options{Logger: log})
//	dest, err := registry.CreateDestination(cfg.Destination.Type, cfg, opts)
//	store, err := registry.CreateCheckpoint(cfg.Checkpoint.Type, cfg, opts)
//
// The sync engine in internal/pipeline drives them.
package connector
