// Package flightsync is a periodic ingestion connector for the OpenSky
// Network live state vector API.
//
// Each sync cycle performs one bounded request for the current state
// vectors, keeps the first flight_limit of them in source order, normalizes
// each positional record into the live_flights table and upserts it into the
// configured destination keyed by icao24. After every bounded record has been
// accepted the checkpoint state is written. A failed fetch writes the prior
// state back unchanged and emits nothing.
//
// # Layout
//
//   - cmd/flightsync: the CLI (sync, serve, schema, list, config init)
//   - internal/pipeline: the sync engine and the host-facing Connector
//   - internal/scheduler: cron scheduling for serve
//   - pkg/coerce: null-tolerant field coercion
//   - pkg/connector: interfaces, schema, registry, sources and destinations
//   - pkg/checkpoint: file, memory, sqlite, postgres and redis state stores
//   - pkg/clients: the upstream HTTP client (rate limiting, OAuth2, HTTP/2)
//   - pkg/config, pkg/logger, pkg/errors, pkg/metrics, pkg/observability:
//     configuration, structured logging, typed errors, Prometheus metrics
//     and OpenTelemetry tracing
//
// # Quick Start
//
//	flightsync config init flightsync.yaml
//	flightsync sync --config flightsync.yaml
//	flightsync serve --config flightsync.yaml
package flightsync
