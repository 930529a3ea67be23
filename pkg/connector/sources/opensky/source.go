// Package opensky implements the OpenSky Network live state vector source.
//
// One cycle performs a single GET of /api/states/all and yields the state
// vectors as positional records; Normalize maps them onto the live_flights
// table.
package opensky

import (
	"context"

	"github.com/ajitpratap0/flightsync/pkg/clients"
	"github.com/ajitpratap0/flightsync/pkg/config"
	"github.com/ajitpratap0/flightsync/pkg/connector/core"
	"go.uber.org/zap"
)

// Name is the registry name of the source
const Name = "opensky"

// Source is the OpenSky core.Source
type Source struct {
	client *Client
	logger *zap.Logger
}

// NewSource creates an OpenSky source from cfg
func NewSource(cfg *config.Config, metrics clients.RequestObserver, logger *zap.Logger) (*Source, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("source", Name))

	client, err := NewClient(cfg, metrics, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("opensky source configured",
		zap.String("endpoint", client.Endpoint()),
		zap.Duration("timeout", cfg.Timeouts.Request),
		zap.Bool("oauth2", cfg.Auth.UsesClientCredentials()))

	return &Source{client: client, logger: logger}, nil
}

// Name returns the source name
func (s *Source) Name() string {
	return Name
}

// Schema returns the live_flights declaration
func (s *Source) Schema() *core.TableSchema {
	return liveFlights
}

// Fetch retrieves the current state vectors. The state is not used to shape
// the request; upstream only serves the latest snapshot.
func (s *Source) Fetch(ctx context.Context, _ core.State) ([]core.SourceRecord, error) {
	return s.client.FetchStates(ctx)
}

// Normalize maps one state vector onto live_flights
func (s *Source) Normalize(record core.SourceRecord) core.Record {
	return Normalize(record)
}

// Close releases the HTTP client
func (s *Source) Close() error {
	return s.client.Close()
}
