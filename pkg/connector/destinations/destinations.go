// Package destinations links every destination into the registry.
// Import it for its side effects.
package destinations

import (
	_ "github.com/ajitpratap0/flightsync/pkg/connector/destinations/kafka"
	_ "github.com/ajitpratap0/flightsync/pkg/connector/destinations/memory"
	_ "github.com/ajitpratap0/flightsync/pkg/connector/destinations/mongodb"
	_ "github.com/ajitpratap0/flightsync/pkg/connector/destinations/mysql"
	_ "github.com/ajitpratap0/flightsync/pkg/connector/destinations/postgres"
	_ "github.com/ajitpratap0/flightsync/pkg/connector/destinations/sqlite"
)
