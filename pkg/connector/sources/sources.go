// Package sources links every source connector into the registry.
// Import it for its side effects.
package sources

import (
	_ "github.com/ajitpratap0/flightsync/pkg/connector/sources/opensky"
)
