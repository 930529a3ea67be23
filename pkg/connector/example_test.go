// Package connector provides examples of using the flightsync connector framework.
package connector_test

import (
	"context"
	"fmt"
	"log"

	"github.com/ajitpratap0/flightsync/pkg/connector/core"
	"github.com/ajitpratap0/flightsync/pkg/connector/destinations/memory"
	"github.com/ajitpratap0/flightsync/pkg/connector/registry"
	"github.com/ajitpratap0/flightsync/pkg/connector/sources/opensky"

	// Import connectors to register them
	_ "github.com/ajitpratap0/flightsync/pkg/connector/destinations"
)

// Example normalizes one state vector and upserts it into a destination.
func Example() {
	ctx := context.Background()
	schema := opensky.Schema()

	dest := memory.New()
	if err := dest.CreateTable(ctx, schema); err != nil {
		log.Fatal(err)
	}

	raw := core.SourceRecord{"4b1805", "SWR12   ", "Switzerland", 1700000000.0, 1700000000.0}
	record := opensky.Normalize(raw)

	if err := dest.Upsert(ctx, schema.Table, record); err != nil {
		log.Fatal(err)
	}

	row, _ := dest.Get(schema.Table, "4b1805")
	fmt.Println(row[opensky.ColCallsign])
	fmt.Println(row[opensky.ColLastContact])
	fmt.Println(row[opensky.ColLatitude])
	// Output:
	// SWR12
	// 2023-11-14 22:13:20 +0000 UTC
	// <nil>
}

// Example_registry lists the destinations registered by side-effect imports.
func Example_registry() {
	fmt.Println(registry.ListDestinations())
	// Output: [kafka memory mongodb mysql postgres sqlite]
}
