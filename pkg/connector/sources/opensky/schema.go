package opensky

import "github.com/ajitpratap0/flightsync/pkg/connector/core"

// TableName is the destination table of the state vectors
const TableName = "live_flights"

// Column names of live_flights
const (
	ColICAO24         = "icao24"
	ColCallsign       = "callsign"
	ColOriginCountry  = "origin_country"
	ColTimePosition   = "time_position"
	ColLastContact    = "last_contact"
	ColLongitude      = "longitude"
	ColLatitude       = "latitude"
	ColBaroAltitude   = "baro_altitude"
	ColOnGround       = "on_ground"
	ColVelocity       = "velocity"
	ColTrueTrack      = "true_track"
	ColVerticalRate   = "vertical_rate"
	ColGeoAltitude    = "geo_altitude"
	ColSquawk         = "squawk"
	ColSPI            = "spi"
	ColPositionSource = "position_source"
	ColCategory       = "category"
)

// liveFlights is shared by every Source and must not be mutated.
var liveFlights = &core.TableSchema{
	Table:      TableName,
	PrimaryKey: []string{ColICAO24},
	Columns: []core.Column{
		{Name: ColICAO24, Type: core.ColumnTypeString},
		{Name: ColCallsign, Type: core.ColumnTypeString},
		{Name: ColOriginCountry, Type: core.ColumnTypeString},
		{Name: ColTimePosition, Type: core.ColumnTypeUTCDateTime},
		{Name: ColLastContact, Type: core.ColumnTypeUTCDateTime},
		{Name: ColLongitude, Type: core.ColumnTypeDouble},
		{Name: ColLatitude, Type: core.ColumnTypeDouble},
		{Name: ColBaroAltitude, Type: core.ColumnTypeDouble},
		{Name: ColOnGround, Type: core.ColumnTypeBoolean},
		{Name: ColVelocity, Type: core.ColumnTypeDouble},
		{Name: ColTrueTrack, Type: core.ColumnTypeDouble},
		{Name: ColVerticalRate, Type: core.ColumnTypeDouble},
		{Name: ColGeoAltitude, Type: core.ColumnTypeDouble},
		{Name: ColSquawk, Type: core.ColumnTypeString},
		{Name: ColSPI, Type: core.ColumnTypeBoolean},
		{Name: ColPositionSource, Type: core.ColumnTypeInt},
		{Name: ColCategory, Type: core.ColumnTypeInt},
	},
}

// Schema returns the live_flights declaration
func Schema() *core.TableSchema {
	return liveFlights
}
