package opensky

import (
	"encoding/json"
	"math"

	"github.com/ajitpratap0/flightsync/pkg/coerce"
	"github.com/ajitpratap0/flightsync/pkg/connector/core"
)

// Positions of the state vector fields. Index 12 (sensors) is not mapped.
const (
	idxICAO24 = iota
	idxCallsign
	idxOriginCountry
	idxTimePosition
	idxLastContact
	idxLongitude
	idxLatitude
	idxBaroAltitude
	idxOnGround
	idxVelocity
	idxTrueTrack
	idxVerticalRate
	idxSensors
	idxGeoAltitude
	idxSquawk
	idxSPI
	idxPositionSource
	idxCategory
)

// Normalize maps one positional state vector onto live_flights. Missing
// trailing fields and malformed values become null; it never fails. String
// columns accept numbers in their base-10 form, like callsign.
func Normalize(src core.SourceRecord) core.Record {
	return core.Record{
		ColICAO24:         nullable(coerce.String(src.At(idxICAO24))),
		ColCallsign:       nullable(coerce.TrimmedString(src.At(idxCallsign))),
		ColOriginCountry:  nullable(coerce.String(src.At(idxOriginCountry))),
		ColTimePosition:   nullable(coerce.EpochTimestamp(src.At(idxTimePosition))),
		ColLastContact:    nullable(coerce.EpochTimestamp(src.At(idxLastContact))),
		ColLongitude:      passDouble(src.At(idxLongitude)),
		ColLatitude:       passDouble(src.At(idxLatitude)),
		ColBaroAltitude:   passDouble(src.At(idxBaroAltitude)),
		ColOnGround:       nullable(coerce.Boolean(src.At(idxOnGround))),
		ColVelocity:       passDouble(src.At(idxVelocity)),
		ColTrueTrack:      passDouble(src.At(idxTrueTrack)),
		ColVerticalRate:   passDouble(src.At(idxVerticalRate)),
		ColGeoAltitude:    passDouble(src.At(idxGeoAltitude)),
		ColSquawk:         nullable(coerce.String(src.At(idxSquawk))),
		ColSPI:            nullable(coerce.Boolean(src.At(idxSPI))),
		ColPositionSource: nullable(coerce.Integer(src.At(idxPositionSource))),
		ColCategory:       nullable(coerce.Integer(src.At(idxCategory))),
	}
}

// nullable turns a coerce result into a record value
func nullable[T any](v T, ok bool) any {
	if !ok {
		return nil
	}
	return v
}

// passDouble copies numeric values as float64. Strings and booleans are not
// numbers on the wire and become null, as do NaN and infinities.
func passDouble(v any) any {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		parsed, ok := coerce.Float(t)
		if !ok {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}
