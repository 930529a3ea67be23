// Package coerce converts loosely-typed values decoded from upstream payloads
// into strict target types.
//
// Every function is total: it never panics and never returns an error.
// The second return value reports whether the result is non-null, so a
// malformed or missing field degrades to null instead of aborting the record.
package coerce

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// truthy lists the string spellings accepted as true. Matching is case-insensitive.
var truthy = []string{"true", "1", "yes"}

// Boolean coerces v to a bool.
//
// Numbers are true when nonzero, strings are true when they spell one of
// "true", "1" or "yes" and false otherwise. Any other type is null.
func Boolean(v any) (bool, bool) {
	switch t := v.(type) {
	case nil:
		return false, false
	case bool:
		return t, true
	case string:
		for _, s := range truthy {
			if strings.EqualFold(t, s) {
				return true, true
			}
		}
		return false, true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return false, false
		}
		return f != 0, true
	}

	if !isNumber(v) {
		return false, false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return false, false
	}
	// NaN compares unequal to zero and is therefore true.
	return f != 0, true
}

// Integer coerces v to an int64.
//
// Floats are truncated toward zero. Strings must hold a base-10 integer,
// optionally surrounded by whitespace. Values that cannot be represented
// exactly as an int64 are null.
func Integer(v any) (int64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, true
		}
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	case float64:
		return floatToInt(t)
	case float32:
		return floatToInt(float64(t))
	case uint:
		if uint64(t) > math.MaxInt64 {
			return 0, false
		}
	case uint64:
		if t > math.MaxInt64 {
			return 0, false
		}
	}

	if !isNumber(v) {
		return 0, false
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Float coerces v to a float64. Booleans are null.
func Float(v any) (float64, bool) {
	switch t := v.(type) {
	case nil, bool:
		return 0, false
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	}

	if !isNumber(v) {
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, false
	}
	return f, true
}

// String coerces v to a string. Numbers are formatted in base 10; booleans
// and composite values are null.
func String(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	}

	if !isNumber(v) {
		return "", false
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", false
	}
	return s, true
}

// TrimmedString coerces v to a string with surrounding whitespace removed.
// An empty result is null.
func TrimmedString(v any) (string, bool) {
	s, ok := String(v)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}

// EpochTimestamp interprets v as Unix epoch seconds and returns the UTC instant.
// Zero is null: upstream sends 0 for "no data", never for 1970-01-01.
func EpochTimestamp(v any) (time.Time, bool) {
	f, ok := Float(v)
	if !ok || f == 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, false
	}
	// Beyond this range time.Unix overflows.
	if math.Abs(f) > math.MaxInt64/float64(time.Second) {
		return time.Time{}, false
	}

	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(math.Round(frac*float64(time.Second)))).UTC(), true
}

func floatToInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	f = math.Trunc(f)
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}
