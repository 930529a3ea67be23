package coerce

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBoolean(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   bool
		wantOK bool
	}{
		{"nil", nil, false, false},
		{"true", true, true, true},
		{"false", false, false, true},
		{"float nonzero", 1.5, true, true},
		{"float zero", 0.0, false, true},
		{"int nonzero", -3, true, true},
		{"int zero", 0, false, true},
		{"nan", math.NaN(), true, true},
		{"json number", json.Number("0"), false, true},
		{"bad json number", json.Number("x"), false, false},
		{"string true", "TRUE", true, true},
		{"string yes", "Yes", true, true},
		{"string one", "1", true, true},
		{"string no", "no", false, true},
		{"string padded", " true", false, true},
		{"string empty", "", false, true},
		{"slice", []any{true}, false, false},
		{"map", map[string]any{}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Boolean(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInteger(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   int64
		wantOK bool
	}{
		{"nil", nil, 0, false},
		{"int", 7, 7, true},
		{"float whole", 3.0, 3, true},
		{"float truncates", -2.9, -2, true},
		{"bool", true, 1, true},
		{"string", " 42 ", 42, true},
		{"string signed", "+5", 5, true},
		{"string decimal", "4.5", 0, false},
		{"string garbage", "abc", 0, false},
		{"leading zero is decimal", "010", 10, true},
		{"json int", json.Number("17"), 17, true},
		{"json float", json.Number("2.0"), 2, true},
		{"nan", math.NaN(), 0, false},
		{"inf", math.Inf(1), 0, false},
		{"huge float", 1e30, 0, false},
		{"uint overflow", uint64(math.MaxUint64), 0, false},
		{"uint8", uint8(200), 200, true},
		{"slice", []any{1}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Integer(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFloatAndString(t *testing.T) {
	f, ok := Float(12.5)
	assert.True(t, ok)
	assert.Equal(t, 12.5, f)

	f, ok = Float(int32(3))
	assert.True(t, ok)
	assert.Equal(t, 3.0, f)

	f, ok = Float(" -0.25 ")
	assert.True(t, ok)
	assert.Equal(t, -0.25, f)

	_, ok = Float(true)
	assert.False(t, ok)
	_, ok = Float("north")
	assert.False(t, ok)

	s, ok := String("abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", s)

	s, ok = String(7700.0)
	assert.True(t, ok)
	assert.Equal(t, "7700", s)

	_, ok = String(false)
	assert.False(t, ok)
	_, ok = String(nil)
	assert.False(t, ok)
}

func TestTrimmedString(t *testing.T) {
	s, ok := TrimmedString("  DLH4AB  ")
	assert.True(t, ok)
	assert.Equal(t, "DLH4AB", s)

	_, ok = TrimmedString("        ")
	assert.False(t, ok)
	_, ok = TrimmedString("")
	assert.False(t, ok)
	_, ok = TrimmedString(nil)
	assert.False(t, ok)
}

func TestEpochTimestamp(t *testing.T) {
	got, ok := EpochTimestamp(1700000000.0)
	assert.True(t, ok)
	assert.Equal(t, time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC), got)
	assert.Equal(t, time.UTC, got.Location())

	got, ok = EpochTimestamp(int64(1700000000))
	assert.True(t, ok)
	assert.Equal(t, int64(1700000000), got.Unix())

	got, ok = EpochTimestamp(1700000000.5)
	assert.True(t, ok)
	assert.Equal(t, 500*time.Millisecond, time.Duration(got.Nanosecond()))

	for _, in := range []any{nil, 0, 0.0, "", "soon", math.NaN(), math.Inf(-1), 1e300, true} {
		_, ok := EpochTimestamp(in)
		assert.False(t, ok, "input %v", in)
	}
}

func TestNeverPanics(t *testing.T) {
	inputs := []any{
		nil, struct{}{}, &struct{}{}, []byte("1"), make(chan int), func() {},
		math.NaN(), math.Inf(1), uint64(math.MaxUint64), json.Number(""), "",
		map[string]any{"a": 1}, []any{nil},
	}

	for _, in := range inputs {
		assert.NotPanics(t, func() {
			Boolean(in)
			Integer(in)
			Float(in)
			String(in)
			TrimmedString(in)
			EpochTimestamp(in)
		})
	}
}
