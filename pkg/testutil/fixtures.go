package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/ajitpratap0/flightsync/pkg/connector/core"
	"github.com/ajitpratap0/flightsync/pkg/connector/sources/opensky"
)

// StateVector builds one raw OpenSky state vector. lastContact is epoch
// seconds; zero leaves the field null.
func StateVector(icao24 string, lastContact int64) core.SourceRecord {
	var contact interface{}
	if lastContact != 0 {
		contact = float64(lastContact)
	}
	return core.SourceRecord{
		icao24, "TEST123 ", "Switzerland", contact, contact,
		8.5417, 47.4502, 10972.8, false, 231.5, 92.3, 0.0,
		nil, 11277.6, "1000", false, 0.0, 1.0,
	}
}

// StateVectors builds n vectors with distinct ids "a00000", "a00001", ...
// and last contacts base, base+1, ...
func StateVectors(n int, base int64) []core.SourceRecord {
	out := make([]core.SourceRecord, n)
	for i := range out {
		out[i] = StateVector(fmt.Sprintf("a%05x", i), base+int64(i))
	}
	return out
}

// FakeSource is a core.Source serving canned state vectors with the real
// OpenSky schema and normalizer.
type FakeSource struct {
	mu      sync.Mutex
	records []core.SourceRecord
	err     error
	block   bool
	calls   int
	states  []core.State
}

var _ core.Source = (*FakeSource)(nil)

// NewFakeSource serves records on every fetch
func NewFakeSource(records []core.SourceRecord) *FakeSource {
	return &FakeSource{records: records}
}

// SetRecords replaces the records served by later fetches
func (f *FakeSource) SetRecords(records []core.SourceRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = records
}

// FailWith makes later fetches return err
func (f *FakeSource) FailWith(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// BlockUntilDone makes later fetches wait for the context and return its error
func (f *FakeSource) BlockUntilDone() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.block = true
}

// Calls returns the number of fetches
func (f *FakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// States returns the state passed to each fetch
func (f *FakeSource) States() []core.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.State(nil), f.states...)
}

func (f *FakeSource) Name() string { return opensky.Name }

func (f *FakeSource) Schema() *core.TableSchema { return opensky.Schema() }

func (f *FakeSource) Fetch(ctx context.Context, state core.State) ([]core.SourceRecord, error) {
	f.mu.Lock()
	f.calls++
	f.states = append(f.states, state.Clone())
	records, err, block := f.records, f.err, f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (f *FakeSource) Normalize(record core.SourceRecord) core.Record {
	return opensky.Normalize(record)
}

func (f *FakeSource) Close() error { return nil }
