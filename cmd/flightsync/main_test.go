package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/ajitpratap0/flightsync/internal/scheduler"
	"github.com/ajitpratap0/flightsync/pkg/connector/core"
	"github.com/ajitpratap0/flightsync/pkg/connector/destinations/sqlite"
	"github.com/ajitpratap0/flightsync/pkg/logger"
	"github.com/ajitpratap0/flightsync/pkg/metrics"
)

const statesBody = `{"time":1700000000,"states":[
 ["4b1805","SWR12   ","Switzerland",1700000000,1700000000,8.55,47.45,3000.5,false,150.2,270.0,-2.5,null,3100.0,"1000",false,0,1],
 ["3c6444","DLH4AB  ","Germany",1700000001,1700000001,8.60,47.50,null,true,0,null,null,null,null,null,false,0]
]}`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "flightsync v"+version)
}

func TestListCmd(t *testing.T) {
	out, err := execute(t, "list")
	require.NoError(t, err)
	for _, name := range []string{"opensky", "sqlite", "postgres", "kafka", "file", "redis"} {
		assert.Contains(t, out, "  - "+name+"\n")
	}
}

func TestConfigInitCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flightsync.yaml")

	out, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "flight_limit: 300")

	_, err = execute(t, "config", "init", path)
	assert.ErrorContains(t, err, "already exists")

	_, err = execute(t, "config", "init", "--force", path)
	assert.NoError(t, err)
}

func TestSchemaCmd(t *testing.T) {
	out, err := execute(t, "schema")
	require.NoError(t, err)

	var doc struct {
		Connector string              `json:"connector"`
		Tables    []*core.TableSchema `json:"tables"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "opensky", doc.Connector)
	require.Len(t, doc.Tables, 1)
	assert.Equal(t, "live_flights", doc.Tables[0].Table)
	assert.Equal(t, []string{"icao24"}, doc.Tables[0].PrimaryKey)
	assert.Len(t, doc.Tables[0].Columns, 17)
}

func TestSyncCmd(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(statesBody))
	}))
	defer upstream.Close()

	dir := t.TempDir()
	warehouse := filepath.Join(dir, "warehouse.db")
	statePath := filepath.Join(dir, "state.json")
	cfgPath := filepath.Join(dir, "flightsync.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(`
api_url: %s/api/states/all
destination:
  type: sqlite
  path: %s
checkpoint:
  type: file
  path: %s
logging:
  level: error
`, upstream.URL, warehouse, statePath)), 0600))

	for i := 0; i < 2; i++ {
		out, err := execute(t, "sync", "--config", cfgPath, "--flight-limit", "1")
		require.NoError(t, err)
		assert.Contains(t, out, "checkpoint: {}")
	}

	state, err := os.ReadFile(statePath)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(state))

	sink, err := sqlite.Open(context.Background(), warehouse, nil)
	require.NoError(t, err)
	defer sink.Close()

	var count int
	require.NoError(t, sink.DB().QueryRow(`SELECT COUNT(*) FROM "live_flights"`).Scan(&count))
	assert.Equal(t, 1, count, "flight limit applied and repeated runs update in place")

	var callsign string
	require.NoError(t, sink.DB().QueryRow(`SELECT "callsign" FROM "live_flights" WHERE "icao24" = '4b1805'`).Scan(&callsign))
	assert.Equal(t, "SWR12", callsign)

	assert.True(t, logger.Get().Core().Enabled(zapcore.ErrorLevel))
	assert.False(t, logger.Get().Core().Enabled(zapcore.WarnLevel), "logging.level is applied to the process logger")
}

func TestSyncCmd_InvalidConfig(t *testing.T) {
	_, err := execute(t, "sync", "--api-url", "not a url")
	assert.Error(t, err)
}

type runnerFunc func(ctx context.Context) (core.State, error)

func (f runnerFunc) RunCycle(ctx context.Context) (core.State, error) { return f(ctx) }

func TestServeMux(t *testing.T) {
	collector := metrics.NewCollector("opensky")
	sched, err := scheduler.New("@every 1h", runnerFunc(func(context.Context) (core.State, error) {
		return core.State{}, nil
	}), nil)
	require.NoError(t, err)

	srv := httptest.NewServer(newServeMux(collector, sched))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var h health
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&h))
	assert.Equal(t, "ok", h.Status)
	assert.Zero(t, h.Runs)
	assert.Nil(t, h.LastRun)

	mresp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer mresp.Body.Close()
	assert.Equal(t, http.StatusOK, mresp.StatusCode)
}
