package opensky

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/ajitpratap0/flightsync/pkg/config"
	"github.com/ajitpratap0/flightsync/pkg/connector/core"
	"github.com/ajitpratap0/flightsync/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const samplePayload = `{"time":1700000000,"states":[
["3c6444","DLH9LF  ","Germany",1700000000,1700000001,8.56,50.03,10972.8,false,231.4,98.3,-0.33,null,11277.6,"1000",false,0],
["4b1805","SWR12   ","Switzerland",1700000002,1700000002,7.1,46.9,null,true,0,null,null,null,null,null,false,0,2]
]}`

func newTestSource(t *testing.T, handler http.HandlerFunc, mutate func(*config.Config)) *Source {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.NewConfig()
	cfg.APIURL = srv.URL + "/api/states/all"
	if mutate != nil {
		mutate(cfg)
	}

	src, err := NewSource(cfg, nil, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })
	return src
}

func TestSource_Fetch(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/states/all", r.URL.Path)
		_, _ = w.Write([]byte(samplePayload))
	}, nil)

	records, err := src.Fetch(context.Background(), core.State{})
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := src.Normalize(records[0])
	require.NoError(t, src.Schema().CheckRecord(first))
	assert.Equal(t, "3c6444", first[ColICAO24])
	assert.Equal(t, "DLH9LF", first[ColCallsign])
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), first[ColTimePosition])
	assert.Nil(t, first[ColCategory])

	second := src.Normalize(records[1])
	require.NoError(t, src.Schema().CheckRecord(second))
	assert.Equal(t, int64(2), second[ColCategory])
	assert.Equal(t, 0.0, second[ColVelocity])
	assert.Nil(t, second[ColBaroAltitude])
}

func TestSource_FetchEmpty(t *testing.T) {
	for _, body := range []string{`{"time":1,"states":null}`, `{"time":1}`, `{"time":1,"states":[]}`} {
		src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}, nil)

		records, err := src.Fetch(context.Background(), nil)
		require.NoError(t, err, body)
		assert.Empty(t, records, body)
	}
}

func TestSource_FetchErrors(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantType errors.ErrorType
	}{
		{
			name:     "server error",
			handler:  func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) },
			wantType: errors.ErrorTypeConnection,
		},
		{
			name:     "rate limited",
			handler:  func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTooManyRequests) },
			wantType: errors.ErrorTypeConnection,
		},
		{
			name:     "unauthorized",
			handler:  func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusUnauthorized) },
			wantType: errors.ErrorTypeAuthentication,
		},
		{
			name:     "malformed json",
			handler:  func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"states": [`)) },
			wantType: errors.ErrorTypeData,
		},
		{
			name:     "states not an array",
			handler:  func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"states": "none"}`)) },
			wantType: errors.ErrorTypeData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newTestSource(t, tt.handler, nil)
			_, err := src.Fetch(context.Background(), nil)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, tt.wantType), "got %v", err)
			assert.True(t, errors.IsTransport(err))
		})
	}
}

func TestSource_FetchTimeout(t *testing.T) {
	release := make(chan struct{})
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, func(cfg *config.Config) {
		cfg.Timeouts.Request = 50 * time.Millisecond
	})
	defer close(release)

	_, err := src.Fetch(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeTimeout), "got %v", err)
}

func TestSource_QueryParameters(t *testing.T) {
	var got url.Values
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		_, _ = w.Write([]byte(`{"time":1,"states":[]}`))
	}, func(cfg *config.Config) {
		cfg.Filter.BoundingBox = []float64{45.8389, 5.9962, 47.8229, 10.5226}
		cfg.Filter.ICAO24 = []string{"3c6444", "4b1805"}
		cfg.Filter.Extended = true
	})

	_, err := src.Fetch(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, "45.8389", got.Get("lamin"))
	assert.Equal(t, "5.9962", got.Get("lomin"))
	assert.Equal(t, "47.8229", got.Get("lamax"))
	assert.Equal(t, "10.5226", got.Get("lomax"))
	assert.Equal(t, []string{"3c6444", "4b1805"}, got["icao24"])
	assert.Equal(t, "1", got.Get("extended"))
}

func TestSource_BasicAuth(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		if u, p, ok := r.BasicAuth(); !ok || u != "user" || p != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"time":1,"states":[]}`))
	}, func(cfg *config.Config) {
		cfg.Auth.Username = "user"
		cfg.Auth.Password = "pw"
	})

	_, err := src.Fetch(context.Background(), nil)
	assert.NoError(t, err)
}

func TestBuildURL_NoFilter(t *testing.T) {
	u, err := buildURL(config.DefaultAPIURL, config.FilterConfig{})
	require.NoError(t, err)
	assert.Equal(t, config.DefaultAPIURL, u)
}
