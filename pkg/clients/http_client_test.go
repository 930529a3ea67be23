package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordingObserver struct {
	mu    sync.Mutex
	codes []string
}

func (r *recordingObserver) ObserveRequest(code string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes = append(r.codes, code)
}

func TestHTTPClient_GetSetsDefaultHeaders(t *testing.T) {
	var gotUA, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	client, err := NewHTTPClient(DefaultHTTPConfig(), obs, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer client.Close()

	resp, err := client.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "flightsync/1.0", gotUA)
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, []string{"2xx"}, obs.codes)
	assert.Equal(t, int64(1), client.GetStats().TotalRequests)
}

func TestHTTPClient_ErrorStatusCounted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	client, err := NewHTTPClient(nil, obs, nil)
	require.NoError(t, err)

	resp, err := client.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, []string{"5xx"}, obs.codes)
	assert.Equal(t, int64(1), client.GetStats().FailedRequests)
}

func TestHTTPClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	cfg := DefaultHTTPConfig()
	cfg.RequestTimeout = 20 * time.Millisecond
	obs := &recordingObserver{}
	client, err := NewHTTPClient(cfg, obs, nil)
	require.NoError(t, err)

	_, err = client.Get(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.Equal(t, []string{"error"}, obs.codes)
}

func TestHTTPClient_BasicAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "pilot" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := DefaultHTTPConfig()
	cfg.Auth = &AuthConfig{Username: "pilot", Password: "secret"}
	client, err := NewHTTPClient(cfg, nil, nil)
	require.NoError(t, err)

	resp, err := client.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHTTPClient_ClientCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"abc123","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/states", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer abc123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := DefaultHTTPConfig()
	cfg.Auth = &AuthConfig{ClientID: "id", ClientSecret: "secret", TokenURL: srv.URL + "/token"}
	client, err := NewHTTPClient(cfg, nil, nil)
	require.NoError(t, err)

	resp, err := client.Get(context.Background(), srv.URL+"/states", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHTTPClient_ClientIDWithoutTokenURL(t *testing.T) {
	cfg := DefaultHTTPConfig()
	cfg.Auth = &AuthConfig{ClientID: "id", ClientSecret: "secret"}

	client, err := NewHTTPClient(cfg, nil, nil)
	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "token url")
}

func TestHTTPClient_RateLimitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	cfg := DefaultHTTPConfig()
	cfg.RateLimit = 0.001
	client, err := NewHTTPClient(cfg, nil, nil)
	require.NoError(t, err)

	resp, err := client.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = client.Get(ctx, srv.URL, nil)
	assert.Error(t, err)
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", StatusClass(200))
	assert.Equal(t, "4xx", StatusClass(429))
	assert.Equal(t, "error", StatusClass(0))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 0)
	assert.True(t, rl.Allow())
	assert.False(t, rl.Allow())
	rl.SetRate(1e9)
	time.Sleep(time.Millisecond)
	assert.True(t, rl.Allow())
}
