package opensky

import (
	"context"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ajitpratap0/flightsync/pkg/clients"
	"github.com/ajitpratap0/flightsync/pkg/config"
	"github.com/ajitpratap0/flightsync/pkg/connector/core"
	"github.com/ajitpratap0/flightsync/pkg/errors"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// maxBodyBytes bounds the payload read from upstream
const maxBodyBytes = 64 << 20

// statesResponse is the body of GET /states/all
type statesResponse struct {
	Time   int64               `json:"time"`
	States []core.SourceRecord `json:"states"`
}

// Client performs the single bounded request of a cycle
type Client struct {
	http     *clients.HTTPClient
	endpoint string
	logger   *zap.Logger
}

// NewClient builds a client for cfg. metrics may be nil.
func NewClient(cfg *config.Config, metrics clients.RequestObserver, logger *zap.Logger) (*Client, error) {
	endpoint, err := buildURL(cfg.APIURL, cfg.Filter)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid api_url")
	}

	httpCfg := clients.DefaultHTTPConfig()
	httpCfg.RequestTimeout = cfg.Timeouts.Request
	if cfg.Timeouts.Dial > 0 {
		httpCfg.DialTimeout = cfg.Timeouts.Dial
	}
	httpCfg.EnableHTTP2 = cfg.HTTP.EnableHTTP2
	httpCfg.RateLimit = cfg.HTTP.RateLimit
	if cfg.HTTP.UserAgent != "" {
		httpCfg.UserAgent = cfg.HTTP.UserAgent
	}

	switch {
	case cfg.Auth.UsesClientCredentials():
		httpCfg.Auth = &clients.AuthConfig{
			ClientID:     cfg.Auth.ClientID,
			ClientSecret: cfg.Auth.ClientSecret,
			TokenURL:     cfg.Auth.TokenURL,
		}
	case cfg.Auth.UsesBasic():
		httpCfg.Auth = &clients.AuthConfig{
			Username: cfg.Auth.Username,
			Password: cfg.Auth.Password,
		}
	}

	httpClient, err := clients.NewHTTPClient(httpCfg, metrics, logger)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid auth configuration")
	}

	return &Client{
		http:     httpClient,
		endpoint: endpoint,
		logger:   logger,
	}, nil
}

// Endpoint returns the fully built request URL
func (c *Client) Endpoint() string {
	return c.endpoint
}

// FetchStates performs one GET and returns the state vectors in upstream
// order. A null or missing "states" member is an empty result, not an error.
func (c *Client) FetchStates(ctx context.Context) ([]core.SourceRecord, error) {
	resp, err := c.http.Get(ctx, c.endpoint, nil)
	if err != nil {
		return nil, classify(err, "request failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, errors.Newf(errors.ErrorTypeAuthentication, "upstream rejected credentials: %s", resp.Status)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, errors.Newf(errors.ErrorTypeConnection, "unexpected status %s", resp.Status).
			WithDetail("status_code", resp.StatusCode)
	}

	var body statesResponse
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		if isTimeout(err) {
			return nil, errors.Wrap(err, errors.ErrorTypeTimeout, "reading response timed out")
		}
		return nil, errors.Wrap(err, errors.ErrorTypeData, "malformed states payload")
	}

	c.logger.Debug("states fetched",
		zap.Int64("upstream_time", body.Time),
		zap.Int("count", len(body.States)))

	return body.States, nil
}

// Close releases idle connections
func (c *Client) Close() error {
	return c.http.Close()
}

func classify(err error, msg string) error {
	if isTimeout(err) {
		return errors.Wrap(err, errors.ErrorTypeTimeout, msg)
	}
	return errors.Wrap(err, errors.ErrorTypeConnection, msg)
}

func isTimeout(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}

// buildURL appends the filter query parameters to base
func buildURL(base string, filter config.FilterConfig) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}

	q := u.Query()
	if len(filter.BoundingBox) == 4 {
		for i, name := range []string{"lamin", "lomin", "lamax", "lomax"} {
			q.Set(name, strconv.FormatFloat(filter.BoundingBox[i], 'f', -1, 64))
		}
	}
	for _, icao := range filter.ICAO24 {
		q.Add("icao24", icao)
	}
	if filter.Extended {
		q.Set("extended", "1")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
