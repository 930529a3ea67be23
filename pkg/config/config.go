// Package config provides the configuration system for flightsync.
//
// The configuration is organized into logical sections:
//   - Connector options: api_url and flight_limit, the recognized options of the source
//   - Timeouts: bounded fetch timeout
//   - Auth/Filter: optional upstream credentials and query narrowing
//   - Sync: schedule and incremental behaviour
//   - Destination/Checkpoint: which sink and state store to use
//   - Logging/Metrics/Tracing: observability
//
// Example usage:
//
//	cfg := config.NewConfig()
//	cfg.FlightLimit = 50
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/ajitpratap0/flightsync/pkg/logger"
)

const (
	// DefaultAPIURL is the OpenSky all-states endpoint
	DefaultAPIURL = "https://opensky-network.org/api/states/all"
	// DefaultFlightLimit caps the records processed per cycle
	DefaultFlightLimit = 300
	// DefaultRequestTimeout bounds the single fetch of a cycle
	DefaultRequestTimeout = 15 * time.Second
	// DefaultSinkTimeout bounds destination and checkpoint setup when timeouts.sink is unset
	DefaultSinkTimeout = 30 * time.Second
	// DefaultTokenURL is the OpenSky OAuth2 client-credentials endpoint
	DefaultTokenURL = "https://auth.opensky-network.org/auth/realms/opensky-network/protocol/openid-connect/token"
)

// Config is the single configuration structure of a flightsync process
type Config struct {
	// Connector selects the registered source
	Connector string `mapstructure:"connector" yaml:"connector"`
	// APIURL overrides the fetch endpoint
	APIURL string `mapstructure:"api_url" yaml:"api_url"`
	// FlightLimit caps records processed per cycle; zero or negative disables the cap
	FlightLimit int `mapstructure:"flight_limit" yaml:"flight_limit"`

	Timeouts    TimeoutConfig     `mapstructure:"timeouts" yaml:"timeouts"`
	HTTP        HTTPConfig        `mapstructure:"http" yaml:"http"`
	Auth        AuthConfig        `mapstructure:"auth" yaml:"auth"`
	Filter      FilterConfig      `mapstructure:"filter" yaml:"filter"`
	Sync        SyncConfig        `mapstructure:"sync" yaml:"sync"`
	Destination DestinationConfig `mapstructure:"destination" yaml:"destination"`
	Checkpoint  CheckpointConfig  `mapstructure:"checkpoint" yaml:"checkpoint"`
	Logging     logger.Config     `mapstructure:"logging" yaml:"logging"`
	Metrics     MetricsConfig     `mapstructure:"metrics" yaml:"metrics"`
	Tracing     TracingConfig     `mapstructure:"tracing" yaml:"tracing"`
}

// TimeoutConfig contains all timeout-related settings
type TimeoutConfig struct {
	// Request bounds the whole fetch, including reading the body
	Request time.Duration `mapstructure:"request" yaml:"request"`
	// Dial bounds connection establishment
	Dial time.Duration `mapstructure:"dial" yaml:"dial"`
	// Sink bounds connection setup of the destination and checkpoint
	// store; zero or negative means DefaultSinkTimeout
	Sink time.Duration `mapstructure:"sink" yaml:"sink"`
}

// HTTPConfig tunes the fetch transport
type HTTPConfig struct {
	EnableHTTP2 bool    `mapstructure:"enable_http2" yaml:"enable_http2"`
	RateLimit   float64 `mapstructure:"rate_limit" yaml:"rate_limit"` // requests per second, 0 = unlimited
	UserAgent   string  `mapstructure:"user_agent" yaml:"user_agent"`
}

// MetricsConfig controls the Prometheus endpoint of the serve command
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Listen  string `mapstructure:"listen" yaml:"listen"`
}

// TracingConfig controls OpenTelemetry span export
type TracingConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// SyncConfig controls cycle scheduling and checkpoint semantics
type SyncConfig struct {
	// Schedule is a cron spec used by the serve command
	Schedule string `mapstructure:"schedule" yaml:"schedule"`
	// RunOnStart triggers one cycle immediately when serving
	RunOnStart bool `mapstructure:"run_on_start" yaml:"run_on_start"`
	// Incremental keeps a last_contact cursor and skips records not newer than it
	Incremental bool `mapstructure:"incremental" yaml:"incremental"`
}

// NewConfig returns a Config populated with defaults
func NewConfig() *Config {
	return &Config{
		Connector:   "opensky",
		APIURL:      DefaultAPIURL,
		FlightLimit: DefaultFlightLimit,
		Timeouts: TimeoutConfig{
			Request: DefaultRequestTimeout,
			Dial:    5 * time.Second,
			Sink:    DefaultSinkTimeout,
		},
		Auth: AuthConfig{
			TokenURL: DefaultTokenURL,
		},
		HTTP: HTTPConfig{
			EnableHTTP2: true,
			UserAgent:   "flightsync/1.0",
		},
		Sync: SyncConfig{
			Schedule:   "@every 5m",
			RunOnStart: true,
		},
		Destination: DestinationConfig{
			Type: "sqlite",
			Path: "warehouse.db",
		},
		Checkpoint: CheckpointConfig{
			Type: "file",
			Path: "state.json",
		},
		Logging: logger.Config{
			Level:    "info",
			Encoding: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Listen:  ":9090",
		},
	}
}

// Validate validates the configuration for correctness
func (c *Config) Validate() error {
	if c.Connector == "" {
		return fmt.Errorf("connector is required")
	}
	if c.APIURL == "" {
		return fmt.Errorf("api_url is required")
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api_url %q is not an absolute URL", c.APIURL)
	}
	if c.Timeouts.Request <= 0 {
		return fmt.Errorf("timeouts.request must be positive")
	}
	if c.HTTP.RateLimit < 0 {
		return fmt.Errorf("http.rate_limit cannot be negative")
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Filter.Validate(); err != nil {
		return err
	}
	if err := c.Destination.Validate(); err != nil {
		return err
	}
	return c.Checkpoint.Validate()
}

// SinkContext returns a context bounded by the sink timeout, used while
// connecting destinations and checkpoint stores
func (c *Config) SinkContext() (context.Context, context.CancelFunc) {
	timeout := c.Timeouts.Sink
	if timeout <= 0 {
		timeout = DefaultSinkTimeout
	}
	return context.WithTimeout(context.Background(), timeout)
}

// Limit returns the effective per-cycle record cap, zero meaning unbounded
func (c *Config) Limit() int {
	if c.FlightLimit < 0 {
		return 0
	}
	return c.FlightLimit
}
