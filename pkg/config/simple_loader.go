// Package config provides configuration loading
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. FLIGHTSYNC_API_URL
const EnvPrefix = "FLIGHTSYNC"

// Loader reads a Config from defaults, an optional YAML file, the
// environment and bound command line flags, in increasing precedence.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader with defaults and environment overrides set up
func NewLoader() *Loader {
	v := viper.New()
	setDefaults(v, NewConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigType("yaml")

	return &Loader{v: v}
}

// BindFlag makes a command line flag override key when it is set
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("flag for %s is nil", key)
	}
	return l.v.BindPFlag(key, flag)
}

// Load reads filePath (optional) and returns the validated configuration
func (l *Loader) Load(filePath string) (*Config, error) {
	if filePath != "" {
		data, err := os.ReadFile(filePath) //nolint:gosec // G304: File path is supplied by the operator
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		content := substituteEnvVars(string(data))
		if err := l.v.ReadConfig(bytes.NewBufferString(content)); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Load loads a configuration from an optional YAML file and the environment
func Load(filePath string) (*Config, error) {
	return NewLoader().Load(filePath)
}

// Save saves a configuration to a YAML file
func Save(filePath string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setDefaults registers every key so that AutomaticEnv can resolve it
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("connector", d.Connector)
	v.SetDefault("api_url", d.APIURL)
	v.SetDefault("flight_limit", d.FlightLimit)

	v.SetDefault("timeouts.request", d.Timeouts.Request)
	v.SetDefault("timeouts.dial", d.Timeouts.Dial)
	v.SetDefault("timeouts.sink", d.Timeouts.Sink)

	v.SetDefault("http.enable_http2", d.HTTP.EnableHTTP2)
	v.SetDefault("http.rate_limit", d.HTTP.RateLimit)
	v.SetDefault("http.user_agent", d.HTTP.UserAgent)

	v.SetDefault("auth.client_id", "")
	v.SetDefault("auth.client_secret", "")
	v.SetDefault("auth.token_url", d.Auth.TokenURL)
	v.SetDefault("auth.username", "")
	v.SetDefault("auth.password", "")

	v.SetDefault("filter.bounding_box", []float64{})
	v.SetDefault("filter.icao24", []string{})
	v.SetDefault("filter.extended", false)

	v.SetDefault("sync.schedule", d.Sync.Schedule)
	v.SetDefault("sync.run_on_start", d.Sync.RunOnStart)
	v.SetDefault("sync.incremental", d.Sync.Incremental)

	v.SetDefault("destination.type", d.Destination.Type)
	v.SetDefault("destination.dsn", "")
	v.SetDefault("destination.path", d.Destination.Path)
	v.SetDefault("destination.uri", "")
	v.SetDefault("destination.database", "")
	v.SetDefault("destination.brokers", []string{})
	v.SetDefault("destination.topic", "")

	v.SetDefault("checkpoint.type", d.Checkpoint.Type)
	v.SetDefault("checkpoint.path", d.Checkpoint.Path)
	v.SetDefault("checkpoint.dsn", "")
	v.SetDefault("checkpoint.addr", "")
	v.SetDefault("checkpoint.password", "")
	v.SetDefault("checkpoint.db", 0)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.encoding", d.Logging.Encoding)
	v.SetDefault("logging.development", d.Logging.Development)
	v.SetDefault("logging.output_paths", []string{})

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.listen", d.Metrics.Listen)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
// Substituted values are not expanded again.
func substituteEnvVars(content string) string {
	pos := 0
	for {
		start := strings.Index(content[pos:], "${")
		if start == -1 {
			break
		}
		start += pos
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		envValue := os.Getenv(varName)
		content = content[:start] + envValue + content[end+1:]
		pos = start + len(envValue)
	}
	return content
}
