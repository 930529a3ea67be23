// Package config provides connector-specific configuration sections
package config

import (
	"fmt"
)

// AuthConfig holds optional upstream credentials. Client credentials take
// precedence over basic auth.
type AuthConfig struct {
	ClientID     string `mapstructure:"client_id" yaml:"client_id"`
	ClientSecret string `mapstructure:"client_secret" yaml:"client_secret"`
	TokenURL     string `mapstructure:"token_url" yaml:"token_url"`
	Username     string `mapstructure:"username" yaml:"username"`
	Password     string `mapstructure:"password" yaml:"password"`
}

// UsesClientCredentials reports whether the OAuth2 client-credentials flow is configured
func (a AuthConfig) UsesClientCredentials() bool {
	return a.ClientID != ""
}

// Validate requires a token endpoint for the client-credentials flow
func (a AuthConfig) Validate() error {
	if a.ClientID != "" && a.TokenURL == "" {
		return fmt.Errorf("auth.token_url is required when auth.client_id is set")
	}
	return nil
}

// UsesBasic reports whether HTTP basic auth is configured
func (a AuthConfig) UsesBasic() bool {
	return a.ClientID == "" && a.Username != ""
}

// FilterConfig narrows the upstream query
type FilterConfig struct {
	// BoundingBox is [lamin, lomin, lamax, lomax] in WGS84 degrees
	BoundingBox []float64 `mapstructure:"bounding_box" yaml:"bounding_box"`
	// ICAO24 restricts the query to these transponder addresses
	ICAO24 []string `mapstructure:"icao24" yaml:"icao24"`
	// Extended asks upstream to include the aircraft category column
	Extended bool `mapstructure:"extended" yaml:"extended"`
}

// Validate checks the bounding box shape and ranges
func (f FilterConfig) Validate() error {
	if len(f.BoundingBox) == 0 {
		return nil
	}
	if len(f.BoundingBox) != 4 {
		return fmt.Errorf("filter.bounding_box needs 4 values, got %d", len(f.BoundingBox))
	}
	lamin, lomin, lamax, lomax := f.BoundingBox[0], f.BoundingBox[1], f.BoundingBox[2], f.BoundingBox[3]
	if lamin < -90 || lamax > 90 || lamin >= lamax {
		return fmt.Errorf("filter.bounding_box latitude range [%v, %v] is invalid", lamin, lamax)
	}
	if lomin < -180 || lomax > 180 || lomin >= lomax {
		return fmt.Errorf("filter.bounding_box longitude range [%v, %v] is invalid", lomin, lomax)
	}
	return nil
}

// DestinationConfig selects and configures the sink
type DestinationConfig struct {
	// Type is a registered destination name: memory, sqlite, postgres, mysql, mongodb, kafka
	Type string `mapstructure:"type" yaml:"type"`
	// DSN is the connection string of the SQL destinations
	DSN string `mapstructure:"dsn" yaml:"dsn"`
	// Path is the sqlite database file
	Path string `mapstructure:"path" yaml:"path"`
	// URI and Database configure mongodb
	URI      string `mapstructure:"uri" yaml:"uri"`
	Database string `mapstructure:"database" yaml:"database"`
	// Brokers and Topic configure kafka; the topic should be log-compacted
	Brokers []string `mapstructure:"brokers" yaml:"brokers"`
	Topic   string   `mapstructure:"topic" yaml:"topic"`
}

// Validate checks that the selected destination has what it needs
func (d DestinationConfig) Validate() error {
	switch d.Type {
	case "":
		return fmt.Errorf("destination.type is required")
	case "postgres", "mysql":
		if d.DSN == "" {
			return fmt.Errorf("destination.dsn is required for %s", d.Type)
		}
	case "sqlite":
		if d.Path == "" && d.DSN == "" {
			return fmt.Errorf("destination.path is required for sqlite")
		}
	case "mongodb":
		if d.URI == "" || d.Database == "" {
			return fmt.Errorf("destination.uri and destination.database are required for mongodb")
		}
	case "kafka":
		if len(d.Brokers) == 0 {
			return fmt.Errorf("destination.brokers is required for kafka")
		}
	}
	return nil
}

// CheckpointConfig selects and configures the checkpoint store
type CheckpointConfig struct {
	// Type is a registered store name: memory, file, sqlite, postgres, redis
	Type string `mapstructure:"type" yaml:"type"`
	// Path is the state file or sqlite database
	Path string `mapstructure:"path" yaml:"path"`
	// DSN is the postgres connection string
	DSN string `mapstructure:"dsn" yaml:"dsn"`
	// Addr, Password and DB configure redis
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
}

// Validate checks that the selected store has what it needs
func (c CheckpointConfig) Validate() error {
	switch c.Type {
	case "":
		return fmt.Errorf("checkpoint.type is required")
	case "file", "sqlite":
		if c.Path == "" {
			return fmt.Errorf("checkpoint.path is required for %s", c.Type)
		}
	case "postgres":
		if c.DSN == "" {
			return fmt.Errorf("checkpoint.dsn is required for postgres")
		}
	case "redis":
		if c.Addr == "" {
			return fmt.Errorf("checkpoint.addr is required for redis")
		}
	}
	return nil
}
