// Package config provides configuration management for flightsync.
//
// # Sources
//
// Values are resolved in increasing precedence:
//
//   - defaults from NewConfig
//   - a YAML file, with ${VAR_NAME} environment substitution applied first
//   - FLIGHTSYNC_* environment variables, nested keys joined by '_'
//     (FLIGHTSYNC_API_URL, FLIGHTSYNC_FLIGHT_LIMIT, FLIGHTSYNC_TIMEOUTS_REQUEST)
//   - command line flags bound with Loader.BindFlag
//
// # Usage
//
//	cfg, err := config.Load("flightsync.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
// A minimal file:
//
//	api_url: https://opensky-network.org/api/states/all
//	flight_limit: 300
//	destination:
//	  type: postgres
//	  dsn: ${DATABASE_URL}
//	checkpoint:
//	  type: redis
//	  addr: localhost:6379
//
// api_url and flight_limit are the only options the connector itself
// recognizes; everything else configures the host around it.
package config
