package opensky

import (
	"github.com/ajitpratap0/flightsync/pkg/config"
	"github.com/ajitpratap0/flightsync/pkg/connector/core"
	"github.com/ajitpratap0/flightsync/pkg/connector/registry"
)

func init() {
	_ = registry.RegisterSource(Name, func(cfg *config.Config, opts registry.Options) (core.Source, error) {
		return NewSource(cfg, opts.Metrics, opts.Log())
	})
}
