// Package registry maps connector names to factories. Sources, destinations
// and checkpoint stores register themselves from their package init().
package registry

import (
	"sort"
	"sync"

	"github.com/ajitpratap0/flightsync/pkg/clients"
	"github.com/ajitpratap0/flightsync/pkg/config"
	"github.com/ajitpratap0/flightsync/pkg/connector/core"
	"github.com/ajitpratap0/flightsync/pkg/errors"
	"github.com/ajitpratap0/flightsync/pkg/logger"
	"go.uber.org/zap"
)

// Options carries process-wide collaborators handed to every factory
type Options struct {
	Logger  *zap.Logger
	Metrics clients.RequestObserver
}

// Log returns the configured logger or the global one
func (o Options) Log() *zap.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return logger.Get()
}

// SourceFactory creates a configured source
type SourceFactory func(cfg *config.Config, opts Options) (core.Source, error)

// DestinationFactory creates a configured destination
type DestinationFactory func(cfg *config.Config, opts Options) (core.Destination, error)

// CheckpointFactory creates a checkpoint store keyed by cfg.Connector
type CheckpointFactory func(cfg *config.Config, opts Options) (core.CheckpointStore, error)

// Registry manages connector registration and instantiation
type Registry struct {
	sources      map[string]SourceFactory
	destinations map[string]DestinationFactory
	checkpoints  map[string]CheckpointFactory
	mu           sync.RWMutex
}

var globalRegistry = NewRegistry()

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		sources:      make(map[string]SourceFactory),
		destinations: make(map[string]DestinationFactory),
		checkpoints:  make(map[string]CheckpointFactory),
	}
}

// RegisterSource registers a source factory
func (r *Registry) RegisterSource(name string, factory SourceFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sources[name]; exists {
		return errors.Newf(errors.ErrorTypeConfig, "source connector %s already registered", name)
	}
	r.sources[name] = factory
	return nil
}

// RegisterDestination registers a destination factory
func (r *Registry) RegisterDestination(name string, factory DestinationFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.destinations[name]; exists {
		return errors.Newf(errors.ErrorTypeConfig, "destination connector %s already registered", name)
	}
	r.destinations[name] = factory
	return nil
}

// RegisterCheckpoint registers a checkpoint store factory
func (r *Registry) RegisterCheckpoint(name string, factory CheckpointFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.checkpoints[name]; exists {
		return errors.Newf(errors.ErrorTypeConfig, "checkpoint store %s already registered", name)
	}
	r.checkpoints[name] = factory
	return nil
}

// CreateSource creates a source connector instance
func (r *Registry) CreateSource(name string, cfg *config.Config, opts Options) (core.Source, error) {
	r.mu.RLock()
	factory, exists := r.sources[name]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.Newf(errors.ErrorTypeConfig, "source connector %s not found", name)
	}

	source, err := factory(cfg, opts)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to create source connector "+name)
	}
	opts.Log().Debug("source created", zap.String("name", name))
	return source, nil
}

// CreateDestination creates a destination connector instance
func (r *Registry) CreateDestination(name string, cfg *config.Config, opts Options) (core.Destination, error) {
	r.mu.RLock()
	factory, exists := r.destinations[name]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.Newf(errors.ErrorTypeConfig, "destination connector %s not found", name)
	}

	destination, err := factory(cfg, opts)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to create destination connector "+name)
	}
	opts.Log().Debug("destination created", zap.String("name", name))
	return destination, nil
}

// CreateCheckpoint creates a checkpoint store instance
func (r *Registry) CreateCheckpoint(name string, cfg *config.Config, opts Options) (core.CheckpointStore, error) {
	r.mu.RLock()
	factory, exists := r.checkpoints[name]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.Newf(errors.ErrorTypeConfig, "checkpoint store %s not found", name)
	}

	store, err := factory(cfg, opts)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeCheckpoint, "failed to create checkpoint store "+name)
	}
	opts.Log().Debug("checkpoint store created", zap.String("name", name))
	return store, nil
}

// ListSources returns the registered source names, sorted
func (r *Registry) ListSources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.sources)
}

// ListDestinations returns the registered destination names, sorted
func (r *Registry) ListDestinations() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.destinations)
}

// ListCheckpoints returns the registered checkpoint store names, sorted
func (r *Registry) ListCheckpoints() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.checkpoints)
}

// HasSource checks if a source connector is registered
func (r *Registry) HasSource(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.sources[name]
	return exists
}

// HasDestination checks if a destination connector is registered
func (r *Registry) HasDestination(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.destinations[name]
	return exists
}

// Clear removes all registrations (mainly for testing)
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sources = make(map[string]SourceFactory)
	r.destinations = make(map[string]DestinationFactory)
	r.checkpoints = make(map[string]CheckpointFactory)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Global registry functions

// RegisterSource registers a source in the global registry
func RegisterSource(name string, factory SourceFactory) error {
	return globalRegistry.RegisterSource(name, factory)
}

// RegisterDestination registers a destination in the global registry
func RegisterDestination(name string, factory DestinationFactory) error {
	return globalRegistry.RegisterDestination(name, factory)
}

// RegisterCheckpoint registers a checkpoint store in the global registry
func RegisterCheckpoint(name string, factory CheckpointFactory) error {
	return globalRegistry.RegisterCheckpoint(name, factory)
}

// CreateSource creates a source from the global registry
func CreateSource(name string, cfg *config.Config, opts Options) (core.Source, error) {
	return globalRegistry.CreateSource(name, cfg, opts)
}

// CreateDestination creates a destination from the global registry
func CreateDestination(name string, cfg *config.Config, opts Options) (core.Destination, error) {
	return globalRegistry.CreateDestination(name, cfg, opts)
}

// CreateCheckpoint creates a checkpoint store from the global registry
func CreateCheckpoint(name string, cfg *config.Config, opts Options) (core.CheckpointStore, error) {
	return globalRegistry.CreateCheckpoint(name, cfg, opts)
}

// ListSources returns registered sources from the global registry
func ListSources() []string {
	return globalRegistry.ListSources()
}

// ListDestinations returns registered destinations from the global registry
func ListDestinations() []string {
	return globalRegistry.ListDestinations()
}

// ListCheckpoints returns registered checkpoint stores from the global registry
func ListCheckpoints() []string {
	return globalRegistry.ListCheckpoints()
}

// HasSource checks if a source is registered in the global registry
func HasSource(name string) bool {
	return globalRegistry.HasSource(name)
}

// HasDestination checks if a destination is registered in the global registry
func HasDestination(name string) bool {
	return globalRegistry.HasDestination(name)
}

// GetRegistry returns the global registry instance
func GetRegistry() *Registry {
	return globalRegistry
}
