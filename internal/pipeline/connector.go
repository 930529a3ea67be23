package pipeline

import (
	"context"

	"github.com/ajitpratap0/flightsync/pkg/connector/core"
)

// Connector exposes an Engine to a host that owns the checkpoint state
// itself. RunCycle never touches the engine's store.
type Connector struct {
	engine *Engine
}

var _ core.Connector = (*Connector)(nil)

// NewConnector wraps engine
func NewConnector(engine *Engine) *Connector {
	return &Connector{engine: engine}
}

// DescribeSchema returns the tables the connector populates
func (c *Connector) DescribeSchema() []*core.TableSchema {
	return []*core.TableSchema{c.engine.Schema()}
}

// RunCycle runs one cycle from prior and returns the state to persist
func (c *Connector) RunCycle(ctx context.Context, prior core.State) (core.State, error) {
	c.engine.mu.Lock()
	defer c.engine.mu.Unlock()

	return c.engine.run(ctx, prior, false)
}
