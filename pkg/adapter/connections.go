package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/recordsql/pkg/core"
)

// Connections shares connected adapters between proxies.
// Adapters are keyed by the backend identifier and reference counted;
// the last Release closes the adapter.
type Connections struct {
	mu      sync.Mutex
	entries map[string]*sharedConnection
	logger  *slog.Logger

	// Factory creates unconnected adapters; defaults to NewAdapter
	Factory func(core.BackendConfig, *slog.Logger) (Adapter, error)
}

type sharedConnection struct {
	adapter Adapter
	refs    int
}

// NewConnections creates an empty connection registry.
func NewConnections(logger *slog.Logger) *Connections {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Connections{
		entries: make(map[string]*sharedConnection),
		logger:  logger,
		Factory: NewAdapter,
	}
}

// Open returns the connected adapter for cfg, connecting on first use.
func (c *Connections) Open(ctx context.Context, cfg core.BackendConfig) (Adapter, error) {
	key, err := cfg.Identifier()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if shared, ok := c.entries[key]; ok {
		shared.refs++
		return shared.adapter, nil
	}

	a, err := c.Factory(cfg, c.logger)
	if err != nil {
		return nil, err
	}
	if err := a.Connect(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", key, err)
	}

	c.logger.Debug("opened connection", slog.String("key", key))
	c.entries[key] = &sharedConnection{adapter: a, refs: 1}
	return a, nil
}

// Release drops one reference to the adapter for cfg and closes it when
// no reference is left.
func (c *Connections) Release(cfg core.BackendConfig) error {
	key, err := cfg.Identifier()
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	shared, ok := c.entries[key]
	if !ok {
		return nil
	}
	shared.refs--
	if shared.refs > 0 {
		return nil
	}
	delete(c.entries, key)
	c.logger.Debug("closing connection", slog.String("key", key))
	return shared.adapter.Close()
}

// Refs returns the number of open references for cfg.
func (c *Connections) Refs(cfg core.BackendConfig) int {
	key, err := cfg.Identifier()
	if err != nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if shared, ok := c.entries[key]; ok {
		return shared.refs
	}
	return 0
}

// Close closes every adapter regardless of references.
func (c *Connections) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for key, shared := range c.entries {
		if err := shared.adapter.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close %s: %w", key, err))
		}
		delete(c.entries, key)
	}
	return errors.Join(errs...)
}
