// Package store selects and opens a durable-storage backend for the auction
// snapshot. Backends implement whole-collection load/replace only; the engine
// never issues partial updates.
package store

import (
	"context"
	"fmt"
	"io"

	"github.com/jensholdgaard/auction-desk/internal/auction"
	"github.com/jensholdgaard/auction-desk/internal/config"
)

// Backend groups what a storage driver returns.
type Backend struct {
	Snapshots auction.Store
	// Closer is called to release underlying resources (e.g. DB connection).
	Closer io.Closer
	// Ping checks the underlying connection health.
	Ping func(ctx context.Context) error
}

// Driver is a function that opens a connection and returns a Backend.
type Driver func(ctx context.Context, cfg config.DatabaseConfig) (*Backend, error)

// registry maps driver names to their factory functions.
var registry = map[string]Driver{}

// Register adds a named driver to the global registry.
// It is intended to be called from init() in each driver package.
func Register(name string, d Driver) {
	registry[name] = d
}

// Open selects the driver specified in cfg.Driver and returns a Backend.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Backend, error) {
	d, ok := registry[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("unknown store driver %q (registered: %v)", cfg.Driver, registeredNames())
	}
	return d(ctx, cfg)
}

func registeredNames() []string {
	names := make([]string, 0, len(registry))
	for k := range registry {
		names = append(names, k)
	}
	return names
}
