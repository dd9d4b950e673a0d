// Package sqlite provides the public API for the SQLite teamboard store.
// It exposes the factory function while keeping implementation details
// internal.
package sqlite

import (
	"github.com/mesh-intelligence/teamboard/internal/sqlite"
	"github.com/mesh-intelligence/teamboard/pkg/types"
)

// Backend is a SQLite store with an explicit attach/detach lifecycle.
type Backend interface {
	types.Store
	Attach(config types.Config) error
	Detach() error
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
//
// Example:
//
//	backend := sqlite.NewBackend()
//	err := backend.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".teamboard-db",
//	})
//	defer backend.Detach()
func NewBackend() Backend {
	return sqlite.NewBackend()
}
