package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/mesh-intelligence/teamboard/internal/logging"
	"github.com/mesh-intelligence/teamboard/internal/postgres"
	"github.com/mesh-intelligence/teamboard/pkg/sqlite"
	"github.com/mesh-intelligence/teamboard/pkg/types"
)

// openStore opens the configured backend. The caller must Close it.
func openStore(ctx context.Context) (types.Store, error) {
	switch cfg.Store.Backend {
	case types.BackendPostgres:
		store, err := postgres.Open(ctx, cfg.Store.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return store, nil
	default:
		dataDir, err := resolveDataDir()
		if err != nil {
			return nil, fmt.Errorf("resolve data dir: %w", err)
		}
		backend := sqlite.NewBackend()
		if err := backend.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dataDir}); err != nil {
			return nil, fmt.Errorf("attach backend: %w", err)
		}
		return backend, nil
	}
}

func newLogger() (*logging.Logger, error) {
	log, err := logging.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return log, nil
}

// printResult writes v as indented JSON when --json is set, otherwise
// calls text.
func printResult(w io.Writer, v any, text func(io.Writer)) error {
	if !flagJSON {
		text(w)
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
