// Package sqlite implements the SQLite storage backend for teamboard on top
// of internal/sqlstore, using the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/teamboard/internal/sqlstore"
	"github.com/mesh-intelligence/teamboard/pkg/types"
)

// DBFile is the database file name inside the data directory.
const DBFile = "teamboard.db"

// Backend implements types.Store using a SQLite database file in DataDir.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	store    *sqlstore.Store
}

var _ types.Store = (*Backend)(nil)

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach opens (or creates) the database in config.DataDir and applies the
// schema. Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}

	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", DSN(filepath.Join(dataDir, DBFile)))
	if err != nil {
		return fmt.Errorf("opening sqlite database: %w", err)
	}

	store := sqlstore.New(db, Dialect{})
	if err := store.Migrate(context.Background()); err != nil {
		db.Close()
		return err
	}

	b.store = store
	b.config = config
	b.attached = true
	return nil
}

// Detach releases the database handle. Idempotent. After Detach, Begin
// returns ErrDetached.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if err := b.store.Close(); err != nil {
		return err
	}
	b.store = nil
	b.attached = false
	return nil
}

// Begin starts an immediate transaction.
func (b *Backend) Begin(ctx context.Context) (types.Tx, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDetached
	}
	return b.store.Begin(ctx)
}

// Close is Detach.
func (b *Backend) Close() error {
	return b.Detach()
}

// DSN builds the connection string for path. Transactions take the write
// lock at BEGIN so that concurrent writers fail fast with SQLITE_BUSY after
// the busy timeout instead of deadlocking on lock upgrade.
func DSN(path string) string {
	return "file:" + path +
		"?_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(wal)" +
		"&_pragma=synchronous(normal)" +
		"&_txlock=immediate"
}
