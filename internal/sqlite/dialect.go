package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mesh-intelligence/teamboard/pkg/types"
)

// Dialect is the sqlstore.Dialect for SQLite.
type Dialect struct{}

// Name returns "sqlite".
func (Dialect) Name() string { return types.BackendSQLite }

// Rebind returns query unchanged; SQLite accepts '?' placeholders.
func (Dialect) Rebind(query string) string { return query }

// TxOptions returns nil. Isolation comes from _txlock=immediate.
func (Dialect) TxOptions() *sql.TxOptions { return nil }

// ClassifyError maps BUSY, LOCKED, and CONSTRAINT to types.ErrConflict.
func (Dialect) ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_CONSTRAINT:
			return fmt.Errorf("%w: %w", types.ErrConflict, err)
		case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_IOERR, sqlite3.SQLITE_FULL:
			return fmt.Errorf("%w: %w", types.ErrStoreUnavailable, err)
		}
		return err
	}
	msg := err.Error()
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY") {
		return fmt.Errorf("%w: %w", types.ErrConflict, err)
	}
	if errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %w", types.ErrStoreUnavailable, err)
	}
	return err
}
