// Package postgres implements the PostgreSQL storage backend for teamboard
// on top of internal/sqlstore, using pgx through database/sql. Every
// transaction runs at SERIALIZABLE isolation; serialization failures surface
// as types.ErrConflict.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mesh-intelligence/teamboard/internal/sqlstore"
	"github.com/mesh-intelligence/teamboard/pkg/types"
)

// Open connects to dsn, verifies the connection, and applies the schema.
func Open(ctx context.Context, dsn string) (*sqlstore.Store, error) {
	if dsn == "" {
		return nil, types.ErrDSNEmpty
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", Dialect{}.ClassifyError(err))
	}
	store := sqlstore.New(db, Dialect{})
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Dialect is the sqlstore.Dialect for PostgreSQL.
type Dialect struct{}

// Name returns "postgres".
func (Dialect) Name() string { return types.BackendPostgres }

// TxOptions requests SERIALIZABLE isolation.
func (Dialect) TxOptions() *sql.TxOptions {
	return &sql.TxOptions{Isolation: sql.LevelSerializable}
}

// Rebind rewrites '?' placeholders to $1, $2, ... outside quoted literals.
func (Dialect) Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// ClassifyError maps serialization failures, deadlocks, and unique
// violations to types.ErrConflict and connection faults to
// types.ErrStoreUnavailable.
func (Dialect) ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "23505", "55P03":
			return fmt.Errorf("%w: %w", types.ErrConflict, err)
		case "57P01", "57P03", "53300":
			return fmt.Errorf("%w: %w", types.ErrStoreUnavailable, err)
		}
		return err
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || errors.Is(err, sql.ErrConnDone) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %w", types.ErrStoreUnavailable, err)
	}
	return err
}
