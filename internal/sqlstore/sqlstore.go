// Package sqlstore implements types.Store over database/sql. Queries are
// written once with '?' placeholders; a Dialect adapts them to the driver
// and classifies driver errors into the kinds defined in pkg/types.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/teamboard/pkg/types"
)

// Dialect captures what differs between SQL backends.
type Dialect interface {
	// Name identifies the backend in logs and errors.
	Name() string
	// Rebind rewrites '?' placeholders into the driver's form.
	Rebind(query string) string
	// TxOptions returns the options used for every transaction.
	TxOptions() *sql.TxOptions
	// ClassifyError wraps err with a kind from pkg/types when the driver
	// reports a conflict or connectivity fault. Other errors are returned
	// unchanged.
	ClassifyError(err error) error
}

// Store is a types.Store backed by a *sql.DB.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

var _ types.Store = (*Store)(nil)

// New wraps db. The schema is not created; call Migrate first.
func New(db *sql.DB, d Dialect) *Store {
	return &Store{db: db, dialect: d}
}

// DB returns the underlying connection pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates tables and indexes that do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schemaDDL {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing schema DDL: %w", s.dialect.ClassifyError(err))
		}
	}
	for _, stmt := range indexDDL {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating index: %w", s.dialect.ClassifyError(err))
		}
	}
	return nil
}

// Begin starts a transaction with the dialect's options.
func (s *Store) Begin(ctx context.Context) (types.Tx, error) {
	tx, err := s.db.BeginTx(ctx, s.dialect.TxOptions())
	if err != nil {
		return nil, fmt.Errorf("beginning %s transaction: %w", s.dialect.Name(), s.dialect.ClassifyError(err))
	}
	return &Tx{tx: tx, d: s.dialect}, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Tx is a types.Tx over a *sql.Tx.
type Tx struct {
	tx   *sql.Tx
	d    Dialect
	done bool
}

var _ types.Tx = (*Tx)(nil)

// Commit commits the transaction. Serialization failures wrap
// types.ErrConflict.
func (t *Tx) Commit() error {
	t.done = true
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", t.d.ClassifyError(err))
	}
	return nil
}

// Rollback aborts the transaction. It is a no-op after Commit.
func (t *Tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rolling back transaction: %w", t.d.ClassifyError(err))
	}
	return nil
}

func (t *Tx) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := t.tx.ExecContext(ctx, t.d.Rebind(query), args...)
	if err != nil {
		return nil, t.d.ClassifyError(err)
	}
	return res, nil
}

func (t *Tx) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := t.tx.QueryContext(ctx, t.d.Rebind(query), args...)
	if err != nil {
		return nil, t.d.ClassifyError(err)
	}
	return rows, nil
}

func (t *Tx) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(ctx, t.d.Rebind(query), args...)
}

// execCount runs a statement and returns the number of affected rows.
func (t *Tx) execCount(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := t.exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading affected rows: %w", err)
	}
	return n, nil
}

// queryStrings runs a query that selects a single text column.
func (t *Tx) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := t.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, t.d.ClassifyError(err)
	}
	return out, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// newID generates a UUID v7 for entity IDs.
func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generating UUID v7: %w", err)
	}
	return id.String(), nil
}

// stamp fills an empty id and zero timestamps before an insert.
func stamp(id *string, created, updated *time.Time) error {
	if *id == "" {
		v, err := newID()
		if err != nil {
			return err
		}
		*id = v
	}
	now := time.Now().UTC()
	if created.IsZero() {
		*created = now
	}
	if updated.IsZero() {
		*updated = *created
	}
	return nil
}

// timeLayout is fixed width so that text order matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}

// notFound maps sql.ErrNoRows to a types.ErrNotFound for the named entity.
func (t *Tx) notFound(err error, entity, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return types.NotFoundf("%s %s", entity, id)
	}
	return fmt.Errorf("getting %s %s: %w", entity, id, t.d.ClassifyError(err))
}
