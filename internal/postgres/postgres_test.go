package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/teamboard/pkg/types"
)

func TestRebind(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SELECT 1", "SELECT 1"},
		{"SELECT a FROM t WHERE id = ?", "SELECT a FROM t WHERE id = $1"},
		{"UPDATE t SET a = ?, b = ? WHERE id IN (?, ?)", "UPDATE t SET a = $1, b = $2 WHERE id IN ($3, $4)"},
		{"SELECT a FROM t WHERE p = '' AND id = ?", "SELECT a FROM t WHERE p = '' AND id = $1"},
		{"SELECT '?' FROM t WHERE id = ?", "SELECT '?' FROM t WHERE id = $1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Dialect{}.Rebind(tt.in))
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"serialization failure", &pgconn.PgError{Code: "40001"}, types.ErrConflict},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, types.ErrConflict},
		{"unique violation", &pgconn.PgError{Code: "23505"}, types.ErrConflict},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, types.ErrStoreUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, Dialect{}.ClassifyError(tt.err), tt.want)
		})
	}

	plain := errors.New("syntax error")
	assert.Equal(t, plain, Dialect{}.ClassifyError(plain))
	assert.Nil(t, Dialect{}.ClassifyError(nil))
}

func TestTxOptionsSerializable(t *testing.T) {
	opts := Dialect{}.TxOptions()
	require.NotNil(t, opts)
	assert.Equal(t, "Serializable", opts.Isolation.String())
}

// TestOpenRoundTrip runs against a live server when
// TEAMBOARD_TEST_POSTGRES_DSN is set.
func TestOpenRoundTrip(t *testing.T) {
	dsn := os.Getenv("TEAMBOARD_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEAMBOARD_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	store, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	u := &types.User{Username: "pg-user", Email: "PG-" + t.Name() + "@example.com"}
	require.NoError(t, tx.InsertUser(ctx, u))
	got, err := tx.FindUserByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.UserID, got.UserID)
}

func TestOpenEmptyDSN(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.ErrorIs(t, err, types.ErrDSNEmpty)
}
