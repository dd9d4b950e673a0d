package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRedaction(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := FromCore(core)

	log.Info("login", "email", "ada@example.com", "password", "hunter2", "Authorization", "Bearer x", "jwt_secret", "s")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "ada@example.com", fields["email"])
	assert.Equal(t, redacted, fields["password"])
	assert.Equal(t, redacted, fields["Authorization"])
	assert.Equal(t, redacted, fields["jwt_secret"])
}

func TestWithKeepsContext(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := FromCore(core).With("op", "deleteFeature", "token", "abc")

	log.Warn("aborted")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "deleteFeature", fields["op"])
	assert.Equal(t, redacted, fields["token"])
}

func TestOddKeyValues(t *testing.T) {
	out := sanitizeKVs([]any{"a", 1, "dangling"})
	assert.Equal(t, []any{"a", 1, "dangling"}, out)
}

func TestNew(t *testing.T) {
	for _, mode := range []string{"development", "production", ""} {
		l, err := New(mode)
		require.NoError(t, err, mode)
		assert.NotNil(t, l.SugaredLogger)
	}
}
