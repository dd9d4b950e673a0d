package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/teamboard/internal/auth"
	"github.com/mesh-intelligence/teamboard/internal/paths"
	"github.com/mesh-intelligence/teamboard/pkg/types"
)

func TestLoadConfigWritesDefaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "teamboard")

	v, err := loadConfig(dir)
	require.NoError(t, err)

	data, err := os.ReadFile(paths.ConfigFile(dir))
	require.NoError(t, err)
	var file configFile
	require.NoError(t, yaml.Unmarshal(data, &file))
	assert.Len(t, file.Auth.JWTSecret, 64)
	assert.Equal(t, types.BackendSQLite, file.Backend)

	s, err := settingsFrom(v)
	require.NoError(t, err)
	assert.Equal(t, types.BackendSQLite, s.Store.Backend)
	assert.Equal(t, defaultHTTPAddr, s.HTTPAddr)
	assert.Equal(t, auth.DefaultTokenTTL, s.TokenTTL)
	assert.Equal(t, file.Auth.JWTSecret, s.JWTSecret)
	assert.InDelta(t, 1.0, s.TelemetryRatio, 1e-9)
}

func TestLoadConfigKeepsExistingFile(t *testing.T) {
	dir := t.TempDir()
	want := defaultConfigFile("fixed-secret")
	want.Auth.TokenTTL = "1h"
	want.Auth.Operators = []string{"op-1"}
	require.NoError(t, writeConfigFile(paths.ConfigFile(dir), want))

	v, err := loadConfig(dir)
	require.NoError(t, err)
	s, err := settingsFrom(v)
	require.NoError(t, err)
	assert.Equal(t, "fixed-secret", s.JWTSecret)
	assert.Equal(t, time.Hour, s.TokenTTL)
	assert.Equal(t, []string{"op-1"}, s.Operators)
}

func TestEnvOverridesConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, writeConfigFile(paths.ConfigFile(dir), defaultConfigFile("file-secret")))
	t.Setenv("TEAMBOARD_HTTP_ADDR", "127.0.0.1:9999")
	t.Setenv("TEAMBOARD_AUTH_JWT_SECRET", "env-secret")

	v, err := loadConfig(dir)
	require.NoError(t, err)
	s, err := settingsFrom(v)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", s.HTTPAddr)
	assert.Equal(t, "env-secret", s.JWTSecret)
}

func TestSettingsFromRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*configFile)
		check func(t *testing.T, err error)
	}{
		{
			name: "bad token ttl",
			edit: func(c *configFile) { c.Auth.TokenTTL = "soon" },
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, cfgKeyTokenTTL)
			},
		},
		{
			name: "unknown backend",
			edit: func(c *configFile) { c.Backend = "cassandra" },
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, types.ErrBackendUnknown)
			},
		},
		{
			name: "postgres without dsn",
			edit: func(c *configFile) { c.Backend = types.BackendPostgres },
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, types.ErrDSNEmpty)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			file := defaultConfigFile("secret")
			tt.edit(&file)
			require.NoError(t, writeConfigFile(paths.ConfigFile(dir), file))

			v, err := loadConfig(dir)
			require.NoError(t, err)
			_, err = settingsFrom(v)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "TEAMBOARD_BACKEND", envName(cfgKeyBackend))
	assert.Equal(t, "TEAMBOARD_TELEMETRY_SAMPLE_RATIO", envName(cfgKeyTelemetryRatio))
}
