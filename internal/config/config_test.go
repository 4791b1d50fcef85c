package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWritesDefaultsWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, resolved, err := Load(nil, path)
	require.NoError(t, err)
	assert.Equal(t, path, resolved)
	assert.Equal(t, Default(), cfg)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "workers: 8")
	assert.Contains(t, string(data), "read_header_timeout: 5s")
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":9000"
workers: 2
jwt_ttl: 1h
log_format: json
`), 0o600))
	t.Setenv("BRIDGE_WORKERS", "3")

	cfg, _, err := Load(nil, path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 256, cfg.EventBuffer)

	cfg.UpdateFrom(Config{Addr: ":7000", LogLevel: "debug"})
	assert.Equal(t, ":7000", cfg.Addr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 3, cfg.Workers)
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: [unterminated"), 0o600))

	_, _, err := Load(nil, path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Default().Validate())

	cfg := Default()
	cfg.Workers = 0
	cfg.LogFormat = "xml"
	cfg.JWTSecret = "s"
	cfg.JWTTTL = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workers")
	assert.Contains(t, err.Error(), "log_format")
	assert.Contains(t, err.Error(), "jwt_ttl")
}

func TestMarshalRedactsSecret(t *testing.T) {
	cfg := Default()
	cfg.JWTSecret = "top-secret"

	data, err := Marshal(cfg)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "top-secret")
	assert.Equal(t, "top-secret", cfg.JWTSecret)
}
