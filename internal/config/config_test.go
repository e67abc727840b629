package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allConfigKeys lists every CREDPANEL_ env var that Load() reads.
var allConfigKeys = []string{
	"CREDPANEL_LISTEN_ADDR",
	"CREDPANEL_DB_PATH",
	"CREDPANEL_SECRET_KEY",
	"CREDPANEL_JWT_SECRET",
	"CREDPANEL_TOKEN_TTL",
	"CREDPANEL_RESET_TOKEN_TTL",
	"CREDPANEL_CORS_ORIGINS",
	"CREDPANEL_LOG_LEVEL",
	"CREDPANEL_LOG_FORMAT",
	"CREDPANEL_RESET_URL",
}

// isolateConfigEnv saves and unsets all CREDPANEL_ env vars so tests don't
// inherit values from the host environment (e.g. a running dev server).
// t.Cleanup restores original values after the test.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("CREDPANEL_SECRET_KEY", "encryption-key-material")
	t.Setenv("CREDPANEL_JWT_SECRET", "jwt-signing-secret")
}

func TestLoad_Success(t *testing.T) {
	isolateConfigEnv(t)
	setRequired(t)
	t.Setenv("CREDPANEL_LISTEN_ADDR", "0.0.0.0:9090")
	t.Setenv("CREDPANEL_DB_PATH", "/tmp/test.db")
	t.Setenv("CREDPANEL_TOKEN_TTL", "24h")
	t.Setenv("CREDPANEL_RESET_TOKEN_TTL", "15m")
	t.Setenv("CREDPANEL_CORS_ORIGINS", "http://a.local, http://b.local")
	t.Setenv("CREDPANEL_LOG_LEVEL", "debug")
	t.Setenv("CREDPANEL_LOG_FORMAT", "json")
	t.Setenv("CREDPANEL_RESET_URL", "https://panel.example.com/reset")

	cfg, err := LoadFile("")

	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, "encryption-key-material", cfg.SecretKey)
	assert.Equal(t, "jwt-signing-secret", cfg.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 15*time.Minute, cfg.ResetTokenTTL)
	assert.Equal(t, []string{"http://a.local", "http://b.local"}, cfg.CORSOrigins)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "https://panel.example.com/reset", cfg.ResetURL)

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)
	setRequired(t)

	cfg, err := LoadFile("")

	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.Equal(t, "credpanel.db", cfg.DBPath)
	assert.Equal(t, 168*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 30*time.Minute, cfg.ResetTokenTTL)
	assert.Empty(t, cfg.CORSOrigins)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "http://localhost:8080/reset-password", cfg.ResetURL)
}

func TestLoad_MissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		set     map[string]string
		wantKey string
	}{
		{
			name:    "missing secret key",
			set:     map[string]string{"CREDPANEL_JWT_SECRET": "x"},
			wantKey: "CREDPANEL_SECRET_KEY",
		},
		{
			name:    "missing jwt secret",
			set:     map[string]string{"CREDPANEL_SECRET_KEY": "x"},
			wantKey: "CREDPANEL_JWT_SECRET",
		},
		{
			name:    "blank secret key",
			set:     map[string]string{"CREDPANEL_SECRET_KEY": "   ", "CREDPANEL_JWT_SECRET": "x"},
			wantKey: "CREDPANEL_SECRET_KEY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateConfigEnv(t)
			for k, v := range tt.set {
				t.Setenv(k, v)
			}

			cfg, err := LoadFile("")

			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantKey)
		})
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{key: "CREDPANEL_TOKEN_TTL", value: "not-a-duration"},
		{key: "CREDPANEL_TOKEN_TTL", value: "-1h"},
		{key: "CREDPANEL_RESET_TOKEN_TTL", value: "0s"},
		{key: "CREDPANEL_LOG_LEVEL", value: "loud"},
		{key: "CREDPANEL_LOG_FORMAT", value: "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			isolateConfigEnv(t)
			setRequired(t)
			t.Setenv(tt.key, tt.value)

			cfg, err := LoadFile("")

			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoadFile_DotEnv(t *testing.T) {
	isolateConfigEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"CREDPANEL_SECRET_KEY=from-file\nCREDPANEL_JWT_SECRET=jwt-from-file\nCREDPANEL_DB_PATH=file.db\n",
	), 0o600))
	t.Setenv("CREDPANEL_DB_PATH", "env.db")

	cfg, err := LoadFile(path)

	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.SecretKey)
	assert.Equal(t, "env.db", cfg.DBPath, "environment wins over the file")
}

func TestLoadFile_MissingFileIsIgnored(t *testing.T) {
	isolateConfigEnv(t)
	setRequired(t)

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.env"))

	require.NoError(t, err)
	assert.NotNil(t, cfg)
}
