package webconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Server defaults
	assert.Equal(t, 8050, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Bind)
	assert.Empty(t, cfg.Server.CORSOrigins)

	// Auth defaults
	assert.Empty(t, cfg.Auth.JWTSecret)
	assert.Equal(t, "24h", cfg.Auth.JWTExpire)
	assert.Equal(t, "admin", cfg.Auth.AdminUsername)
	assert.Equal(t, "admin123", cfg.Auth.AdminPassword)
	assert.Equal(t, "System Administrator", cfg.Auth.AdminFullName)

	// Database defaults
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Contains(t, cfg.Database.SQLitePath, "cybercase.db")
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)

	// Log defaults
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "production", cfg.Log.Mode)
	assert.Equal(t, 10, cfg.Log.MaxSizeMB)
	assert.True(t, cfg.Log.Compress)

	// Dashboard defaults
	assert.Equal(t, 60, cfg.Dashboard.RefreshSeconds)
	assert.Equal(t, 30, cfg.Dashboard.TrendDays)

	// Alert defaults
	assert.False(t, cfg.Alert.Enabled)
	assert.Equal(t, "Critical", cfg.Alert.MinPriority)
}

func TestConfig_ListenAddr(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Bind: "127.0.0.1", Port: 8080}}
	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr())

	def := Default()
	assert.Equal(t, "0.0.0.0:8050", def.ListenAddr())
}

func TestConfig_JWTExpireDuration(t *testing.T) {
	tests := []struct {
		name     string
		expire   string
		expected time.Duration
	}{
		{"24 hours", "24h", 24 * time.Hour},
		{"30 minutes", "30m", 30 * time.Minute},
		{"invalid", "invalid", 24 * time.Hour}, // fallback
		{"empty", "", 24 * time.Hour},          // fallback
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Auth: AuthConfig{JWTExpire: tt.expire}}
			assert.Equal(t, tt.expected, cfg.JWTExpireDuration())
		})
	}
}

func TestConfig_QueryTimeoutDuration(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{QueryTimeout: "2s"}}
	assert.Equal(t, 2*time.Second, cfg.QueryTimeoutDuration())

	cfg.Database.QueryTimeout = "-1s"
	assert.Equal(t, 5*time.Second, cfg.QueryTimeoutDuration())

	cfg.Database.QueryTimeout = "nope"
	assert.Equal(t, 5*time.Second, cfg.QueryTimeoutDuration())
}

func TestConfig_RefreshInterval(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, 60*time.Second, cfg.RefreshInterval())

	cfg.Dashboard.RefreshSeconds = 15
	assert.Equal(t, 15*time.Second, cfg.RefreshInterval())
}

func TestConfig_IsDebug(t *testing.T) {
	tests := []struct {
		mode     string
		expected bool
	}{
		{"debug", true},
		{"DEBUG", true},
		{"production", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			cfg := &Config{Log: LogConfig{Mode: tt.mode}}
			assert.Equal(t, tt.expected, cfg.IsDebug())
		})
	}
}

func TestApplyEnv_OverridesOnlySetVariables(t *testing.T) {
	t.Setenv("CYBERCASE_SERVER_PORT", "9090")
	t.Setenv("CYBERCASE_DATABASE_DRIVER", "postgres")
	t.Setenv("CYBERCASE_ALERT_ENABLED", "true")
	t.Setenv("CYBERCASE_SERVER_CORS_ORIGINS", "http://a.example,http://b.example")

	cfg := Default()
	require.NoError(t, ApplyEnv(&cfg))

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.True(t, cfg.Alert.Enabled)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Server.CORSOrigins)

	// untouched
	assert.Equal(t, "0.0.0.0", cfg.Server.Bind)
	assert.Equal(t, "admin", cfg.Auth.AdminUsername)
	assert.Equal(t, 60, cfg.Dashboard.RefreshSeconds)
}

func TestApplyEnv_InvalidValue(t *testing.T) {
	t.Setenv("CYBERCASE_SERVER_PORT", "not-a-number")

	cfg := Default()
	assert.Error(t, ApplyEnv(&cfg))
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cybercase.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server":{"port":7000},"auth":{"jwt_secret":"from-file"},"dashboard":{"refresh_seconds":30}}`), 0o600))

	t.Setenv("CYBERCASE_CONFIG", path)
	t.Setenv("CYBERCASE_DASHBOARD_REFRESH_SECONDS", "45")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, 45, cfg.Dashboard.RefreshSeconds)
	// defaults survive a partial file
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestLoad_GeneratesAndPersistsSecret(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cybercase.json")
	t.Setenv("CYBERCASE_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Len(t, cfg.Auth.JWTSecret, 64)

	again, err := Load()
	require.NoError(t, err)
	assert.Equal(t, cfg.Auth.JWTSecret, again.Auth.JWTSecret)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cybercase.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))
	t.Setenv("CYBERCASE_CONFIG", path)

	_, err := Load()
	assert.Error(t, err)
}
