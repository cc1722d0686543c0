package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
auth:
  jwt_signing_key: test-key
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, StorageCookie, cfg.Consent.Storage)
	assert.Equal(t, "cookie-consent-storage", cfg.Consent.CookieName)
	assert.Equal(t, time.Second, cfg.Consent.BannerDelay)
	assert.Equal(t, "/dashboard", cfg.Auth.DashboardPath)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
auth:
  jwt_signing_key: test-key
`)
	t.Setenv("LC_SITE_SERVER_PORT", "9100")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		message string
	}{
		{
			name:    "invalid port",
			content: "server:\n  port: 70000\nauth:\n  jwt_signing_key: k\n",
			message: "invalid server port",
		},
		{
			name:    "unknown storage",
			content: "consent:\n  storage: localstorage\nauth:\n  jwt_signing_key: k\n",
			message: "unsupported consent storage",
		},
		{
			name:    "redis without url",
			content: "consent:\n  storage: redis\nauth:\n  jwt_signing_key: k\n",
			message: "redis url is required",
		},
		{
			name:    "mysql without host",
			content: "consent:\n  storage: mysql\nauth:\n  jwt_signing_key: k\n",
			message: "database hostname is required",
		},
		{
			name:    "missing signing key",
			content: "server:\n  port: 8080\n",
			message: "jwt signing key is required",
		},
		{
			name:    "negative banner delay",
			content: "consent:\n  banner_delay: -1s\nauth:\n  jwt_signing_key: k\n",
			message: "banner delay must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDatabaseConfig_GetDSN(t *testing.T) {
	d := DatabaseConfig{User: "u", Password: "p", Hostname: "db", Port: 3306, Database: "site"}
	assert.Equal(t, "u:p@tcp(db:3306)/site?parseTime=true", d.GetDSN())
}
