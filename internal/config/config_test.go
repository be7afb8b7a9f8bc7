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

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
database:
  url: "postgres://localhost/test"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL())
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTokenTTL())
	assert.Equal(t, 5, cfg.Auth.MaxFailedLogins)
	assert.Equal(t, 15*time.Minute, cfg.Auth.LockoutDuration())
	assert.Equal(t, 30*time.Minute, cfg.Auth.ConfirmationTTL())
	assert.Equal(t, 15*time.Minute, cfg.Auth.ResetTTL())
	assert.Equal(t, "http://localhost:8080", cfg.Email.BaseURL)
	assert.False(t, cfg.Email.Configured())
}

func TestLoadConfig_Values(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
auth:
  jwt_secret: "from-yaml"
  access_token_ttl_minutes: 5
  refresh_token_ttl_days: 14
  max_failed_logins: 3
  cookie_tokens: true
email:
  smtp_host: "smtp.example.com"
  smtp_port: 2525
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "from-yaml", cfg.Auth.JWTSecret)
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTokenTTL())
	assert.Equal(t, 14*24*time.Hour, cfg.Auth.RefreshTokenTTL())
	assert.Equal(t, 3, cfg.Auth.MaxFailedLogins)
	assert.True(t, cfg.Auth.CookieTokens)
	assert.True(t, cfg.Email.Configured())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "from-env")
	t.Setenv("DATABASE_URL", "postgres://env/db")

	path := writeConfig(t, `
auth:
  jwt_secret: "from-yaml"
database:
  url: "postgres://yaml/db"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "postgres://env/db", cfg.Database.DSN)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
