package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsNeedSecretOutsideDev(t *testing.T) {
	cfg := Default()
	assert.ErrorIs(t, cfg.Validate(), ErrNoSessionSecret)

	cfg.Dev = true
	assert.NoError(t, cfg.Validate())
}

func TestLoadLayersFileEnvAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "membersite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  port: "8080"
store:
  driver: pgx
  dsn: postgres://file
session:
  secret: from-file
  ttl: 30m
log:
  level: debug
`), 0o600))

	t.Setenv("MEMBERSITE_STORE_DSN", "postgres://env")
	t.Setenv("MEMBERSITE_SESSION_STORE_SECRET", "sealed")
	t.Setenv("MEMBERSITE_AUTH_BCRYPT_COST", "10")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("port", "", "")
	fs.String("log-level", "", "")
	require.NoError(t, fs.Parse([]string{"--port", "9090"}))

	cfg, err := Load(path, fs)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTP.Port, "flag beats file")
	assert.Equal(t, "debug", cfg.Log.Level, "unset flag keeps file value")
	assert.Equal(t, "pgx", cfg.Store.Driver)
	assert.Equal(t, "postgres://env", cfg.Store.DSN, "env beats file")
	assert.Equal(t, "from-file", cfg.Session.Secret)
	assert.Equal(t, "sealed", cfg.Session.StoreSecret)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	// untouched keys keep their defaults
	assert.Equal(t, 5, cfg.HTTP.LoginMax)
	assert.Equal(t, "sql", cfg.Session.Backend)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("MEMBERSITE_DEV", "true")
	t.Setenv("MEMBERSITE_STORE_DRIVER", "mongo")
	_, err := Load("", nil)
	assert.ErrorIs(t, err, ErrBadDriver)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("MEMBERSITE_DEV", "true")
	t.Setenv("MEMBERSITE_SESSION_BACKEND", "memcached")
	_, err := Load("", nil)
	assert.ErrorIs(t, err, ErrBadBackend)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "session.store_secret", envKey("MEMBERSITE_SESSION_STORE_SECRET"))
	assert.Equal(t, "http.port", envKey("MEMBERSITE_HTTP_PORT"))
	assert.Equal(t, "dev", envKey("MEMBERSITE_DEV"))
}
