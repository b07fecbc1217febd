package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ebr.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, DriverFile, cfg.Store.Driver)
	assert.Contains(t, cfg.Store.Path, "state.json")
	assert.Equal(t, "ebr_session", cfg.Session.CookieName)
	assert.Equal(t, 2*time.Hour, cfg.Session.IdleTimeout)
	assert.Equal(t, 15*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 50, cfg.Journal.BatchSize)
	assert.Equal(t, 10, cfg.RateLimit.Default)
	assert.False(t, cfg.Forms.StrictCompany)
	assert.Empty(t, cfg.Store.EncryptionKey)
}

func TestLoadFile(t *testing.T) {
	t.Setenv("EBR_TEST_BACKEND", "http://api.internal:8000")
	path := writeConfig(t, `
server:
  port: 9090
  host: 127.0.0.1
backend:
  base_url: ${EBR_TEST_BACKEND}
  timeout: 5s
store:
  driver: redis
  redis_url: redis://cache:6379/2
  redis_ttl: 12h
session:
  cookie_secure: true
  idle_timeout: 30m
journal:
  batch_size: 20
  flush_interval: 2s
rate_limit:
  default: 3
  window: 2m
cors:
  allowed_origins: ["https://app.ebr.test"]
forms:
  strict_company: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.Addr())
	assert.Equal(t, "http://api.internal:8000", cfg.Backend.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, DriverRedis, cfg.Store.Driver)
	assert.Equal(t, 12*time.Hour, cfg.Store.RedisTTL)
	assert.True(t, cfg.Session.CookieSecure)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTimeout)
	assert.Equal(t, "ebr_session", cfg.Session.CookieName, "unset keys keep their default")
	assert.Equal(t, 20, cfg.Journal.BatchSize)
	assert.Equal(t, 3, cfg.RateLimit.Default)
	assert.Equal(t, []string{"https://app.ebr.test"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.Forms.StrictCompany)
}

func TestEnvironmentWinsOverFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\nstore:\n  driver: memory\n")
	t.Setenv("EBR_SERVER_PORT", "3000")
	t.Setenv("EBR_STORE_DRIVER", "postgres")
	t.Setenv("EBR_DATABASE_URL", "postgres://env:env@db:5432/ebr")
	t.Setenv("EBR_STORE_ENCRYPTION_KEY", "abc123")
	t.Setenv("EBR_CORS_ALLOWED_ORIGINS", "https://a.ebr.test,https://b.ebr.test")
	t.Setenv("EBR_FORMS_STRICT_COMPANY", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "postgres://env:env@db:5432/ebr", cfg.Database.URL)
	assert.Equal(t, "abc123", cfg.Store.EncryptionKey)
	assert.Equal(t, []string{"https://a.ebr.test", "https://b.ebr.test"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.Forms.StrictCompany)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.ErrorContains(t, err, "reading config file")
	})
	t.Run("bad yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "server: [port"))
		assert.ErrorContains(t, err, "parsing config file")
	})
	t.Run("bad env value", func(t *testing.T) {
		t.Setenv("EBR_SERVER_PORT", "eighty")
		_, err := Load("")
		assert.ErrorContains(t, err, "parsing environment")
	})
	t.Run("invalid result", func(t *testing.T) {
		_, err := Load(writeConfig(t, "store:\n  driver: redis\n"))
		assert.ErrorContains(t, err, "redis_url")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"port above range", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"no read timeout", func(c *Config) { c.Server.ReadTimeout = 0 }, "read_timeout"},
		{"no backend", func(c *Config) { c.Backend.BaseURL = "" }, "base_url"},
		{"no backend timeout", func(c *Config) { c.Backend.Timeout = 0 }, "backend.timeout"},
		{"unknown driver", func(c *Config) { c.Store.Driver = "etcd" }, "store.driver"},
		{"redis needs url", func(c *Config) { c.Store.Driver = DriverRedis }, "redis_url"},
		{"redis with url", func(c *Config) {
			c.Store.Driver = DriverRedis
			c.Store.RedisURL = "redis://localhost:6379/0"
		}, ""},
		{"postgres needs url", func(c *Config) {
			c.Store.Driver = DriverPostgres
			c.Database.URL = ""
		}, "database.url"},
		{"memory ignores database", func(c *Config) {
			c.Store.Driver = DriverMemory
			c.Database.URL = ""
		}, ""},
		{"no batch size", func(c *Config) { c.Journal.BatchSize = 0 }, "batch_size"},
		{"no flush interval", func(c *Config) { c.Journal.FlushInterval = 0 }, "flush_interval"},
		{"negative rate", func(c *Config) { c.RateLimit.Default = -1 }, "rate_limit.default"},
		{"no rate window", func(c *Config) { c.RateLimit.Window = 0 }, "rate_limit.window"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestMigrateURLForcesSSLMode(t *testing.T) {
	tests := map[string]string{
		"postgres://db/ebr?sslmode=require":  "postgres://db/ebr?sslmode=require",
		"postgres://db/ebr":                  "postgres://db/ebr?sslmode=disable",
		"postgres://db/ebr?pool_max_conns=4": "postgres://db/ebr?pool_max_conns=4&sslmode=disable",
	}
	for in, want := range tests {
		cfg := &Config{Database: DatabaseConfig{URL: in}}
		assert.Equal(t, want, cfg.DatabaseURLForMigrate(), in)
	}
	assert.Equal(t, "file://migrations", defaults().MigrationsSource())
}
