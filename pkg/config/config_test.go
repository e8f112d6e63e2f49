package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr())
	assert.True(t, cfg.Server.IsDevelopment())
	assert.False(t, cfg.Server.TrustProxy)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.False(t, cfg.Database.IsSQLite())
	assert.Equal(t, time.Duration(0), cfg.Token.TTL())
	assert.Equal(t, 5*time.Minute, cfg.Token.CacheTTL())
	assert.Equal(t, []string{"Token", "Bearer"}, cfg.Token.AuthHeaderSchemes)
	assert.Empty(t, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.Activity.Enabled)
	assert.Equal(t, 90*24*time.Hour, cfg.Activity.Retention())
	assert.Equal(t, "0 3 * * *", cfg.Activity.PruneCron)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("SERVER_TRUST_PROXY", "true")
	t.Setenv("DATABASE_DRIVER", "SQLite")
	t.Setenv("TOKEN_TTL_HOURS", "12")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.True(t, cfg.Server.TrustProxy)
	assert.True(t, cfg.Database.IsSQLite())
	assert.Equal(t, 12*time.Hour, cfg.Token.TTL())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_UnsupportedDriver(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "mysql")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestDatabaseConfig_URL(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db",
		Port:     5432,
		User:     "chef",
		Password: "p@ss",
		Name:     "recipes",
		SSLMode:  "disable",
	}

	assert.Equal(t, "postgres://chef:p%40ss@db:5432/recipes?sslmode=disable", d.URL())
	assert.Equal(t, "host=db port=5432 user=chef password=p@ss dbname=recipes sslmode=disable", d.DSN())
}
