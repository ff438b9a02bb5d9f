package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, ":3001", cfg.HTTPAddr)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, 1.0, cfg.LoginRate)
	assert.Equal(t, 5, cfg.LoginBurst)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Empty(t, cfg.GRPCAddr)
	assert.Empty(t, cfg.RedisAddr)

	assert.ErrorIs(t, cfg.RequireServer(), ErrMissingDSN)
}

func TestLoadEnvironment(t *testing.T) {
	cfg, err := LoadFrom(envMap(map[string]string{
		"DIRECTORY_HTTP_ADDR":         ":9000",
		"DIRECTORY_PG_DSN":            "postgres://localhost/afa",
		"DIRECTORY_JWT_SECRET":        "s3cret",
		"DIRECTORY_TOKEN_TTL":         "1h",
		"DIRECTORY_BCRYPT_COST":       "12",
		"DIRECTORY_LOGIN_RATE":        "0.5",
		"DIRECTORY_LOGIN_BURST":       "3",
		"DIRECTORY_LOG_LEVEL":         "DEBUG",
		"DIRECTORY_ALLOWED_ORIGINS":   "http://a.test, ,http://b.test",
		"DIRECTORY_TRUSTED_PROXIES":   "10.0.0.0/8, 127.0.0.1",
		"DIRECTORY_REQUEST_TIMEOUT":   "5s",
		"DIRECTORY_REDIS_ADDR":        "localhost:6379",
		"DIRECTORY_CACHE_TTL":         "",
		"DIRECTORY_UNRELATED_SETTING": "x",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, 0.5, cfg.LoginRate)
	assert.Equal(t, 3, cfg.LoginBurst)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.TrustedProxies)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.NoError(t, cfg.RequireServer())
}

func TestLoadRejectsBadValues(t *testing.T) {
	_, err := LoadFrom(envMap(map[string]string{"DIRECTORY_TOKEN_TTL": "soon"}))
	assert.Error(t, err)

	_, err = LoadFrom(envMap(map[string]string{"DIRECTORY_BCRYPT_COST": "ten"}))
	assert.Error(t, err)

	_, err = LoadFrom(envMap(map[string]string{"DIRECTORY_LOGIN_RATE": "fast"}))
	assert.Error(t, err)
}

func TestLoadYAMLThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "directory.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_addr: ":4000"
pg_dsn: "postgres://yaml/afa"
jwt_secret: "from-yaml"
token_ttl: 45m
allowed_origins:
  - http://intranet.local
`), 0o600))

	cfg, err := LoadFrom(envMap(map[string]string{
		"DIRECTORY_CONFIG":     path,
		"DIRECTORY_JWT_SECRET": "from-env",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":4000", cfg.HTTPAddr)
	assert.Equal(t, "postgres://yaml/afa", cfg.PGDSN)
	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.Equal(t, 45*time.Minute, cfg.TokenTTL)
	assert.Equal(t, []string{"http://intranet.local"}, cfg.AllowedOrigins)
}

func TestLoadMissingYAML(t *testing.T) {
	_, err := LoadFrom(envMap(map[string]string{"DIRECTORY_CONFIG": filepath.Join(t.TempDir(), "nope.yml")}))
	assert.Error(t, err)
}

func TestRequireServerSecret(t *testing.T) {
	cfg := Default()
	cfg.PGDSN = "postgres://x"
	assert.ErrorIs(t, cfg.RequireServer(), ErrMissingSecret)
}
