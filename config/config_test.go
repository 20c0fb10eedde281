package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_PORT", "GIN_MODE", "GIN_PATH", "DB_DRIVER", "DATABASE_URI", "DB_HOST", "DB_PORT",
		"DB_USER", "DB_PASSWORD", "DB_NAME", "REDIS_HOST", "REDIS_PORT", "REDIS_DB", "REDIS_PASSWORD",
		"CACHE_ENABLED", "CACHE_TTL_SECONDS", "RATE_LIMIT_PER_MINUTE", "CORS_ALLOWED_ORIGINS",
		"LOG_LEVEL", "LOG_PATH", "LOG_MAX_SIZE_MB", "LOG_MAX_BACKUPS", "LOG_MAX_AGE_DAYS",
		"LOG_COMPRESS", "METRICS_ENABLED",
	} {
		t.Setenv(k, "")
	}
}

func writeJSON(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromDefaults(t *testing.T) {
	clearEnv(t)

	c, err := LoadFrom(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Equal(t, "2022", c.AppPort)
	assert.Equal(t, DriverMySQL, c.DBDriver)
	assert.Equal(t, "3306", c.DBPort)
	assert.Equal(t, 600, c.CacheTTLSeconds)
	assert.Equal(t, []string{"*"}, c.AllowedOrigins)
	assert.True(t, c.MetricsEnabled)
	assert.False(t, c.CacheEnabled)
	assert.Equal(t, 120, c.RateLimitPerMinute)
}

func TestLoadFromRateLimitZeroDisables(t *testing.T) {
	cases := []struct {
		name string
		json string
		env  string
		want int
	}{
		{"json zero", `{"app": {"RateLimitPerMinute": 0}}`, "", 0},
		{"json value", `{"app": {"RateLimitPerMinute": 30}}`, "", 30},
		{"json key absent", `{"app": {"AppPort": "9000"}}`, "", 120},
		{"env zero over json", `{"app": {"RateLimitPerMinute": 30}}`, "0", 0},
		{"env value over json zero", `{"app": {"RateLimitPerMinute": 0}}`, "45", 45},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			if tc.env != "" {
				t.Setenv("RATE_LIMIT_PER_MINUTE", tc.env)
			}
			c, err := LoadFrom(writeJSON(t, tc.json))
			require.NoError(t, err)
			assert.Equal(t, tc.want, c.RateLimitPerMinute)
		})
	}
}

func TestLoadFromJSONThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeJSON(t, `{
		"app": {"AppPort": "9000", "AllowedOrigins": ["https://a.example"]},
		"database": {"Driver": "postgres", "DBName": "meals"},
		"cache": {"Enabled": true, "TTLSeconds": 30},
		"metrics": {"Enabled": false}
	}`)
	t.Setenv("APP_PORT", "9100")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://b.example, https://c.example")

	c, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "9100", c.AppPort)
	assert.Equal(t, DriverPostgres, c.DBDriver)
	assert.Equal(t, "5432", c.DBPort)
	assert.Equal(t, "meals", c.DBName)
	assert.True(t, c.CacheEnabled)
	assert.Equal(t, 30, c.CacheTTLSeconds)
	assert.False(t, c.MetricsEnabled)
	assert.Equal(t, []string{"https://b.example", "https://c.example"}, c.AllowedOrigins)
}

func TestLoadFromRejectsMalformedJSON(t *testing.T) {
	clearEnv(t)
	_, err := LoadFrom(writeJSON(t, `{"app": `))
	assert.Error(t, err)
}

func TestLoadFromRejectsBadEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDIS_PORT", "six")
	t.Setenv("CACHE_ENABLED", "maybe")

	_, err := LoadFrom(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_PORT")
	assert.Contains(t, err.Error(), "CACHE_ENABLED")
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	c := Get()
	require.NoError(t, c.Validate())

	bad := c
	bad.DBDriver = "sqlite"
	assert.Error(t, bad.Validate())

	bad = c
	bad.AppPort = "http"
	assert.Error(t, bad.Validate())

	bad = c
	bad.CacheTTLSeconds = -1
	assert.Error(t, bad.Validate())
}

func TestDSN(t *testing.T) {
	c := AppConfig{DBDriver: DriverMySQL, DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "3306", DBName: "d"}
	assert.Equal(t, "u:p@tcp(h:3306)/d?charset=utf8mb4&parseTime=True&loc=UTC", c.DSN())

	c.DBDriver = DriverPostgres
	assert.Contains(t, c.DSN(), "host=h port=3306 user=u password=p dbname=d")

	c.DatabaseURI = "postgres://u:p@h/d"
	assert.Equal(t, "postgres://u:p@h/d", c.DSN())
}

func TestMasked(t *testing.T) {
	c := AppConfig{DBPassword: "secret", RedisPassword: "r", DatabaseURI: "postgres://user:secret@db:5432/app"}
	m := c.Masked()
	assert.Equal(t, "******", m.DBPassword)
	assert.Equal(t, "******", m.RedisPassword)
	assert.Equal(t, "postgres://user:******@db:5432/app", m.DatabaseURI)
	assert.Equal(t, "secret", c.DBPassword)
}
