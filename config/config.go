package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// Supported values of DBDriver.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// defaultRateLimitPerMinute applies when neither the JSON file nor the environment sets a limit.
// An explicit 0 from either source disables limiting.
const defaultRateLimitPerMinute = 120

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	AppPort            string
	RateLimitPerMinute int
	AllowedOrigins     []string
	// Gin framework configuration
	GinMode string
	GinPath string
	// Database
	DBDriver    string
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	// Redis backs the read cache
	RedisHost       string
	RedisPort       int
	RedisDB         int
	RedisPassword   string
	CacheEnabled    bool
	CacheTTLSeconds int
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
	// Prometheus endpoint
	MetricsEnabled bool
}

var (
	cfg    AppConfig
	loaded bool
	mu     sync.Mutex
)

// DefaultPath is where Load looks for the JSON config file.
var DefaultPath = filepath.Join("config", "config.json")

// Load loads the application configuration once during boot and caches it.
func Load() (AppConfig, error) {
	mu.Lock()
	defer mu.Unlock()
	if loaded {
		return cfg, nil
	}
	c, err := LoadFrom(DefaultPath)
	if err != nil {
		return c, err
	}
	cfg, loaded = c, true
	return cfg, nil
}

// Get returns the cached configuration, or defaults plus environment when Load was never called.
func Get() AppConfig {
	mu.Lock()
	defer mu.Unlock()
	if loaded {
		return cfg
	}
	c := AppConfig{MetricsEnabled: true, RateLimitPerMinute: defaultRateLimitPerMinute}
	applyDefaults(&c)
	_ = applyEnvOverrides(&c)
	return c
}

// LoadFrom resolves the configuration without caching it.
// Precedence: JSON file -> defaults -> environment variable overrides.
func LoadFrom(path string) (AppConfig, error) {
	c := AppConfig{MetricsEnabled: true, RateLimitPerMinute: defaultRateLimitPerMinute}
	if err := loadJSONConfig(path, &c); err != nil {
		return c, fmt.Errorf("config: parse %s: %w", path, err)
	}
	applyDefaults(&c)
	if err := applyEnvOverrides(&c); err != nil {
		return c, err
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Validate checks the resolved values.
func (c AppConfig) Validate() error {
	var errs []error
	switch c.DBDriver {
	case DriverMySQL, DriverPostgres, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER %q is not one of mysql, postgres, memory", c.DBDriver))
	}
	if p, err := strconv.Atoi(c.AppPort); err != nil || p <= 0 || p > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT %q is not a valid port", c.AppPort))
	}
	if c.DBDriver != DriverMemory && c.DatabaseURI == "" {
		if _, err := strconv.Atoi(c.DBPort); err != nil {
			errs = append(errs, fmt.Errorf("DB_PORT %q is not numeric", c.DBPort))
		}
	}
	if c.RateLimitPerMinute < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must not be negative"))
	}
	if c.CacheTTLSeconds < 0 {
		errs = append(errs, errors.New("CACHE_TTL_SECONDS must not be negative"))
	}
	return errors.Join(errs...)
}

// Masked returns a copy safe to print.
func (c AppConfig) Masked() AppConfig {
	if c.DBPassword != "" {
		c.DBPassword = "******"
	}
	if c.RedisPassword != "" {
		c.RedisPassword = "******"
	}
	if c.DatabaseURI != "" {
		c.DatabaseURI = maskURI(c.DatabaseURI)
	}
	return c
}

func maskURI(uri string) string {
	at := strings.LastIndex(uri, "@")
	if at < 0 {
		return uri
	}
	start := 0
	if i := strings.Index(uri, "://"); i >= 0 && i < at {
		start = i + 3
	}
	colon := strings.Index(uri[start:at], ":")
	if colon < 0 {
		return uri
	}
	return uri[:start+colon+1] + "******" + uri[at:]
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// loadJSONConfig reads the grouped JSON file into out if present. Returns error only for invalid JSON.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil // silently ignore missing file
	}
	defer f.Close()

	var raw map[string]any
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return err
	}

	getString := func(m map[string]any, key string) string {
		if s, ok := m[key].(string); ok {
			return s
		}
		return ""
	}
	getInt := func(m map[string]any, key string) int {
		if f, ok := m[key].(float64); ok {
			return int(f)
		}
		return 0
	}
	// setInt leaves dst alone when key is absent, so an explicit 0 survives.
	setInt := func(m map[string]any, key string, dst *int) {
		if f, ok := m[key].(float64); ok {
			*dst = int(f)
		}
	}
	getBool := func(m map[string]any, key string, dst *bool) {
		if b, ok := m[key].(bool); ok {
			*dst = b
		}
	}
	getStringSlice := func(m map[string]any, key string) []string {
		arr, ok := m[key].([]any)
		if !ok {
			return nil
		}
		res := make([]string, 0, len(arr))
		for _, it := range arr {
			if s, ok := it.(string); ok {
				res = append(res, s)
			}
		}
		return res
	}

	if app, ok := raw["app"].(map[string]any); ok {
		out.AppPort = getString(app, "AppPort")
		setInt(app, "RateLimitPerMinute", &out.RateLimitPerMinute)
		out.AllowedOrigins = getStringSlice(app, "AllowedOrigins")
	}
	if g, ok := raw["gin"].(map[string]any); ok {
		out.GinMode = getString(g, "Mode")
		out.GinPath = getString(g, "LogPath")
	}
	if dbs, ok := raw["database"].(map[string]any); ok {
		out.DBDriver = getString(dbs, "Driver")
		out.DatabaseURI = getString(dbs, "DatabaseURI")
		out.DBHost = getString(dbs, "DBHost")
		out.DBPort = getString(dbs, "DBPort")
		out.DBUser = getString(dbs, "DBUser")
		out.DBPassword = getString(dbs, "DBPassword")
		out.DBName = getString(dbs, "DBName")
	}
	if rds, ok := raw["redis"].(map[string]any); ok {
		out.RedisHost = getString(rds, "RedisHost")
		out.RedisPort = getInt(rds, "RedisPort")
		out.RedisDB = getInt(rds, "RedisDB")
		out.RedisPassword = getString(rds, "RedisPassword")
	}
	if ch, ok := raw["cache"].(map[string]any); ok {
		getBool(ch, "Enabled", &out.CacheEnabled)
		out.CacheTTLSeconds = getInt(ch, "TTLSeconds")
	}
	if lg, ok := raw["log"].(map[string]any); ok {
		out.LogLevel = getString(lg, "Level")
		out.LogPath = getString(lg, "Path")
		out.LogMaxSizeMB = getInt(lg, "MaxSizeMB")
		out.LogMaxBackups = getInt(lg, "MaxBackups")
		out.LogMaxAgeDays = getInt(lg, "MaxAgeDays")
		getBool(lg, "Compress", &out.LogCompress)
	}
	if mt, ok := raw["metrics"].(map[string]any); ok {
		getBool(mt, "Enabled", &out.MetricsEnabled)
	}
	return nil
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "2022"
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.DBDriver == "" {
		c.DBDriver = DriverMySQL
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		if c.DBDriver == DriverPostgres {
			c.DBPort = "5432"
		} else {
			c.DBPort = "3306"
		}
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "caltrack"
	}
	if c.RedisHost == "" {
		c.RedisHost = "127.0.0.1"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.CacheTTLSeconds == 0 {
		c.CacheTTLSeconds = 600
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) error {
	p := envParser{}
	if v := getEnv("APP_PORT", ""); v != "" {
		c.AppPort = v
	}
	if v := getEnv("GIN_MODE", ""); v != "" {
		c.GinMode = v
	}
	if v := getEnv("GIN_PATH", ""); v != "" {
		c.GinPath = v
	}
	if v := getEnv("DB_DRIVER", ""); v != "" {
		c.DBDriver = strings.ToLower(v)
	}
	if v := getEnv("DATABASE_URI", ""); v != "" {
		c.DatabaseURI = v
	}
	if v := getEnv("DB_HOST", ""); v != "" {
		c.DBHost = v
	}
	if v := getEnv("DB_PORT", ""); v != "" {
		c.DBPort = v
	}
	if v := getEnv("DB_USER", ""); v != "" {
		c.DBUser = v
	}
	if v := getEnv("DB_PASSWORD", ""); v != "" {
		c.DBPassword = v
	}
	if v := getEnv("DB_NAME", ""); v != "" {
		c.DBName = v
	}
	if v := getEnv("REDIS_HOST", ""); v != "" {
		c.RedisHost = v
	}
	p.int("REDIS_PORT", &c.RedisPort)
	p.int("REDIS_DB", &c.RedisDB)
	if v := getEnv("REDIS_PASSWORD", ""); v != "" {
		c.RedisPassword = v
	}
	p.bool("CACHE_ENABLED", &c.CacheEnabled)
	p.int("CACHE_TTL_SECONDS", &c.CacheTTLSeconds)
	p.int("RATE_LIMIT_PER_MINUTE", &c.RateLimitPerMinute)
	c.AllowedOrigins = readListEnv("CORS_ALLOWED_ORIGINS", c.AllowedOrigins)
	if v := getEnv("LOG_LEVEL", ""); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v := getEnv("LOG_PATH", ""); v != "" {
		c.LogPath = v
	}
	p.int("LOG_MAX_SIZE_MB", &c.LogMaxSizeMB)
	p.int("LOG_MAX_BACKUPS", &c.LogMaxBackups)
	p.int("LOG_MAX_AGE_DAYS", &c.LogMaxAgeDays)
	p.bool("LOG_COMPRESS", &c.LogCompress)
	p.bool("METRICS_ENABLED", &c.MetricsEnabled)
	return errors.Join(p.errs...)
}

type envParser struct {
	errs []error
}

func (p *envParser) int(key string, dst *int) {
	v := getEnv(key, "")
	if v == "" {
		return
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid integer value %s=%s", key, v))
		return
	}
	*dst = i
}

func (p *envParser) bool(key string, dst *bool) {
	v := getEnv(key, "")
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid boolean value %s=%s", key, v))
		return
	}
	*dst = b
}

func readListEnv(key string, defaults []string) []string {
	if raw := os.Getenv(key); raw != "" {
		return splitAndTrim(raw)
	}
	return defaults
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
