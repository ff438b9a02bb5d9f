// Package config loads process settings from an optional .env file, an
// optional YAML file and DIRECTORY_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr       = ":3001"
	defaultTokenTTL       = 30 * time.Minute
	defaultBcryptCost     = 10
	defaultRequestTimeout = 15 * time.Second
	defaultCacheTTL       = 30 * time.Second
	defaultLoginRate      = 1.0
	defaultLoginBurst     = 5
	defaultLogLevel       = "info"
	defaultLogFormat      = "json"
)

var (
	ErrMissingDSN    = errors.New("config: DIRECTORY_PG_DSN is required")
	ErrMissingSecret = errors.New("config: DIRECTORY_JWT_SECRET is required")
)

// Config holds runtime settings. YAML keys mirror the environment names.
type Config struct {
	HTTPAddr       string        `yaml:"http_addr"`
	GRPCAddr       string        `yaml:"grpc_addr"`
	PGDSN          string        `yaml:"pg_dsn"`
	JWTSecret      string        `yaml:"jwt_secret"`
	TokenTTL       time.Duration `yaml:"token_ttl"`
	BcryptCost     int           `yaml:"bcrypt_cost"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	RedisAddr      string        `yaml:"redis_addr"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
	LoginRate      float64       `yaml:"login_rate"`
	LoginBurst     int           `yaml:"login_burst"`
	LogLevel       string        `yaml:"log_level"`
	LogFormat      string        `yaml:"log_format"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	TrustedProxies []string      `yaml:"trusted_proxies"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		HTTPAddr:       defaultHTTPAddr,
		TokenTTL:       defaultTokenTTL,
		BcryptCost:     defaultBcryptCost,
		RequestTimeout: defaultRequestTimeout,
		CacheTTL:       defaultCacheTTL,
		LoginRate:      defaultLoginRate,
		LoginBurst:     defaultLoginBurst,
		LogLevel:       defaultLogLevel,
		LogFormat:      defaultLogFormat,
	}
}

// Load reads .env from the working directory when present, then the YAML file
// named by DIRECTORY_CONFIG, then the environment.
func Load() (Config, error) {
	_ = godotenv.Load(".env")
	return LoadFrom(os.LookupEnv)
}

// LoadFrom builds a Config using lookup for environment access.
func LoadFrom(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if path, ok := lookup("DIRECTORY_CONFIG"); ok && strings.TrimSpace(path) != "" {
		if err := cfg.mergeFile(strings.TrimSpace(path)); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.mergeEnv(lookup); err != nil {
		return Config{}, err
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("DIRECTORY_HTTP_ADDR", &c.HTTPAddr)
	str("DIRECTORY_GRPC_ADDR", &c.GRPCAddr)
	str("DIRECTORY_PG_DSN", &c.PGDSN)
	str("DIRECTORY_JWT_SECRET", &c.JWTSecret)
	str("DIRECTORY_REDIS_ADDR", &c.RedisAddr)
	str("DIRECTORY_LOG_LEVEL", &c.LogLevel)
	str("DIRECTORY_LOG_FORMAT", &c.LogFormat)

	for key, dst := range map[string]*time.Duration{
		"DIRECTORY_TOKEN_TTL":       &c.TokenTTL,
		"DIRECTORY_REQUEST_TIMEOUT": &c.RequestTimeout,
		"DIRECTORY_CACHE_TTL":       &c.CacheTTL,
	} {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		*dst = d
	}
	for key, dst := range map[string]*int{
		"DIRECTORY_BCRYPT_COST": &c.BcryptCost,
		"DIRECTORY_LOGIN_BURST": &c.LoginBurst,
	} {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		*dst = n
	}
	if v, ok := lookup("DIRECTORY_LOGIN_RATE"); ok && strings.TrimSpace(v) != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("config: DIRECTORY_LOGIN_RATE: %w", err)
		}
		c.LoginRate = f
	}
	if v, ok := lookup("DIRECTORY_ALLOWED_ORIGINS"); ok && strings.TrimSpace(v) != "" {
		c.AllowedOrigins = splitList(v)
	}
	if v, ok := lookup("DIRECTORY_TRUSTED_PROXIES"); ok && strings.TrimSpace(v) != "" {
		c.TrustedProxies = splitList(v)
	}
	return nil
}

func (c *Config) normalize() {
	def := Default()
	if c.HTTPAddr == "" {
		c.HTTPAddr = def.HTTPAddr
	}
	if c.TokenTTL <= 0 {
		c.TokenTTL = def.TokenTTL
	}
	if c.BcryptCost <= 0 {
		c.BcryptCost = def.BcryptCost
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = def.RequestTimeout
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = def.CacheTTL
	}
	if c.LoginRate <= 0 {
		c.LoginRate = def.LoginRate
	}
	if c.LoginBurst <= 0 {
		c.LoginBurst = def.LoginBurst
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	if c.LogFormat == "" {
		c.LogFormat = def.LogFormat
	}
}

// RequireDatabase reports ErrMissingDSN when no DSN is configured.
func (c Config) RequireDatabase() error {
	if c.PGDSN == "" {
		return ErrMissingDSN
	}
	return nil
}

// RequireServer checks the settings cmd/api cannot start without.
func (c Config) RequireServer() error {
	if err := c.RequireDatabase(); err != nil {
		return err
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return ErrMissingSecret
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
