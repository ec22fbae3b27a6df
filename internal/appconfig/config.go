// Package appconfig loads the gocred server configuration from the
// environment. A .env file in the working directory is read first when it
// exists; real environment variables take precedence over it.
package appconfig

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/samber/oops"

	goCred "github.com/MrEthical07/goCred"
)

// Store and session backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"

	SessionsFromStore = "store"
	SessionsFromRedis = "redis"
)

// Config is the server configuration.
type Config struct {
	Host        string `env:"HOST"`
	Port        int    `env:"PORT"         envDefault:"8000"`
	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9090"`

	Auth  AuthConfig
	Store StoreConfig
	Redis RedisConfig `envPrefix:"REDIS_"`
	Log   LogConfig   `envPrefix:"LOG_"`
}

// AuthConfig maps onto goCred.Config.
type AuthConfig struct {
	Mode                   goCred.CredentialMode `env:"AUTH_MODE"                     envDefault:"stateless"`
	JWTSecret              string                `env:"JWT_SECRET"`
	JWTIssuer              string                `env:"JWT_ISSUER"`
	TokenTTL               time.Duration         `env:"TOKEN_TTL"                     envDefault:"10m"`
	SessionTTL             time.Duration         `env:"SESSION_TTL"                   envDefault:"0s"`
	CollapseSigninFailures bool                  `env:"AUTH_COLLAPSE_SIGNIN_FAILURES" envDefault:"true"`
	PasswordAlgorithm      string                `env:"PASSWORD_ALGORITHM"            envDefault:"hmac-sha256"`
	AuditLog               bool                  `env:"AUDIT_LOG"                     envDefault:"false"`
}

// StoreConfig selects where users and sessions live.
type StoreConfig struct {
	Backend        string `env:"STORE_BACKEND"   envDefault:"memory"`
	SessionBackend string `env:"SESSION_BACKEND" envDefault:"store"`
	DatabaseURL    string `env:"DATABASE_URL"`
	AutoMigrate    bool   `env:"DB_AUTO_MIGRATE" envDefault:"false"`
}

// RedisConfig is used when SESSION_BACKEND=redis.
type RedisConfig struct {
	Addr          string `env:"ADDR"           envDefault:"localhost:6379"`
	Password      string `env:"PASSWORD"`
	DB            int    `env:"DB"             envDefault:"0"`
	SessionPrefix string `env:"SESSION_PREFIX" envDefault:"gc:sess"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Format string `env:"FORMAT" envDefault:"json"`
	Level  string `env:"LEVEL"  envDefault:"info"`
}

// Load reads the optional .env files (".env" when none are named) and then
// parses and validates the environment.
func Load(files ...string) (Config, error) {
	if err := loadDotEnv(files); err != nil {
		return Config{}, err
	}
	return Parse(env.Options{})
}

// Parse reads the configuration using opts, which tests use to supply an
// explicit environment.
func Parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return cfg, oops.Code("CONFIG_PARSE_FAILED").Wrapf(err, "parse config")
	}
	cfg.Sanitize()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Sanitize normalizes enum-like strings.
func (c *Config) Sanitize() {
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	c.Store.SessionBackend = strings.ToLower(strings.TrimSpace(c.Store.SessionBackend))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	c.Auth.PasswordAlgorithm = strings.ToLower(strings.TrimSpace(c.Auth.PasswordAlgorithm))
}

// Validate checks the settings that env tags cannot express.
func (c *Config) Validate() error {
	invalid := oops.Code("CONFIG_INVALID")

	if c.Port <= 0 || c.Port > 65535 {
		return invalid.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	switch c.Store.Backend {
	case StoreMemory:
	case StorePostgres:
		if c.Store.DatabaseURL == "" {
			return invalid.Errorf("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
	default:
		return invalid.Errorf("STORE_BACKEND must be %q or %q, got %q", StoreMemory, StorePostgres, c.Store.Backend)
	}
	switch c.Store.SessionBackend {
	case SessionsFromStore, SessionsFromRedis:
	default:
		return invalid.Errorf("SESSION_BACKEND must be %q or %q, got %q", SessionsFromStore, SessionsFromRedis, c.Store.SessionBackend)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return invalid.Errorf("LOG_FORMAT must be json or text, got %q", c.Log.Format)
	}

	engineCfg := c.EngineConfig()
	if err := engineCfg.Validate(); err != nil {
		return invalid.Wrapf(err, "auth config")
	}
	return nil
}

// Addr is the API listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// EngineConfig translates the environment into a goCred.Config.
func (c *Config) EngineConfig() goCred.Config {
	cfg := goCred.DefaultConfig()
	cfg.Mode = c.Auth.Mode
	cfg.Token.TTL = c.Auth.TokenTTL
	cfg.Token.Issuer = c.Auth.JWTIssuer
	if c.Auth.JWTSecret != "" {
		cfg.Token.Secret = []byte(c.Auth.JWTSecret)
	}
	cfg.Session.TTL = c.Auth.SessionTTL
	cfg.Session.RedisPrefix = c.Redis.SessionPrefix
	cfg.Security.CollapseSigninFailures = c.Auth.CollapseSigninFailures
	cfg.Password.Algorithm = c.Auth.PasswordAlgorithm
	if cfg.Password.Algorithm == "argon2id" {
		cfg.Password.SaltBytes = 16
	}
	cfg.Audit.Enabled = c.Auth.AuditLog
	return cfg
}

// String renders the configuration with secrets masked.
func (c Config) String() string {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "***"
	}
	return fmt.Sprintf("addr=%s metrics=%s mode=%s store=%s sessions=%s jwt_secret=%s redis=%s redis_password=%s log=%s/%s",
		c.Addr(), c.MetricsAddr, c.Auth.Mode, c.Store.Backend, c.Store.SessionBackend,
		mask(c.Auth.JWTSecret), c.Redis.Addr, mask(c.Redis.Password), c.Log.Format, c.Log.Level)
}

type databaseOnly struct {
	URL string `env:"DATABASE_URL,required,notEmpty"`
}

// DatabaseURL loads the optional .env files and returns DATABASE_URL alone,
// without validating the rest of the configuration. The migrate command
// uses it.
func DatabaseURL(files ...string) (string, error) {
	if err := loadDotEnv(files); err != nil {
		return "", err
	}
	var cfg databaseOnly
	if err := env.Parse(&cfg); err != nil {
		return "", oops.Code("CONFIG_INVALID").Wrapf(err, "DATABASE_URL")
	}
	return cfg.URL, nil
}

// loadDotEnv applies .env files. Missing files are not an error.
func loadDotEnv(files []string) error {
	if err := godotenv.Load(files...); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return oops.Code("CONFIG_LOAD_FAILED").Wrapf(err, "load .env file")
		}
	}
	return nil
}
