// Package config reads process configuration from the environment, after
// loading an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr        string        `env:"HTTP_ADDR"        envDefault:"0.0.0.0:8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// StoreBackend selects "postgres" or "memory".
	StoreBackend string         `env:"STORE_BACKEND" envDefault:"postgres"`
	Postgres     PostgresConfig `envPrefix:"POSTGRES_"`
	Redis        RedisConfig    `envPrefix:"REDIS_"`

	Auth    AuthConfig
	Session SessionConfig

	LogLevel  slog.Level `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string     `env:"LOG_FORMAT" envDefault:"json"`
}

type PostgresConfig struct {
	DB       string `env:"DB"`
	User     string `env:"USER"`
	Password string `env:"PASSWORD"`
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     string `env:"PORT" envDefault:"5432"`
	SSLMode  string `env:"SSLMODE" envDefault:"disable"`
}

// ConnString returns a lib/pq connection URL.
func (c PostgresConfig) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", c.User, c.Password, c.Host, c.Port, c.DB, c.SSLMode)
}

// RedisConfig is optional. Without an address no events are published.
type RedisConfig struct {
	Addr          string `env:"ADDR"`
	Password      string `env:"PASSWORD"`
	DB            int    `env:"DB" envDefault:"0"`
	ChannelPrefix string `env:"CHANNEL_PREFIX" envDefault:"planningpoker"`
}

type AuthConfig struct {
	JWTSecret       string        `env:"JWT_SECRET,notEmpty"`
	JWTIssuer       string        `env:"JWT_ISSUER"        envDefault:"planningpoker"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL"  envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
	GoogleClientID  string        `env:"GOOGLE_CLIENT_ID,notEmpty"`
	RedirectURL     string        `env:"AUTH_REDIRECT_URL"`
	CookieDomain    string        `env:"COOKIE_DOMAIN"`
	CookieSameSite  string        `env:"COOKIE_SAME_SITE"  envDefault:"lax"`
}

type SessionConfig struct {
	StoreTimeout   time.Duration `env:"STORE_TIMEOUT"   envDefault:"3s"`
	WriteAttempts  uint          `env:"WRITE_ATTEMPTS"  envDefault:"5"`
	CodeAttempts   int           `env:"CODE_ATTEMPTS"   envDefault:"10"`
	InitialBackoff time.Duration `env:"INITIAL_BACKOFF" envDefault:"20ms"`
	MaxBackoff     time.Duration `env:"MAX_BACKOFF"     envDefault:"500ms"`
}

// Load reads .env files (missing files are ignored) and parses the environment.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadPostgres reads only the POSTGRES_* settings, for tools that need
// nothing else.
func LoadPostgres(files ...string) (PostgresConfig, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return PostgresConfig{}, fmt.Errorf("load env file: %w", err)
	}

	var cfg PostgresConfig
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "POSTGRES_"}); err != nil {
		return PostgresConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.StoreBackend {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("unknown LOG_FORMAT %q", c.LogFormat)
	}
	if _, err := c.Auth.SameSite(); err != nil {
		return err
	}
	if c.Session.WriteAttempts == 0 || c.Session.CodeAttempts <= 0 {
		return errors.New("WRITE_ATTEMPTS and CODE_ATTEMPTS must be positive")
	}
	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		return errors.New("ACCESS_TOKEN_TTL and REFRESH_TOKEN_TTL must be positive")
	}
	return nil
}

// SameSite converts COOKIE_SAME_SITE into its http.SameSite mode.
func (c AuthConfig) SameSite() (http.SameSite, error) {
	switch strings.ToLower(c.CookieSameSite) {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("unknown COOKIE_SAME_SITE %q", c.CookieSameSite)
	}
}
