// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Port              string `env:"PORT,default=8080"`
	Storage           string `env:"STORAGE,default=postgres"`
	LogLevel          string `env:"LOG_LEVEL,default=info"`
	ReconcileSchedule string `env:"RECONCILE_SCHEDULE,default=@daily"`

	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
}

type DBConfig struct {
	Host     string `env:"DB_HOST,default=localhost"`
	Port     string `env:"DB_PORT,default=5432"`
	User     string `env:"DB_USER,default=habit_user"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME,default=habit_db"`
	SSLMode  string `env:"DB_SSLMODE,default=disable"`
}

// URL renders a postgres:// connection string usable by both pgx and
// golang-migrate.
func (c DBConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

// RedisConfig leaves Host empty to run without Redis.
type RedisConfig struct {
	Host     string `env:"REDIS_HOST"`
	Port     string `env:"REDIS_PORT,default=6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,default=0"`
}

func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

type JWTConfig struct {
	Secret    string        `env:"JWT_SECRET"`
	Issuer    string        `env:"JWT_ISSUER,default=habit-nudge"`
	ExpiresIn time.Duration `env:"JWT_EXPIRES_IN,default=24h"`
}

type RateLimitConfig struct {
	Limit  int           `env:"RATE_LIMIT,default=100"`
	Window time.Duration `env:"RATE_WINDOW,default=1m"`
}

// Load reads an optional .env file, then decodes the environment.
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("config: JWT_SECRET is required")
	}
	if c.JWT.ExpiresIn <= 0 {
		return errors.New("config: JWT_EXPIRES_IN must be positive")
	}
	if c.Storage != StoragePostgres && c.Storage != StorageMemory {
		return fmt.Errorf("config: unknown STORAGE %q", c.Storage)
	}
	if c.RateLimit.Limit <= 0 || c.RateLimit.Window <= 0 {
		return errors.New("config: RATE_LIMIT and RATE_WINDOW must be positive")
	}
	return nil
}
