package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"medorder"`
	HTTPAddr    string `env:"HTTP_ADDR"    envDefault:":8080"`
	LogLevel    string `env:"LOG_LEVEL"    envDefault:"info"`

	DatabaseDriver string        `env:"DATABASE_DRIVER" envDefault:"postgres"`
	DatabaseURL    string        `env:"DATABASE_URL,required"`
	StoreTimeout   time.Duration `env:"STORE_TIMEOUT"   envDefault:"3s"`

	JWTAccessSecret        string        `env:"JWT_SECRET,required"`
	JWTRefreshSecret       string        `env:"JWT_REFRESH_SECRET"`
	AccessTokenTTL         time.Duration `env:"ACCESS_TOKEN_TTL"         envDefault:"30m"`
	RefreshTokenTTL        time.Duration `env:"REFRESH_TOKEN_TTL"        envDefault:"168h"`
	RefreshRotation        bool          `env:"REFRESH_ROTATION"         envDefault:"true"`
	BcryptCost             int           `env:"BCRYPT_COST"              envDefault:"10"`
	BlacklistPruneInterval time.Duration `env:"BLACKLIST_PRUNE_INTERVAL" envDefault:"1h"`

	CORSAllowOrigins []string `env:"CORS_ALLOW_ORIGINS" envSeparator:"," envDefault:"*"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	KafkaBrokers    []string `env:"KAFKA_BROKERS"     envSeparator:","`
	KafkaUserTopic  string   `env:"KAFKA_USER_TOPIC"  envDefault:"user_events"`
	KafkaOrderTopic string   `env:"KAFKA_ORDER_TOPIC" envDefault:"order_events"`

	ESURL        string `env:"ES_URL"`
	ESUser       string `env:"ES_USER"`
	ESPassword   string `env:"ES_PASSWORD"`
	ESOrderIndex string `env:"ES_ORDER_INDEX" envDefault:"orders"`
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return parse(env.Options{})
}

// FromMap parses cfg from an explicit environment instead of the process one.
func FromMap(environ map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite, got %q", c.DatabaseDriver)
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return errors.New("token ttl must be positive")
	}
	if c.StoreTimeout <= 0 {
		return errors.New("STORE_TIMEOUT must be positive")
	}
	return nil
}

// RefreshSecret falls back to the access secret when no dedicated one is set.
func (c *Config) RefreshSecret() []byte {
	if c.JWTRefreshSecret == "" {
		return []byte(c.JWTAccessSecret)
	}
	return []byte(c.JWTRefreshSecret)
}
