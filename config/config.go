// Package config loads process configuration from the environment.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	HTTPAddr      string `env:"HTTP_ADDR" envDefault:":8090"`
	Store         string `env:"STORE" envDefault:"mongo"`
	MongoURI      string `env:"MONGO_URI"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"accounts"`
	DatabaseURL   string `env:"DATABASE_URL"`
	FrontendURL   string `env:"FRONTEND_URL,required,notEmpty"`
	JWTSecret     string `env:"JWT_SECRET,required,notEmpty"`
	BcryptCost    int    `env:"BCRYPT_COST" envDefault:"12"`
	LogFormat     string `env:"LOG_FORMAT" envDefault:"json"`

	Mail      Mail      `envPrefix:"MAIL_"`
	RateLimit RateLimit `envPrefix:"RATE_LIMIT_"`
}

type Mail struct {
	Host    string        `env:"HOST"`
	Port    int           `env:"PORT" envDefault:"587"`
	User    string        `env:"USER"`
	Pass    string        `env:"PASS"`
	From    string        `env:"FROM" envDefault:"\"No Reply\" <noreply@example.com>"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"15s"`
}

// RateLimit is disabled when RedisAddr is empty.
type RateLimit struct {
	RedisAddr string        `env:"REDIS_ADDR"`
	Signup    int           `env:"SIGNUP" envDefault:"5"`
	Login     int           `env:"LOGIN" envDefault:"3"`
	Window    time.Duration `env:"WINDOW" envDefault:"1m"`
	// TrustedProxies lists addresses or CIDR ranges whose X-Forwarded-For
	// header is used to find the client address.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`
}

// Load parses the process environment.
func Load() (*Config, error) {
	return parse(env.Options{})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store {
	case StoreMongo:
		if c.MongoURI == "" {
			return oops.Code("CONFIG_INVALID").Errorf("MONGO_URI is required when STORE=%s", c.Store)
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return oops.Code("CONFIG_INVALID").Errorf("DATABASE_URL is required when STORE=%s", c.Store)
		}
	case StoreMemory:
	default:
		return oops.Code("CONFIG_INVALID").Errorf("unknown STORE %q", c.Store)
	}

	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return oops.Code("CONFIG_INVALID").Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return oops.Code("CONFIG_INVALID").Errorf("LOG_FORMAT must be json or text")
	}
	if c.RateLimit.RedisAddr != "" && (c.RateLimit.Signup < 1 || c.RateLimit.Login < 1 || c.RateLimit.Window <= 0) {
		return oops.Code("CONFIG_INVALID").Errorf("rate limits must be positive")
	}
	if c.Mail.Timeout <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("MAIL_TIMEOUT must be positive")
	}
	return nil
}
