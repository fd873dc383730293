// Package config loads storefront settings from defaults, an optional YAML
// file and environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"

	CartStoreRedis  = "redis"
	CartStoreMemory = "memory"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	HTTPAddr        string        `yaml:"http_addr"`
	GRPCAddr        string        `yaml:"grpc_addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	Dev             bool          `yaml:"dev"`

	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Cart     CartConfig     `yaml:"cart"`
	Session  SessionConfig  `yaml:"session"`
	Health   HealthConfig   `yaml:"health"`
	Accounts AccountsConfig `yaml:"accounts"`
}

type DatabaseConfig struct {
	Driver          string        `yaml:"driver"`
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type CartConfig struct {
	// Store is "redis" or "memory".
	Store string `yaml:"store"`
	Tax   int64  `yaml:"tax"`
}

// SessionConfig controls the visitor cookie. Lifetime is also the TTL of a
// stored cart.
type SessionConfig struct {
	Lifetime     time.Duration `yaml:"lifetime"`
	SecureCookie bool          `yaml:"secure_cookie"`
}

type HealthConfig struct {
	ProbeInterval time.Duration `yaml:"probe_interval"`
}

type AccountsConfig struct {
	// BcryptCost of 0 selects bcrypt.DefaultCost.
	BcryptCost int `yaml:"bcrypt_cost"`
}

func Default() Config {
	return Config{
		HTTPAddr:        ":8080",
		GRPCAddr:        ":50051",
		ShutdownTimeout: 5 * time.Second,
		Database: DatabaseConfig{
			Driver:          DriverMySQL,
			DSN:             "root:root@tcp(localhost:3306)/storefront?parseTime=true",
			MaxOpenConns:    50,
			MaxIdleConns:    25,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 100,
		},
		Cart: CartConfig{
			Store: CartStoreRedis,
			Tax:   2500,
		},
		Session: SessionConfig{
			Lifetime: 120 * time.Minute,
		},
		Health: HealthConfig{
			ProbeInterval: 10 * time.Second,
		},
	}
}

// Load returns the defaults overlaid with the file at path (skipped when path
// is empty) and then with the environment. The result is not validated so
// callers can apply flags first.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(dst *string, keys ...string) {
		for _, key := range keys {
			if v, ok := lookup(key); ok && v != "" {
				*dst = v
			}
		}
	}

	str(&cfg.HTTPAddr, "STOREFRONT_HTTP_ADDR")
	str(&cfg.GRPCAddr, "STOREFRONT_GRPC_ADDR")
	str(&cfg.Database.Driver, "STOREFRONT_DB_DRIVER")
	str(&cfg.Database.DSN, "MYSQL_DSN", "STOREFRONT_DB_DSN")
	str(&cfg.Redis.Addr, "REDIS_ADDR", "STOREFRONT_REDIS_ADDR")
	str(&cfg.Redis.Password, "STOREFRONT_REDIS_PASSWORD")
	str(&cfg.Cart.Store, "STOREFRONT_CART_STORE")

	if v, ok := lookup("STOREFRONT_CART_TAX"); ok && v != "" {
		tax, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: STOREFRONT_CART_TAX: %v", ErrInvalidConfig, err)
		}
		cfg.Cart.Tax = tax
	}
	if v, ok := lookup("STOREFRONT_SESSION_LIFETIME"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: STOREFRONT_SESSION_LIFETIME: %v", ErrInvalidConfig, err)
		}
		cfg.Session.Lifetime = d
	}
	if v, ok := lookup("STOREFRONT_SECURE_COOKIE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: STOREFRONT_SECURE_COOKIE: %v", ErrInvalidConfig, err)
		}
		cfg.Session.SecureCookie = b
	}
	if v, ok := lookup("STOREFRONT_DEV"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: STOREFRONT_DEV: %v", ErrInvalidConfig, err)
		}
		cfg.Dev = b
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error

	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("http_addr is required"))
	}
	if c.GRPCAddr == "" {
		errs = append(errs, errors.New("grpc_addr is required"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown_timeout must be positive"))
	}

	switch c.Database.Driver {
	case DriverMySQL, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("database.driver %q must be %s or %s", c.Database.Driver, DriverMySQL, DriverSQLite))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}

	switch c.Cart.Store {
	case CartStoreRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("redis.addr is required for the redis cart store"))
		}
	case CartStoreMemory:
	default:
		errs = append(errs, fmt.Errorf("cart.store %q must be %s or %s", c.Cart.Store, CartStoreRedis, CartStoreMemory))
	}
	if c.Cart.Tax < 0 {
		errs = append(errs, errors.New("cart.tax must not be negative"))
	}

	if c.Session.Lifetime <= 0 {
		errs = append(errs, errors.New("session.lifetime must be positive"))
	}
	if c.Health.ProbeInterval <= 0 {
		errs = append(errs, errors.New("health.probe_interval must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
