package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"mybooks/common"
)

// Config holds settings shared by the binaries.
type Config struct {
	Catalog struct {
		BaseURL         string        `yaml:"base_url"`
		User            string        `yaml:"user"`
		CoverHost       string        `yaml:"cover_host"`
		ConnectTimeout  time.Duration `yaml:"connect_timeout"`
		ResponseTimeout time.Duration `yaml:"response_timeout"`
		TotalTimeout    time.Duration `yaml:"total_timeout"`
		ProxyURL        string        `yaml:"proxy_url"`
		RespectRobots   bool          `yaml:"respect_robots"`
	} `yaml:"catalog"`

	Cache struct {
		RedisAddr string        `yaml:"redis_addr"`
		Prefix    string        `yaml:"prefix"`
		TTL       time.Duration `yaml:"ttl"`
	} `yaml:"cache"`

	Notifications struct {
		KafkaBroker string `yaml:"kafka_broker"`
		Topic       string `yaml:"topic"`
	} `yaml:"notifications"`

	API struct {
		Addr string `yaml:"addr"`
	} `yaml:"api"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.Catalog.BaseURL = "https://openlibrary.org"
	cfg.Catalog.User = "mekBot"
	cfg.Catalog.CoverHost = "https://covers.openlibrary.org"
	cfg.Catalog.ConnectTimeout = 10 * time.Second
	cfg.Catalog.ResponseTimeout = 25 * time.Second
	cfg.Catalog.TotalTimeout = 30 * time.Second
	cfg.Cache.Prefix = "mybooks:page:"
	cfg.Cache.TTL = 10 * time.Minute
	cfg.Notifications.Topic = "mybooks.notifications"
	cfg.API.Addr = ":8080"
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "console"
	return cfg
}

// Load applies, in order: defaults, .env (when present), the YAML file at path
// (when path is non-empty), and environment variables.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Catalog.BaseURL = common.GetEnv("CATALOG_BASE_URL", cfg.Catalog.BaseURL)
	cfg.Catalog.User = common.GetEnv("CATALOG_USER", cfg.Catalog.User)
	cfg.Catalog.CoverHost = common.GetEnv("COVER_HOST", cfg.Catalog.CoverHost)
	cfg.Catalog.ConnectTimeout = common.ParseDuration(os.Getenv("CATALOG_CONNECT_TIMEOUT"), cfg.Catalog.ConnectTimeout)
	cfg.Catalog.ResponseTimeout = common.ParseDuration(os.Getenv("CATALOG_RESPONSE_TIMEOUT"), cfg.Catalog.ResponseTimeout)
	cfg.Catalog.TotalTimeout = common.ParseDuration(os.Getenv("CATALOG_TOTAL_TIMEOUT"), cfg.Catalog.TotalTimeout)
	cfg.Catalog.ProxyURL = common.GetEnv("PROXY_URL", cfg.Catalog.ProxyURL)
	cfg.Catalog.RespectRobots = common.ParseBool(os.Getenv("RESPECT_ROBOTS_TXT"), cfg.Catalog.RespectRobots)

	cfg.Cache.RedisAddr = common.GetEnv("REDIS_ADDR", cfg.Cache.RedisAddr)
	cfg.Cache.Prefix = common.GetEnv("CACHE_PREFIX", cfg.Cache.Prefix)
	cfg.Cache.TTL = common.ParseDuration(os.Getenv("CACHE_TTL"), cfg.Cache.TTL)

	cfg.Notifications.KafkaBroker = common.GetEnv("KAFKA_BROKER", cfg.Notifications.KafkaBroker)
	cfg.Notifications.Topic = common.GetEnv("KAFKA_NOTIFICATIONS_TOPIC", cfg.Notifications.Topic)

	cfg.API.Addr = common.GetEnv("API_ADDR", cfg.API.Addr)

	cfg.Logging.Level = common.GetEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = common.GetEnv("LOG_FORMAT", cfg.Logging.Format)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Catalog.BaseURL == "" {
		return errors.New("catalog base url is required")
	}
	if c.Catalog.User == "" {
		return errors.New("catalog user is required")
	}
	if c.Catalog.ConnectTimeout <= 0 || c.Catalog.ResponseTimeout <= 0 || c.Catalog.TotalTimeout <= 0 {
		return errors.New("catalog timeouts must be positive")
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache ttl must not be negative, got %s", c.Cache.TTL)
	}
	if c.Notifications.KafkaBroker != "" && c.Notifications.Topic == "" {
		return errors.New("notifications topic is required when a kafka broker is set")
	}
	return nil
}

// CacheEnabled reports whether a Redis page cache was configured.
func (c *Config) CacheEnabled() bool {
	return c.Cache.RedisAddr != ""
}

// NotificationsEnabled reports whether notifications are published to Kafka.
func (c *Config) NotificationsEnabled() bool {
	return c.Notifications.KafkaBroker != ""
}
