package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type ServerConfig struct {
	Port          int    `yaml:"port"`
	PublicBaseURL string `yaml:"public_base_url"` // used to build gateway return/cancel links
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type StripeConfig struct {
	SecretKey string `yaml:"secret_key"`
}

type TelrConfig struct {
	StoreID    string `yaml:"store_id"`
	AuthKey    string `yaml:"auth_key"`
	PaymentURL string `yaml:"payment_url"`
}

type PaymentConfig struct {
	Stripe StripeConfig `yaml:"stripe"`
	Telr   TelrConfig   `yaml:"telr"`
}

type MailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type AdminConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type SchedConfig struct {
	PendingTTL           time.Duration `yaml:"pending_ttl"`           // how long a pending attempt may wait for a callback
	ReapInterval         time.Duration `yaml:"reap_interval"`         // reaper scan cadence
	ConfirmationInterval time.Duration `yaml:"confirmation_interval"` // unsent-confirmation sweep cadence
}

type RateLimitConfig struct {
	InitiatePerMinute int `yaml:"initiate_per_minute"`
}

type Config struct {
	Log       LogConfig       `yaml:"log"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Payment   PaymentConfig   `yaml:"payment"`
	Mail      MailConfig      `yaml:"mail"`
	Admin     AdminConfig     `yaml:"admin"`
	Sched     SchedConfig     `yaml:"sched"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads and validates the YAML config file.
func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.Mail.Port == 0 {
		cfg.Mail.Port = 587
	}
	if cfg.Admin.TokenTTL <= 0 {
		cfg.Admin.TokenTTL = 30 * time.Minute
	}
	if cfg.Sched.PendingTTL <= 0 {
		cfg.Sched.PendingTTL = 24 * time.Hour
	}
	if cfg.Sched.ReapInterval <= 0 {
		cfg.Sched.ReapInterval = time.Hour
	}
	if cfg.Sched.ConfirmationInterval <= 0 {
		cfg.Sched.ConfirmationInterval = 10 * time.Minute
	}
	if cfg.RateLimit.InitiatePerMinute <= 0 {
		cfg.RateLimit.InitiatePerMinute = 10
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Server.PublicBaseURL == "" {
		return nil, errors.New("server.public_base_url is required")
	}
	if !dev && cfg.Payment.Stripe.SecretKey == "" && cfg.Payment.Telr.StoreID == "" {
		return nil, errors.New("at least one payment gateway must be configured")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
