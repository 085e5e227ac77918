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

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"` // per-request budget, video generation included
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	PoolSize int    `yaml:"pool_size"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuthConfig struct {
	JWTSecret    string        `yaml:"jwt_secret"`
	SessionTTL   time.Duration `yaml:"session_ttl"`
	CookieDomain string        `yaml:"cookie_domain"`
	SecureCookie bool          `yaml:"secure_cookie"`
}

type IyzicoConfig struct {
	APIKey      string `yaml:"api_key"`
	SecretKey   string `yaml:"secret_key"`
	BaseURL     string `yaml:"base_url"`
	Sandbox     bool   `yaml:"sandbox"`
	CallbackURL string `yaml:"callback_url"`
}

type PaymentConfig struct {
	Iyzico IyzicoConfig `yaml:"iyzico"`
}

type AIConfig struct {
	OpenAIKey       string `yaml:"openai_key"`
	Model           string `yaml:"model"`
	FalKey          string `yaml:"fal_key"`
	ConcurrentLimit int    `yaml:"concurrent_limit"` // max concurrent provider calls
	Demo            bool   `yaml:"demo"`             // simulated copy, no provider calls
}

type RateLimitConfig struct {
	GeneratePerMinute int `yaml:"generate_per_minute"`
}

type ReconcilerConfig struct {
	Interval   time.Duration `yaml:"interval"` // 0 disables the reconciler
	StaleAfter time.Duration `yaml:"stale_after"`
}

type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Log        LogConfig        `yaml:"log"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Auth       AuthConfig       `yaml:"auth"`
	Payment    PaymentConfig    `yaml:"payment"`
	AI         AIConfig         `yaml:"ai"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Reconciler ReconcilerConfig `yaml:"reconciler"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	cfg.Runtime.Dev = dev
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.RequestTimeout <= 0 {
		cfg.HTTP.RequestTimeout = 3 * time.Minute
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.PoolSize <= 0 {
		cfg.Database.PoolSize = 10
	}
	if cfg.Auth.SessionTTL <= 0 {
		cfg.Auth.SessionTTL = 24 * time.Hour
	}
	if cfg.Payment.Iyzico.BaseURL == "" {
		if cfg.Payment.Iyzico.Sandbox {
			cfg.Payment.Iyzico.BaseURL = "https://sandbox-api.iyzipay.com"
		} else {
			cfg.Payment.Iyzico.BaseURL = "https://api.iyzipay.com"
		}
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "gpt-4o-mini"
	}
	if cfg.AI.ConcurrentLimit <= 0 {
		cfg.AI.ConcurrentLimit = 16
	}
	if cfg.RateLimit.GeneratePerMinute <= 0 {
		cfg.RateLimit.GeneratePerMinute = 12
	}
	if cfg.Reconciler.Interval > 0 && cfg.Reconciler.StaleAfter <= 0 {
		cfg.Reconciler.StaleAfter = 10 * time.Minute
	}
}

// validate fails fast: a service that cannot sign gateway requests or reach
// its stores must not come up at all.
func (cfg *Config) validate() error {
	if cfg.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return errors.New("redis.url is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if cfg.Payment.Iyzico.APIKey == "" || cfg.Payment.Iyzico.SecretKey == "" {
		return errors.New("payment.iyzico.api_key and payment.iyzico.secret_key are required")
	}
	if !cfg.AI.Demo {
		if cfg.AI.OpenAIKey == "" {
			return errors.New("ai.openai_key is required unless ai.demo is enabled")
		}
		if cfg.AI.FalKey == "" {
			return errors.New("ai.fal_key is required unless ai.demo is enabled")
		}
	}
	return nil
}
