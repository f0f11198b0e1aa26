// Package config loads server configuration from an optional YAML file overlaid by
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Env       string            `yaml:"env" validate:"oneof=dev prod test"`
	Server    ServerConfig      `yaml:"server"`
	Store     StoreConfig       `yaml:"store"`
	Notify    NotifyConfig      `yaml:"notify"`
	Report    ReportConfig      `yaml:"report"`
	RateLimit RateLimitConfig   `yaml:"rate_limit"`
	Settings  map[string]string `yaml:"settings"`
}

type ServerConfig struct {
	Port           string        `yaml:"port" validate:"required,numeric"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gt=0"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

type StoreConfig struct {
	Backend     string `yaml:"backend" validate:"oneof=dynamo postgres sqlite memory"`
	AWSRegion   string `yaml:"aws_region" validate:"required_if=Backend dynamo"`
	PostgresDSN string `yaml:"postgres_dsn" validate:"required_if=Backend postgres"`
	SQLitePath  string `yaml:"sqlite_path" validate:"required_if=Backend sqlite"`
}

type NotifyConfig struct {
	Socket       bool   `yaml:"socket"`
	RedisAddr    string `yaml:"redis_addr"`
	RedisChannel string `yaml:"redis_channel" validate:"required_with=RedisAddr"`
}

type ReportConfig struct {
	S3Bucket string `yaml:"s3_bucket"`
	S3Prefix string `yaml:"s3_prefix"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"gte=0"`
	Burst             int     `yaml:"burst" validate:"gte=0"`
}

// Default returns the configuration used when neither a file nor env vars say otherwise.
func Default() *Config {
	return &Config{
		Env: "dev",
		Server: ServerConfig{
			Port:           "8080",
			RequestTimeout: 5 * time.Second,
			AllowedOrigins: []string{"*"},
		},
		Store:     StoreConfig{Backend: "memory"},
		Notify:    NotifyConfig{Socket: true, RedisChannel: "wedmatch-events"},
		Report:    ReportConfig{S3Prefix: "match-generation/"},
		RateLimit: RateLimitConfig{RequestsPerSecond: 10, Burst: 20},
		Settings:  map[string]string{},
	}
}

// Load reads path (when non-empty), applies env overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		if cfg.Settings == nil {
			cfg.Settings = map[string]string{}
		}
	}
	applyEnv(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks the struct tags and reports the first failing field by name.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid config field %s: failed %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Env = getEnv("APP_ENV", cfg.Env)
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Server.RequestTimeout = getDuration("REQUEST_TIMEOUT", cfg.Server.RequestTimeout)
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.Server.AllowedOrigins = strings.Split(origins, ",")
	}

	cfg.Store.Backend = getEnv("STORE_BACKEND", cfg.Store.Backend)
	cfg.Store.AWSRegion = getEnv("AWS_REGION", cfg.Store.AWSRegion)
	cfg.Store.PostgresDSN = getEnv("POSTGRES_DSN", cfg.Store.PostgresDSN)
	cfg.Store.SQLitePath = getEnv("SQLITE_PATH", cfg.Store.SQLitePath)

	cfg.Notify.Socket = getBool("SOCKET_ENABLED", cfg.Notify.Socket)
	cfg.Notify.RedisAddr = getEnv("REDIS_ADDR", cfg.Notify.RedisAddr)
	cfg.Notify.RedisChannel = getEnv("REDIS_CHANNEL", cfg.Notify.RedisChannel)

	cfg.Report.S3Bucket = getEnv("REPORT_S3_BUCKET", cfg.Report.S3Bucket)
	cfg.Report.S3Prefix = getEnv("REPORT_S3_PREFIX", cfg.Report.S3Prefix)

	if v := os.Getenv("API_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimit.RequestsPerSecond = f
		}
	}
	cfg.RateLimit.Burst = getInt("API_BURST", cfg.RateLimit.Burst)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
