// Package config loads service and CLI settings from .env, an optional
// YAML file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Transports accepted by serve.
const (
	TransportHTTP           = "http"
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable-http"
)

type Config struct {
	Env       string      `yaml:"env"`
	Port      int         `yaml:"port"`
	Transport string      `yaml:"transport"`
	Model     ModelConfig `yaml:"model"`
	Cache     CacheConfig `yaml:"cache"`
	Limits    Limits      `yaml:"limits"`
	RateLimit RateLimit   `yaml:"rateLimit"`
	StorePath string      `yaml:"store"`
}

type ModelConfig struct {
	// APIKey is only read from the environment.
	APIKey        string        `yaml:"-"`
	Name          string        `yaml:"name"`
	Timeout       time.Duration `yaml:"timeout"`
	Temperature   float32       `yaml:"temperature"`
	RPS           float64       `yaml:"rps"`
	RetryAttempts int           `yaml:"retryAttempts"`
	RetryBase     time.Duration `yaml:"retryBase"`
}

type CacheConfig struct {
	TTL      time.Duration `yaml:"ttl"`
	Size     int           `yaml:"size"`
	RedisURL string        `yaml:"redisUrl"`
}

type Limits struct {
	// MaxNodes and MaxDepth bound serialization and the tree sent to the
	// model.
	MaxNodes int `yaml:"maxNodes"`
	MaxDepth int `yaml:"maxDepth"`
	// RejectNodes is the request size above which the server answers
	// payload_too_large.
	RejectNodes int   `yaml:"rejectNodes"`
	MaxBody     int64 `yaml:"maxBody"`
}

type RateLimit struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Env:       "local",
		Port:      8787,
		Transport: TransportHTTP,
		Model: ModelConfig{
			Name:          "gemini-2.5-flash",
			Timeout:       30 * time.Second,
			Temperature:   0.1,
			RetryAttempts: 3,
			RetryBase:     300 * time.Millisecond,
		},
		Cache: CacheConfig{
			TTL:  15 * time.Minute,
			Size: 1024,
		},
		Limits: Limits{
			MaxNodes:    800,
			MaxDepth:    10,
			RejectNodes: 5000,
			MaxBody:     8 << 20,
		},
		RateLimit: RateLimit{RPS: 5, Burst: 10},
	}
}

// Load builds the configuration. path may be empty, in which case
// FOCUSORDER_CONFIG is consulted.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		path = os.Getenv("FOCUSORDER_CONFIG")
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	var errs []error
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	float := func(key string, dst *float64) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = f
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("FOCUSORDER_ENV", &cfg.Env)
	integer("PORT", &cfg.Port)
	str("FOCUSORDER_TRANSPORT", &cfg.Transport)

	cfg.Model.APIKey = firstNonEmpty(os.Getenv("GEMINI_API_KEY"), os.Getenv("GOOGLE_API_KEY"), cfg.Model.APIKey)
	str("FOCUSORDER_MODEL", &cfg.Model.Name)
	duration("FOCUSORDER_MODEL_TIMEOUT", &cfg.Model.Timeout)
	float("FOCUSORDER_MODEL_RPS", &cfg.Model.RPS)
	integer("FOCUSORDER_RETRY_ATTEMPTS", &cfg.Model.RetryAttempts)
	duration("FOCUSORDER_RETRY_BASE", &cfg.Model.RetryBase)

	duration("FOCUSORDER_CACHE_TTL", &cfg.Cache.TTL)
	integer("FOCUSORDER_CACHE_SIZE", &cfg.Cache.Size)
	str("FOCUSORDER_REDIS_URL", &cfg.Cache.RedisURL)

	integer("FOCUSORDER_MAX_NODES", &cfg.Limits.MaxNodes)
	integer("FOCUSORDER_MAX_DEPTH", &cfg.Limits.MaxDepth)
	integer("FOCUSORDER_REJECT_NODES", &cfg.Limits.RejectNodes)
	if v := strings.TrimSpace(os.Getenv("FOCUSORDER_MAX_BODY")); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("FOCUSORDER_MAX_BODY: %w", err))
		} else {
			cfg.Limits.MaxBody = n
		}
	}

	float("FOCUSORDER_RPS", &cfg.RateLimit.RPS)
	integer("FOCUSORDER_BURST", &cfg.RateLimit.Burst)
	str("FOCUSORDER_STORE", &cfg.StorePath)

	return errors.Join(errs...)
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	var errs []error
	switch c.Transport {
	case TransportHTTP, TransportStdio, TransportStreamableHTTP:
	default:
		errs = append(errs, fmt.Errorf("unsupported transport: %q (use http, stdio or streamable-http)", c.Transport))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port out of range: %d", c.Port))
	}
	positive := map[string]int64{
		"limits.maxNodes":     int64(c.Limits.MaxNodes),
		"limits.maxDepth":     int64(c.Limits.MaxDepth),
		"limits.maxBody":      c.Limits.MaxBody,
		"cache.size":          int64(c.Cache.Size),
		"model.retryAttempts": int64(c.Model.RetryAttempts),
	}
	for _, key := range []string{"limits.maxNodes", "limits.maxDepth", "limits.maxBody", "cache.size", "model.retryAttempts"} {
		if positive[key] <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", key, positive[key]))
		}
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must be positive, got %s", c.Cache.TTL))
	}
	if c.Model.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("model.timeout must be positive, got %s", c.Model.Timeout))
	}
	if c.Limits.RejectNodes > 0 && c.Limits.RejectNodes < c.Limits.MaxNodes {
		errs = append(errs, fmt.Errorf("limits.rejectNodes (%d) is below limits.maxNodes (%d)", c.Limits.RejectNodes, c.Limits.MaxNodes))
	}
	return errors.Join(errs...)
}

// HasModel reports whether a model credential is configured.
func (c Config) HasModel() bool { return c.Model.APIKey != "" }

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
