package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	SessionBackendFile   = "file"
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

type Config struct {
	APIURL      string
	HTTPTimeout time.Duration

	LogLevel  string
	LogFormat string

	StateDir string

	SessionBackend string
	SessionID      string
	SessionTTL     time.Duration
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	NATSURL     string
	NATSSubject string

	RateLimitRPS   float64
	RateLimitBurst int

	RetryMaxAttempts int
	BreakerEnabled   bool

	MetricsAddr string
}

// fileConfig mirrors the optional YAML overlay. Zero values mean "not set".
type fileConfig struct {
	APIURL             string  `yaml:"api_url"`
	HTTPTimeoutSeconds int     `yaml:"http_timeout_seconds"`
	LogLevel           string  `yaml:"log_level"`
	LogFormat          string  `yaml:"log_format"`
	StateDir           string  `yaml:"state_dir"`
	SessionBackend     string  `yaml:"session_backend"`
	SessionID          string  `yaml:"session_id"`
	SessionTTLMinutes  int     `yaml:"session_ttl_minutes"`
	RedisAddr          string  `yaml:"redis_addr"`
	RedisPassword      string  `yaml:"redis_password"`
	RedisDB            int     `yaml:"redis_db"`
	NATSURL            string  `yaml:"nats_url"`
	NATSSubject        string  `yaml:"nats_subject"`
	RateLimitRPS       float64 `yaml:"rate_limit_rps"`
	RateLimitBurst     int     `yaml:"rate_limit_burst"`
	RetryMaxAttempts   int     `yaml:"retry_max_attempts"`
	BreakerEnabled     *bool   `yaml:"breaker_enabled"`
	MetricsAddr        string  `yaml:"metrics_addr"`
}

// Load reads an optional .env, an optional YAML file named by RESUMIND_CONFIG
// and the process environment. Explicit environment values win over the file.
func Load() (Config, error) {
	_ = godotenv.Load()

	file, err := readFile(os.Getenv("RESUMIND_CONFIG"))
	if err != nil {
		return Config{}, err
	}

	breaker := true
	if file.BreakerEnabled != nil {
		breaker = *file.BreakerEnabled
	}

	return Config{
		APIURL:      mustEnv("RESUMIND_API_URL", orString(file.APIURL, "http://localhost:8000/api")),
		HTTPTimeout: time.Duration(mustEnvInt("RESUMIND_HTTP_TIMEOUT_SECONDS", orInt(file.HTTPTimeoutSeconds, 30))) * time.Second,

		LogLevel:  mustEnv("RESUMIND_LOG_LEVEL", orString(file.LogLevel, "info")),
		LogFormat: mustEnv("RESUMIND_LOG_FORMAT", orString(file.LogFormat, "console")),

		StateDir: mustEnv("RESUMIND_STATE_DIR", orString(file.StateDir, defaultStateDir())),

		SessionBackend: mustEnv("RESUMIND_SESSION_BACKEND", orString(file.SessionBackend, SessionBackendFile)),
		SessionID:      mustEnv("RESUMIND_SESSION_ID", orString(file.SessionID, "default")),
		SessionTTL:     time.Duration(mustEnvInt("RESUMIND_SESSION_TTL_MINUTES", orInt(file.SessionTTLMinutes, 720))) * time.Minute,
		RedisAddr:      mustEnv("RESUMIND_REDIS_ADDR", orString(file.RedisAddr, "localhost:6379")),
		RedisPassword:  mustEnv("RESUMIND_REDIS_PASSWORD", file.RedisPassword),
		RedisDB:        mustEnvInt("RESUMIND_REDIS_DB", file.RedisDB),

		NATSURL:     mustEnv("RESUMIND_NATS_URL", file.NATSURL),
		NATSSubject: mustEnv("RESUMIND_NATS_SUBJECT", orString(file.NATSSubject, "resumes.uploaded")),

		RateLimitRPS:   mustEnvFloat("RESUMIND_RATE_LIMIT_RPS", file.RateLimitRPS),
		RateLimitBurst: mustEnvInt("RESUMIND_RATE_LIMIT_BURST", orInt(file.RateLimitBurst, 1)),

		RetryMaxAttempts: mustEnvInt("RESUMIND_RETRY_MAX_ATTEMPTS", orInt(file.RetryMaxAttempts, 1)),
		BreakerEnabled:   mustEnvBool("RESUMIND_BREAKER_ENABLED", breaker),

		MetricsAddr: mustEnv("RESUMIND_METRICS_ADDR", file.MetricsAddr),
	}, nil
}

func (c Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("invalid RESUMIND_API_URL %q: %w", c.APIURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid RESUMIND_API_URL %q: expected http(s)://host", c.APIURL)
	}
	switch c.SessionBackend {
	case SessionBackendFile, SessionBackendMemory:
	case SessionBackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("RESUMIND_REDIS_ADDR is required for the redis session backend")
		}
	default:
		return fmt.Errorf("unknown RESUMIND_SESSION_BACKEND %q", c.SessionBackend)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("RESUMIND_HTTP_TIMEOUT_SECONDS must be positive")
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RESUMIND_RATE_LIMIT_RPS must not be negative")
	}
	return nil
}

func (c Config) CredentialsPath() string {
	return filepath.Join(c.StateDir, "token.json")
}

func readFile(path string) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return fc, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return fc, nil
}

func defaultStateDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".resumind"
	}
	return filepath.Join(dir, "resumind")
}

func orString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func orInt(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	return v
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
