package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kapu/ufc-athlete-scraper-go/pkg/errors"
)

const defaultUserAgent = "Mozilla/5.0 (compatible; ufc-athlete-scraper/1.0; +https://www.ufc.com/athletes/all)"

type Config struct {
	Scraper  ScraperConfig
	Output   OutputConfig
	Redis    RedisConfig
	Postgres PostgresConfig
	Logging  LoggingConfig
}

type ScraperConfig struct {
	StartURL         string
	AllowedDomains   []string
	Gender           string
	Concurrency      int
	Delay            time.Duration
	RandomDelay      time.Duration
	RetryTimes       int
	RequestTimeout   time.Duration
	UserAgent        string
	RotateUserAgent  bool
	SkipKnown        bool
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

type OutputConfig struct {
	File string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type PostgresConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

type LoggingConfig struct {
	Level string
	File  string
}

// Load reads .env (when present) and the environment.
// Callers that override fields afterwards should call Validate again.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Scraper: ScraperConfig{
			StartURL:         getEnv("SCRAPER_START_URL", "https://www.ufc.com/athletes/all?gender=1"),
			AllowedDomains:   parseCommaSeparated(getEnv("SCRAPER_ALLOWED_DOMAINS", "ufc.com,www.ufc.com")),
			Gender:           getEnv("SCRAPER_GENDER", "Male"),
			Concurrency:      getEnvInt("SCRAPER_CONCURRENCY", 8),
			Delay:            time.Duration(getEnvInt("SCRAPER_DELAY_MS", 1000)) * time.Millisecond,
			RandomDelay:      time.Duration(getEnvInt("SCRAPER_RANDOM_DELAY_MS", 0)) * time.Millisecond,
			RetryTimes:       getEnvInt("SCRAPER_RETRY_TIMES", 3),
			RequestTimeout:   time.Duration(getEnvInt("SCRAPER_REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
			UserAgent:        getEnv("SCRAPER_USER_AGENT", defaultUserAgent),
			RotateUserAgent:  getEnvBool("SCRAPER_ROTATE_USER_AGENT", false),
			SkipKnown:        getEnvBool("SCRAPER_SKIP_KNOWN", false),
			BreakerThreshold: getEnvInt("SCRAPER_BREAKER_THRESHOLD", 10),
			BreakerCooldown:  time.Duration(getEnvInt("SCRAPER_BREAKER_COOLDOWN_SECONDS", 60)) * time.Second,
		},
		Output: OutputConfig{
			File: getEnv("OUTPUT_FILE", "ufc_fighters_stats_and_records.json"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Postgres: PostgresConfig{
			Enabled:  getEnvBool("POSTGRES_ENABLED", false),
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "ufc"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Database: getEnv("POSTGRES_DB", "ufc"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Scraper.StartURL == "" {
		return errors.NewValidationError("SCRAPER_START_URL is required", "SCRAPER_START_URL", c.Scraper.StartURL)
	}
	parsed, err := url.Parse(c.Scraper.StartURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return errors.NewValidationError("SCRAPER_START_URL must be an absolute URL", "SCRAPER_START_URL", c.Scraper.StartURL)
	}
	if c.Scraper.Concurrency < 1 {
		return errors.NewValidationError("SCRAPER_CONCURRENCY must be at least 1", "SCRAPER_CONCURRENCY", c.Scraper.Concurrency)
	}
	if c.Scraper.RetryTimes < 0 {
		return errors.NewValidationError("SCRAPER_RETRY_TIMES must not be negative", "SCRAPER_RETRY_TIMES", c.Scraper.RetryTimes)
	}
	if c.Scraper.Delay < 0 || c.Scraper.RandomDelay < 0 {
		return errors.NewValidationError("SCRAPER delays must not be negative", "SCRAPER_DELAY_MS", c.Scraper.Delay)
	}
	if c.Output.File == "" {
		return errors.NewValidationError("OUTPUT_FILE is required", "OUTPUT_FILE", c.Output.File)
	}
	if c.Redis.Enabled && c.Redis.Host == "" {
		return errors.NewValidationError("REDIS_HOST is required when REDIS_ENABLED", "REDIS_HOST", c.Redis.Host)
	}
	if c.Postgres.Enabled && (c.Postgres.Host == "" || c.Postgres.Database == "") {
		return errors.NewValidationError("POSTGRES_HOST and POSTGRES_DB are required when POSTGRES_ENABLED", "POSTGRES_HOST", c.Postgres.Host)
	}
	return nil
}

// Summary lists the settings worth logging at startup. Secrets are left out.
func (c *Config) Summary() map[string]string {
	return map[string]string{
		"start_url":   c.Scraper.StartURL,
		"output":      c.Output.File,
		"concurrency": strconv.Itoa(c.Scraper.Concurrency),
		"delay":       c.Scraper.Delay.String(),
		"retries":     strconv.Itoa(c.Scraper.RetryTimes),
		"skip_known":  strconv.FormatBool(c.Scraper.SkipKnown),
		"redis":       strconv.FormatBool(c.Redis.Enabled),
		"postgres":    strconv.FormatBool(c.Postgres.Enabled),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func parseCommaSeparated(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
