package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (optional: universe + rating history)
	Database DatabaseConfig

	// Redis (optional: shared sector cache + rate limit)
	Redis RedisConfig

	// External APIs
	Yahoo    YahooConfig
	Universe UniverseConfig

	// Rating engine
	Rating RatingConfig

	// Scheduler
	SchedulerEnabled bool

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool

	// Namespace prefixes every key so instances of one deployment share state
	Namespace string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a database is configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// YahooConfig holds market data provider configuration
type YahooConfig struct {
	BaseURL    string
	Timeout    time.Duration
	RatePerSec int // in-process request budget
}

// UniverseConfig holds the peer universe source
type UniverseConfig struct {
	SourceURL string // S&P 500 constituents page
}

// RatingConfig holds rating engine and sector cache settings
type RatingConfig struct {
	CatalogPath    string // optional YAML override of the built-in KPI catalog
	AbsoluteWeight float64
	RelativeWeight float64
	SectorCacheTTL time.Duration
	PeerWorkers    int
}

// Load reads configuration from environment variables.
// A set but malformed value is an error, never a silent default.
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	var env envReader
	cfg := &Config{
		Port: env.str("PORT", "8089"),
		Env:  env.str("ENV", "development"),

		Database: DatabaseConfig{
			URL:             env.str("DATABASE_URL", ""),
			MaxConns:        env.asInt("DB_MAX_CONNS", 10),
			MinConns:        env.asInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: env.asDuration("DB_MAX_CONN_LIFETIME", time.Hour),
			MaxConnIdleTime: env.asDuration("DB_MAX_CONN_IDLE_TIME", 30*time.Minute),
		},

		Redis: RedisConfig{
			Host:      env.str("REDIS_HOST", "localhost"),
			Port:      env.str("REDIS_PORT", "6379"),
			Password:  env.str("REDIS_PASSWORD", ""),
			DB:        env.asInt("REDIS_DB", 0),
			Enabled:   env.asBool("REDIS_ENABLED", false),
			Namespace: env.str("REDIS_NAMESPACE", "kpicomp"),
		},

		Yahoo: YahooConfig{
			BaseURL:    env.str("YAHOO_BASE_URL", "https://query2.finance.yahoo.com"),
			Timeout:    env.asDuration("YAHOO_TIMEOUT", 15*time.Second),
			RatePerSec: env.asInt("YAHOO_RATE_PER_SEC", 5),
		},

		Universe: UniverseConfig{
			SourceURL: env.str("UNIVERSE_SOURCE_URL", "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"),
		},

		Rating: RatingConfig{
			CatalogPath:    env.str("RATING_CATALOG_PATH", ""),
			AbsoluteWeight: env.asFloat("RATING_ABSOLUTE_WEIGHT", 0.40),
			RelativeWeight: env.asFloat("RATING_RELATIVE_WEIGHT", 0.60),
			SectorCacheTTL: env.asDuration("SECTOR_CACHE_TTL", time.Hour),
			PeerWorkers:    env.asInt("PEER_WORKERS", 8),
		},

		SchedulerEnabled: env.asBool("SCHEDULER_ENABLED", false),

		LogLevel:  env.str("LOG_LEVEL", "info"),
		LogFormat: env.str("LOG_FORMAT", "json"),
	}

	if err := errors.Join(env.errs...); err != nil {
		return nil, fmt.Errorf("config parse failed: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are usable
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Rating.AbsoluteWeight < 0 || c.Rating.RelativeWeight < 0 {
		return fmt.Errorf("RATING_ABSOLUTE_WEIGHT and RATING_RELATIVE_WEIGHT must be >= 0")
	}
	if math.Abs(c.Rating.AbsoluteWeight+c.Rating.RelativeWeight-1.0) > 1e-9 {
		return fmt.Errorf("RATING_ABSOLUTE_WEIGHT + RATING_RELATIVE_WEIGHT must equal 1.0")
	}

	if c.Rating.SectorCacheTTL <= 0 {
		return fmt.Errorf("SECTOR_CACHE_TTL must be positive")
	}
	if c.Rating.PeerWorkers <= 0 {
		return fmt.Errorf("PEER_WORKERS must be positive")
	}
	if c.Yahoo.RatePerSec <= 0 {
		return fmt.Errorf("YAHOO_RATE_PER_SEC must be positive")
	}

	return nil
}

// loadEnvFile loads the first .env found in the working directory or next to the binary
func loadEnvFile() {
	paths := []string{".env"}
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

// envReader reads typed variables and collects every malformed one
type envReader struct {
	errs []error
}

func (e *envReader) str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (e *envReader) asInt(key string, def int) int {
	return parseEnv(e, key, def, strconv.Atoi)
}

func (e *envReader) asFloat(key string, def float64) float64 {
	return parseEnv(e, key, def, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

func (e *envReader) asBool(key string, def bool) bool {
	return parseEnv(e, key, def, strconv.ParseBool)
}

func (e *envReader) asDuration(key string, def time.Duration) time.Duration {
	return parseEnv(e, key, def, time.ParseDuration)
}

func parseEnv[T any](e *envReader, key string, def T, parse func(string) (T, error)) T {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s=%q: %w", key, raw, err))
		return def
	}
	return v
}
