package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"holdem-room/internal/db"
	"holdem-room/internal/redis"
)

// Config holds all configuration values for the application
type Config struct {
	// Server configuration
	ServerPort  string
	TCPPort     string // empty disables the line-JSON transport
	Environment string
	LogLevel    string

	// Table defaults
	SmallBlind    int
	BigBlind      int
	DefaultChips  int
	AIDelay       time.Duration
	RebuyApproval bool

	// Archive backends
	DBConfig     db.Config
	RedisEnabled bool
	RedisConfig  redis.Config

	// Intent rate limiting, per connection
	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads configuration from the environment, after loading .env if
// one exists.
func Load() Config {
	// Missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	return Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		TCPPort:     getEnvAllowEmpty("TCP_PORT", "9090"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		SmallBlind:    getEnvInt("SMALL_BLIND", 50),
		BigBlind:      getEnvInt("BIG_BLIND", 100),
		DefaultChips:  getEnvInt("DEFAULT_CHIPS", 1000),
		AIDelay:       time.Duration(getEnvInt("AI_DELAY_MS", 1200)) * time.Millisecond,
		RebuyApproval: getEnvBool("REBUY_APPROVAL", false),

		DBConfig: db.Config{
			Driver: strings.ToLower(getEnv("DB_DRIVER", db.DriverNone)),
			DSN:    getEnv("DB_DSN", ""),
		},
		RedisEnabled: getEnvBool("REDIS_ENABLED", false),
		RedisConfig: redis.Config{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 20),
	}
}

// IsProduction reports whether ENV is production.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// getEnv retrieves an environment variable or returns a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvAllowEmpty treats an explicitly empty variable as a value.
func getEnvAllowEmpty(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Warn().Str("key", key).Str("value", value).Int("fallback", fallback).Msg("invalid integer in environment")
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Warn().Str("key", key).Str("value", value).Float64("fallback", fallback).Msg("invalid number in environment")
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Warn().Str("key", key).Str("value", value).Bool("fallback", fallback).Msg("invalid boolean in environment")
		return fallback
	}
	return b
}
