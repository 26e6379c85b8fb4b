package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"SERVER_PORT", "TCP_PORT", "ENV", "SMALL_BLIND", "BIG_BLIND", "AI_DELAY_MS", "DB_DRIVER", "REDIS_ENABLED", "RATE_LIMIT_RPS"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "", cfg.TCPPort)
	assert.Equal(t, 50, cfg.SmallBlind)
	assert.Equal(t, 100, cfg.BigBlind)
	assert.Equal(t, 1200*time.Millisecond, cfg.AIDelay)
	assert.Equal(t, "none", cfg.DBConfig.Driver)
	assert.False(t, cfg.RedisEnabled)
	assert.Equal(t, 10.0, cfg.RateLimitRPS)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("TCP_PORT", "9091")
	t.Setenv("ENV", "production")
	t.Setenv("BIG_BLIND", "200")
	t.Setenv("AI_DELAY_MS", "0")
	t.Setenv("REBUY_APPROVAL", "true")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DB_DSN", "file:holdem.db")
	t.Setenv("REDIS_DB", "3")

	cfg := Load()
	assert.Equal(t, "9000", cfg.ServerPort)
	assert.Equal(t, "9091", cfg.TCPPort)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 200, cfg.BigBlind)
	assert.Equal(t, time.Duration(0), cfg.AIDelay)
	assert.True(t, cfg.RebuyApproval)
	assert.Equal(t, "sqlite", cfg.DBConfig.Driver)
	assert.Equal(t, "file:holdem.db", cfg.DBConfig.DSN)
	assert.Equal(t, 3, cfg.RedisConfig.DB)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("SMALL_BLIND", "lots")
	t.Setenv("RATE_LIMIT_RPS", "fast")
	t.Setenv("REDIS_ENABLED", "maybe")

	cfg := Load()
	assert.Equal(t, 50, cfg.SmallBlind)
	assert.Equal(t, 10.0, cfg.RateLimitRPS)
	assert.False(t, cfg.RedisEnabled)
}
