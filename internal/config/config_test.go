package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("DB_DSN", "")
	t.Setenv("MONGO_URI", "")
	t.Setenv("SESSION_TTL", "")
	t.Setenv("AUTH_DEBUG_HEADER", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "memory", cfg.Storage())
	assert.Equal(t, "keep", cfg.OrphanRequestPolicy)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.AuthDebugHeader)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
}

func TestLoad_ProductionDisablesDebugHeader(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("AUTH_DEBUG_HEADER", "")

	cfg := Load()
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.AuthDebugHeader)
}

func TestStorage_InferredFromDSN(t *testing.T) {
	cfg := &Config{DatabaseDSN: "postgres://x"}
	assert.Equal(t, "postgres", cfg.Storage())

	cfg = &Config{MongoURI: "mongodb://x"}
	assert.Equal(t, "mongo", cfg.Storage())

	cfg = &Config{StorageDriver: "mongo", DatabaseDSN: "postgres://x"}
	assert.Equal(t, "mongo", cfg.Storage())
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("LOGIN_MAX_FAILURES", "abc")
	t.Setenv("IDEMPOTENCY_TTL", "-1s")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg := Load()
	assert.Equal(t, 5, cfg.LoginMaxFailures)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}
