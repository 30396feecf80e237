package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresDSN(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	_, err := Load()
	assert.EqualError(t, err, "POSTGRES_DSN is required")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://localhost/clinic")
	t.Setenv("APP_ENV", "dev")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("REDIS_URL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 10, cfg.FamilyMaxSize)
	assert.Equal(t, 5*time.Second, cfg.LockTTL)
	assert.Equal(t, "default", cfg.DefaultTenant)
	assert.NotEmpty(t, cfg.JWTSecret, "dev gets a fallback secret")
	assert.Empty(t, cfg.Brokers())
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://localhost/clinic")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("LOCK_TTL", "3")
	t.Setenv("JWT_TTL", "90m")
	t.Setenv("FAMILY_MAX_MEMBERS", "6")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("REDIS_URL", "redis://clinic:pw@cache:6380")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.LockTTL)
	assert.Equal(t, 90*time.Minute, cfg.JWTTTL)
	assert.Equal(t, 6, cfg.FamilyMaxSize)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Brokers())
	assert.Equal(t, "cache:6380", cfg.RedisAddr)
	assert.Equal(t, "clinic", cfg.RedisUsername)
	assert.Equal(t, "pw", cfg.RedisPassword)
}

func TestValidateRejectsProdWithoutSecret(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://localhost/clinic")
	t.Setenv("APP_ENV", "prod")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestValidateFamilySize(t *testing.T) {
	cfg := Config{Env: "dev", FamilyMaxSize: 0, JWTSecret: "x"}
	assert.Error(t, cfg.Validate())
}
