package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"APP_ENV", "PORT", "MONGO_URI", "JWT_SECRET", "FREE_RECOMMENDATIONS_LIMIT", "MAX_UPLOAD_MB", "MARKETPLACE_TIMEOUT_SECONDS"} {
		t.Setenv(k, "")
	}

	cfg := FromEnv()

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "mongodb://localhost:27017/", cfg.MongoURI)
	assert.Equal(t, 3, cfg.FreeRecommendationsLimit)
	assert.Equal(t, int64(5<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 8*time.Second, cfg.MarketplaceTimeout)
	assert.NotEmpty(t, cfg.JWTSecret, "development falls back to a local secret")
	assert.False(t, cfg.IsProduction())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_SECRET", "s3cr3t")
	t.Setenv("TOKEN_TTL_HOURS", "2")
	t.Setenv("FREE_RECOMMENDATIONS_LIMIT", "5")
	t.Setenv("MYNTRA_ENABLED", "true")
	t.Setenv("MAX_UPLOAD_MB", "1")

	cfg := FromEnv()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "s3cr3t", cfg.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 5, cfg.FreeRecommendationsLimit)
	assert.True(t, cfg.MyntraEnabled)
	assert.Equal(t, int64(1<<20), cfg.MaxUploadBytes)
}

func TestFromEnv_ProductionWithoutSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	cfg := FromEnv()
	assert.Empty(t, cfg.JWTSecret)
}

func TestFromEnv_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("FREE_RECOMMENDATIONS_LIMIT", "lots")
	t.Setenv("MYNTRA_ENABLED", "maybe")

	cfg := FromEnv()
	assert.Equal(t, 3, cfg.FreeRecommendationsLimit)
	assert.False(t, cfg.MyntraEnabled)
}
