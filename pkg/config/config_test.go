package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPTIMIZER_AUDIT_LIMIT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 10, cfg.Optimizer.AuditLimit)
	assert.Equal(t, 3, cfg.Optimizer.DefaultWorkloadCap)
	assert.Equal(t, 5*time.Minute, cfg.Timetable.CacheTTL)
	assert.False(t, cfg.Timetable.CacheEnabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("OPTIMIZER_AUDIT_LIMIT", "5")
	t.Setenv("TIMETABLE_CACHE_TTL", "not-a-duration")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:5173, ,http://127.0.0.1:5173")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Optimizer.AuditLimit)
	assert.Equal(t, 5*time.Minute, cfg.Timetable.CacheTTL)
	assert.Equal(t, []string{"http://localhost:5173", "http://127.0.0.1:5173"}, cfg.CORS.AllowedOrigins)
}

func TestPositiveOr(t *testing.T) {
	assert.Equal(t, 3, positiveOr(0, 3))
	assert.Equal(t, 3, positiveOr(-2, 3))
	assert.Equal(t, 7, positiveOr(7, 3))
}
