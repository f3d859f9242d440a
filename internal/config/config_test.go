package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("PG_HOST", "localhost")
	t.Setenv("PG_USER", "quiz")
	t.Setenv("PG_PASSWORD", "secret")
	t.Setenv("PG_DATABASE", "quizwhiz")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("JWT_SECRET", "jwt-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "quizwhiz", cfg.Name)
	assert.Equal(t, 3*time.Second, cfg.Session.AutoAdvanceDelay)
	assert.Equal(t, 10*time.Second, cfg.Session.AutoMicWindow)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTTL)
	assert.Equal(t, time.Minute, cfg.Session.ReapInterval)
	assert.Equal(t, 720*time.Hour, cfg.Security.JWTTTL)
	assert.True(t, cfg.Settings.SpeakerEnabled)
	assert.True(t, cfg.Settings.AutoAdvanceEnabled)
	assert.False(t, cfg.Settings.AutoMicEnabled)
	assert.Empty(t, cfg.AI.GraderURL)
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t,
		"host=localhost port=5432 user=quiz password=secret dbname=quizwhiz sslmode=disable pool_max_conns=10",
		cfg.Postgres.PoolDSN())
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("SESSION_AUTO_ADVANCE_DELAY", "1500ms")
	t.Setenv("SETTINGS_AUTO_MIC_DEFAULT", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://quiz.example.com")

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1500*time.Millisecond, cfg.Session.AutoAdvanceDelay)
	assert.True(t, cfg.Settings.AutoMicEnabled)
	assert.Equal(t, []string{"https://quiz.example.com"}, cfg.CORS.AllowedOrigins)
}

func TestLoadRequiresSecrets(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET", "")

	_, err := Load(context.Background())
	assert.Error(t, err)
}
