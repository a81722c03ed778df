package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Server.Addr())
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "./pass_eligibility.db", cfg.Database.Path)
	assert.Equal(t, 12*time.Hour, cfg.Security.TokenTTL)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Features["holy_week_blackout"])

	// no secret configured
	assert.Error(t, cfg.Validate())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PASSES_SERVER_PORT", "9090")
	t.Setenv("PASSES_SECURITY_JWT_SECRET", testSecret)
	t.Setenv("PASSES_RATE_LIMIT_RATE", "5")
	t.Setenv("PASSES_CACHE_TTL", "30s")
	t.Setenv("PASSES_FEATURES_HOLY_WEEK_BLACKOUT", "true")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 5, cfg.RateLimit.Rate)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.True(t, cfg.Features["holy_week_blackout"])
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := strings.Join([]string{
		"server:",
		"  port: \"7070\"",
		"database:",
		"  path: /tmp/passes.db",
		"security:",
		"  jwt_secret: " + testSecret,
		"  allowed_origins: https://a.example.com, https://b.example.com",
		"features:",
		"  cache_enabled: true",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("PASSES_SERVER_PORT", "6060")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	// env wins over the file
	assert.Equal(t, "6060", cfg.Server.Port)
	assert.Equal(t, "/tmp/passes.db", cfg.Database.Path)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Security.Origins())
	assert.True(t, cfg.Features["cache_enabled"])
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	cfg.Security.JWTSecret = testSecret
	require.NoError(t, cfg.Validate())

	cfg.RateLimit.Rate = 0
	cfg.Tracing.SamplingRate = 2
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit rate must be positive")
	assert.Contains(t, err.Error(), "sampling rate")
}
