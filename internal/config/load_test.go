package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithBaseURL(t *testing.T) {
	t.Setenv("TASKMIRROR_JOB_SERVICE_BASE_URL", "http://jobs.internal/api")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, "http://jobs.internal/api", cfg.JobService.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.JobService.RequestTimeout)
	assert.Equal(t, 5*time.Second, cfg.Poll.Interval)
	assert.True(t, cfg.Poll.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TASKMIRROR_JOB_SERVICE_BASE_URL", "http://jobs.internal/api")
	t.Setenv("TASKMIRROR_SERVER_PORT", "9999")
	t.Setenv("TASKMIRROR_SERVER_LOG_LEVEL", "debug")
	t.Setenv("TASKMIRROR_POLL_INTERVAL", "30s")
	t.Setenv("TASKMIRROR_POLL_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.Poll.Interval)
	assert.False(t, cfg.Poll.Enabled)
}

func TestLoad_MissingBaseURLFailsValidation(t *testing.T) {
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validate config")
}

func TestLoad_RejectsBadLogLevel(t *testing.T) {
	t.Setenv("TASKMIRROR_JOB_SERVICE_BASE_URL", "http://jobs.internal/api")
	t.Setenv("TASKMIRROR_SERVER_LOG_LEVEL", "loud")

	_, err := Load()
	assert.Error(t, err)
}
