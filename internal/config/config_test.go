package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 5, cfg.ClassifyBatchSize)
	assert.Equal(t, 3, cfg.ClassifyMaxRetries)
	assert.Equal(t, 10, cfg.CheckpointInterval)
	assert.Equal(t, "temp_analyses.json", cfg.CheckpointPath)
	assert.True(t, cfg.ResumeEnabled)
	assert.Equal(t, 3, cfg.WriteBatchSize)
	assert.Equal(t, 3000, cfg.SearchContextBudget)
	assert.Equal(t, 500*time.Millisecond, cfg.PageFetchDelay)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CLASSIFY_BATCH_SIZE", "20")
	t.Setenv("RESUME_FROM_CHECKPOINT", "false")
	t.Setenv("THREAD_FETCH_DELAY", "250ms")
	t.Setenv("REDIS_TLS", "true")

	cfg := Load()
	assert.Equal(t, 20, cfg.ClassifyBatchSize)
	assert.False(t, cfg.ResumeEnabled)
	assert.Equal(t, 250*time.Millisecond, cfg.ThreadFetchDelay)
	assert.True(t, cfg.RedisTLS)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("CLASSIFY_BATCH_SIZE", "lots")
	t.Setenv("WRITE_DELAY", "soon")

	cfg := Load()
	assert.Equal(t, 5, cfg.ClassifyBatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.WriteDelay)
}

func TestRequire(t *testing.T) {
	t.Setenv("OPSKB_TEST_PRESENT", "value")
	t.Setenv("OPSKB_TEST_BLANK", "  ")

	require.NoError(t, Require("OPSKB_TEST_PRESENT"))

	err := Require("OPSKB_TEST_PRESENT", "OPSKB_TEST_BLANK", "OPSKB_TEST_ABSENT")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPSKB_TEST_BLANK")
	assert.Contains(t, err.Error(), "OPSKB_TEST_ABSENT")
	assert.NotContains(t, err.Error(), "OPSKB_TEST_PRESENT,")
}
