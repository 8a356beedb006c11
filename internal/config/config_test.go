package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "ENABLE_TRACE", "TRACE_DIR", "STATIC_DIR", "DATABASE_URL", "CHROME_BIN", "HEADLESS", "LOCALE"} {
		t.Setenv(k, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Port)
	assert.False(t, cfg.Trace)
	assert.Equal(t, "traces", cfg.TraceDir)
	assert.Equal(t, "public", cfg.StaticDir)
	assert.True(t, cfg.Headless)
	assert.Equal(t, "en-US", cfg.Locale)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("ENABLE_TRACE", "1")
	t.Setenv("TRACE_DIR", "/tmp/tr")
	t.Setenv("HEADLESS", "false")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.True(t, cfg.Trace)
	assert.Equal(t, "/tmp/tr", cfg.TraceDir)
	assert.False(t, cfg.Headless)
}

func TestFromEnv_TraceOnlyOnExactOne(t *testing.T) {
	t.Setenv("ENABLE_TRACE", "true")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.False(t, cfg.Trace)
}

func TestFromEnv_InvalidPort(t *testing.T) {
	t.Setenv("PORT", "abc")

	_, err := FromEnv()
	assert.Error(t, err)
}
