package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, 4096, cfg.MaxTokens)
	assert.Equal(t, 0.7, cfg.Temperature)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 3, cfg.RetryAttempts)
	assert.False(t, cfg.Breaker)

	cfg = NewConfig(
		WithAPIKey("key"),
		WithModel("gpt-4o"),
		WithBaseURL("https://example.com/v1"),
		WithMaxTokens(1024),
		WithTemperature(0.2),
		WithTimeout(5*time.Second),
		WithRetryAttempts(1),
		WithBreaker(true),
	)
	assert.Equal(t, "key", cfg.APIKey)
	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, "https://example.com/v1", cfg.BaseURL)
	assert.Equal(t, 1024, cfg.MaxTokens)
	assert.Equal(t, 0.2, cfg.Temperature)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 1, cfg.RetryAttempts)
	assert.True(t, cfg.Breaker)
}

func TestFromEnvironment(t *testing.T) {
	t.Setenv("QTEST_API_KEY", "env-key")
	t.Setenv("QTEST_MODEL", "env-model")
	t.Setenv("QTEST_TIMEOUT", "10s")
	t.Setenv("QTEST_MAX_TOKENS", "not-a-number")
	t.Setenv("QTEST_RETRY_ATTEMPTS", "5")
	t.Setenv("QTEST_BREAKER", "true")

	cfg := FromEnvironment("QTEST")
	assert.Equal(t, "env-key", cfg.APIKey)
	assert.Equal(t, "env-model", cfg.Model)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, 5, cfg.RetryAttempts)
	assert.True(t, cfg.Breaker)
	// Unparseable values fall back to defaults
	assert.Equal(t, 4096, cfg.MaxTokens)
}

func TestMerge(t *testing.T) {
	base := NewConfig(WithAPIKey("base-key"), WithModel("base-model"))
	override := Config{Model: "override-model", Timeout: time.Second, RetryAttempts: 1, Breaker: true}

	merged := base.Merge(override)
	assert.Equal(t, "base-key", merged.APIKey)
	assert.Equal(t, "override-model", merged.Model)
	assert.Equal(t, time.Second, merged.Timeout)
	assert.Equal(t, 4096, merged.MaxTokens)
	assert.Equal(t, 1, merged.RetryAttempts)
	assert.True(t, merged.Breaker)

	// Unset fields in the override never clobber the base
	again := merged.Merge(Config{})
	assert.Equal(t, 1, again.RetryAttempts)
	assert.True(t, again.Breaker)
}
