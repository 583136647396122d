package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	cfg := Default()
	cfg.Trakt.APIKey = "test-key"
	return cfg
}

func TestValidate_MinimalValid(t *testing.T) {
	errs := validConfig().Validate()
	assert.Empty(t, errs, "expected no errors for minimal valid config")
}

func TestValidate_MissingTraktKey(t *testing.T) {
	cfg := Default()
	errs := cfg.Validate()
	assert.True(t, containsErrorBoth(errs, "trakt.api_key", "required"), "expected trakt.api_key error, got %v", errs)
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 99999
	errs := cfg.Validate()
	assert.True(t, containsError(errs, "server.port"), "expected port error, got %v", errs)
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Server.LogLevel = "verbose"
	errs := cfg.Validate()
	assert.True(t, containsError(errs, "log_level"), "expected log_level error, got %v", errs)
}

func TestValidate_DatabasePathRequired(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Path = ""
	errs := cfg.Validate()
	assert.True(t, containsError(errs, "database.path"), "expected database.path error, got %v", errs)
}

func TestValidate_InvalidURL(t *testing.T) {
	cfg := validConfig()
	cfg.TMDB.URL = "not a url"
	errs := cfg.Validate()
	assert.True(t, containsErrorBoth(errs, "tmdb.url", "invalid URL"), "expected tmdb.url error, got %v", errs)
}

func TestValidate_NegativeDurations(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.EnrichedTTL = -time.Second
	cfg.Enhance.CallTimeout = -time.Second
	errs := cfg.Validate()
	assert.True(t, containsError(errs, "cache.enriched_ttl"), "expected enriched_ttl error, got %v", errs)
	assert.True(t, containsError(errs, "enhance.call_timeout"), "expected call_timeout error, got %v", errs)
}

func TestValidate_NegativeLRUSize(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.LRUSize = -1
	errs := cfg.Validate()
	assert.True(t, containsError(errs, "cache.lru_size"), "expected lru_size error, got %v", errs)
}

func TestValidate_MaxConcurrentTooHigh(t *testing.T) {
	cfg := validConfig()
	cfg.Enhance.MaxConcurrent = 500
	errs := cfg.Validate()
	assert.True(t, containsError(errs, "enhance.max_concurrent"), "expected max_concurrent error, got %v", errs)
}

func TestValidate_AIProviderInvalid(t *testing.T) {
	cfg := validConfig()
	cfg.AI = AIConfig{Enabled: true, Provider: "openai"}
	errs := cfg.Validate()
	assert.True(t, containsError(errs, "ai.provider"), "expected ai.provider error, got %v", errs)
}

func TestValidate_AIOllamaRequired(t *testing.T) {
	cfg := validConfig()
	cfg.AI = AIConfig{Enabled: true, Provider: "ollama"}
	errs := cfg.Validate()
	assert.True(t, containsError(errs, "ai.ollama"), "expected ai.ollama error, got %v", errs)
}

func TestValidate_AIDisabledSkipsChecks(t *testing.T) {
	cfg := validConfig()
	cfg.AI = AIConfig{Provider: "openai"}
	assert.Empty(t, cfg.Validate())
}

// Helper functions to check for errors containing specific strings
func containsError(errs []string, substr string) bool {
	for _, e := range errs {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}

func containsErrorBoth(errs []string, substr1, substr2 string) bool {
	for _, e := range errs {
		if strings.Contains(e, substr1) && strings.Contains(e, substr2) {
			return true
		}
	}
	return false
}
