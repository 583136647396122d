package config

import (
	"fmt"
	"net/url"
	"time"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

var validAIProviders = map[string]bool{
	"ollama": true,
}

// maxConcurrent caps enhance.max_concurrent; upstream APIs are rate limited.
const maxConcurrent = 50

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	// Server validation
	if c.Server.Port != 0 && (c.Server.Port < 1 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server.port: must be between 1 and 65535, got %d", c.Server.Port))
	}
	if !validLogLevels[c.Server.LogLevel] {
		errs = append(errs, fmt.Sprintf("server.log_level: must be one of debug, info, warn, error; got %q", c.Server.LogLevel))
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path: required")
	}

	// Upstream APIs
	if c.Trakt.APIKey == "" {
		errs = append(errs, "trakt.api_key: required")
	}
	errs = appendURLError(errs, "trakt.url", c.Trakt.URL)
	errs = appendURLError(errs, "tmdb.url", c.TMDB.URL)

	// Cache validation
	for _, d := range []struct {
		name  string
		value time.Duration
	}{
		{"cache.origin_ttl", c.Cache.OriginTTL},
		{"cache.enriched_ttl", c.Cache.EnrichedTTL},
		{"cache.ai_ttl", c.Cache.AITTL},
		{"cache.sweep_interval", c.Cache.SweepInterval},
		{"cache.cleanup_interval", c.Cache.CleanupInterval},
		{"cache.max_age", c.Cache.MaxAge},
		{"enhance.call_timeout", c.Enhance.CallTimeout},
		{"trakt.timeout", c.Trakt.Timeout},
	} {
		if d.value < 0 {
			errs = append(errs, fmt.Sprintf("%s: must not be negative, got %s", d.name, d.value))
		}
	}
	if c.Cache.LRUSize < 0 {
		errs = append(errs, fmt.Sprintf("cache.lru_size: must not be negative, got %d", c.Cache.LRUSize))
	}

	if c.Enhance.MaxConcurrent < 0 || c.Enhance.MaxConcurrent > maxConcurrent {
		errs = append(errs, fmt.Sprintf("enhance.max_concurrent: must be between 1 and %d, got %d", maxConcurrent, c.Enhance.MaxConcurrent))
	}

	// AI validation
	if c.AI.Enabled {
		if !validAIProviders[c.AI.Provider] {
			errs = append(errs, fmt.Sprintf("ai.provider: must be ollama; got %q", c.AI.Provider))
		}
		if c.AI.Provider == "ollama" && c.AI.Ollama == nil {
			errs = append(errs, "ai.ollama: required when ai.provider is ollama")
		}
	}

	return errs
}

func appendURLError(errs []string, name, raw string) []string {
	if raw == "" {
		return errs
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return append(errs, fmt.Sprintf("%s: invalid URL %q", name, raw))
	}
	return errs
}
