// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Trakt    TraktConfig    `toml:"trakt"`
	TMDB     TMDBConfig     `toml:"tmdb"`
	Cache    CacheConfig    `toml:"cache"`
	Enhance  EnhanceConfig  `toml:"enhance"`
	AI       AIConfig       `toml:"ai"`
}

type ServerConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	LogLevel string `toml:"log_level"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

// TraktConfig configures the origin catalog.
type TraktConfig struct {
	URL     string        `toml:"url"`
	APIKey  string        `toml:"api_key"`
	Timeout time.Duration `toml:"timeout"`
}

// TMDBConfig configures the poster source. An empty API key disables it.
type TMDBConfig struct {
	URL    string `toml:"url"`
	APIKey string `toml:"api_key"`
}

// CacheConfig sizes the TTL namespaces, the store's memory front end and
// the periodic cleanup.
type CacheConfig struct {
	OriginTTL       time.Duration `toml:"origin_ttl"`
	EnrichedTTL     time.Duration `toml:"enriched_ttl"`
	AITTL           time.Duration `toml:"ai_ttl"`
	SweepInterval   time.Duration `toml:"sweep_interval"`
	LRUSize         int           `toml:"lru_size"`
	CleanupInterval time.Duration `toml:"cleanup_interval"`
	MaxAge          time.Duration `toml:"max_age"`
}

type EnhanceConfig struct {
	MaxConcurrent int           `toml:"max_concurrent"`
	CallTimeout   time.Duration `toml:"call_timeout"`
}

type AIConfig struct {
	Enabled  bool          `toml:"enabled"`
	Provider string        `toml:"provider"`
	Ollama   *OllamaConfig `toml:"ollama"`
}

type OllamaConfig struct {
	URL   string `toml:"url"`
	Model string `toml:"model"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load reads, substitutes, parses and validates the configuration file.
func Load(path string) (*Config, error) {
	cfg, missing, err := load(path)
	if err != nil {
		return nil, err
	}

	cfgErr := &ConfigError{Path: path, Missing: missing, Errors: cfg.Validate()}
	if cfgErr.HasErrors() {
		return nil, cfgErr
	}
	return cfg, nil
}

// LoadWithoutValidation reads and parses the configuration file, applying
// defaults but skipping validation and missing variable checks.
func LoadWithoutValidation(path string) (*Config, error) {
	cfg, _, err := load(path)
	return cfg, err
}

func load(path string) (*Config, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading config: %w", err)
	}

	content, missing := substituteEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, missing, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/moviegraph.db"
	}

	if c.Trakt.URL == "" {
		c.Trakt.URL = "https://api.trakt.tv"
	}
	if c.Trakt.Timeout == 0 {
		c.Trakt.Timeout = 5 * time.Second
	}
	if c.TMDB.URL == "" {
		c.TMDB.URL = "https://api.themoviedb.org"
	}

	if c.Cache.OriginTTL == 0 {
		c.Cache.OriginTTL = time.Hour
	}
	if c.Cache.EnrichedTTL == 0 {
		c.Cache.EnrichedTTL = 24 * time.Hour
	}
	if c.Cache.AITTL == 0 {
		c.Cache.AITTL = 6 * time.Hour
	}
	if c.Cache.SweepInterval == 0 {
		c.Cache.SweepInterval = 5 * time.Minute
	}
	if c.Cache.LRUSize == 0 {
		c.Cache.LRUSize = 100
	}
	if c.Cache.CleanupInterval == 0 {
		c.Cache.CleanupInterval = 24 * time.Hour
	}
	if c.Cache.MaxAge == 0 {
		c.Cache.MaxAge = 30 * 24 * time.Hour
	}

	if c.Enhance.MaxConcurrent == 0 {
		c.Enhance.MaxConcurrent = 5
	}
	if c.Enhance.CallTimeout == 0 {
		c.Enhance.CallTimeout = 3 * time.Second
	}

	if c.AI.Enabled && c.AI.Provider == "" {
		c.AI.Provider = "ollama"
	}
	if c.AI.Ollama != nil {
		if c.AI.Ollama.URL == "" {
			c.AI.Ollama.URL = "http://localhost:11434"
		}
		if c.AI.Ollama.Model == "" {
			c.AI.Ollama.Model = "llama3"
		}
	}
}

// envVarPattern matches ${VAR}, ${VAR:-default} and ${VAR:?message}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::([-?])([^}]*))?\}`)

// substituteEnvVars replaces variable references with environment values.
// Unresolved references are left in place and reported in missing.
func substituteEnvVars(content string) (string, []string) {
	var missing []string
	result := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		m := envVarPattern.FindStringSubmatch(match)
		name, op, arg := m[1], m[2], m[3]

		value, ok := os.LookupEnv(name)
		switch op {
		case "-":
			if !ok || value == "" {
				return arg
			}
			return value
		case "?":
			if !ok || value == "" {
				missing = append(missing, name+": "+strings.TrimSpace(arg))
				return match
			}
			return value
		default:
			if !ok {
				missing = append(missing, name)
				return match
			}
			return value
		}
	})
	return result, missing
}
