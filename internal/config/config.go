// Package config provides configuration loading and structs for the search service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/mitsukeru/internal/ranking"
	"github.com/hyperjump/mitsukeru/internal/rerank"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Search  SearchConfig  `yaml:"search"`
	Content ContentConfig `yaml:"content"`
	Suggest SuggestConfig `yaml:"suggest"`
	Rerank  RerankConfig  `yaml:"rerank"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// SearchConfig holds query limits, ranking weights, and the auto-index cadence.
type SearchConfig struct {
	DefaultLimit         int             `yaml:"default_limit"`
	MaxLimit             int             `yaml:"max_limit"`
	AutoIndexIntervalSec int             `yaml:"auto_index_interval_sec"`
	Weights              ranking.Weights `yaml:"weights"`
}

// AutoIndexInterval returns the auto-index cadence as a duration.
func (c *SearchConfig) AutoIndexInterval() time.Duration {
	return time.Duration(c.AutoIndexIntervalSec) * time.Second
}

// ContentConfig lists the content source files to aggregate.
type ContentConfig struct {
	// Sources maps a source name to a YAML content file path.
	Sources map[string]string `yaml:"sources"`
}

// SuggestConfig holds vocabulary and trending settings.
type SuggestConfig struct {
	// VocabularyPath is a YAML vocabulary file; empty uses the built-in
	// vocabulary. The file is watched and hot-reloaded when it changes.
	VocabularyPath string `yaml:"vocabulary_path"`
	// RedisAddrs enables the Redis-backed trending source when non-empty;
	// otherwise trending rotates through the vocabulary's curated list.
	RedisAddrs    []string `yaml:"redis_addrs"`
	RedisPassword string   `yaml:"redis_password"`
	TrendingKey   string   `yaml:"trending_key"`
}

// RerankConfig selects and bounds the re-ranking provider.
type RerankConfig struct {
	// Provider is "heuristic" (default), "openai", or "none".
	Provider  string        `yaml:"provider"`
	TimeoutMs int           `yaml:"timeout_ms"`
	Boosts    rerank.Boosts `yaml:"boosts"`
	OpenAI    OpenAIConfig  `yaml:"openai"`
}

// Timeout returns the re-rank deadline as a duration.
func (c *RerankConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// OpenAIConfig holds the LLM provider's API settings.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// Load reads and parses the config file at path, expands paths, and applies
// defaults. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	if cfg.Suggest.VocabularyPath != "" {
		cfg.Suggest.VocabularyPath = expandPath(cfg.Suggest.VocabularyPath, configDir)
	}
	for name, p := range cfg.Content.Sources {
		cfg.Content.Sources[name] = expandPath(p, configDir)
	}

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are
// relative to configDir; other relative paths are relative to the home
// directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
