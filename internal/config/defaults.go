package config

import (
	"time"

	"github.com/hyperjump/mitsukeru/internal/rerank"
)

// Default returns a config with all defaults applied, suitable for running
// without a config file.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills in zero-valued fields with sane defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8085
	}

	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Search.AutoIndexIntervalSec == 0 {
		cfg.Search.AutoIndexIntervalSec = 300
	}
	cfg.Search.Weights.ApplyDefaults()

	if cfg.Suggest.TrendingKey == "" {
		cfg.Suggest.TrendingKey = "mitsukeru:trending"
	}

	if cfg.Rerank.Provider == "" {
		cfg.Rerank.Provider = "heuristic"
	}
	if cfg.Rerank.TimeoutMs == 0 {
		cfg.Rerank.TimeoutMs = int(rerank.DefaultTimeout / time.Millisecond)
	}
	if cfg.Rerank.OpenAI.Model == "" {
		cfg.Rerank.OpenAI.Model = "gpt-4o-mini"
	}
}
