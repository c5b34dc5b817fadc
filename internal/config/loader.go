package config

import (
	"errors"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, an optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if MARKITIT_CONFIG is set
//  3. env (prefix MARKITIT_)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("MARKITIT_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// Environment variables: MARKITIT_PACE_MIN_MS, MARKITIT_POSTGRES_DSN, ...
	// Keys map to flat koanf tags; underscores are preserved.
	envProvider := env.Provider("MARKITIT_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "markitit_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if cfg.PaceMinMS < 0 || cfg.PaceMaxMS < cfg.PaceMinMS {
		return nil, errors.New("pacing bounds must satisfy 0 <= pace_min_ms <= pace_max_ms")
	}
	if cfg.HTTPTimeoutSec <= 0 {
		return nil, errors.New("http_timeout_sec must be positive")
	}
	for id, src := range cfg.Sources {
		if src.Adapter == "" {
			return nil, errors.New("source " + id + " is missing an adapter")
		}
		if src.URL == "" {
			return nil, errors.New("source " + id + " is missing a url")
		}
	}
	return &cfg, nil
}
