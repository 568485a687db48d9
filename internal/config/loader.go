package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if GGLOOP_CONFIG is set
//  3. env (prefix GGLOOP_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("GGLOOP_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// GGLOOP_ADDR -> addr, GGLOOP_POLICY.BASE_POINTS is not expressible
	// in env; nested policy keys use GGLOOP_POLICY__BASE_POINTS.
	envProvider := env.Provider("GGLOOP_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "ggloop_")
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	switch {
	case cfg.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case cfg.OracleTimeoutMS <= 0:
		return fmt.Errorf("%w: oracle_timeout_ms must be positive", ErrInvalidConfig)
	case cfg.Policy.MinActivePlaySeconds <= 0:
		return fmt.Errorf("%w: policy.min_active_play_seconds must be positive", ErrInvalidConfig)
	case cfg.Policy.Version == "":
		return fmt.Errorf("%w: policy.version must not be empty", ErrInvalidConfig)
	}
	return nil
}
