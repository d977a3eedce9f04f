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

// EnvPrefix namespaces environment overrides, e.g. CONSORTIUM_TEAM_SIZE.
const EnvPrefix = "CONSORTIUM_"

// Load builds a Config by layering defaults, an optional YAML file, and
// environment variables. Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if path is non-empty
//  3. env (prefix CONSORTIUM_)
func Load(path string) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// CONSORTIUM_TEAM_SIZE -> team_size; underscores preserved to match
	// the koanf tags on the struct.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromEnv is Load with the file path taken from CONSORTIUM_CONFIG.
func LoadFromEnv() (*Config, error) {
	return Load(os.Getenv(EnvPrefix + "CONFIG"))
}

// Validate rejects out-of-domain values before they reach the engine.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return errors.New("addr must not be empty")
	case c.MinEvents < 1:
		return errors.New("min_events must be at least 1")
	case c.KMin < 3 || c.KMax < c.KMin:
		return errors.New("k_min/k_max must satisfy 3 <= k_min <= k_max")
	case c.TeamSize < 1:
		return errors.New("team_size must be at least 1")
	case c.TopK < c.TeamSize:
		return errors.New("top_k must be at least team_size")
	case c.GroupWeight < 0 || c.GroupWeight > 1:
		return errors.New("group_weight must be in [0, 1]")
	case c.LambdaDecay < 0 || c.LambdaDecay > 1:
		return errors.New("lambda_decay must be in [0, 1]")
	}
	return nil
}
