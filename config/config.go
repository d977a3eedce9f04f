// Package config defines process configuration and its loading hooks.
//
// Conventions:
// - New() returns the documented defaults.
// - Load layers defaults, an optional YAML file, and CONSORTIUM_* env
//   overrides, in that precedence order.
// - The loaded Config converts into engine.Params exactly once, at the
//   process entry point; nothing inside the core reads configuration.
package config

import (
	"github.com/shopspring/decimal"

	"github.com/warp/consortium-engine/engine"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address for serve mode.
	Addr string `koanf:"addr"`

	// DBPath is the SQLite result-store path. ":memory:" for ephemeral.
	DBPath string `koanf:"db_path"`

	// MinEvents is the support threshold for a baseline tier.
	MinEvents int `koanf:"min_events"`

	// KMin and KMax bound group-synergy arity.
	KMin int `koanf:"k_min"`
	KMax int `koanf:"k_max"`

	// WindowDays is the trailing Mint window for project weights.
	WindowDays int `koanf:"window_days"`

	// TeamSize is the consortium size the optimizer must return.
	TeamSize int `koanf:"team_size"`

	// TopK caps the optimizer's candidate pool.
	TopK int `koanf:"top_k"`

	// GroupWeight blends group vs pairwise synergy in the team score.
	GroupWeight float64 `koanf:"group_weight"`

	// LambdaDecay controls indirect-contribution decay per hop.
	LambdaDecay float64 `koanf:"lambda_decay"`

	// RoleThresholds overrides per-role qualification thresholds.
	RoleThresholds map[string]float64 `koanf:"role_thresholds"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:    "info",
		Addr:        ":8080",
		DBPath:      "consortium.db",
		MinEvents:   2,
		KMin:        3,
		KMax:        4,
		WindowDays:  28,
		TeamSize:    4,
		TopK:        12,
		GroupWeight: 0.5,
		LambdaDecay: 0.5,
	}
}

// EngineParams converts the configuration into engine parameters.
func (c *Config) EngineParams() engine.Params {
	p := engine.Params{
		MinEvents: c.MinEvents,
		Synergy: engine.SynergyParams{
			KMin:       c.KMin,
			KMax:       c.KMax,
			WindowDays: c.WindowDays,
		},
		Consortium: engine.ConsortiumParams{
			TeamSize:    c.TeamSize,
			TopK:        c.TopK,
			GroupWeight: decimal.NewFromFloat(c.GroupWeight),
			KMin:        c.KMin,
			KMax:        c.KMax,
		},
		LambdaDecay: decimal.NewFromFloat(c.LambdaDecay),
	}
	if len(c.RoleThresholds) > 0 {
		thresholds := engine.DefaultRoleThresholds()
		for name, v := range c.RoleThresholds {
			thresholds[engine.Role(name)] = decimal.NewFromFloat(v)
		}
		p.RoleThresholds = thresholds
	}
	return p
}
