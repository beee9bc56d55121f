package config

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/knadh/koanf/maps"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix     = "RANKPOINTS_"
	envConfigPath = envPrefix + "CONFIG"
	// envNesting separates nested keys in env names, e.g.
	// RANKPOINTS_TVA__RATING__MAX_VALUE -> tva.rating.max_value.
	envNesting    = "__"
	breakpointKey = "decay.breakpoints"
)

// mapProvider feeds an in-memory override map to koanf. Keys may be nested
// maps or dotted paths.
type mapProvider map[string]any

func (p mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("%w: map provider does not support ReadBytes", ErrLoadConfig)
}

func (p mapProvider) Read() (map[string]any, error) {
	// koanf rewrites nested keys in place; never hand it the caller's map.
	return maps.Unflatten(maps.Copy(p), "."), nil
}

// Merge deep-merges partial overrides onto a copy of c. Leaves absent from
// overrides keep their current value. Lists, such as decay breakpoints,
// are replaced wholesale.
func (c *Config) Merge(overrides map[string]any) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(mapProvider(overrides), nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	return c.apply(k)
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New)
//  2. file (YAML) if RANKPOINTS_CONFIG is set
//  3. env (prefix RANKPOINTS_, "__" between nested keys)
func Load(_ context.Context) (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(envConfigPath); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
		if s == "config" {
			return ""
		}
		return strings.ReplaceAll(s, envNesting, ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	return New().apply(k)
}

// apply unmarshals the koanf tree onto a clone of c and validates the result.
func (c *Config) apply(k *koanf.Koanf) (*Config, error) {
	out := c.Clone()
	if k.Exists(breakpointKey) {
		// mapstructure would overwrite in place and keep surplus defaults
		out.Decay.Breakpoints = nil
	}
	if err := k.UnmarshalWithConf("", out, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	switch {
	case c.BaseValue.PointsPerPlayer < 0 || c.BaseValue.MaxValue < 0:
		return fmt.Errorf("%w: base_value must not be negative", ErrInvalidConfig)
	case c.TVA.MaxPlayersConsidered < 0:
		return fmt.Errorf("%w: tva.max_players_considered must not be negative", ErrInvalidConfig)
	case c.TVA.Rating.MaxValue < 0 || c.TVA.Ranking.MaxValue < 0:
		return fmt.Errorf("%w: tva caps must not be negative", ErrInvalidConfig)
	case c.TGP.PercentPerGame < 0 || c.TGP.MaxValue < 0 || c.TGP.FourPlayerMultiplier < 0:
		return fmt.Errorf("%w: tgp settings must not be negative", ErrInvalidConfig)
	case c.Distribution.LinearFraction < 0 || c.Distribution.LinearFraction > 1:
		return fmt.Errorf("%w: distribution.linear_fraction must be within [0,1]", ErrInvalidConfig)
	case c.Distribution.DynamicExponent <= 0:
		return fmt.Errorf("%w: distribution.dynamic_exponent must be positive", ErrInvalidConfig)
	case len(c.Decay.Breakpoints) == 0:
		return fmt.Errorf("%w: must not be empty", ErrInvalidBreakpoints)
	case c.Decay.DaysPerYear <= 0:
		return fmt.Errorf("%w: decay.days_per_year must be positive", ErrInvalidConfig)
	case c.Rating.MinDeviation <= 0 || c.Rating.MinDeviation > c.Rating.MaxDeviation:
		return fmt.Errorf("%w: rating.min_rd must be positive and not exceed rating.max_rd", ErrInvalidConfig)
	case c.Rating.DeviationPerDay < 0:
		return fmt.Errorf("%w: rating.rd_increase_per_day must not be negative", ErrInvalidConfig)
	case c.Ranking.CountedEvents < 1:
		return fmt.Errorf("%w: ranking.counted_events must be at least 1", ErrInvalidConfig)
	}

	if !sort.SliceIsSorted(c.Decay.Breakpoints, func(i, j int) bool {
		return c.Decay.Breakpoints[i].Years < c.Decay.Breakpoints[j].Years
	}) {
		return fmt.Errorf("%w: must be ordered by years", ErrInvalidBreakpoints)
	}
	for i := 1; i < len(c.Decay.Breakpoints); i++ {
		if c.Decay.Breakpoints[i].Years == c.Decay.Breakpoints[i-1].Years {
			return fmt.Errorf("%w: years must be unique", ErrInvalidBreakpoints)
		}
	}
	return nil
}
