// Package config holds every tunable constant of the ranking engine.
//
// Conventions:
//   - New returns compiled-in defaults; there is no process-global instance.
//     Callers construct a Config and hand it to each calculator.
//   - Merge deep-merges partial overrides onto a copy, leaving the receiver untouched.
//   - Load layers defaults, an optional YAML file and RANKPOINTS_ env vars.
package config

// Config contains engine configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// WorkerCount bounds the batch pool used for bulk recalculation.
	WorkerCount int `koanf:"worker_count"`

	BaseValue    BaseValue    `koanf:"base_value"`
	TVA          TVA          `koanf:"tva"`
	TGP          TGP          `koanf:"tgp"`
	Booster      Booster      `koanf:"booster"`
	Distribution Distribution `koanf:"distribution"`
	Decay        Decay        `koanf:"decay"`
	Rating       Rating       `koanf:"rating"`
	Ranking      Ranking      `koanf:"ranking"`
}

// BaseValue scales the rated field size into points.
type BaseValue struct {
	PointsPerPlayer float64 `koanf:"points_per_player"`
	MaxValue        float64 `koanf:"max_value"`
}

// TVA groups the field-strength bonuses.
type TVA struct {
	// MaxPlayersConsidered caps how many participants each TVA source sums over.
	MaxPlayersConsidered int        `koanf:"max_players_considered"`
	Rating               RatingTVA  `koanf:"rating"`
	Ranking              RankingTVA `koanf:"ranking"`
}

// RatingTVA is linear in rating: max(0, rating*Coefficient - Offset).
type RatingTVA struct {
	Coefficient float64 `koanf:"coefficient"`
	Offset      float64 `koanf:"offset"`
	MaxValue    float64 `koanf:"max_value"`
}

// MinEffectiveRating is the rating at which a player starts contributing.
// Only ratings strictly above it add value.
func (r RatingTVA) MinEffectiveRating() float64 {
	if r.Coefficient == 0 {
		return 0
	}
	return r.Offset / r.Coefficient
}

// RankingTVA is logarithmic in world ranking: max(0, ln(ranking)*Coefficient + Offset).
// Coefficient is negative so better (lower) rankings contribute more.
type RankingTVA struct {
	Coefficient float64 `koanf:"coefficient"`
	Offset      float64 `koanf:"offset"`
	MaxValue    float64 `koanf:"max_value"`
}

// TGP configures the tournament game percentage.
type TGP struct {
	PercentPerGame       float64 `koanf:"percent_per_game"`
	FourPlayerMultiplier float64 `koanf:"four_player_multiplier"`
	MaxValue             float64 `koanf:"max_value"`
}

// Booster maps each event booster tier to its multiplier.
type Booster struct {
	None               float64 `koanf:"none"`
	Certified          float64 `koanf:"certified"`
	CertifiedPlus      float64 `koanf:"certified_plus"`
	ChampionshipSeries float64 `koanf:"championship_series"`
	Major              float64 `koanf:"major"`
}

// Distribution shapes the points curve.
type Distribution struct {
	// LinearFraction of the first-place value is granted to every finisher.
	LinearFraction float64 `koanf:"linear_fraction"`
	// DynamicExponent bends the position curve; higher is more top-heavy.
	DynamicExponent float64 `koanf:"dynamic_exponent"`
}

// Breakpoint applies Multiplier to events younger than Years.
type Breakpoint struct {
	Years      float64 `koanf:"years"`
	Multiplier float64 `koanf:"multiplier"`
}

// Decay holds age breakpoints in ascending order of Years.
type Decay struct {
	Breakpoints []Breakpoint `koanf:"breakpoints"`
	// Floor applies past the last breakpoint.
	Floor float64 `koanf:"floor"`
	// DaysPerYear converts whole days of age into years.
	DaysPerYear float64 `koanf:"days_per_year"`
}

// Rating configures the Glicko rating system.
type Rating struct {
	DefaultValue         float64 `koanf:"default_value"`
	MaxDeviation         float64 `koanf:"max_rd"`
	MinDeviation         float64 `koanf:"min_rd"`
	DeviationPerDay      float64 `koanf:"rd_increase_per_day"`
	ProvisionalThreshold int     `koanf:"provisional_threshold"`
	// OpponentsRange limits simulated matches to this many positions either
	// side; zero or less means every other finisher.
	OpponentsRange int `koanf:"opponents_range"`
}

// Ranking configures the participant ranking table.
type Ranking struct {
	// CountedEvents is how many of a participant's best decayed results count.
	CountedEvents int `koanf:"counted_events"`
}

// New returns the compiled-in defaults. Calling it again is the equivalent
// of a reset.
func New() *Config {
	return &Config{
		LogLevel:    "info",
		WorkerCount: 4,
		BaseValue: BaseValue{
			PointsPerPlayer: 0.5,
			MaxValue:        32,
		},
		TVA: TVA{
			MaxPlayersConsidered: 64,
			Rating: RatingTVA{
				Coefficient: 0.000546875,
				Offset:      0.703125,
				MaxValue:    25,
			},
			Ranking: RankingTVA{
				Coefficient: -0.211675054,
				Offset:      1.459827968,
				MaxValue:    50,
			},
		},
		TGP: TGP{
			PercentPerGame:       0.04,
			FourPlayerMultiplier: 2,
			MaxValue:             2.0,
		},
		Booster: Booster{
			None:               1.0,
			Certified:          1.25,
			CertifiedPlus:      1.5,
			ChampionshipSeries: 1.5,
			Major:              2.0,
		},
		Distribution: Distribution{
			LinearFraction:  0.1,
			DynamicExponent: 3,
		},
		Decay: Decay{
			Breakpoints: []Breakpoint{
				{Years: 1, Multiplier: 1.0},
				{Years: 2, Multiplier: 0.75},
				{Years: 3, Multiplier: 0.5},
			},
			Floor:       0,
			DaysPerYear: 365,
		},
		Rating: Rating{
			DefaultValue:         1500,
			MaxDeviation:         350,
			MinDeviation:         30,
			DeviationPerDay:      0.5,
			ProvisionalThreshold: 5,
			OpponentsRange:       0,
		},
		Ranking: Ranking{
			CountedEvents: 15,
		},
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Decay.Breakpoints = append([]Breakpoint(nil), c.Decay.Breakpoints...)
	return &out
}
