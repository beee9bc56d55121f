package model

import (
	"fmt"
	"strings"
	"time"
)

// EventBooster is the prestige tier of an event.
type EventBooster int

// Event booster tiers, weakest first.
const (
	BoosterNone EventBooster = iota
	BoosterCertified
	BoosterCertifiedPlus
	BoosterChampionshipSeries
	BoosterMajor
)

var boosterNames = [...]string{"none", "certified", "certified-plus", "championship-series", "major"}

func (b EventBooster) String() string {
	if b < 0 || int(b) >= len(boosterNames) {
		return fmt.Sprintf("booster(%d)", int(b))
	}
	return boosterNames[b]
}

// ParseEventBooster parses the canonical booster name.
func ParseEventBooster(s string) (EventBooster, error) {
	n := normalize(s)
	if n == "" {
		return BoosterNone, nil
	}
	for i, name := range boosterNames {
		if name == n {
			return EventBooster(i), nil
		}
	}
	return BoosterNone, fmt.Errorf("%w: booster %q", ErrUnknownValue, s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *EventBooster) UnmarshalText(text []byte) error {
	v, err := ParseEventBooster(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// QualifyingType describes how the qualifying stage is run.
type QualifyingType int

// Qualifying types.
const (
	QualifyingNone QualifyingType = iota
	QualifyingLimited
)

var qualifyingNames = [...]string{"none", "limited"}

func (q QualifyingType) String() string {
	if q < 0 || int(q) >= len(qualifyingNames) {
		return fmt.Sprintf("qualifying(%d)", int(q))
	}
	return qualifyingNames[q]
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (q *QualifyingType) UnmarshalText(text []byte) error {
	n := normalize(string(text))
	for i, name := range qualifyingNames {
		if name == n {
			*q = QualifyingType(i)
			return nil
		}
	}
	return fmt.Errorf("%w: qualifying type %q", ErrUnknownValue, string(text))
}

// FinalsFormat is the closed set of finals formats.
type FinalsFormat int

// Finals formats.
const (
	FinalsNone FinalsFormat = iota
	FinalsSingleElimination
	FinalsDoubleElimination
	FinalsMatchPlay
	FinalsBestGame
	FinalsCardQualifying
	FinalsPinGolf
	FinalsFlipFrenzy
	FinalsStrikeFormat
	FinalsHybrid
)

var finalsNames = [...]string{
	"none",
	"single-elimination",
	"double-elimination",
	"match-play",
	"best-game",
	"card-qualifying",
	"pin-golf",
	"flip-frenzy",
	"strike-format",
	"hybrid",
}

func (f FinalsFormat) String() string {
	if f < 0 || int(f) >= len(finalsNames) {
		return fmt.Sprintf("finals(%d)", int(f))
	}
	return finalsNames[f]
}

// ParseFinalsFormat parses the canonical finals format name.
func ParseFinalsFormat(s string) (FinalsFormat, error) {
	n := normalize(s)
	if n == "" {
		return FinalsNone, nil
	}
	for i, name := range finalsNames {
		if name == n {
			return FinalsFormat(i), nil
		}
	}
	return FinalsNone, fmt.Errorf("%w: finals format %q", ErrUnknownValue, s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *FinalsFormat) UnmarshalText(text []byte) error {
	v, err := ParseFinalsFormat(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// QualifyingConfig describes the qualifying stage.
type QualifyingConfig struct {
	Type             QualifyingType `yaml:"type"`
	MeaningfulGames  float64        `yaml:"meaningful_games"`
	FourPlayerGroups bool           `yaml:"four_player_groups"`
}

// FinalsConfig describes the finals stage.
type FinalsConfig struct {
	FormatType       FinalsFormat `yaml:"format_type"`
	MeaningfulGames  float64      `yaml:"meaningful_games"`
	FourPlayerGroups bool         `yaml:"four_player_groups"`
	FinalistCount    int          `yaml:"finalist_count"`
}

// FormatConfig is the TGP descriptor of a tournament.
type FormatConfig struct {
	Qualifying QualifyingConfig `yaml:"qualifying"`
	Finals     FinalsConfig     `yaml:"finals"`
}

// Tournament groups the inputs needed to value and score one event.
type Tournament struct {
	ID      string       `yaml:"id"`
	Name    string       `yaml:"name"`
	Date    time.Time    `yaml:"date"`
	Format  FormatConfig `yaml:"format"`
	Booster EventBooster `yaml:"booster"`
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("_", "-", " ", "-").Replace(s)
}
