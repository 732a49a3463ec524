package game

import "fmt"

// KoRule selects the repetition horizon for ko checks.
type KoRule string

const (
	// SimpleKo forbids recreating only the immediately preceding position.
	SimpleKo KoRule = "simple"
	// Superko forbids recreating any prior position of the game.
	Superko KoRule = "superko"
)

// ScoringMethod selects how the final score is computed.
type ScoringMethod string

const (
	// AreaScoring counts living stones plus enclosed territory.
	AreaScoring ScoringMethod = "area"
	// TerritoryScoring counts enclosed territory plus captures.
	TerritoryScoring ScoringMethod = "territory"
)

// Config is fixed at session creation and immutable thereafter. Variant
// behavior is a closed set of flags dispatched on by the engine, so the
// rule surface stays exhaustively testable.
type Config struct {
	Width        int           `json:"width" bson:"width"`
	Height       int           `json:"height" bson:"height"`
	Komi         float64       `json:"komi" bson:"komi"`
	Ko           KoRule        `json:"ko" bson:"ko"`
	Scoring      ScoringMethod `json:"scoring" bson:"scoring"`
	AllowSuicide bool          `json:"allow_suicide" bson:"allow_suicide"`
	Toroidal     bool          `json:"toroidal" bson:"toroidal"`
	Clock        *ClockRule    `json:"clock,omitempty" bson:"clock,omitempty"`
}

// DefaultConfig is a standard untimed game on a square board.
func DefaultConfig(size int) Config {
	return Config{
		Width:   size,
		Height:  size,
		Komi:    6.5,
		Ko:      Superko,
		Scoring: AreaScoring,
	}
}

func (c Config) Validate() error {
	if c.Width < 2 || c.Height < 2 {
		return fmt.Errorf("board %dx%d is too small", c.Width, c.Height)
	}
	if c.Width > 25 || c.Height > 25 {
		return fmt.Errorf("board %dx%d is too large", c.Width, c.Height)
	}
	switch c.Ko {
	case SimpleKo, Superko:
	default:
		return fmt.Errorf("unknown ko rule %q", c.Ko)
	}
	switch c.Scoring {
	case AreaScoring, TerritoryScoring:
	default:
		return fmt.Errorf("unknown scoring method %q", c.Scoring)
	}
	if c.Clock != nil {
		if err := c.Clock.Validate(); err != nil {
			return err
		}
	}
	return nil
}
