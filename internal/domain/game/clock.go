package game

import (
	"fmt"
	"time"
)

// ClockKind selects the time rule.
type ClockKind string

const (
	// ClockSimple gives the player exactly Main per turn.
	ClockSimple ClockKind = "simple"
	// ClockFischer adds Increment to the player's clock after each move.
	ClockFischer ClockKind = "fischer"
)

type ClockRule struct {
	Kind      ClockKind     `json:"kind" bson:"kind"`
	Main      time.Duration `json:"main" bson:"main"`
	Increment time.Duration `json:"increment,omitempty" bson:"increment,omitempty"`
}

func (r ClockRule) Validate() error {
	switch r.Kind {
	case ClockSimple, ClockFischer:
	default:
		return fmt.Errorf("unknown clock kind %q", r.Kind)
	}
	if r.Main <= 0 {
		return fmt.Errorf("clock main time must be positive")
	}
	return nil
}

// PlayerClock tracks one seat's remaining time.
type PlayerClock struct {
	Remaining time.Duration `json:"remaining"`
	lastTime  time.Time
}

// GameClock keeps one clock per seat. Indexing is up to the caller; the
// engine uses color-1.
type GameClock struct {
	Clocks []PlayerClock `json:"clocks"`
	Rule   ClockRule     `json:"rule"`
	paused bool
}

func NewGameClock(rule ClockRule, seats int) *GameClock {
	clocks := make([]PlayerClock, seats)
	for i := range clocks {
		clocks[i].Remaining = rule.Main
	}
	return &GameClock{Clocks: clocks, Rule: rule, paused: true}
}

// Start unpauses the clock and stamps every seat with now. Called when
// the first move of the game is about to be made.
func (g *GameClock) Start(now time.Time) {
	g.paused = false
	for i := range g.Clocks {
		g.Clocks[i].lastTime = now
	}
}

// Advance charges the elapsed time to the given seat and returns its
// remaining time. A non-positive result means the flag has fallen.
func (g *GameClock) Advance(idx int, now time.Time) time.Duration {
	if g.paused {
		return g.Clocks[idx].Remaining
	}
	c := &g.Clocks[idx]
	c.Remaining -= now.Sub(c.lastTime)
	c.lastTime = now
	return c.Remaining
}

// EndTurn credits the mover per the rule and restamps all seats.
func (g *GameClock) EndTurn(idx int, now time.Time) {
	if g.paused {
		return
	}
	c := &g.Clocks[idx]
	switch g.Rule.Kind {
	case ClockSimple:
		c.Remaining = g.Rule.Main
	case ClockFischer:
		c.Remaining += g.Rule.Increment
	}
	for i := range g.Clocks {
		g.Clocks[i].lastTime = now
	}
}

func (g *GameClock) Pause(paused bool) {
	g.paused = paused
}

// Running reports whether the clock has been started and not paused.
func (g *GameClock) Running() bool {
	return !g.paused
}
