package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockRuleValidate(t *testing.T) {
	require.Error(t, ClockRule{Kind: "none", Main: time.Minute}.Validate())
	require.Error(t, ClockRule{Kind: ClockSimple, Main: 0}.Validate())
	require.NoError(t, ClockRule{Kind: ClockFischer, Main: time.Minute, Increment: 5 * time.Second}.Validate())
}

func TestSimpleClockResetsEachTurn(t *testing.T) {
	rule := ClockRule{Kind: ClockSimple, Main: 30 * time.Second}
	c := NewGameClock(rule, 2)

	t0 := time.Unix(1000, 0)
	c.Start(t0)

	// Seat 0 thinks for 10s.
	left := c.Advance(0, t0.Add(10*time.Second))
	assert.Equal(t, 20*time.Second, left)
	c.EndTurn(0, t0.Add(10*time.Second))

	// Simple time: the seat is back to full main time.
	assert.Equal(t, 30*time.Second, c.Clocks[0].Remaining)

	// Seat 1's clock only starts charging from the end of seat 0's turn.
	left = c.Advance(1, t0.Add(25*time.Second))
	assert.Equal(t, 15*time.Second, left)
}

func TestFischerClockIncrements(t *testing.T) {
	rule := ClockRule{Kind: ClockFischer, Main: time.Minute, Increment: 10 * time.Second}
	c := NewGameClock(rule, 2)

	t0 := time.Unix(2000, 0)
	c.Start(t0)

	left := c.Advance(0, t0.Add(15*time.Second))
	assert.Equal(t, 45*time.Second, left)
	c.EndTurn(0, t0.Add(15*time.Second))
	assert.Equal(t, 55*time.Second, c.Clocks[0].Remaining)
}

func TestRepeatedAdvanceChargesElapsedOnce(t *testing.T) {
	rule := ClockRule{Kind: ClockSimple, Main: 10 * time.Second}
	c := NewGameClock(rule, 2)

	t0 := time.Unix(5000, 0)
	c.Start(t0)

	// Each call charges only the time since the previous call, so a
	// 10s clock polled at 4s, 8s and 9s is still running.
	assert.Equal(t, 6*time.Second, c.Advance(0, t0.Add(4*time.Second)))
	assert.Equal(t, 2*time.Second, c.Advance(0, t0.Add(8*time.Second)))
	assert.Equal(t, 1*time.Second, c.Advance(0, t0.Add(9*time.Second)))
}

func TestClockExpiry(t *testing.T) {
	rule := ClockRule{Kind: ClockFischer, Main: 5 * time.Second}
	c := NewGameClock(rule, 2)

	t0 := time.Unix(3000, 0)
	c.Start(t0)

	left := c.Advance(0, t0.Add(6*time.Second))
	assert.LessOrEqual(t, left, time.Duration(0))
}

func TestPausedClockDoesNotCharge(t *testing.T) {
	rule := ClockRule{Kind: ClockSimple, Main: 30 * time.Second}
	c := NewGameClock(rule, 2)

	// Never started: advancing charges nothing.
	left := c.Advance(0, time.Unix(4000, 0))
	assert.Equal(t, 30*time.Second, left)
}
