package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaniM/variant-go-server/internal/domain/board"
)

// Black walls off the left third of a 5x5 board with a stone column at
// x=1, White answers with a column at x=3.
//
//	. B . W .
//	. B . W .
//	. B . W .
//	. B . W .
//	. B . W .
func buildWalledBoard(t *testing.T, e *Engine) {
	t.Helper()
	for y := 0; y < 5; y++ {
		place(t, e, board.Black, 1, y)
		_, err := e.Apply(board.White, MovePlace, board.Point{X: 3, Y: y})
		require.NoError(t, err)
	}
}

func TestAreaScoreWithKomi(t *testing.T) {
	cfg := DefaultConfig(5)
	cfg.Komi = 6.5
	e := newTestEngine(t, cfg)
	buildWalledBoard(t, e)

	_, err := e.Apply(board.Black, MovePass, board.Point{})
	require.NoError(t, err)
	d, err := e.Apply(board.White, MovePass, board.Point{})
	require.NoError(t, err)
	require.Equal(t, PhaseScoring, e.Phase())
	require.NotNil(t, d.Score)

	// Black: 5 stones + 5 territory (x=0). White: 5 stones + 5
	// territory (x=4) + komi. The middle column touches both colors and
	// belongs to nobody.
	assert.Equal(t, 10.0, d.Score.Black)
	assert.Equal(t, 10.0+6.5, d.Score.White)
}

func TestTerritoryScoreCountsCaptures(t *testing.T) {
	cfg := DefaultConfig(5)
	cfg.Komi = 0.5
	cfg.Scoring = TerritoryScoring
	e := newTestEngine(t, cfg)
	buildWalledBoard(t, e)

	s := e.Score()
	assert.Equal(t, 5.0, s.Black)
	assert.Equal(t, 5.0+0.5, s.White)

	// White invades Black's side and gets captured; under territory
	// scoring the prisoner counts for Black.
	_, err := e.Apply(board.Black, MovePass, board.Point{})
	require.NoError(t, err)
	_, err = e.Apply(board.White, MovePlace, board.Point{X: 0, Y: 2})
	require.NoError(t, err)
	place(t, e, board.Black, 0, 1)
	_, err = e.Apply(board.White, MovePass, board.Point{})
	require.NoError(t, err)
	d := place(t, e, board.Black, 0, 3)
	require.Equal(t, []board.Point{{X: 0, Y: 2}}, d.Captures)
	require.Equal(t, 1, e.Captures(board.Black))

	// Black: territory (0,0), (0,2), (0,4) plus one capture.
	s = e.Score()
	assert.Equal(t, 4.0, s.Black)
	assert.Equal(t, 5.5, s.White)
}

func TestDeadStoneMarkingChangesScore(t *testing.T) {
	cfg := DefaultConfig(5)
	cfg.Komi = 0
	e := newTestEngine(t, cfg)
	buildWalledBoard(t, e)

	// A lone white stone deep in Black's territory.
	_, err := e.Apply(board.Black, MovePass, board.Point{})
	require.NoError(t, err)
	_, err = e.Apply(board.White, MovePlace, board.Point{X: 0, Y: 2})
	require.NoError(t, err)

	_, err = e.Apply(board.Black, MovePass, board.Point{})
	require.NoError(t, err)
	d, err := e.Apply(board.White, MovePass, board.Point{})
	require.NoError(t, err)
	require.Equal(t, PhaseScoring, e.Phase())

	// While the invader is treated as alive, the left side is contested.
	assert.Equal(t, 5.0, d.Score.Black)

	// Marking it dead returns the territory to Black.
	d, err = e.Apply(board.Black, MoveMarkDead, board.Point{X: 0, Y: 2})
	require.NoError(t, err)
	assert.Equal(t, 10.0, d.Score.Black)

	// Marking is a toggle.
	d, err = e.Apply(board.Black, MoveMarkDead, board.Point{X: 0, Y: 2})
	require.NoError(t, err)
	assert.Equal(t, 5.0, d.Score.Black)
}

func TestScoredTerminalResult(t *testing.T) {
	cfg := DefaultConfig(5)
	cfg.Komi = 0.5
	e := newTestEngine(t, cfg)
	buildWalledBoard(t, e)

	_, err := e.Apply(board.Black, MovePass, board.Point{})
	require.NoError(t, err)
	_, err = e.Apply(board.White, MovePass, board.Point{})
	require.NoError(t, err)
	_, err = e.Apply(board.Black, MoveAccept, board.Point{})
	require.NoError(t, err)
	_, err = e.Apply(board.White, MoveAccept, board.Point{})
	require.NoError(t, err)

	res := e.Result()
	require.NotNil(t, res)
	assert.Equal(t, board.White, res.Winner) // komi decides a mirrored board
	assert.Equal(t, 10.0, res.ScoreBlack)
	assert.Equal(t, 10.5, res.ScoreWhite)
	assert.False(t, res.Resigned)
}
