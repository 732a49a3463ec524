package replay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaniM/variant-go-server/internal/domain/board"
	"github.com/JaniM/variant-go-server/internal/domain/game"
)

func playedOutGame(t *testing.T) *game.Engine {
	t.Helper()
	e, err := game.NewEngine(game.DefaultConfig(5))
	require.NoError(t, err)

	steps := []struct {
		c board.Color
		k game.MoveKind
		p board.Point
	}{
		{board.Black, game.MovePlace, board.Point{X: 2, Y: 2}},
		{board.White, game.MovePlace, board.Point{X: 1, Y: 1}},
		{board.Black, game.MovePass, board.Point{}},
		{board.White, game.MovePass, board.Point{}},
		{board.Black, game.MoveAccept, board.Point{}},
		{board.White, game.MoveAccept, board.Point{}},
	}
	for _, s := range steps {
		_, err := e.Apply(s.c, s.k, s.p)
		require.NoError(t, err)
	}
	require.Equal(t, game.PhaseDone, e.Phase())
	return e
}

func TestRecordRoundTrip(t *testing.T) {
	e := playedOutGame(t)
	rec := FromEngine(e)

	data, err := Encode(rec)
	require.NoError(t, err)
	decoded, err := Decode(data)
	require.NoError(t, err)

	rebuilt, err := Rebuild(decoded)
	require.NoError(t, err)

	assert.True(t, e.Board().Equal(rebuilt.Board()))
	assert.Equal(t, e.Phase(), rebuilt.Phase())
	assert.Equal(t, e.MoveCount(), rebuilt.MoveCount())
	require.NotNil(t, rebuilt.Result())
	assert.Equal(t, e.Result().Winner, rebuilt.Result().Winner)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("not json"))
	require.Error(t, err)
}

func TestRebuildRejectsCorruptLog(t *testing.T) {
	rec := Record{
		Config: game.DefaultConfig(5),
		Moves: []game.Move{
			{Seq: 1, Color: board.White, Kind: game.MovePlace, Point: board.Point{X: 0, Y: 0}},
		},
	}
	_, err := Rebuild(rec)
	require.Error(t, err)
}

func TestStateAt(t *testing.T) {
	e := playedOutGame(t)
	rec := FromEngine(e)
	rec.Result = nil

	b, err := StateAt(rec, 1)
	require.NoError(t, err)
	assert.Equal(t, board.Black, b.At(board.Point{X: 2, Y: 2}))
	assert.Equal(t, board.Empty, b.At(board.Point{X: 1, Y: 1}))

	_, err = StateAt(rec, len(rec.Moves)+1)
	require.Error(t, err)
}

func TestExportSGF(t *testing.T) {
	e := playedOutGame(t)
	rec := FromEngine(e)

	out := ExportSGF(rec, SGFMeta{
		Black: "alice",
		White: "bob",
		Date:  time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
	})

	assert.Contains(t, out, "FF[4]GM[1]SZ[5]")
	assert.Contains(t, out, "PB[alice]")
	assert.Contains(t, out, "PW[bob]")
	assert.Contains(t, out, "DT[2025-03-14]")
	assert.Contains(t, out, "RE[W+6.5]")
	assert.Contains(t, out, ";B[cc];W[bb];B[];W[]")
	// Scoring negotiation never shows up as moves.
	assert.NotContains(t, out, "accept")
}

func TestExportSGFRectangular(t *testing.T) {
	cfg := game.DefaultConfig(5)
	cfg.Width = 7
	e, err := game.NewEngine(cfg)
	require.NoError(t, err)
	_, err = e.Apply(board.Black, game.MoveResign, board.Point{})
	require.NoError(t, err)

	out := ExportSGF(FromEngine(e), SGFMeta{})
	assert.Contains(t, out, "SZ[7:5]")
	assert.Contains(t, out, "RE[W+R]")
}
