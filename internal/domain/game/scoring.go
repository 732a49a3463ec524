package game

import (
	"github.com/JaniM/variant-go-server/internal/domain/board"
)

// Score is deterministic given the final board, the dead-stone marks and
// the config. White receives the komi.
type Score struct {
	Black float64 `json:"black"`
	White float64 `json:"white"`
}

// Score computes the current score under the configured method. Stones
// marked dead are lifted off the board before territory is counted; under
// territory scoring they also count as captures for the opponent.
func (e *Engine) Score() Score {
	live := e.board.Clone()
	deadBy := map[board.Color]int{}
	for y := 0; y < live.Height; y++ {
		for x := 0; x < live.Width; x++ {
			p := board.Point{X: x, Y: y}
			if e.dead[p] && live.At(p) != board.Empty {
				deadBy[live.At(p)]++
				live.Clear(p)
			}
		}
	}

	terr := territories(live)

	var s Score
	switch e.cfg.Scoring {
	case TerritoryScoring:
		s.Black = float64(terr[board.Black] + e.captures[board.Black] + deadBy[board.White])
		s.White = float64(terr[board.White] + e.captures[board.White] + deadBy[board.Black])
	default: // area
		s.Black = float64(live.Stones(board.Black) + terr[board.Black])
		s.White = float64(live.Stones(board.White) + terr[board.White])
	}
	s.White += e.cfg.Komi
	return s
}

// territories flood-fills the empty regions of the board and credits each
// region bordered by exactly one color to that color.
func territories(b *board.Board) map[board.Color]int {
	terr := map[board.Color]int{}
	visited := map[board.Point]bool{}

	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			start := board.Point{X: x, Y: y}
			if b.At(start) != board.Empty || visited[start] {
				continue
			}

			owner := board.Empty
			contested := false
			size := 0
			stack := []board.Point{start}
			visited[start] = true
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				size++
				for _, n := range b.Neighbors(p) {
					switch c := b.At(n); c {
					case board.Empty:
						if !visited[n] {
							visited[n] = true
							stack = append(stack, n)
						}
					default:
						if owner == board.Empty {
							owner = c
						} else if owner != c {
							contested = true
						}
					}
				}
			}

			if owner != board.Empty && !contested {
				terr[owner] += size
			}
		}
	}
	return terr
}
