package replay

import (
	"encoding/json"
	"fmt"

	"github.com/JaniM/variant-go-server/internal/domain/board"
	"github.com/JaniM/variant-go-server/internal/domain/game"
)

// Record is the durable form of a finished (or in-flight) game: the
// rule configuration plus every accepted move in application order.
// Replaying the moves on a fresh engine reproduces the exact state.
type Record struct {
	Config game.Config  `json:"config"`
	Moves  []game.Move  `json:"moves"`
	Result *game.Result `json:"result,omitempty"`
}

// FromEngine snapshots the engine's move log into a Record.
func FromEngine(e *game.Engine) Record {
	return Record{
		Config: e.Config(),
		Moves:  e.Moves(),
		Result: e.Result(),
	}
}

// Encode serializes the record for storage.
func Encode(r Record) ([]byte, error) {
	return json.Marshal(r)
}

// Decode parses a stored record.
func Decode(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("decode replay: %w", err)
	}
	return r, nil
}

// Rebuild replays the record on a fresh engine. Records are written by
// the engine itself, so a move failing to apply means the blob is
// corrupt.
func Rebuild(r Record) (*game.Engine, error) {
	e, err := game.NewEngine(r.Config)
	if err != nil {
		return nil, fmt.Errorf("rebuild replay: %w", err)
	}
	for _, m := range r.Moves {
		if _, err := e.Apply(m.Color, m.Kind, m.Point); err != nil {
			return nil, fmt.Errorf("rebuild replay: move %d: %w", m.Seq, err)
		}
	}
	return e, nil
}

// StateAt replays the first n moves and returns the board, for
// stepping through a finished game.
func StateAt(r Record, n int) (*board.Board, error) {
	if n < 0 || n > len(r.Moves) {
		return nil, fmt.Errorf("replay state: move %d out of range", n)
	}
	trimmed := Record{Config: r.Config, Moves: r.Moves[:n]}
	e, err := Rebuild(trimmed)
	if err != nil {
		return nil, err
	}
	return e.Board(), nil
}
