package game

import (
	"github.com/JaniM/variant-go-server/internal/domain/board"
)

// MoveKind tags the move variant.
type MoveKind string

const (
	MovePlace  MoveKind = "place"
	MovePass   MoveKind = "pass"
	MoveResign MoveKind = "resign"

	// Scoring-phase actions. MarkDead toggles the life of the touched
	// group, Accept agrees with the current marks, Cancel resumes play.
	MoveMarkDead MoveKind = "mark_dead"
	MoveAccept   MoveKind = "accept_score"
	MoveCancel   MoveKind = "cancel_score"
)

// Move is immutable once recorded. Seq is assigned by the engine in
// application order, starting from 1.
type Move struct {
	Seq   int         `json:"seq"`
	Color board.Color `json:"color"`
	Kind  MoveKind    `json:"kind"`
	Point board.Point `json:"point,omitempty"`
}

// Delta describes one accepted move to broadcast to clients.
type Delta struct {
	Move     Move          `json:"move"`
	Captures []board.Point `json:"captures,omitempty"`
	NextTurn board.Color   `json:"next_turn"`
	Phase    Phase         `json:"phase"`
	Score    *Score        `json:"score,omitempty"`
}
