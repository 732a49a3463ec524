package errors

import "errors"

// Move errors are recoverable: the board and session state stay untouched
// and the error is reported to the submitting client only.
var (
	ErrOutOfBounds = errors.New("point is outside the board")
	ErrOccupied    = errors.New("point is already occupied")
	ErrSuicide     = errors.New("placement leaves the group without liberties")
	ErrKoViolation = errors.New("placement repeats a prior board position")
	ErrOutOfTurn   = errors.New("not this player's turn")
	ErrWrongPhase  = errors.New("action is not legal in the current game phase")
	ErrEmptyPoint  = errors.New("point holds no stone to mark")
)

// Session errors.
var (
	ErrSessionNotFound = errors.New("session was not found")
	ErrSessionFull     = errors.New("session has no open seat")
	ErrSessionTerminal = errors.New("session has already finished")
	ErrAuthRequired    = errors.New("a valid auth token is required")
	ErrNotSeated       = errors.New("connection holds no seat in this session")
)

// Persistence errors.
var (
	ErrWriteFailed    = errors.New("persistence write failed")
	ErrRecordNotFound = errors.New("record was not found")
	ErrUserNotFound   = errors.New("user with provided token was not found")
)
