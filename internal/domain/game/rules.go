package game

import (
	"github.com/JaniM/variant-go-server/internal/domain/board"
	errs "github.com/JaniM/variant-go-server/internal/errors"
)

// Phase of a game. Placement runs in PhasePlaying, dead-stone negotiation
// in PhaseScoring, and PhaseDone is terminal.
type Phase string

const (
	PhasePlaying Phase = "playing"
	PhaseScoring Phase = "scoring"
	PhaseDone    Phase = "done"
)

// Result of a finished game. Winner is Empty on a drawn score.
type Result struct {
	Winner     board.Color `json:"winner"`
	Resigned   bool        `json:"resigned"`
	ScoreBlack float64     `json:"score_black"`
	ScoreWhite float64     `json:"score_white"`
}

// One entry per accepted placement, newest last. Entry zero is the empty
// board, so ko checks can compare against every position of the game.
type position struct {
	hash  uint64
	board *board.Board
}

// Engine is the authoritative rules state machine for one game. It owns
// its Board exclusively; callers serialize access (the session holds a
// mutex around it). Rejected moves never mutate any engine state.
type Engine struct {
	cfg    Config
	board  *board.Board
	turn   board.Color
	passes int
	phase  Phase
	moves  []Move

	history      []position
	captures     map[board.Color]int
	captureTotal int

	dead     map[board.Point]bool
	accepted map[board.Color]bool
	result   *Result
}

func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b := board.New(cfg.Width, cfg.Height, cfg.Toroidal)
	return &Engine{
		cfg:      cfg,
		board:    b,
		turn:     board.Black,
		phase:    PhasePlaying,
		history:  []position{{hash: b.Hash(), board: b.Clone()}},
		captures: map[board.Color]int{},
		dead:     map[board.Point]bool{},
		accepted: map[board.Color]bool{},
	}, nil
}

func (e *Engine) Config() Config      { return e.cfg }
func (e *Engine) Board() *board.Board { return e.board }
func (e *Engine) Turn() board.Color   { return e.turn }
func (e *Engine) Phase() Phase        { return e.phase }
func (e *Engine) Result() *Result     { return e.result }
func (e *Engine) MoveCount() int      { return len(e.moves) }
func (e *Engine) Captures(c board.Color) int {
	return e.captures[c]
}

// Moves returns a copy of the accepted move log in application order.
func (e *Engine) Moves() []Move {
	out := make([]Move, len(e.moves))
	copy(out, e.moves)
	return out
}

// Apply validates and applies one move for the given color. On success
// the move is appended to the log and the returned delta describes the
// transition; on error the engine is unchanged.
func (e *Engine) Apply(c board.Color, kind MoveKind, p board.Point) (*Delta, error) {
	switch e.phase {
	case PhaseDone:
		return nil, errs.ErrSessionTerminal
	case PhaseScoring:
		return e.applyScoring(c, kind, p)
	}

	if c != e.turn {
		return nil, errs.ErrOutOfTurn
	}

	switch kind {
	case MovePlace:
		return e.applyPlace(c, p)
	case MovePass:
		return e.applyPass(c)
	case MoveResign:
		return e.applyResign(c)
	default:
		return nil, errs.ErrWrongPhase
	}
}

func (e *Engine) applyPlace(c board.Color, p board.Point) (*Delta, error) {
	prev := e.board.Clone()

	caps, err := e.board.Place(p, c, e.cfg.AllowSuicide)
	if err != nil {
		return nil, err
	}

	if err := e.checkKo(len(caps.Points)); err != nil {
		e.board.Restore(prev)
		return nil, err
	}

	if caps.Self {
		e.captures[c.Opponent()] += len(caps.Points)
	} else {
		e.captures[c] += len(caps.Points)
	}
	e.captureTotal += len(caps.Points)
	e.passes = 0
	e.turn = c.Opponent()
	e.history = append(e.history, position{hash: e.board.Hash(), board: e.board.Clone()})

	mv := e.record(c, MovePlace, p)
	return &Delta{Move: mv, Captures: caps.Points, NextTurn: e.turn, Phase: e.phase}, nil
}

// checkKo rejects the position currently on the board if it repeats a
// prior one within the configured horizon. Superko only needs to scan
// back as many positions as stones have been removed: the board cannot
// repeat further back than that.
func (e *Engine) checkKo(captured int) error {
	hash := e.board.Hash()

	if e.cfg.Ko == SimpleKo {
		if len(e.history) < 2 {
			return nil
		}
		old := e.history[len(e.history)-2]
		if old.hash == hash && old.board.Equal(e.board) {
			return errs.ErrKoViolation
		}
		return nil
	}

	horizon := e.captureTotal + captured
	for i := len(e.history) - 1; i >= 0 && len(e.history)-1-i < horizon+1; i-- {
		old := e.history[i]
		if old.hash == hash && old.board.Equal(e.board) {
			return errs.ErrKoViolation
		}
	}
	return nil
}

func (e *Engine) applyPass(c board.Color) (*Delta, error) {
	e.passes++
	e.turn = c.Opponent()

	if e.passes >= 2 {
		e.phase = PhaseScoring
		e.passes = 0
		e.dead = map[board.Point]bool{}
		e.accepted = map[board.Color]bool{}
	}

	mv := e.record(c, MovePass, board.Point{})
	d := &Delta{Move: mv, NextTurn: e.turn, Phase: e.phase}
	if e.phase == PhaseScoring {
		s := e.Score()
		d.Score = &s
	}
	return d, nil
}

func (e *Engine) applyResign(c board.Color) (*Delta, error) {
	e.phase = PhaseDone
	e.result = &Result{Winner: c.Opponent(), Resigned: true}

	mv := e.record(c, MoveResign, board.Point{})
	return &Delta{Move: mv, NextTurn: board.Empty, Phase: e.phase}, nil
}

// Scoring-phase actions are not turn-bound: either player may mark, accept
// or cancel. Any mark resets both players' acceptance.
func (e *Engine) applyScoring(c board.Color, kind MoveKind, p board.Point) (*Delta, error) {
	switch kind {
	case MoveMarkDead, MovePlace:
		return e.applyMarkDead(c, p)
	case MoveAccept, MovePass:
		return e.applyAccept(c)
	case MoveCancel:
		e.phase = PhasePlaying
		e.dead = map[board.Point]bool{}
		e.accepted = map[board.Color]bool{}
		mv := e.record(c, MoveCancel, board.Point{})
		return &Delta{Move: mv, NextTurn: e.turn, Phase: e.phase}, nil
	case MoveResign:
		return e.applyResign(c)
	default:
		return nil, errs.ErrWrongPhase
	}
}

func (e *Engine) applyMarkDead(c board.Color, p board.Point) (*Delta, error) {
	if !e.board.Contains(p) {
		return nil, errs.ErrOutOfBounds
	}
	g := e.board.GroupAt(p)
	if g.Color == board.Empty {
		return nil, errs.ErrEmptyPoint
	}

	mark := !e.dead[g.Stones[0]]
	for _, s := range g.Stones {
		e.dead[s] = mark
	}
	e.accepted = map[board.Color]bool{}

	mv := e.record(c, MoveMarkDead, p)
	s := e.Score()
	return &Delta{Move: mv, NextTurn: e.turn, Phase: e.phase, Score: &s}, nil
}

func (e *Engine) applyAccept(c board.Color) (*Delta, error) {
	e.accepted[c] = true

	mv := e.record(c, MoveAccept, board.Point{})
	s := e.Score()
	d := &Delta{Move: mv, NextTurn: e.turn, Phase: e.phase, Score: &s}

	if e.accepted[board.Black] && e.accepted[board.White] {
		e.phase = PhaseDone
		winner := board.Empty
		switch {
		case s.Black > s.White:
			winner = board.Black
		case s.White > s.Black:
			winner = board.White
		}
		e.result = &Result{Winner: winner, ScoreBlack: s.Black, ScoreWhite: s.White}
		d.Phase = e.phase
	}
	return d, nil
}

func (e *Engine) record(c board.Color, kind MoveKind, p board.Point) Move {
	mv := Move{Seq: len(e.moves) + 1, Color: c, Kind: kind, Point: p}
	e.moves = append(e.moves, mv)
	return mv
}
