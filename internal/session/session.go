package session

import (
	"sync"
	"time"

	"github.com/JaniM/variant-go-server/internal/domain/board"
	"github.com/JaniM/variant-go-server/internal/domain/game"
	errs "github.com/JaniM/variant-go-server/internal/errors"
	"github.com/JaniM/variant-go-server/internal/replay"
)

// Status is the session lifecycle state.
type Status string

const (
	StatusAwaitingPlayers Status = "awaiting_players"
	StatusInProgress      Status = "in_progress"
	StatusScoring         Status = "scoring"
	StatusTerminal        Status = "terminal"
)

// Seat binds a user to a color. A departed seat keeps its binding so
// the player can rejoin; the reaper may forfeit it after a timeout.
type Seat struct {
	UserID     string `json:"user_id"`
	Nick       string `json:"nick"`
	Departed   bool   `json:"departed"`
	departedAt time.Time
}

// LogEntry is one accepted move with its wall-clock timestamp. The log
// is append-only; rejected moves never reach it.
type LogEntry struct {
	Move game.Move `json:"move"`
	At   time.Time `json:"at"`
}

// Session owns one game: engine, seats, clock and replay log. All
// mutation goes through the session's mutex; cross-session calls never
// contend.
type Session struct {
	ID        string
	Name      string
	OwnerID   string
	CreatedAt time.Time

	mu     sync.Mutex
	engine *game.Engine
	status Status
	seats  map[board.Color]*Seat
	log    []LogEntry
	clock  *game.GameClock
	now    func() time.Time
}

// State is a point-in-time view for clients joining mid-game.
type State struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Status   Status           `json:"status"`
	Config   game.Config      `json:"config"`
	Turn     board.Color      `json:"turn"`
	Cells    []board.Color    `json:"cells"`
	Seats    map[string]*Seat `json:"seats"`
	Captures map[string]int   `json:"captures"`
	Clocks   []time.Duration  `json:"clocks,omitempty"`
	Moves    int              `json:"moves"`
	Result   *game.Result     `json:"result,omitempty"`
}

func New(id, name, ownerID string, cfg game.Config, now func() time.Time) (*Session, error) {
	engine, err := game.NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	if now == nil {
		now = time.Now
	}
	s := &Session{
		ID:        id,
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: now(),
		engine:    engine,
		status:    StatusAwaitingPlayers,
		seats:     make(map[board.Color]*Seat),
		now:       now,
	}
	if cfg.Clock != nil {
		s.clock = game.NewGameClock(*cfg.Clock, 2)
	}
	return s, nil
}

// Restore rebuilds a session from its persisted record. The log is the
// sole source of truth, so replaying it reproduces the exact state.
func Restore(id, name, ownerID string, rec replay.Record, now func() time.Time) (*Session, error) {
	s, err := New(id, name, ownerID, rec.Config, now)
	if err != nil {
		return nil, err
	}
	engine, err := replay.Rebuild(rec)
	if err != nil {
		return nil, err
	}
	s.engine = engine
	at := s.now()
	for _, m := range engine.Moves() {
		s.log = append(s.log, LogEntry{Move: m, At: at})
	}
	if len(s.log) > 0 {
		s.status = statusForPhase(engine.Phase())
	}
	return s, nil
}

// Join seats the user on the first free color, or returns their
// existing seat on rejoin. With both seats taken the user watches as a
// spectator (board.Empty).
func (s *Session) Join(userID, nick string) (board.Color, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for c, seat := range s.seats {
		if seat.UserID == userID {
			seat.Departed = false
			seat.Nick = nick
			return c, nil
		}
	}
	for _, c := range []board.Color{board.Black, board.White} {
		if _, taken := s.seats[c]; !taken {
			s.seats[c] = &Seat{UserID: userID, Nick: nick}
			if len(s.seats) == 2 {
				if s.status == StatusAwaitingPlayers {
					s.status = StatusInProgress
				}
				// A restored session comes back with a paused clock;
				// timing resumes once both seats are reclaimed.
				if s.clock != nil && s.status == StatusInProgress && !s.clock.Running() {
					s.clock.Start(s.now())
				}
			}
			return c, nil
		}
	}
	return board.Empty, nil
}

// Leave marks the user's seat departed. The session stays alive; a
// spectator leaving is a no-op.
func (s *Session) Leave(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, seat := range s.seats {
		if seat.UserID == userID && !seat.Departed {
			seat.Departed = true
			seat.departedAt = s.now()
		}
	}
}

// Apply submits a move for the seated user. The clock is charged to
// the mover first; a fallen flag turns the move into a resignation.
func (s *Session) Apply(userID string, kind game.MoveKind, p board.Point) (*game.Delta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusTerminal {
		return nil, errs.ErrSessionTerminal
	}
	if s.status == StatusAwaitingPlayers {
		return nil, errs.ErrWrongPhase
	}
	color := s.seatColor(userID)
	if color == board.Empty {
		return nil, errs.ErrNotSeated
	}

	now := s.now()
	if s.clock != nil && s.engine.Phase() == game.PhasePlaying && color == s.engine.Turn() {
		if left := s.clock.Advance(clockIdx(color), now); left <= 0 {
			return s.resignLocked(color, now)
		}
	}

	delta, err := s.engine.Apply(color, kind, p)
	if err != nil {
		return nil, err
	}
	s.log = append(s.log, LogEntry{Move: delta.Move, At: now})
	if s.clock != nil && delta.Move.Kind != game.MoveResign {
		s.clock.EndTurn(clockIdx(color), now)
	}
	s.status = statusForPhase(s.engine.Phase())
	return delta, nil
}

// ExpireClock forfeits the player to move if their flag has fallen.
// Called by the coordinator's reaper so a stalled player loses without
// waiting for input. Returns nil when nothing happened.
func (s *Session) ExpireClock(now time.Time) *game.Delta {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.clock == nil || s.status != StatusInProgress {
		return nil
	}
	turn := s.engine.Turn()
	if left := s.clock.Advance(clockIdx(turn), now); left > 0 {
		return nil
	}
	delta, _ := s.resignLocked(turn, now)
	return delta
}

// ForfeitDeparted resigns any seat that left longer than timeout ago.
func (s *Session) ForfeitDeparted(timeout time.Duration, now time.Time) *game.Delta {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusTerminal || s.status == StatusAwaitingPlayers {
		return nil
	}
	for c, seat := range s.seats {
		if seat.Departed && now.Sub(seat.departedAt) >= timeout {
			delta, _ := s.resignLocked(c, now)
			return delta
		}
	}
	return nil
}

func (s *Session) resignLocked(c board.Color, now time.Time) (*game.Delta, error) {
	delta, err := s.engine.Apply(c, game.MoveResign, board.Point{})
	if err != nil {
		return nil, err
	}
	s.log = append(s.log, LogEntry{Move: delta.Move, At: now})
	s.status = StatusTerminal
	return delta, nil
}

// Record snapshots the session into its durable replay form.
func (s *Session) Record() replay.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return replay.FromEngine(s.engine)
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) Result() *game.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Result()
}

func (s *Session) SeatNick(c board.Color) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seat, ok := s.seats[c]; ok {
		return seat.Nick
	}
	return ""
}

// Snapshot renders the full client view under the session lock.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.engine.Board()
	cells := make([]board.Color, 0, b.Width*b.Height)
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			cells = append(cells, b.At(board.Point{X: x, Y: y}))
		}
	}
	seats := make(map[string]*Seat, len(s.seats))
	for c, seat := range s.seats {
		copied := *seat
		seats[c.String()] = &copied
	}
	st := State{
		ID:     s.ID,
		Name:   s.Name,
		Status: s.status,
		Config: s.engine.Config(),
		Turn:   s.engine.Turn(),
		Cells:  cells,
		Seats:  seats,
		Captures: map[string]int{
			board.Black.String(): s.engine.Captures(board.Black),
			board.White.String(): s.engine.Captures(board.White),
		},
		Moves:  s.engine.MoveCount(),
		Result: s.engine.Result(),
	}
	if s.clock != nil {
		for i := range s.clock.Clocks {
			st.Clocks = append(st.Clocks, s.clock.Clocks[i].Remaining)
		}
	}
	return st
}

// Log returns a copy of the replay log.
func (s *Session) Log() []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LogEntry, len(s.log))
	copy(out, s.log)
	return out
}

func (s *Session) seatColor(userID string) board.Color {
	for c, seat := range s.seats {
		if seat.UserID == userID {
			return c
		}
	}
	return board.Empty
}

func statusForPhase(p game.Phase) Status {
	switch p {
	case game.PhaseScoring:
		return StatusScoring
	case game.PhaseDone:
		return StatusTerminal
	default:
		return StatusInProgress
	}
}

func clockIdx(c board.Color) int { return int(c) - 1 }
