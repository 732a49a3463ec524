package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JaniM/variant-go-server/internal/domain/archive"
	"github.com/JaniM/variant-go-server/internal/domain/board"
	"github.com/JaniM/variant-go-server/internal/domain/game"
	"github.com/JaniM/variant-go-server/internal/domain/user"
	errs "github.com/JaniM/variant-go-server/internal/errors"
	"github.com/JaniM/variant-go-server/internal/replay"
	"github.com/JaniM/variant-go-server/internal/session"
)

// Authenticator resolves bearer tokens to users.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (user.User, error)
}

// Persister receives replay hand-offs. Implementations own their own
// retry policy; calls must not block move application.
type Persister interface {
	CacheReplay(ctx context.Context, sessionID string, rec replay.Record)
	SaveFinished(ctx context.Context, meta archive.FinishedGame, rec replay.Record)
	LiveReplay(ctx context.Context, sessionID string) (replay.Record, error)
}

// EventType tags a broadcast message.
type EventType string

const (
	EventDelta    EventType = "delta"
	EventTerminal EventType = "terminal"
)

// Event is one broadcast message. Deltas are emitted in
// move-application order; subscribers see them in that order or get
// detached, never a reordering.
type Event struct {
	Type     EventType       `json:"type"`
	Delta    *game.Delta     `json:"delta,omitempty"`
	Terminal *game.Result    `json:"terminal,omitempty"`
	Clocks   []time.Duration `json:"clocks,omitempty"`
}

// Subscriber is one attached connection's event queue. The transport
// layer drains Events; a queue left full gets the subscriber detached.
type Subscriber struct {
	id   string
	send chan Event
}

func NewSubscriber(buffer int) *Subscriber {
	return &Subscriber{id: uuid.NewString(), send: make(chan Event, buffer)}
}

func (s *Subscriber) ID() string           { return s.id }
func (s *Subscriber) Events() <-chan Event { return s.send }

type attachment struct {
	sub       *Subscriber
	sessionID string
	userID    string
	color     board.Color
}

// liveSession pairs a session with its fan-out state. emit orders move
// application and event enqueueing together, so subscribers see deltas
// in application order. The cache fields feed a single writer per
// session that always flushes the newest record.
type liveSession struct {
	*session.Session

	emit sync.Mutex

	cacheMu  sync.Mutex
	pending  *replay.Record
	flushing bool
}

// Coordinator owns the session registry and the fan-out of deltas.
// The registry lock is never held across a session's critical section
// longer than a map lookup, so sessions do not contend on each other.
type Coordinator struct {
	logger  *zap.SugaredLogger
	auth    Authenticator
	persist Persister
	now     func() time.Time

	mu          sync.RWMutex
	sessions    map[string]*liveSession
	attachments map[string]*attachment
	subscribers map[string]map[string]*Subscriber
}

func New(auth Authenticator, persist Persister, logger *zap.SugaredLogger) *Coordinator {
	return &Coordinator{
		logger:      logger,
		auth:        auth,
		persist:     persist,
		now:         time.Now,
		sessions:    make(map[string]*liveSession),
		attachments: make(map[string]*attachment),
		subscribers: make(map[string]map[string]*Subscriber),
	}
}

// CreateSession registers a new session and returns its id.
func (c *Coordinator) CreateSession(ctx context.Context, token, name string, cfg game.Config) (string, error) {
	owner, err := c.auth.Authenticate(ctx, token)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	s, err := session.New(id, name, owner.ID, cfg, func() time.Time { return c.now() })
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	c.sessions[id] = &liveSession{Session: s}
	c.subscribers[id] = make(map[string]*Subscriber)
	c.mu.Unlock()

	c.logger.Infow("session created", "session_id", id, "name", name, "owner", owner.ID)
	return id, nil
}

// Attach authenticates the token, seats the user (or admits them as a
// spectator when spectate is set) and subscribes the connection to the
// session's event stream.
func (c *Coordinator) Attach(ctx context.Context, sub *Subscriber, sessionID, token string, spectate bool) (session.State, board.Color, error) {
	u, err := c.auth.Authenticate(ctx, token)
	if err != nil {
		return session.State{}, board.Empty, err
	}

	c.mu.RLock()
	s, ok := c.sessions[sessionID]
	c.mu.RUnlock()
	if !ok {
		s, err = c.restoreFromCache(ctx, sessionID)
		if err != nil {
			return session.State{}, board.Empty, errs.ErrSessionNotFound
		}
	}

	color := board.Empty
	if !spectate {
		color, err = s.Join(u.ID, u.Nick)
		if err != nil {
			return session.State{}, board.Empty, err
		}
		if color == board.Empty {
			return session.State{}, board.Empty, errs.ErrSessionFull
		}
	}

	c.mu.Lock()
	c.detachLocked(sub.id, false)
	c.attachments[sub.id] = &attachment{sub: sub, sessionID: sessionID, userID: u.ID, color: color}
	c.subscribers[sessionID][sub.id] = sub
	c.mu.Unlock()

	return s.Snapshot(), color, nil
}

// restoreFromCache rebuilds a session from its cached replay log after
// a restart. Seats and metadata are not part of the log; players
// reclaim their colors by rejoining.
func (c *Coordinator) restoreFromCache(ctx context.Context, sessionID string) (*liveSession, error) {
	rec, err := c.persist.LiveReplay(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s, err := session.Restore(sessionID, "", "", rec, func() time.Time { return c.now() })
	if err != nil {
		return nil, err
	}
	ls := &liveSession{Session: s}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.sessions[sessionID]; ok {
		return existing, nil
	}
	c.sessions[sessionID] = ls
	c.subscribers[sessionID] = make(map[string]*Subscriber)
	c.logger.Infow("session restored from replay cache", "session_id", sessionID, "moves", s.Snapshot().Moves)
	return ls, nil
}

// SubmitMove applies a move for the subscriber's seat and broadcasts
// the delta to everyone attached to the session.
func (c *Coordinator) SubmitMove(ctx context.Context, subID string, kind game.MoveKind, p board.Point) (*game.Delta, error) {
	c.mu.RLock()
	att, ok := c.attachments[subID]
	var s *liveSession
	if ok {
		s = c.sessions[att.sessionID]
	}
	c.mu.RUnlock()
	if !ok || s == nil {
		return nil, errs.ErrSessionNotFound
	}
	if att.color == board.Empty {
		return nil, errs.ErrNotSeated
	}

	s.emit.Lock()
	defer s.emit.Unlock()
	delta, err := s.Apply(att.userID, kind, p)
	if err != nil {
		return nil, err
	}
	c.afterMove(ctx, s, delta)
	return delta, nil
}

// Detach unsubscribes the connection and marks its seat departed. Safe
// to call twice; the session itself stays alive.
func (c *Coordinator) Detach(subID string) {
	c.mu.Lock()
	c.detachLocked(subID, true)
	c.mu.Unlock()
}

func (c *Coordinator) detachLocked(subID string, closeQueue bool) {
	att, ok := c.attachments[subID]
	if !ok {
		return
	}
	delete(c.attachments, subID)
	if subs, ok := c.subscribers[att.sessionID]; ok {
		delete(subs, subID)
	}
	if att.color != board.Empty && !c.userStillAttached(att.userID, att.sessionID) {
		if s, ok := c.sessions[att.sessionID]; ok {
			s.Leave(att.userID)
		}
	}
	if closeQueue {
		close(att.sub.send)
	}
}

// userStillAttached reports whether the user has another live
// connection to the session, e.g. after reconnecting before the old
// socket was reaped.
func (c *Coordinator) userStillAttached(userID, sessionID string) bool {
	for _, att := range c.attachments {
		if att.userID == userID && att.sessionID == sessionID {
			return true
		}
	}
	return false
}

// List returns snapshots of all sessions that are still joinable or
// being played.
func (c *Coordinator) List() []session.State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]session.State, 0, len(c.sessions))
	for _, s := range c.sessions {
		if st := s.Snapshot(); st.Status != session.StatusTerminal {
			out = append(out, st)
		}
	}
	return out
}

// Get returns one session's snapshot.
func (c *Coordinator) Get(sessionID string) (session.State, error) {
	c.mu.RLock()
	s, ok := c.sessions[sessionID]
	c.mu.RUnlock()
	if !ok {
		return session.State{}, errs.ErrSessionNotFound
	}
	return s.Snapshot(), nil
}

// Run drives the reaper until the context is cancelled: fallen clocks
// and long-departed seats forfeit their games without waiting for
// client input.
func (c *Coordinator) Run(ctx context.Context, interval, departTimeout time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.reap(ctx, departTimeout)
		}
	}
}

func (c *Coordinator) reap(ctx context.Context, departTimeout time.Duration) {
	c.mu.RLock()
	sessions := make([]*liveSession, 0, len(c.sessions))
	for _, s := range c.sessions {
		sessions = append(sessions, s)
	}
	c.mu.RUnlock()

	now := c.now()
	for _, s := range sessions {
		s.emit.Lock()
		delta := s.ExpireClock(now)
		if delta == nil {
			delta = s.ForfeitDeparted(departTimeout, now)
		}
		if delta != nil {
			c.logger.Infow("session forfeited", "session_id", s.ID, "loser", delta.Move.Color.String())
			c.afterMove(ctx, s, delta)
		}
		s.emit.Unlock()
	}
}

// afterMove fans the delta out and hands terminal sessions to the
// persistence gateway. Callers hold the session's emit lock, so events
// are enqueued in move-application order.
func (c *Coordinator) afterMove(ctx context.Context, s *liveSession, delta *game.Delta) {
	c.broadcast(s.ID, Event{Type: EventDelta, Delta: delta, Clocks: s.Snapshot().Clocks})

	rec := s.Record()
	c.scheduleCacheWrite(context.WithoutCancel(ctx), s, rec)

	if delta.Phase == game.PhaseDone {
		c.broadcast(s.ID, Event{Type: EventTerminal, Terminal: s.Result()})
		meta := archive.FinishedGame{
			SessionID: s.ID,
			Name:      s.Name,
			OwnerID:   s.OwnerID,
			Black:     s.SeatNick(board.Black),
			White:     s.SeatNick(board.White),
		}
		go c.persist.SaveFinished(context.WithoutCancel(ctx), meta, rec)
	}
}

// scheduleCacheWrite hands the record to the session's cache writer.
// At most one write is in flight per session and only the newest
// pending record is flushed, so a slow write can never clobber the
// cache with a stale log.
func (c *Coordinator) scheduleCacheWrite(ctx context.Context, s *liveSession, rec replay.Record) {
	s.cacheMu.Lock()
	s.pending = &rec
	if !s.flushing {
		s.flushing = true
		go c.flushReplayCache(ctx, s)
	}
	s.cacheMu.Unlock()
}

func (c *Coordinator) flushReplayCache(ctx context.Context, s *liveSession) {
	for {
		s.cacheMu.Lock()
		rec := s.pending
		s.pending = nil
		if rec == nil {
			s.flushing = false
			s.cacheMu.Unlock()
			return
		}
		s.cacheMu.Unlock()
		c.persist.CacheReplay(ctx, s.ID, *rec)
	}
}

// broadcast pushes the event onto every subscriber's queue. A full
// queue means the client has stalled; it gets detached instead of
// holding up the session.
func (c *Coordinator) broadcast(sessionID string, ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, sub := range c.subscribers[sessionID] {
		select {
		case sub.send <- ev:
		default:
			c.logger.Warnw("subscriber queue full, detaching", "session_id", sessionID, "subscriber", id)
			c.detachLocked(id, true)
		}
	}
}
