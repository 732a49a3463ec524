package game

import (
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/JaniM/variant-go-server/internal/coordinator"
	"github.com/JaniM/variant-go-server/internal/domain/board"
	gameDomain "github.com/JaniM/variant-go-server/internal/domain/game"
	errs "github.com/JaniM/variant-go-server/internal/errors"
	"github.com/JaniM/variant-go-server/internal/httpresponse"
	"github.com/JaniM/variant-go-server/internal/session"
	"github.com/JaniM/variant-go-server/internal/usecase/persist"
	"github.com/JaniM/variant-go-server/internal/utils"
)

// Queue depth per websocket client before the coordinator gives up on
// it as stalled.
const subscriberBuffer = 32

type GameHandler struct {
	log     *zap.SugaredLogger
	coord   *coordinator.Coordinator
	gateway *persist.Gateway
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func NewGameHandler(coord *coordinator.Coordinator, gateway *persist.Gateway, log *zap.SugaredLogger) *GameHandler {
	return &GameHandler{
		log:     log,
		coord:   coord,
		gateway: gateway,
	}
}

type CreateGameRequest struct {
	Token  string            `json:"token"`
	Name   string            `json:"name"`
	Config gameDomain.Config `json:"config"`
}

type CreateGameResponse struct {
	SessionID string `json:"session_id"`
}

// HandleNewGame registers a session from the posted config and returns
// its id. The creator still has to attach over the websocket to play.
func (g *GameHandler) HandleNewGame(w http.ResponseWriter, r *http.Request) {
	var req CreateGameRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		g.log.Errorw("new game: bad request", "error", err)
		httpresponse.WriteErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := g.coord.CreateSession(r.Context(), req.Token, req.Name, req.Config)
	if err != nil {
		g.log.Errorw("create session failed", "error", err)
		httpresponse.WriteErrorResponse(w, statusForError(err), err.Error())
		return
	}

	g.log.Infow("new game", "session_id", id, "name", req.Name)
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, CreateGameResponse{SessionID: id})
}

// HandleListGames lists joinable and in-progress sessions.
func (g *GameHandler) HandleListGames(w http.ResponseWriter, r *http.Request) {
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, g.coord.List())
}

// HandleArchive lists finished games without their replay blobs.
func (g *GameHandler) HandleArchive(w http.ResponseWriter, r *http.Request) {
	records, err := g.gateway.ListRecords(r.Context())
	if err != nil {
		g.log.Errorw("list archive failed", "error", err)
		httpresponse.WriteInternalErrorResponse(w)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, records)
}

// HandleSGF serves a finished game as SGF text.
func (g *GameHandler) HandleSGF(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	out, err := g.gateway.ExportSGF(r.Context(), id)
	if err != nil {
		g.log.Errorw("sgf export failed", "record_id", id, "error", err)
		httpresponse.WriteErrorResponse(w, statusForError(err), err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/x-go-sgf")
	_, _ = w.Write([]byte(out))
}

type MoveRequest struct {
	Kind string `json:"kind"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

type JoinedMessage struct {
	Type string        `json:"type"`
	Seat string        `json:"seat"`
	Game session.State `json:"game"`
}

type ErrorMessage struct {
	Type string `json:"type"`
	Kind string `json:"kind"`
}

// wsWriter serializes writes; gorilla connections permit only one
// concurrent writer.
type wsWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsWriter) WriteJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteJSON(v)
}

// HandlePlay is the websocket game channel. The client joins via query
// parameters (session_id, token, spectate), then streams move requests
// while deltas fan in from the coordinator.
func (g *GameHandler) HandlePlay(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	token := r.URL.Query().Get("token")
	spectate := r.URL.Query().Get("spectate") == "1"

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Errorw("websocket upgrade failed", "error", err)
		return
	}
	writer := &wsWriter{conn: conn}

	sub := coordinator.NewSubscriber(subscriberBuffer)
	state, color, err := g.coord.Attach(r.Context(), sub, sessionID, token, spectate)
	if err != nil {
		g.log.Infow("attach rejected", "session_id", sessionID, "error", err)
		_ = writer.WriteJSON(ErrorMessage{Type: "error", Kind: errorKind(err)})
		conn.Close()
		return
	}

	if err := writer.WriteJSON(JoinedMessage{Type: "joined", Seat: color.String(), Game: state}); err != nil {
		g.coord.Detach(sub.ID())
		conn.Close()
		return
	}

	// Detach closes the subscriber queue, which ends this goroutine
	// and with it the connection.
	go func() {
		for ev := range sub.Events() {
			if err := writer.WriteJSON(ev); err != nil {
				g.coord.Detach(sub.ID())
			}
		}
		conn.Close()
	}()

	for {
		var req MoveRequest
		if err := conn.ReadJSON(&req); err != nil {
			g.coord.Detach(sub.ID())
			return
		}

		kind, ok := moveKind(req.Kind)
		if !ok {
			_ = writer.WriteJSON(ErrorMessage{Type: "error", Kind: "unknown_move_kind"})
			continue
		}
		_, err := g.coord.SubmitMove(r.Context(), sub.ID(), kind, board.Point{X: req.X, Y: req.Y})
		if err != nil {
			_ = writer.WriteJSON(ErrorMessage{Type: "error", Kind: errorKind(err)})
		}
	}
}

func moveKind(s string) (gameDomain.MoveKind, bool) {
	switch k := gameDomain.MoveKind(s); k {
	case gameDomain.MovePlace, gameDomain.MovePass, gameDomain.MoveResign,
		gameDomain.MoveMarkDead, gameDomain.MoveAccept, gameDomain.MoveCancel:
		return k, true
	default:
		return "", false
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, errs.ErrOccupied):
		return "occupied"
	case errors.Is(err, errs.ErrSuicide):
		return "suicide"
	case errors.Is(err, errs.ErrKoViolation):
		return "ko_violation"
	case errors.Is(err, errs.ErrOutOfTurn):
		return "out_of_turn"
	case errors.Is(err, errs.ErrOutOfBounds):
		return "out_of_bounds"
	case errors.Is(err, errs.ErrEmptyPoint):
		return "empty_point"
	case errors.Is(err, errs.ErrWrongPhase):
		return "wrong_phase"
	case errors.Is(err, errs.ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, errs.ErrSessionFull):
		return "session_full"
	case errors.Is(err, errs.ErrSessionTerminal):
		return "session_terminal"
	case errors.Is(err, errs.ErrAuthRequired):
		return "auth_required"
	case errors.Is(err, errs.ErrNotSeated):
		return "not_seated"
	default:
		return "internal"
	}
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, errs.ErrAuthRequired):
		return http.StatusUnauthorized
	case errors.Is(err, errs.ErrSessionNotFound), errors.Is(err, errs.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrSessionFull):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
