package persist

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/JaniM/variant-go-server/internal/domain/archive"
	"github.com/JaniM/variant-go-server/internal/replay"
)

type RecordStore interface {
	SaveGameRecord(ctx context.Context, rec archive.GameRecord) (string, error)
	GetGameRecord(ctx context.Context, id string) (archive.GameRecord, error)
	ListGameRecords(ctx context.Context) ([]archive.GameRecord, error)
}

type ReplayCache interface {
	SaveReplay(ctx context.Context, sessionID string, blob []byte) error
	LoadReplay(ctx context.Context, sessionID string) ([]byte, error)
}

// Gateway sits between live sessions and storage. Terminal writes are
// retried with exponential backoff; a write that still fails stays in
// memory on the degraded list so the game is not lost silently.
type Gateway struct {
	logger     *zap.SugaredLogger
	records    RecordStore
	cache      ReplayCache
	maxElapsed time.Duration

	mu       sync.Mutex
	degraded map[string]archive.FinishedGame
}

func NewGateway(records RecordStore, cache ReplayCache, logger *zap.SugaredLogger) *Gateway {
	return &Gateway{
		logger:     logger,
		records:    records,
		cache:      cache,
		maxElapsed: 30 * time.Second,
		degraded:   make(map[string]archive.FinishedGame),
	}
}

// CacheReplay keeps the in-flight replay blob warm so spectators and
// reconnecting players can fetch it without touching the session.
// Cache misses are harmless, so errors are only logged.
func (g *Gateway) CacheReplay(ctx context.Context, sessionID string, rec replay.Record) {
	blob, err := replay.Encode(rec)
	if err != nil {
		g.logger.Errorw("encode replay for cache", "session_id", sessionID, "error", err)
		return
	}
	if err := g.cache.SaveReplay(ctx, sessionID, blob); err != nil {
		g.logger.Warnw("cache replay", "session_id", sessionID, "error", err)
	}
}

// SaveFinished durably records a terminal session, retrying transient
// store failures. A permanently failed write flags the session as
// degraded for operator attention; the game itself stays playable and
// replayable from memory.
func (g *Gateway) SaveFinished(ctx context.Context, meta archive.FinishedGame, rec replay.Record) {
	blob, err := replay.Encode(rec)
	if err != nil {
		g.logger.Errorw("encode replay", "session_id", meta.SessionID, "error", err)
		return
	}
	record := archive.GameRecord{
		Name:       meta.Name,
		Owner:      meta.OwnerID,
		Black:      meta.Black,
		White:      meta.White,
		Result:     resultString(rec),
		Replay:     blob,
		FinishedAt: time.Now().UTC(),
	}

	policy := backoff.WithContext(g.retryPolicy(), ctx)
	var id string
	err = backoff.Retry(func() error {
		var saveErr error
		id, saveErr = g.records.SaveGameRecord(ctx, record)
		return saveErr
	}, policy)
	if err != nil {
		g.mu.Lock()
		g.degraded[meta.SessionID] = meta
		g.mu.Unlock()
		g.logger.Errorw("game record write failed permanently, session flagged degraded",
			"session_id", meta.SessionID, "error", err)
		return
	}

	g.mu.Lock()
	delete(g.degraded, meta.SessionID)
	g.mu.Unlock()
	g.logger.Infow("game record saved", "session_id", meta.SessionID, "record_id", id)
}

// Degraded lists sessions whose terminal write never landed.
func (g *Gateway) Degraded() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, 0, len(g.degraded))
	for id := range g.degraded {
		out = append(out, id)
	}
	return out
}

// LiveReplay fetches the cached in-flight replay for a session.
func (g *Gateway) LiveReplay(ctx context.Context, sessionID string) (replay.Record, error) {
	blob, err := g.cache.LoadReplay(ctx, sessionID)
	if err != nil {
		return replay.Record{}, fmt.Errorf("load cached replay: %w", err)
	}
	return replay.Decode(blob)
}

// GetRecord loads one archived game.
func (g *Gateway) GetRecord(ctx context.Context, id string) (archive.GameRecord, error) {
	return g.records.GetGameRecord(ctx, id)
}

// ListRecords loads the archive listing.
func (g *Gateway) ListRecords(ctx context.Context) ([]archive.GameRecord, error) {
	return g.records.ListGameRecords(ctx)
}

// ExportSGF renders an archived game as SGF.
func (g *Gateway) ExportSGF(ctx context.Context, id string) (string, error) {
	record, err := g.records.GetGameRecord(ctx, id)
	if err != nil {
		return "", err
	}
	rec, err := replay.Decode(record.Replay)
	if err != nil {
		return "", err
	}
	return replay.ExportSGF(rec, replay.SGFMeta{
		Black: record.Black,
		White: record.White,
		Date:  record.FinishedAt,
	}), nil
}

func (g *Gateway) retryPolicy() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	policy.MaxElapsedTime = g.maxElapsed
	return policy
}

func resultString(rec replay.Record) string {
	if rec.Result == nil {
		return ""
	}
	return replay.ResultString(*rec.Result)
}
