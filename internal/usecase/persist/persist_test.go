package persist

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JaniM/variant-go-server/internal/domain/archive"
	"github.com/JaniM/variant-go-server/internal/domain/board"
	"github.com/JaniM/variant-go-server/internal/domain/game"
	errs "github.com/JaniM/variant-go-server/internal/errors"
	"github.com/JaniM/variant-go-server/internal/replay"
)

type memRecordStore struct {
	mu       sync.Mutex
	failures int
	attempts int
	records  map[string]archive.GameRecord
}

func newMemRecordStore(failures int) *memRecordStore {
	return &memRecordStore{failures: failures, records: make(map[string]archive.GameRecord)}
}

func (m *memRecordStore) SaveGameRecord(_ context.Context, rec archive.GameRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts++
	if m.attempts <= m.failures {
		return "", errs.ErrWriteFailed
	}
	rec.ID = "g1"
	m.records[rec.ID] = rec
	return rec.ID, nil
}

func (m *memRecordStore) GetGameRecord(_ context.Context, id string) (archive.GameRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return archive.GameRecord{}, errs.ErrRecordNotFound
	}
	return rec, nil
}

func (m *memRecordStore) ListGameRecords(_ context.Context) ([]archive.GameRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]archive.GameRecord, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	return out, nil
}

type memReplayCache struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMemReplayCache() *memReplayCache {
	return &memReplayCache{blobs: make(map[string][]byte)}
}

func (m *memReplayCache) SaveReplay(_ context.Context, sessionID string, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[sessionID] = blob
	return nil
}

func (m *memReplayCache) LoadReplay(_ context.Context, sessionID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	blob, ok := m.blobs[sessionID]
	if !ok {
		return nil, errs.ErrRecordNotFound
	}
	return blob, nil
}

func finishedRecord(t *testing.T) replay.Record {
	t.Helper()
	e, err := game.NewEngine(game.DefaultConfig(5))
	require.NoError(t, err)
	_, err = e.Apply(board.Black, game.MoveResign, board.Point{})
	require.NoError(t, err)
	return replay.FromEngine(e)
}

func newTestGateway(store RecordStore, cache ReplayCache) *Gateway {
	g := NewGateway(store, cache, zap.NewNop().Sugar())
	g.maxElapsed = 500 * time.Millisecond
	return g
}

func TestSaveFinishedRetriesTransientFailures(t *testing.T) {
	store := newMemRecordStore(2)
	g := newTestGateway(store, newMemReplayCache())

	meta := archive.FinishedGame{SessionID: "s1", Name: "match", OwnerID: "ua", Black: "alice", White: "bob"}
	g.SaveFinished(context.Background(), meta, finishedRecord(t))

	assert.Equal(t, 3, store.attempts)
	assert.Empty(t, g.Degraded())

	rec, err := g.GetRecord(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, "match", rec.Name)
	assert.Equal(t, "ua", rec.Owner)
	assert.Equal(t, "W+R", rec.Result)
	assert.NotEmpty(t, rec.Replay)
}

func TestSaveFinishedFlagsDegraded(t *testing.T) {
	store := newMemRecordStore(1 << 30)
	g := newTestGateway(store, newMemReplayCache())
	g.maxElapsed = 200 * time.Millisecond

	meta := archive.FinishedGame{SessionID: "s1", Name: "match"}
	g.SaveFinished(context.Background(), meta, finishedRecord(t))

	assert.Equal(t, []string{"s1"}, g.Degraded())
}

func TestCacheAndLiveReplay(t *testing.T) {
	g := newTestGateway(newMemRecordStore(0), newMemReplayCache())

	rec := finishedRecord(t)
	g.CacheReplay(context.Background(), "s1", rec)

	got, err := g.LiveReplay(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, got.Moves, len(rec.Moves))

	_, err = g.LiveReplay(context.Background(), "missing")
	require.Error(t, err)
}

func TestExportSGF(t *testing.T) {
	store := newMemRecordStore(0)
	g := newTestGateway(store, newMemReplayCache())

	meta := archive.FinishedGame{SessionID: "s1", Name: "match", Black: "alice", White: "bob"}
	g.SaveFinished(context.Background(), meta, finishedRecord(t))

	out, err := g.ExportSGF(context.Background(), "g1")
	require.NoError(t, err)
	assert.Contains(t, out, "PB[alice]")
	assert.Contains(t, out, "RE[W+R]")

	_, err = g.ExportSGF(context.Background(), "missing")
	require.ErrorIs(t, err, errs.ErrRecordNotFound)
}
