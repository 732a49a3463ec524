package repo

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/JaniM/variant-go-server/internal/domain/archive"
	userDomain "github.com/JaniM/variant-go-server/internal/domain/user"
	errs "github.com/JaniM/variant-go-server/internal/errors"
)

// In-memory storages mirroring the Mongo/Redis repositories. Used in
// tests and for running the server without external services.

type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]userDomain.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]userDomain.User)}
}

func (r *MemoryUserRepository) FindByToken(_ context.Context, token string) (userDomain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.AuthToken == token {
			return u, nil
		}
	}
	return userDomain.User{}, errs.ErrUserNotFound
}

func (r *MemoryUserRepository) Save(_ context.Context, u userDomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
	return nil
}

func (r *MemoryUserRepository) UpdateNick(_ context.Context, id, nick string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return errs.ErrUserNotFound
	}
	u.Nick = nick
	r.users[id] = u
	return nil
}

type MemoryRecordRepository struct {
	mu      sync.RWMutex
	records map[string]archive.GameRecord
}

func NewMemoryRecordRepository() *MemoryRecordRepository {
	return &MemoryRecordRepository{records: make(map[string]archive.GameRecord)}
}

func (r *MemoryRecordRepository) SaveGameRecord(_ context.Context, rec archive.GameRecord) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	r.records[rec.ID] = rec
	return rec.ID, nil
}

func (r *MemoryRecordRepository) GetGameRecord(_ context.Context, id string) (archive.GameRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return archive.GameRecord{}, errs.ErrRecordNotFound
	}
	return rec, nil
}

func (r *MemoryRecordRepository) ListGameRecords(_ context.Context) ([]archive.GameRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]archive.GameRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	return out, nil
}

type MemoryReplayCache struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryReplayCache() *MemoryReplayCache {
	return &MemoryReplayCache{blobs: make(map[string][]byte)}
}

func (r *MemoryReplayCache) SaveReplay(_ context.Context, sessionID string, blob []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blobs[sessionID] = append([]byte(nil), blob...)
	return nil
}

func (r *MemoryReplayCache) LoadReplay(_ context.Context, sessionID string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	blob, ok := r.blobs[sessionID]
	if !ok {
		return nil, errs.ErrRecordNotFound
	}
	return blob, nil
}
