package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	errs "github.com/JaniM/variant-go-server/internal/errors"
)

// ReplayCacheRepository keeps in-flight replay blobs in Redis keyed by
// session id, so live games survive a short server restart and can be
// fetched without locking the session.
type ReplayCacheRepository struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewReplayCacheRepository(client *redis.Client, ttl time.Duration) *ReplayCacheRepository {
	return &ReplayCacheRepository{redis: client, ttl: ttl}
}

func (r *ReplayCacheRepository) SaveReplay(ctx context.Context, sessionID string, blob []byte) error {
	return r.redis.Set(ctx, replayKey(sessionID), blob, r.ttl).Err()
}

func (r *ReplayCacheRepository) LoadReplay(ctx context.Context, sessionID string) ([]byte, error) {
	blob, err := r.redis.Get(ctx, replayKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errs.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load replay from redis: %w", err)
	}
	return blob, nil
}

func replayKey(sessionID string) string {
	return "replay:" + sessionID
}
