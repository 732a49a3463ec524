package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/JaniM/variant-go-server/internal/domain/archive"
	errs "github.com/JaniM/variant-go-server/internal/errors"
)

const gameCollection = "games"

type RecordRepository struct {
	log   *zap.SugaredLogger
	mongo *mongo.Database
}

func NewRecordRepository(log *zap.SugaredLogger, mongo *mongo.Database) *RecordRepository {
	return &RecordRepository{
		log:   log,
		mongo: mongo,
	}
}

func (r *RecordRepository) SaveGameRecord(ctx context.Context, rec archive.GameRecord) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err := r.mongo.Collection(gameCollection).InsertOne(ctx, rec)
	if err != nil {
		r.log.Errorw("insert game record", "record_id", rec.ID, "error", err)
		return "", fmt.Errorf("%w: insert game record: %v", errs.ErrWriteFailed, err)
	}
	return rec.ID, nil
}

func (r *RecordRepository) GetGameRecord(ctx context.Context, id string) (archive.GameRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var rec archive.GameRecord
	err := r.mongo.Collection(gameCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return archive.GameRecord{}, errs.ErrRecordNotFound
	}
	if err != nil {
		return archive.GameRecord{}, fmt.Errorf("find game record: %w", err)
	}
	return rec, nil
}

func (r *RecordRepository) ListGameRecords(ctx context.Context) ([]archive.GameRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "finished_at", Value: -1}}).
		SetProjection(bson.M{"replay": 0}).
		SetLimit(100)
	cur, err := r.mongo.Collection(gameCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list game records: %w", err)
	}
	defer cur.Close(ctx)

	var out []archive.GameRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode game records: %w", err)
	}
	return out, nil
}
