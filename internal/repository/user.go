package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	userDomain "github.com/JaniM/variant-go-server/internal/domain/user"
	errs "github.com/JaniM/variant-go-server/internal/errors"
)

const userCollection = "users"

type UserRepository struct {
	log   *zap.SugaredLogger
	mongo *mongo.Database
}

func NewUserRepository(log *zap.SugaredLogger, mongo *mongo.Database) *UserRepository {
	return &UserRepository{
		log:   log,
		mongo: mongo,
	}
}

// EnsureIndexes creates the unique auth_token index. Called once at
// startup.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.mongo.Collection(userCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "auth_token", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create auth_token index: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByToken(ctx context.Context, token string) (userDomain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var u userDomain.User
	err := r.mongo.Collection(userCollection).FindOne(ctx, bson.M{"auth_token": token}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return userDomain.User{}, errs.ErrUserNotFound
	}
	if err != nil {
		return userDomain.User{}, fmt.Errorf("find user by token: %w", err)
	}
	return u, nil
}

func (r *UserRepository) Save(ctx context.Context, u userDomain.User) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.mongo.Collection(userCollection).InsertOne(ctx, u)
	if err != nil {
		r.log.Errorw("insert user", "user_id", u.ID, "error", err)
		return fmt.Errorf("%w: insert user: %v", errs.ErrWriteFailed, err)
	}
	return nil
}

func (r *UserRepository) UpdateNick(ctx context.Context, id, nick string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.mongo.Collection(userCollection).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"nick": nick}},
	)
	if err != nil {
		r.log.Errorw("update nick", "user_id", id, "error", err)
		return fmt.Errorf("%w: update nick: %v", errs.ErrWriteFailed, err)
	}
	if res.MatchedCount == 0 {
		return errs.ErrUserNotFound
	}
	return nil
}
