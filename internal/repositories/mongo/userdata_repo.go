package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jaysj0226/justspeak-backend/internal/models"
	"github.com/jaysj0226/justspeak-backend/internal/utils"
)

type UserDataRepository interface {
	Get(ctx context.Context, userID string) (*models.UserRecord, error)
	Upsert(ctx context.Context, rec *models.UserRecord) error
	Delete(ctx context.Context, userID string) error
}

type userDataRepo struct {
	col *mongo.Collection
}

func NewUserDataRepo(db *mongo.Database) UserDataRepository {
	return &userDataRepo{col: db.Collection("users")}
}

func (r *userDataRepo) Get(ctx context.Context, userID string) (*models.UserRecord, error) {
	var rec models.UserRecord
	err := r.col.FindOne(ctx, bson.M{"user_id": userID}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &rec, err
}

func (r *userDataRepo) Upsert(ctx context.Context, rec *models.UserRecord) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	_, err := r.col.ReplaceOne(ctx,
		bson.M{"user_id": rec.UserID},
		rec,
		options.Replace().SetUpsert(true),
	)
	return err
}

func (r *userDataRepo) Delete(ctx context.Context, userID string) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"user_id": userID})
	return err
}
