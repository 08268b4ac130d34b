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

type SessionRepository interface {
	Create(ctx context.Context, s *models.Session) error
	GetBySessionID(ctx context.Context, sessionID string) (*models.Session, error)
	ActiveByUser(ctx context.Context, userID string) (*models.Session, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Session, error)
	ListActive(ctx context.Context, limit int) ([]models.Session, error)
	IncrementCounters(ctx context.Context, sessionID string, lessons, turns int) error
	End(ctx context.Context, sessionID string, endedAt time.Time, durationSeconds int64) error
}

type sessionRepo struct {
	col *mongo.Collection
}

func NewSessionRepo(db *mongo.Database) SessionRepository {
	return &sessionRepo{col: db.Collection("sessions")}
}

func (r *sessionRepo) Create(ctx context.Context, s *models.Session) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	if s.Status == "" {
		s.Status = "active"
	}
	_, err := r.col.InsertOne(ctx, s)
	return err
}

func (r *sessionRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.Session, error) {
	var s models.Session
	err := r.col.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &s, err
}

func (r *sessionRepo) ActiveByUser(ctx context.Context, userID string) (*models.Session, error) {
	var s models.Session
	err := r.col.FindOne(ctx,
		bson.M{"user_id": userID, "status": "active"},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &s, err
}

func (r *sessionRepo) ListByUser(ctx context.Context, userID string, limit int) ([]models.Session, error) {
	if limit <= 0 {
		limit = 20
	}
	cur, err := r.col.Find(ctx,
		bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Session
	err = cur.All(ctx, &out)
	return out, err
}

func (r *sessionRepo) ListActive(ctx context.Context, limit int) ([]models.Session, error) {
	if limit <= 0 {
		limit = 100
	}
	cur, err := r.col.Find(ctx,
		bson.M{"status": "active"},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Session
	err = cur.All(ctx, &out)
	return out, err
}

func (r *sessionRepo) IncrementCounters(ctx context.Context, sessionID string, lessons, turns int) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{"$inc": bson.M{
			"lessons_completed": lessons,
			"turn_count":        turns,
		}},
	)
	return err
}

func (r *sessionRepo) End(ctx context.Context, sessionID string, endedAt time.Time, durationSeconds int64) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{"$set": bson.M{
			"status":           "ended",
			"ended_at":         endedAt.UTC(),
			"duration_seconds": durationSeconds,
		}},
	)
	return err
}
