package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/jaysj0226/justspeak-backend/internal/models"
	"github.com/jaysj0226/justspeak-backend/internal/utils"
)

type TranscriptRepo interface {
	InsertBatch(ctx context.Context, rows []models.TranscriptLog) error
	ListBySession(ctx context.Context, userID, sessionID string, limit int) ([]models.TranscriptLog, error)
	LatestN(ctx context.Context, userID string, n int) ([]models.TranscriptLog, error)
	GetByID(ctx context.Context, id string) (*models.TranscriptLog, error)
}

type transcriptRepo struct {
	db *gorm.DB
}

func NewTranscriptRepo(db *gorm.DB) TranscriptRepo {
	return &transcriptRepo{db: db}
}

func (r *transcriptRepo) InsertBatch(ctx context.Context, rows []models.TranscriptLog) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, 100).Error
}

func (r *transcriptRepo) ListBySession(ctx context.Context, userID, sessionID string, limit int) ([]models.TranscriptLog, error) {
	if limit <= 0 {
		limit = 200
	}
	var rows []models.TranscriptLog
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Order("spoken_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *transcriptRepo) LatestN(ctx context.Context, userID string, n int) ([]models.TranscriptLog, error) {
	if n <= 0 {
		n = 20
	}
	var rows []models.TranscriptLog
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("spoken_at DESC").
		Limit(n).
		Find(&rows).Error
	return rows, err
}

func (r *transcriptRepo) GetByID(ctx context.Context, id string) (*models.TranscriptLog, error) {
	var row models.TranscriptLog
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}
