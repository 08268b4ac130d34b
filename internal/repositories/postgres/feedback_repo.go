package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/jaysj0226/justspeak-backend/internal/models"
)

type FeedbackRepo interface {
	Insert(ctx context.Context, fb *models.LessonFeedback) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.LessonFeedback, error)
	ListBySession(ctx context.Context, userID, sessionID string) ([]models.LessonFeedback, error)
}

type feedbackRepo struct {
	db *gorm.DB
}

func NewFeedbackRepo(db *gorm.DB) FeedbackRepo {
	return &feedbackRepo{db: db}
}

func (r *feedbackRepo) Insert(ctx context.Context, fb *models.LessonFeedback) error {
	return r.db.WithContext(ctx).Create(fb).Error
}

func (r *feedbackRepo) ListByUser(ctx context.Context, userID string, limit int) ([]models.LessonFeedback, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []models.LessonFeedback
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *feedbackRepo) ListBySession(ctx context.Context, userID, sessionID string) ([]models.LessonFeedback, error) {
	var rows []models.LessonFeedback
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}
