package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jaysj0226/justspeak-backend/internal/models"
	pgrepo "github.com/jaysj0226/justspeak-backend/internal/repositories/postgres"
	"github.com/jaysj0226/justspeak-backend/internal/utils"
)

// FeedbackService stores parsed lesson summaries and serves the history
// screen. It doubles as the sink the session controller writes into.
type FeedbackService interface {
	SaveLessonFeedback(ctx context.Context, userID, sessionID, scenarioID, summary string, strengths, weaknesses []string) error
	History(ctx context.Context, userID string, limit int) ([]models.LessonFeedback, error)
}

type feedbackService struct {
	repo pgrepo.FeedbackRepo
}

func NewFeedbackService(repo pgrepo.FeedbackRepo) FeedbackService {
	return &feedbackService{repo: repo}
}

func (s *feedbackService) SaveLessonFeedback(ctx context.Context, userID, sessionID, scenarioID, summary string, strengths, weaknesses []string) error {
	const op = "FeedbackService.SaveLessonFeedback"

	if userID == "" || sessionID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "user_id and session_id are required", nil)
	}
	fb := &models.LessonFeedback{
		ID:         uuid.NewString(),
		UserID:     userID,
		SessionID:  sessionID,
		ScenarioID: scenarioID,
		Summary:    summary,
		Strengths:  strengths,
		Weaknesses: weaknesses,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, fb); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to save feedback", err)
	}
	return nil
}

func (s *feedbackService) History(ctx context.Context, userID string, limit int) ([]models.LessonFeedback, error) {
	const op = "FeedbackService.History"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	rows, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list feedback", err)
	}
	return rows, nil
}
