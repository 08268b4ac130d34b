package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jaysj0226/justspeak-backend/internal/cache"
	"github.com/jaysj0226/justspeak-backend/internal/models"
	"github.com/jaysj0226/justspeak-backend/internal/session"
	"github.com/jaysj0226/justspeak-backend/internal/utils"
)

const motivationTTL = 24 * time.Hour

// AIService serves the stateless AI features outside a lesson session:
// the spoken level test and the daily motivation line.
type AIService interface {
	EvaluateLevelTest(ctx context.Context, userID string, answers []string) (*models.LevelTestResult, error)
	DailyMotivation(ctx context.Context) (string, error)
}

type aiService struct {
	exec     session.TurnExecutor
	userData UserDataService
	cache    cache.Cache
	log      *logrus.Entry
}

func NewAIService(exec session.TurnExecutor, userData UserDataService, c cache.Cache, log *logrus.Entry) AIService {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &aiService{exec: exec, userData: userData, cache: c, log: log}
}

func (s *aiService) EvaluateLevelTest(ctx context.Context, userID string, answers []string) (*models.LevelTestResult, error) {
	const op = "AIService.EvaluateLevelTest"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	if len(answers) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "answers are required", nil)
	}

	out, err := s.exec.OneShotPrompt(ctx, session.LevelAssessmentPrompt(answers))
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "assessment is unavailable right now", err)
	}

	res := parseLevelAssessment(out)
	if res.Level == "" {
		return nil, utils.E(utils.CodeInternal, op, "could not parse assessment", nil)
	}
	res.TakenAt = time.Now().UTC()

	if err := s.userData.SetLevelTestResult(ctx, userID, res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *aiService) DailyMotivation(ctx context.Context) (string, error) {
	const op = "AIService.DailyMotivation"

	var cached string
	if s.cache != nil {
		if hit, err := s.cache.GetJSON(ctx, cache.DailyMotivationKey(), &cached); err == nil && hit && cached != "" {
			return cached, nil
		}
	}

	out, err := s.exec.OneShotPrompt(ctx, session.MotivationPrompt())
	if err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "motivation is unavailable right now", err)
	}
	out = strings.TrimSpace(out)

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cache.DailyMotivationKey(), out, motivationTTL); err != nil {
			s.log.WithError(err).Warn("motivation cache write failed")
		}
	}
	return out, nil
}

// parseLevelAssessment reads the fixed "Key: value" lines of the
// assessment reply. Unknown lines are skipped.
func parseLevelAssessment(text string) models.LevelTestResult {
	var res models.LevelTestResult
	for _, line := range strings.Split(text, "\n") {
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		val = strings.TrimSpace(val)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "level":
			switch strings.ToLower(val) {
			case "beginner":
				res.Level = "Beginner"
			case "intermediate":
				res.Level = "Intermediate"
			case "advanced":
				res.Level = "Advanced"
			}
		case "score":
			res.Score = clampScore(val)
		case "grammar":
			res.GrammarScore = clampScore(val)
		case "vocabulary":
			res.VocabularyScore = clampScore(val)
		case "complexity":
			res.ComplexityScore = clampScore(val)
		case "communication":
			res.CommunicationScore = clampScore(val)
		}
	}
	return res
}

func clampScore(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
