package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jaysj0226/justspeak-backend/internal/cache"
	"github.com/jaysj0226/justspeak-backend/internal/models"
	mongorepo "github.com/jaysj0226/justspeak-backend/internal/repositories/mongo"
	"github.com/jaysj0226/justspeak-backend/internal/scenario"
	"github.com/jaysj0226/justspeak-backend/internal/utils"
)

const (
	userDataTTL      = 30 * 24 * time.Hour
	defaultDailyGoal = 3
)

// UserDataService owns the per-user record. Redis is the authoritative
// fast tier: every write lands there first and is then pushed to the
// document store best-effort; on a cache miss the remote copy is rehydrated.
// When both tiers hold a record, the newer UpdatedAt wins field-for-field
// groups (progress counters, settings, onboarding answers).
type UserDataService interface {
	Get(ctx context.Context, userID string) (*models.UserRecord, error)
	CompleteOnboarding(ctx context.Context, userID, level, interests, goal string) (*models.UserRecord, error)
	SetVoiceSettings(ctx context.Context, userID string, v models.VoiceSettings) error
	SetPassword(ctx context.Context, userID, plain string) error
	CheckPassword(ctx context.Context, userID, plain string) error
	SetLevelTestResult(ctx context.Context, userID string, res models.LevelTestResult) error

	// RecordLessonCompletion bumps the scenario counter and the daily
	// counter, marking today as learned once the daily goal is met.
	RecordLessonCompletion(ctx context.Context, userID, scenarioID string) (completed, total int, err error)
}

type userDataService struct {
	local  cache.Cache
	remote mongorepo.UserDataRepository
	log    *logrus.Entry

	now func() time.Time
}

func NewUserDataService(local cache.Cache, remote mongorepo.UserDataRepository, log *logrus.Entry) UserDataService {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &userDataService{
		local:  local,
		remote: remote,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *userDataService) Get(ctx context.Context, userID string) (*models.UserRecord, error) {
	const op = "UserDataService.Get"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	rec, err := s.load(ctx, userID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load user data", err)
	}
	return rec, nil
}

// load resolves the record from both tiers. Absent everywhere yields a
// fresh default record, which is not persisted until the first write.
func (s *userDataService) load(ctx context.Context, userID string) (*models.UserRecord, error) {
	var local models.UserRecord
	hit, err := s.local.GetJSON(ctx, cache.UserDataKey(userID), &local)
	if err != nil {
		// cache trouble is not fatal, the remote copy still serves
		s.log.WithError(err).Warn("user data cache read failed")
		hit = false
	}

	remote, rerr := s.remote.Get(ctx, userID)
	if rerr != nil && !errors.Is(rerr, utils.ErrNotFound) {
		if !hit {
			return nil, rerr
		}
		s.log.WithError(rerr).Warn("user data remote read failed, serving cached copy")
		remote = nil
	}

	switch {
	case hit && remote != nil:
		merged := mergeUserRecords(&local, remote)
		return merged, nil
	case hit:
		return &local, nil
	case remote != nil:
		// rehydrate the fast tier
		if err := s.local.SetJSON(ctx, cache.UserDataKey(userID), remote, userDataTTL); err != nil {
			s.log.WithError(err).Warn("user data cache rehydrate failed")
		}
		return remote, nil
	default:
		return s.defaultRecord(userID), nil
	}
}

func (s *userDataService) defaultRecord(userID string) *models.UserRecord {
	return &models.UserRecord{
		UserID: userID,
		Voice:  models.VoiceSettings{Gender: "female", Rate: 1.0},
		Daily:  models.DailyProgress{Goal: defaultDailyGoal},
	}
}

// mergeUserRecords resolves a divergence between the two tiers: the record
// with the newer UpdatedAt wins wholesale, except scenario counters where
// the higher completed count is kept so progress never regresses.
func mergeUserRecords(local, remote *models.UserRecord) *models.UserRecord {
	winner, loser := local, remote
	if remote.UpdatedAt.After(local.UpdatedAt) {
		winner, loser = remote, local
	}

	merged := *winner
	if len(loser.Scenarios) > 0 {
		if merged.Scenarios == nil {
			merged.Scenarios = map[string]models.ScenarioProgress{}
		} else {
			copied := make(map[string]models.ScenarioProgress, len(merged.Scenarios))
			for k, v := range merged.Scenarios {
				copied[k] = v
			}
			merged.Scenarios = copied
		}
		for id, p := range loser.Scenarios {
			if cur, ok := merged.Scenarios[id]; !ok || p.Completed > cur.Completed {
				merged.Scenarios[id] = p
			}
		}
	}
	return &merged
}

// save writes local-first, then remote best-effort.
func (s *userDataService) save(ctx context.Context, rec *models.UserRecord) error {
	rec.UpdatedAt = s.now()
	if err := s.local.SetJSON(ctx, cache.UserDataKey(rec.UserID), rec, userDataTTL); err != nil {
		return err
	}
	if err := s.remote.Upsert(ctx, rec); err != nil {
		// remote lag is tolerated; the merge heals it on next read
		s.log.WithError(err).Warn("user data remote sync failed")
	}
	return nil
}

func (s *userDataService) CompleteOnboarding(ctx context.Context, userID, level, interests, goal string) (*models.UserRecord, error) {
	const op = "UserDataService.CompleteOnboarding"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	switch level {
	case "Beginner", "Intermediate", "Advanced", "":
	default:
		return nil, utils.E(utils.CodeInvalidArgument, op, "invalid level", nil)
	}

	rec, err := s.load(ctx, userID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load user data", err)
	}
	if level != "" {
		rec.Level = level
	}
	rec.Interests = interests
	rec.LearningGoal = goal
	rec.OnboardingCompleted = true

	if err := s.save(ctx, rec); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to save user data", err)
	}
	return rec, nil
}

func (s *userDataService) SetVoiceSettings(ctx context.Context, userID string, v models.VoiceSettings) error {
	const op = "UserDataService.SetVoiceSettings"

	if userID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	if v.Gender != "female" && v.Gender != "male" {
		return utils.E(utils.CodeInvalidArgument, op, "gender must be female or male", nil)
	}
	if v.Rate < 0.5 || v.Rate > 2.0 {
		return utils.E(utils.CodeInvalidArgument, op, "rate must be between 0.5 and 2.0", nil)
	}

	rec, err := s.load(ctx, userID)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to load user data", err)
	}
	rec.Voice = v
	if err := s.save(ctx, rec); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to save user data", err)
	}
	return nil
}

func (s *userDataService) SetPassword(ctx context.Context, userID, plain string) error {
	const op = "UserDataService.SetPassword"

	if userID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	hash, err := utils.HashPassword(plain)
	if err != nil {
		return utils.E(utils.CodeInvalidArgument, op, "invalid password", err)
	}

	rec, lerr := s.load(ctx, userID)
	if lerr != nil {
		return utils.E(utils.CodeInternal, op, "failed to load user data", lerr)
	}
	rec.PasswordHash = hash
	if err := s.save(ctx, rec); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to save user data", err)
	}
	return nil
}

func (s *userDataService) CheckPassword(ctx context.Context, userID, plain string) error {
	const op = "UserDataService.CheckPassword"

	rec, err := s.load(ctx, userID)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to load user data", err)
	}
	if rec.PasswordHash == "" {
		return utils.E(utils.CodeNotFound, op, "no password set", nil)
	}
	if err := utils.CheckPassword(rec.PasswordHash, plain); err != nil {
		return utils.E(utils.CodeUnauthorized, op, "wrong password", err)
	}
	return nil
}

func (s *userDataService) SetLevelTestResult(ctx context.Context, userID string, res models.LevelTestResult) error {
	const op = "UserDataService.SetLevelTestResult"

	if userID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	if res.TakenAt.IsZero() {
		res.TakenAt = s.now()
	}

	rec, err := s.load(ctx, userID)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to load user data", err)
	}
	rec.LevelTest = &res
	if res.Level != "" {
		rec.Level = res.Level
	}
	if err := s.save(ctx, rec); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to save user data", err)
	}
	return nil
}

func (s *userDataService) RecordLessonCompletion(ctx context.Context, userID, scenarioID string) (int, int, error) {
	const op = "UserDataService.RecordLessonCompletion"

	if userID == "" || scenarioID == "" {
		return 0, 0, utils.E(utils.CodeInvalidArgument, op, "user_id and scenario_id are required", nil)
	}

	rec, err := s.load(ctx, userID)
	if err != nil {
		return 0, 0, utils.E(utils.CodeInternal, op, "failed to load user data", err)
	}

	info := scenario.Lookup(scenarioID)
	if rec.Scenarios == nil {
		rec.Scenarios = map[string]models.ScenarioProgress{}
	}
	p, ok := rec.Scenarios[info.ID]
	if !ok {
		p = models.ScenarioProgress{Total: info.DefaultLessonTotal}
	}
	if p.Total <= 0 {
		p.Total = info.DefaultLessonTotal
	}
	p.Completed++
	p.UpdatedAt = s.now()
	rec.Scenarios[info.ID] = p

	s.bumpDaily(rec)

	if err := s.save(ctx, rec); err != nil {
		return 0, 0, utils.E(utils.CodeInternal, op, "failed to save user data", err)
	}
	return p.Completed, p.Total, nil
}

// bumpDaily advances the daily counter, resetting it on a date change, and
// marks today as learned once the goal is met.
func (s *userDataService) bumpDaily(rec *models.UserRecord) {
	today := s.now().Format("2006-01-02")

	if rec.Daily.LastLearningDate != today {
		rec.Daily.Completed = 0
		rec.Daily.LastLearningDate = today
	}
	if rec.Daily.Goal <= 0 {
		rec.Daily.Goal = defaultDailyGoal
	}
	rec.Daily.Completed++

	if rec.Daily.Completed >= rec.Daily.Goal && !containsDate(rec.LearnedDates, today) {
		rec.LearnedDates = append(rec.LearnedDates, today)
	}
}

func containsDate(dates []string, d string) bool {
	for _, x := range dates {
		if x == d {
			return true
		}
	}
	return false
}
