package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRecord is the per-user document holding everything the mobile client
// reads between sessions: level, onboarding answers, voice settings, and the
// learning progress counters. Cached in Redis, synced to MongoDB; merges are
// last-write-wins on UpdatedAt.
type UserRecord struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	UserID string             `bson:"user_id" json:"user_id"`

	Level               string `bson:"level,omitempty" json:"level,omitempty"` // Beginner|Intermediate|Advanced
	Interests           string `bson:"interests,omitempty" json:"interests,omitempty"`
	LearningGoal        string `bson:"learning_goal,omitempty" json:"learning_goal,omitempty"`
	OnboardingCompleted bool   `bson:"onboarding_completed" json:"onboarding_completed"`

	PasswordHash string `bson:"password_hash,omitempty" json:"-"`

	Voice     VoiceSettings    `bson:"voice,omitempty" json:"voice"`
	LevelTest *LevelTestResult `bson:"level_test,omitempty" json:"level_test,omitempty"`

	// Scenarios is keyed by scenario id.
	Scenarios map[string]ScenarioProgress `bson:"scenarios,omitempty" json:"scenarios,omitempty"`
	Daily     DailyProgress               `bson:"daily" json:"daily"`

	// LearnedDates holds "2006-01-02" dates on which the daily goal was met.
	LearnedDates []string `bson:"learned_dates,omitempty" json:"learned_dates,omitempty"`

	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

type VoiceSettings struct {
	Gender string  `bson:"gender,omitempty" json:"gender,omitempty"` // female|male
	Rate   float64 `bson:"rate,omitempty" json:"rate,omitempty"`     // 0.5 .. 2.0, 1.0 = normal
}

type LevelTestResult struct {
	Level              string    `bson:"level" json:"level"`
	Score              int       `bson:"score" json:"score"`
	GrammarScore       int       `bson:"grammar_score,omitempty" json:"grammar_score,omitempty"`
	VocabularyScore    int       `bson:"vocabulary_score,omitempty" json:"vocabulary_score,omitempty"`
	ComplexityScore    int       `bson:"complexity_score,omitempty" json:"complexity_score,omitempty"`
	CommunicationScore int       `bson:"communication_score,omitempty" json:"communication_score,omitempty"`
	TakenAt            time.Time `bson:"taken_at" json:"taken_at"`
}

type ScenarioProgress struct {
	Completed int       `bson:"completed" json:"completed"`
	Total     int       `bson:"total" json:"total"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

type DailyProgress struct {
	Completed int `bson:"completed" json:"completed"`
	Goal      int `bson:"goal" json:"goal"`

	// LastLearningDate is a "2006-01-02" date; the completed counter resets
	// whenever it differs from today.
	LastLearningDate string `bson:"last_learning_date,omitempty" json:"last_learning_date,omitempty"`
}
