package models

import (
	"time"

	"github.com/lib/pq"
)

// LessonFeedback stores the parsed result of an end-of-lesson summary:
// the raw summary text plus the bullet items extracted from its strengths
// and weaknesses sections.
type LessonFeedback struct {
	ID         string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID     string `gorm:"column:user_id;type:uuid;index" json:"user_id"`
	SessionID  string `gorm:"column:session_id;type:uuid;index" json:"session_id"`
	ScenarioID string `gorm:"column:scenario_id;type:text;index" json:"scenario_id"`

	Summary    string         `gorm:"column:summary;type:text" json:"summary"`
	Strengths  pq.StringArray `gorm:"column:strengths;type:text[]" json:"strengths"`
	Weaknesses pq.StringArray `gorm:"column:weaknesses;type:text[]" json:"weaknesses"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;index" json:"created_at"`
}

func (LessonFeedback) TableName() string { return "lesson_feedback" }
