package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Feedback timing modes for a lesson session.
const (
	FeedbackImmediate = "immediate"
	FeedbackDeferred  = "deferred"
	FeedbackOff       = "off"
)

// Session is the durable record of one lesson conversation. The live state
// machine lives in memory; this document only tracks identity, status, and
// the counters shown on the history screen.
type Session struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID string             `bson:"session_id" json:"session_id"` // uuid v4
	UserID    string             `bson:"user_id" json:"user_id"`

	ScenarioID   string `bson:"scenario_id" json:"scenario_id"`
	Level        string `bson:"level" json:"level"`
	FeedbackMode string `bson:"feedback_mode" json:"feedback_mode"` // immediate|deferred|off
	Offline      bool   `bson:"offline,omitempty" json:"offline,omitempty"`

	Status string `bson:"status" json:"status"` // active|ended

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	EndedAt   *time.Time `bson:"ended_at,omitempty" json:"ended_at,omitempty"`

	DurationSeconds  int64 `bson:"duration_seconds" json:"duration_seconds"`
	LessonsCompleted int   `bson:"lessons_completed" json:"lessons_completed"`
	TurnCount        int   `bson:"turn_count" json:"turn_count"`
}
