package models

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// TranscriptLog is one archived utterance. Rows are written once at session
// end; the live transcript never touches Postgres.
type TranscriptLog struct {
	ID        string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID    string `gorm:"column:user_id;type:uuid;index" json:"user_id"`
	SessionID string `gorm:"column:session_id;type:uuid;index" json:"session_id"`

	Speaker string `gorm:"column:speaker;type:text" json:"speaker"` // "user" | "agent"
	Content string `gorm:"column:content;type:text" json:"content"`

	// Embedding is optional; callers that compute one pass it through,
	// everything else leaves the column null.
	Embedding pgvector.Vector `gorm:"column:embedding;type:vector(768)" json:"embedding"`

	SpokenAt time.Time      `gorm:"column:spoken_at;type:timestamptz;index" json:"spoken_at"`
	Metadata datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
}

func (TranscriptLog) TableName() string { return "transcript_logs" }
