package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/jaysj0226/justspeak-backend/internal/models"
	pgrepo "github.com/jaysj0226/justspeak-backend/internal/repositories/postgres"
	"github.com/jaysj0226/justspeak-backend/internal/session"
	"github.com/jaysj0226/justspeak-backend/internal/storage"
	"github.com/jaysj0226/justspeak-backend/internal/utils"
)

// ArchiveService persists a finished session's transcript twice: row per
// utterance in Postgres for queries, and the raw JSON dump in object
// storage for export and replay.
type ArchiveService interface {
	ArchiveSession(ctx context.Context, s *models.Session, utterances []session.Utterance) error
	Transcript(ctx context.Context, userID, sessionID string) ([]models.TranscriptLog, error)
	TranscriptExportURL(ctx context.Context, userID, sessionID string, ttl time.Duration) (string, error)
}

type archiveService struct {
	transcripts pgrepo.TranscriptRepo
	uploader    storage.Uploader
	signer      storage.Signer
	log         *logrus.Entry
}

func NewArchiveService(transcripts pgrepo.TranscriptRepo, uploader storage.Uploader, signer storage.Signer, log *logrus.Entry) ArchiveService {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &archiveService{
		transcripts: transcripts,
		uploader:    uploader,
		signer:      signer,
		log:         log,
	}
}

func transcriptObjectName(userID, sessionID string) string {
	return fmt.Sprintf("transcripts/%s/%s.json", userID, sessionID)
}

func (s *archiveService) ArchiveSession(ctx context.Context, sess *models.Session, utterances []session.Utterance) error {
	const op = "ArchiveService.ArchiveSession"

	if sess == nil || sess.SessionID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "session is required", nil)
	}

	meta, _ := json.Marshal(map[string]string{"scenario_id": sess.ScenarioID})
	rows := make([]models.TranscriptLog, 0, len(utterances))
	for _, u := range utterances {
		rows = append(rows, models.TranscriptLog{
			ID:        u.ID,
			UserID:    sess.UserID,
			SessionID: sess.SessionID,
			Speaker:   string(u.Speaker),
			Content:   u.Text,
			SpokenAt:  u.CreatedAt,
			Metadata:  datatypes.JSON(meta),
		})
	}
	if err := s.transcripts.InsertBatch(ctx, rows); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to archive transcript rows", err)
	}

	if s.uploader != nil {
		dump, err := json.Marshal(struct {
			Session    *models.Session     `json:"session"`
			Utterances []session.Utterance `json:"utterances"`
		}{sess, utterances})
		if err != nil {
			return utils.E(utils.CodeInternal, op, "failed to encode transcript dump", err)
		}
		name := transcriptObjectName(sess.UserID, sess.SessionID)
		if _, err := s.uploader.Upload(ctx, name, "application/json", bytes.NewReader(dump)); err != nil {
			// rows are the primary record; the dump is best-effort
			s.log.WithError(err).WithField("session_id", sess.SessionID).
				Warn("transcript dump upload failed")
		}
	}
	return nil
}

func (s *archiveService) Transcript(ctx context.Context, userID, sessionID string) ([]models.TranscriptLog, error) {
	const op = "ArchiveService.Transcript"

	if userID == "" || sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id and session_id are required", nil)
	}
	rows, err := s.transcripts.ListBySession(ctx, userID, sessionID, 0)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list transcript", err)
	}
	return rows, nil
}

func (s *archiveService) TranscriptExportURL(ctx context.Context, userID, sessionID string, ttl time.Duration) (string, error) {
	const op = "ArchiveService.TranscriptExportURL"

	if s.signer == nil {
		return "", utils.E(utils.CodeUnavailable, op, "object storage is not configured", nil)
	}
	url, err := s.signer.SignedGetURL(ctx, transcriptObjectName(userID, sessionID), ttl)
	if err != nil {
		return "", utils.E(utils.CodeInternal, op, "failed to sign export url", err)
	}
	return url, nil
}
