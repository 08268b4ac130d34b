package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jaysj0226/justspeak-backend/internal/services"
	"github.com/jaysj0226/justspeak-backend/internal/utils"
)

type SessionHandler struct {
	svc     services.SessionService
	archive services.ArchiveService
}

func NewSessionHandler(svc services.SessionService, archive services.ArchiveService) *SessionHandler {
	return &SessionHandler{svc: svc, archive: archive}
}

type StartSessionRequest struct {
	ScenarioID   string `json:"scenario_id" binding:"required"`
	Level        string `json:"level"`         // Beginner|Intermediate|Advanced, profile default when empty
	FeedbackMode string `json:"feedback_mode"` // immediate|deferred|off
}

func (h *SessionHandler) Start(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "SessionHandler.Start", "invalid request body", err))
		return
	}

	out, err := h.svc.Start(c.Request.Context(), userID, services.StartSessionInput{
		ScenarioID:   req.ScenarioID,
		Level:        req.Level,
		FeedbackMode: req.FeedbackMode,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *SessionHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sess, err := h.svc.Get(c.Request.Context(), userID, c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

type TurnRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *SessionHandler) Turn(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req TurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "SessionHandler.Turn", "invalid request body", err))
		return
	}

	out, err := h.svc.Turn(c.Request.Context(), userID, c.Param("session_id"), req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *SessionHandler) Continue(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := h.svc.Continue(c.Request.Context(), userID, c.Param("session_id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "continuing"})
}

func (h *SessionHandler) Stop(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sess, err := h.svc.Stop(c.Request.Context(), userID, c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// Transcript serves the live transcript while the session runs and the
// archived rows afterwards.
func (h *SessionHandler) Transcript(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	sessionID := c.Param("session_id")

	if live, err := h.svc.Transcript(c.Request.Context(), userID, sessionID); err == nil {
		c.JSON(http.StatusOK, gin.H{"source": "live", "utterances": live})
		return
	}

	rows, err := h.archive.Transcript(c.Request.Context(), userID, sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"source": "archive", "utterances": rows})
}

func (h *SessionHandler) TranscriptExport(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	url, err := h.archive.TranscriptExportURL(c.Request.Context(), userID, c.Param("session_id"), 15*time.Minute)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// ListActive is the admin view over every running session.
func (h *SessionHandler) ListActive(c *gin.Context) {
	rows, err := h.svc.ListActive(c.Request.Context(), 0)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": rows})
}
