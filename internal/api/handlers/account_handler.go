package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jaysj0226/justspeak-backend/internal/models"
	"github.com/jaysj0226/justspeak-backend/internal/services"
	"github.com/jaysj0226/justspeak-backend/internal/utils"
)

type AccountHandler struct {
	userData services.UserDataService
	feedback services.FeedbackService
}

func NewAccountHandler(userData services.UserDataService, feedback services.FeedbackService) *AccountHandler {
	return &AccountHandler{userData: userData, feedback: feedback}
}

func (h *AccountHandler) Me(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	rec, err := h.userData.Get(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

type OnboardingRequest struct {
	Level        string `json:"level"`
	Interests    string `json:"interests"`
	LearningGoal string `json:"learning_goal"`
}

func (h *AccountHandler) Onboarding(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req OnboardingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AccountHandler.Onboarding", "invalid request body", err))
		return
	}

	rec, err := h.userData.CompleteOnboarding(c.Request.Context(), userID, req.Level, req.Interests, req.LearningGoal)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *AccountHandler) VoiceSettings(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req models.VoiceSettings
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AccountHandler.VoiceSettings", "invalid request body", err))
		return
	}

	if err := h.userData.SetVoiceSettings(c.Request.Context(), userID, req); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type PasswordRequest struct {
	Current string `json:"current"`
	New     string `json:"new" binding:"required,min=8"`
}

func (h *AccountHandler) Password(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req PasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AccountHandler.Password", "invalid request body", err))
		return
	}

	// verify the current password only when one was ever set
	if req.Current != "" {
		if err := h.userData.CheckPassword(c.Request.Context(), userID, req.Current); err != nil {
			writeError(c, err)
			return
		}
	}
	if err := h.userData.SetPassword(c.Request.Context(), userID, req.New); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Progress returns the per-scenario counters.
func (h *AccountHandler) Progress(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	rec, err := h.userData.Get(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scenarios": rec.Scenarios})
}

// ProgressDaily returns today's counter, the goal, and the learned dates
// for the streak calendar.
func (h *AccountHandler) ProgressDaily(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	rec, err := h.userData.Get(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"daily":         rec.Daily,
		"learned_dates": rec.LearnedDates,
	})
}

func (h *AccountHandler) FeedbackHistory(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	rows, err := h.feedback.History(c.Request.Context(), userID, 0)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedback": rows})
}
