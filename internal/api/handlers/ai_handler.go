package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jaysj0226/justspeak-backend/internal/providers/tts"
	"github.com/jaysj0226/justspeak-backend/internal/services"
	"github.com/jaysj0226/justspeak-backend/internal/utils"
)

type AIHandler struct {
	ai       services.AIService
	userData services.UserDataService
	tts      tts.Provider
}

func NewAIHandler(ai services.AIService, userData services.UserDataService, tts tts.Provider) *AIHandler {
	return &AIHandler{ai: ai, userData: userData, tts: tts}
}

type LevelTestRequest struct {
	Answers []string `json:"answers" binding:"required,min=1"`
}

func (h *AIHandler) EvaluateLevelTest(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req LevelTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AIHandler.EvaluateLevelTest", "invalid request body", err))
		return
	}

	res, err := h.ai.EvaluateLevelTest(c.Request.Context(), userID, req.Answers)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AIHandler) Motivation(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	text, err := h.ai.DailyMotivation(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": text})
}

type SpeakRequest struct {
	Text string `json:"text" binding:"required,max=2000"`
}

// Speak renders text with the caller's saved voice settings; the reply is
// raw MP3 for direct playback.
func (h *AIHandler) Speak(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	if h.tts == nil {
		writeError(c, utils.E(utils.CodeUnavailable, "AIHandler.Speak", "speech synthesis is not configured", nil))
		return
	}

	var req SpeakRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AIHandler.Speak", "invalid request body", err))
		return
	}

	rec, err := h.userData.Get(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	audio, err := h.tts.Synthesize(c.Request.Context(), req.Text, rec.Voice)
	if err != nil {
		writeError(c, utils.E(utils.CodeUnavailable, "AIHandler.Speak", "speech synthesis failed", err))
		return
	}
	c.Data(http.StatusOK, "audio/mpeg", audio)
}
