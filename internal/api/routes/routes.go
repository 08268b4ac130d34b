package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/jaysj0226/justspeak-backend/internal/api/handlers"
	"github.com/jaysj0226/justspeak-backend/internal/api/middleware"
)

type Deps struct {
	Session *handlers.SessionHandler
	Account *handlers.AccountHandler
	AI      *handlers.AIHandler
	WS      *handlers.WSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Protected routes (JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth())

	auth.POST("/session/start", d.Session.Start)
	auth.GET("/session/:session_id", d.Session.Get)
	auth.POST("/session/:session_id/turn", d.Session.Turn)
	auth.POST("/session/:session_id/continue", d.Session.Continue)
	auth.POST("/session/:session_id/stop", d.Session.Stop)
	auth.GET("/session/:session_id/transcript", d.Session.Transcript)
	auth.GET("/session/:session_id/transcript/export", d.Session.TranscriptExport)

	auth.GET("/account/me", d.Account.Me)
	auth.PUT("/account/onboarding", d.Account.Onboarding)
	auth.PUT("/account/voice-settings", d.Account.VoiceSettings)
	auth.PUT("/account/password", d.Account.Password)

	auth.GET("/progress", d.Account.Progress)
	auth.GET("/progress/daily", d.Account.ProgressDaily)
	auth.GET("/feedback", d.Account.FeedbackHistory)

	auth.POST("/level-test/evaluate", d.AI.EvaluateLevelTest)
	auth.GET("/motivation", d.AI.Motivation)
	auth.POST("/speak", d.AI.Speak)

	// WebSocket
	auth.GET("/ws/session/:session_id", d.WS.SessionWS)

	// Admin
	admin := auth.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	admin.GET("/sessions/active", d.Session.ListActive)
}
