package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/jaysj0226/justspeak-backend/internal/services"
	"github.com/jaysj0226/justspeak-backend/internal/utils"
	"github.com/jaysj0226/justspeak-backend/internal/workers"
)

type WSHandler struct {
	sessions services.SessionService
	redis    *redis.Client
	upgrader websocket.Upgrader
}

func NewWSHandler(sessions services.SessionService, rdb *redis.Client) *WSHandler {
	return &WSHandler{
		sessions: sessions,
		redis:    rdb,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type wsClientMsg struct {
	Type string `json:"type"` // turn|audio|continue|stop

	Text string `json:"text,omitempty"`

	AudioBase64 string `json:"audio_base64,omitempty"`
	Language    string `json:"language,omitempty"`
	ScenarioID  string `json:"scenario_id,omitempty"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteJSON(v)
}

// SessionWS streams session events to the client and accepts turn input,
// both typed text and recorded audio. Audio goes through the speech job
// stream; the recognized text then flows back as a normal utterance event.
func (h *WSHandler) SessionWS(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sessionID := c.Param("session_id")
	if sessionID == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "WSHandler.SessionWS", "missing session_id", nil))
		return
	}

	events, cancel, err := h.sessions.Subscribe(userID, sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote the response in most cases
		return
	}
	defer conn.Close()
	wc := &wsConn{c: conn}

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})

		for {
			_, data, rerr := conn.ReadMessage()
			if rerr != nil {
				return
			}
			var msg wsClientMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				_ = wc.writeJSON(gin.H{"type": "error", "message": "invalid message"})
				continue
			}
			h.handleClientMsg(c, wc, userID, sessionID, msg)
		}
	}()

	ping := time.NewTicker(25 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-readDone:
			return
		case <-ping.C:
			wc.mu.Lock()
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			wc.mu.Unlock()
			if err != nil {
				return
			}
		case ev, ok := <-events:
			if !ok {
				_ = wc.writeJSON(services.Event{Type: "ended"})
				return
			}
			if err := wc.writeJSON(ev); err != nil {
				return
			}
			if ev.Type == "ended" {
				return
			}
		}
	}
}

func (h *WSHandler) handleClientMsg(c *gin.Context, wc *wsConn, userID, sessionID string, msg wsClientMsg) {
	switch msg.Type {
	case "turn":
		if err := h.sessions.PostUtterance(userID, sessionID, msg.Text); err != nil {
			_ = wc.writeJSON(gin.H{"type": "error", "message": "turn rejected"})
		}
	case "audio":
		if msg.AudioBase64 == "" {
			_ = wc.writeJSON(gin.H{"type": "error", "message": "missing audio"})
			return
		}
		err := workers.EnqueueSpeechJob(c.Request.Context(), h.redis, workers.SpeechJob{
			UserID:      userID,
			SessionID:   sessionID,
			ScenarioID:  msg.ScenarioID,
			AudioBase64: msg.AudioBase64,
			Language:    msg.Language,
		})
		if err != nil {
			_ = wc.writeJSON(gin.H{"type": "error", "message": "audio enqueue failed"})
		}
	case "continue":
		_ = h.sessions.Continue(c.Request.Context(), userID, sessionID)
	case "stop":
		if _, err := h.sessions.Stop(c.Request.Context(), userID, sessionID); err != nil {
			_ = wc.writeJSON(gin.H{"type": "error", "message": "stop failed"})
		}
	default:
		_ = wc.writeJSON(gin.H{"type": "error", "message": "unknown message type"})
	}
}
