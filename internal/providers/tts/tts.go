package tts

import (
	"context"

	"github.com/jaysj0226/justspeak-backend/internal/models"
)

// Provider renders agent replies to audio using the caller's voice
// settings.
type Provider interface {
	// Synthesize returns encoded audio (MP3) for text.
	Synthesize(ctx context.Context, text string, voice models.VoiceSettings) ([]byte, error)
}
