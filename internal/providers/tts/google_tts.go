package tts

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	texttospeech "google.golang.org/api/texttospeech/v1"

	"github.com/jaysj0226/justspeak-backend/internal/models"
)

// Voice names chosen for natural conversational English; the request falls
// back to gender selection when a name is unavailable in the region.
const (
	voiceFemale = "en-US-Neural2-F"
	voiceMale   = "en-US-Neural2-D"
)

type GoogleTTS struct {
	svc *texttospeech.Service
}

func NewGoogleTTS(ctx context.Context) (*GoogleTTS, error) {
	svc, err := texttospeech.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("tts service init: %w", err)
	}
	return &GoogleTTS{svc: svc}, nil
}

func (g *GoogleTTS) Synthesize(ctx context.Context, text string, voice models.VoiceSettings) ([]byte, error) {
	name, gender := voiceFemale, "FEMALE"
	if strings.EqualFold(voice.Gender, "male") {
		name, gender = voiceMale, "MALE"
	}
	rate := voice.Rate
	if rate < 0.5 || rate > 2.0 {
		rate = 1.0
	}

	req := &texttospeech.SynthesizeSpeechRequest{
		Input: &texttospeech.SynthesisInput{Text: text},
		Voice: &texttospeech.VoiceSelectionParams{
			LanguageCode: "en-US",
			Name:         name,
			SsmlGender:   gender,
		},
		AudioConfig: &texttospeech.AudioConfig{
			AudioEncoding: "MP3",
			SpeakingRate:  rate,
		},
	}

	resp, err := g.svc.Text.Synthesize(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}
	audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("decode audio content: %w", err)
	}
	return audio, nil
}
