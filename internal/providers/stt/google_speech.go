package stt

import (
	"context"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
)

// GoogleSpeech recognizes lesson utterances with Cloud Speech-to-Text,
// tuned for short conversational audio from the mobile clients.
type GoogleSpeech struct {
	c *speech.Client

	Encoding     speechpb.RecognitionConfig_AudioEncoding
	SampleRateHz int32

	// MinConfidence drops transcripts the recognizer is unsure about, so a
	// garbled utterance does not get graded as a grammar mistake.
	MinConfidence float64
}

func NewGoogleSpeech(ctx context.Context) (*GoogleSpeech, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &GoogleSpeech{
		c:             c,
		Encoding:      speechpb.RecognitionConfig_LINEAR16,
		SampleRateHz:  16000,
		MinConfidence: 0.3,
	}, nil
}

func (g *GoogleSpeech) Close() error { return g.c.Close() }

func (g *GoogleSpeech) Transcribe(ctx context.Context, audio []byte, opts Options) (Result, error) {
	language := opts.Language
	if language == "" {
		language = "en-US"
	}

	cfg := &speechpb.RecognitionConfig{
		Encoding:                   g.Encoding,
		SampleRateHertz:            g.SampleRateHz,
		LanguageCode:               language,
		EnableAutomaticPunctuation: true,
		Model:                      "latest_short",
	}
	if len(opts.Hints) > 0 {
		cfg.SpeechContexts = []*speechpb.SpeechContext{{Phrases: opts.Hints}}
	}

	resp, err := g.c.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: cfg,
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return Result{}, err
	}

	var best Result
	for _, r := range resp.Results {
		for _, alt := range r.Alternatives {
			if alt.Transcript != "" && float64(alt.Confidence) >= best.Confidence {
				best = Result{Text: alt.Transcript, Confidence: float64(alt.Confidence)}
			}
		}
	}
	if best.Text == "" || best.Confidence < g.MinConfidence {
		return Result{}, ErrNoSpeech
	}
	return best, nil
}
