package stt

import (
	"context"
	"errors"
)

// ErrNoSpeech is returned when the recognizer produced no usable transcript
// for the utterance (silence, noise, or everything below the confidence
// floor).
var ErrNoSpeech = errors.New("stt: no speech recognized")

// Result is the best transcript for one finalized utterance.
type Result struct {
	Text       string
	Confidence float64
}

// Options tune recognition for a single utterance.
type Options struct {
	// Language is a BCP-47 code, "en-US" when empty.
	Language string
	// Hints bias recognition towards expected scenario vocabulary.
	Hints []string
}

// Provider converts one finalized speech utterance into text. Utterances in
// a conversation lesson are short; streaming recognition is not needed.
type Provider interface {
	Transcribe(ctx context.Context, audio []byte, opts Options) (Result, error)
	Close() error
}
