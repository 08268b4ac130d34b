// Package genai abstracts the generative-text backend behind small
// interfaces so the session core can be driven by fakes in tests and by
// Vertex AI Gemini in production.
package genai

import "context"

// Chat is a rolling conversation context. Implementations keep the full
// exchange history server- or client-side; callers only ever append.
type Chat interface {
	// Send appends the user text to the conversation and returns the
	// assistant reply.
	Send(ctx context.Context, text string) (string, error)
}

// Backend is the generative-text service. StartChat seeds a fresh
// conversation with a system instruction and a synthetic assistant greeting
// so the rolling context begins coherent; GenerateOnce is a stateless
// single-shot completion.
type Backend interface {
	StartChat(system, greeting string) (Chat, error)
	GenerateOnce(ctx context.Context, prompt string) (string, error)
	Close() error
}
