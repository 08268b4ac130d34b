// Package session implements the lesson conversation core: the transcript,
// the feedback policy, the AI turn executor, the lesson timer, and the
// controller state machine that ties them together.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Speaker string

const (
	SpeakerUser  Speaker = "user"
	SpeakerAgent Speaker = "agent"
)

// Utterance is one turn in a conversation. Immutable once created.
type Utterance struct {
	ID        string    `json:"id"`
	Speaker   Speaker   `json:"speaker"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func NewUtterance(speaker Speaker, text string) Utterance {
	return Utterance{
		ID:        uuid.NewString(),
		Speaker:   speaker,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
}

// Transcript is the ordered list of exchanged utterances for one session.
// Append-only; the single writer is the controller event loop, readers may
// be API handlers on other goroutines.
type Transcript struct {
	mu      sync.RWMutex
	entries []Utterance
}

func NewTranscript() *Transcript { return &Transcript{} }

func (t *Transcript) Append(u Utterance) {
	t.mu.Lock()
	t.entries = append(t.entries, u)
	t.mu.Unlock()
}

// All returns a copy of the full sequence in insertion order.
func (t *Transcript) All() []Utterance {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Utterance, len(t.entries))
	copy(out, t.entries)
	return out
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
