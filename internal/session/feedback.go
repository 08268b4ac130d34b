package session

import (
	"strings"
	"sync"

	"github.com/jaysj0226/justspeak-backend/internal/models"
)

// NoIssuesFeedback is shown when both analyses completed with nothing to say.
const NoIssuesFeedback = "Your grammar and vocabulary look good!"

// Policy decides, per configured timing mode, whether a user utterance gets
// per-turn analysis, and accumulates the pending list used for the
// end-of-lesson summary.
type Policy struct {
	Mode string // models.FeedbackImmediate | FeedbackDeferred | FeedbackOff

	mu      sync.Mutex
	pending []string
}

func NewPolicy(mode string) *Policy {
	switch mode {
	case models.FeedbackImmediate, models.FeedbackDeferred, models.FeedbackOff:
	default:
		mode = models.FeedbackImmediate
	}
	return &Policy{Mode: mode}
}

// OnUserUtterance records the utterance per the configured mode and reports
// whether per-turn analysis should be requested now.
func (p *Policy) OnUserUtterance(text string) (analyzeNow bool) {
	switch p.Mode {
	case models.FeedbackImmediate:
		p.mu.Lock()
		p.pending = append(p.pending, text)
		p.mu.Unlock()
		return true
	case models.FeedbackDeferred:
		p.mu.Lock()
		p.pending = append(p.pending, text)
		p.mu.Unlock()
		return false
	default:
		return false
	}
}

// Pending returns a copy of the accumulated utterances.
func (p *Policy) Pending() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.pending))
	copy(out, p.pending)
	return out
}

func (p *Policy) ClearPending() {
	p.mu.Lock()
	p.pending = nil
	p.mu.Unlock()
}

// turnAnalysis aggregates the grammar and vocabulary commentary for one
// turn. The two requests run concurrently; the result is displayable only
// once both have resolved, never partially. A failed analysis degrades to
// an empty commentary.
type turnAnalysis struct {
	turn    int
	grammar *string
	vocab   *string
}

func (a *turnAnalysis) setGrammar(s string) { a.grammar = &s }
func (a *turnAnalysis) setVocab(s string)   { a.vocab = &s }

func (a *turnAnalysis) ready() bool { return a.grammar != nil && a.vocab != nil }

// render combines both commentaries. Empty on both sides means "no issues".
func (a *turnAnalysis) render() string {
	if !a.ready() {
		return ""
	}
	var parts []string
	if *a.grammar != "" {
		parts = append(parts, "Grammar: "+*a.grammar)
	}
	if *a.vocab != "" {
		parts = append(parts, "Vocabulary: "+*a.vocab)
	}
	if len(parts) == 0 {
		return NoIssuesFeedback
	}
	return strings.Join(parts, "\n\n")
}
