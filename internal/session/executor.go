package session

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jaysj0226/justspeak-backend/internal/providers/genai"
	"github.com/jaysj0226/justspeak-backend/internal/scenario"
)

// TurnExecutor is what the controller needs from the AI side: start the
// backend conversation, run turns, run the stateless analysis and one-shot
// prompts. Implemented by Executor; tests substitute fakes.
type TurnExecutor interface {
	// StartSession establishes a fresh backend conversation seeded with the
	// scenario instruction and greeting. Returns the greeting to emit and
	// whether the session degraded to offline mode.
	StartSession(scenarioID, level string) (greeting string, offline bool)

	// ContinueTurn sends userText in the running conversation. In offline
	// mode it returns a keyword-matched canned reply and never errors.
	ContinueTurn(ctx context.Context, userText string) (string, error)

	// AnalyzeGrammar and SuggestVocabulary are stateless, best-effort
	// single-shot requests; no retry.
	AnalyzeGrammar(ctx context.Context, text string) (string, error)
	SuggestVocabulary(ctx context.Context, text string) (string, error)

	// OneShotPrompt is a stateless generation with the same timeout/retry
	// policy as ContinueTurn.
	OneShotPrompt(ctx context.Context, prompt string) (string, error)
}

const (
	// DefaultCallTimeout bounds every individual backend call.
	DefaultCallTimeout = 30 * time.Second
	// DefaultMaxAttempts is the per-request try budget (1 call + 2 retries).
	DefaultMaxAttempts = 3
)

// ExecutorConfig tunes the turn executor; zero values pick the defaults.
type ExecutorConfig struct {
	CallTimeout time.Duration
	MaxAttempts int
	Backoff     time.Duration
}

// Executor turns text requests into text responses via the generative
// backend, or fails cleanly. A nil backend means the session runs offline
// from the start.
type Executor struct {
	backend genai.Backend
	timeout time.Duration
	retry   RetryPolicy
	log     *logrus.Entry

	mu      sync.Mutex
	chat    genai.Chat
	offline bool
}

func NewExecutor(backend genai.Backend, cfg ExecutorConfig, log *logrus.Entry) *Executor {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Executor{
		backend: backend,
		timeout: cfg.CallTimeout,
		retry: RetryPolicy{
			MaxAttempts: cfg.MaxAttempts,
			Backoff:     cfg.Backoff,
			Retryable:   genai.Retryable,
		},
		log: log,
	}
}

func (e *Executor) StartSession(scenarioID, level string) (string, bool) {
	info := scenario.Lookup(scenarioID)

	if e.backend == nil {
		e.setOffline()
		return OfflineGreeting, true
	}

	chat, err := e.backend.StartChat(scenario.SystemPrompt(scenarioID, level), info.Greeting)
	if err != nil {
		e.log.WithError(err).Warn("backend chat init failed, degrading to offline mode")
		e.setOffline()
		return OfflineGreeting, true
	}

	e.mu.Lock()
	e.chat = chat
	e.mu.Unlock()
	return info.Greeting, false
}

func (e *Executor) setOffline() {
	e.mu.Lock()
	e.offline = true
	e.mu.Unlock()
}

// Offline reports whether the session degraded to canned replies.
func (e *Executor) Offline() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.offline
}

func (e *Executor) ContinueTurn(ctx context.Context, userText string) (string, error) {
	e.mu.Lock()
	chat, offline := e.chat, e.offline
	e.mu.Unlock()

	if offline {
		return offlineReply(userText), nil
	}
	if chat == nil {
		return "", genai.E(genai.KindNotReady, "session not started", nil)
	}

	var reply string
	err := e.retry.Do(ctx, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()
		out, err := chat.Send(callCtx, userText)
		if err != nil {
			return err
		}
		reply = out
		return nil
	})
	if err != nil {
		return "", genai.Classify(err)
	}
	return reply, nil
}

func (e *Executor) AnalyzeGrammar(ctx context.Context, text string) (string, error) {
	return e.oneShot(ctx, grammarPrompt(text), false)
}

func (e *Executor) SuggestVocabulary(ctx context.Context, text string) (string, error) {
	return e.oneShot(ctx, vocabularyPrompt(text), false)
}

func (e *Executor) OneShotPrompt(ctx context.Context, prompt string) (string, error) {
	return e.oneShot(ctx, prompt, true)
}

func (e *Executor) oneShot(ctx context.Context, prompt string, withRetry bool) (string, error) {
	if e.backend == nil || e.Offline() {
		return "", genai.E(genai.KindNotReady, "backend not available", nil)
	}

	policy := e.retry
	if !withRetry {
		policy.MaxAttempts = 1
	}

	var out string
	err := policy.Do(ctx, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()
		text, err := e.backend.GenerateOnce(callCtx, prompt)
		if err != nil {
			return err
		}
		out = text
		return nil
	})
	if err != nil {
		return "", genai.Classify(err)
	}
	return out, nil
}

// Prompt builders exposed for callers outside the controller (level test,
// motivation endpoints).

func LessonSummaryPrompt(userMessages []string) string { return lessonSummaryPrompt(userMessages) }
func LevelAssessmentPrompt(answers []string) string    { return levelAssessmentPrompt(answers) }
func MotivationPrompt() string                         { return motivationPrompt() }
func ParseFeedbackSections(summary string) (strengths, weaknesses []string) {
	return parseFeedbackSections(summary)
}
