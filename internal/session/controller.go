package session

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jaysj0226/justspeak-backend/internal/models"
)

// State of the lesson conversation state machine.
type State int

const (
	StateStarting State = iota
	StateAwaitingInput
	StateProcessingTurn
	StateLessonComplete
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateAwaitingInput:
		return "awaiting_input"
	case StateProcessingTurn:
		return "processing_turn"
	case StateLessonComplete:
		return "lesson_complete"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// FallbackReply keeps the conversation moving when a backend turn fails.
const FallbackReply = "I see. Could you tell me more about that?"

// ContinueMessage is emitted when the user chooses to keep going after a
// completion checkpoint.
const ContinueMessage = "Great! Let's continue our conversation. What would you like to talk about?"

// LessonCompleteMessage is the plain checkpoint message; summary feedback,
// when available, is delivered separately.
const LessonCompleteMessage = "Congratulations! You completed the lesson."

// ProgressRecorder persists lesson-completion milestones.
type ProgressRecorder interface {
	RecordLessonCompletion(ctx context.Context, userID, scenarioID string) (completed, total int, err error)
}

// FeedbackSink persists the parsed end-of-lesson summary. Best-effort.
type FeedbackSink interface {
	SaveLessonFeedback(ctx context.Context, userID, sessionID, scenarioID, summary string, strengths, weaknesses []string) error
}

// Listener receives session output. All methods are invoked from the
// controller's event loop goroutine, one at a time.
type Listener interface {
	OnUtterance(u Utterance)
	// OnTurnFeedback delivers the combined grammar+vocabulary commentary
	// for a turn, or the summary feedback (turn 0) at lesson end.
	OnTurnFeedback(turn int, text string)
	OnLessonComplete(completed, total int)
	// OnNotice carries transient, non-blocking user messages.
	OnNotice(text string)
	OnStateChange(from, to State)
	OnEnded()
}

// NopListener implements Listener with no-ops; embed it to override a
// subset of callbacks.
type NopListener struct{}

func (NopListener) OnUtterance(Utterance)      {}
func (NopListener) OnTurnFeedback(int, string) {}
func (NopListener) OnLessonComplete(int, int)  {}
func (NopListener) OnNotice(string)            {}
func (NopListener) OnStateChange(State, State) {}
func (NopListener) OnEnded()                   {}

// Config assembles a Controller.
type Config struct {
	SessionID  string
	UserID     string
	ScenarioID string
	Level      string

	// FeedbackMode is one of models.FeedbackImmediate/Deferred/Off.
	FeedbackMode string

	// LessonDuration defaults to DefaultLessonDuration.
	LessonDuration time.Duration

	Executor TurnExecutor
	Recorder ProgressRecorder
	Feedback FeedbackSink // optional
	Listener Listener     // optional

	Logger *logrus.Entry
}

type eventKind int

const (
	evUserUtterance eventKind = iota
	evTurnResult
	evAnalysisResult
	evTimerFired
	evSummaryResult
	evFinalFeedback
	evContinueLesson
	evStop
)

type analysisKind int

const (
	analysisGrammar analysisKind = iota
	analysisVocabulary
)

type event struct {
	kind eventKind

	text string
	err  error

	turn     int
	analysis analysisKind
}

// Controller is the session state machine. All Session state is mutated on
// a single event-loop goroutine; public methods only post events (plus a
// cheap state pre-check so callers get synchronous rejection while input
// is disabled).
type Controller struct {
	cfg        Config
	transcript *Transcript
	policy     *Policy
	timer      *LessonTimer
	log        *logrus.Entry

	events chan event
	done   chan struct{}

	mu      sync.Mutex
	state   State
	offline bool

	// loop-goroutine-only state below
	turnSeq        int
	userTurns      int
	analysis       *turnAnalysis
	completeQueued bool
	stopping       bool
	lastCompleted  int
	lastTotal      int
}

func NewController(cfg Config) *Controller {
	if cfg.LessonDuration <= 0 {
		cfg.LessonDuration = DefaultLessonDuration
	}
	if cfg.Listener == nil {
		cfg.Listener = NopListener{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(logrus.StandardLogger())
	}

	c := &Controller{
		cfg:        cfg,
		transcript: NewTranscript(),
		policy:     NewPolicy(cfg.FeedbackMode),
		log:        cfg.Logger.WithField("session_id", cfg.SessionID),
		events:     make(chan event, 32),
		done:       make(chan struct{}),
		state:      StateStarting,
	}
	c.timer = NewLessonTimer(cfg.LessonDuration, func() {
		c.post(event{kind: evTimerFired})
	})
	return c
}

// Start opens the backend conversation, emits the greeting, arms the lesson
// timer, and begins the event loop. ctx bounds the whole session: when it
// is cancelled the session ends as if the user had stopped it.
func (c *Controller) Start(ctx context.Context) {
	greeting, offline := c.cfg.Executor.StartSession(c.cfg.ScenarioID, c.cfg.Level)

	c.mu.Lock()
	c.offline = offline
	c.mu.Unlock()

	u := NewUtterance(SpeakerAgent, greeting)
	c.transcript.Append(u)
	c.cfg.Listener.OnUtterance(u)
	if offline {
		c.cfg.Listener.OnNotice("AI connection failed. Continuing in offline mode.")
	}

	c.setState(StateAwaitingInput)
	c.timer.Start()
	go c.loop(ctx)
}

// State returns the current machine state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Offline reports whether the session runs on canned replies.
func (c *Controller) Offline() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offline
}

// Transcript exposes the ordered utterance list.
func (c *Controller) Transcript() *Transcript { return c.transcript }

// UserTurns is the number of accepted user utterances.
func (c *Controller) UserTurns() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userTurns
}

// Done is closed once the session has ended.
func (c *Controller) Done() <-chan struct{} { return c.done }

// HandleUserUtterance accepts finalized speech or submitted text. Input is
// rejected while a turn is outstanding or a checkpoint is showing, which
// is what keeps at most one ContinueTurn in flight.
func (c *Controller) HandleUserUtterance(text string) bool {
	if c.State() != StateAwaitingInput {
		return false
	}
	c.post(event{kind: evUserUtterance, text: text})
	return true
}

// ContinueLesson resumes after a completion checkpoint.
func (c *Controller) ContinueLesson() { c.post(event{kind: evContinueLesson}) }

// Stop ends the session (explicit stop, navigation away, teardown).
func (c *Controller) Stop() { c.post(event{kind: evStop}) }

func (c *Controller) post(ev event) {
	select {
	case <-c.done:
	case c.events <- ev:
	}
}

func (c *Controller) setState(to State) {
	c.mu.Lock()
	from := c.state
	c.state = to
	c.mu.Unlock()
	if from != to {
		c.cfg.Listener.OnStateChange(from, to)
	}
}

func (c *Controller) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			c.finish()
			return
		case ev := <-c.events:
			if c.handle(ctx, ev) {
				return
			}
		}
	}
}

// handle processes one event; returns true when the loop must exit.
func (c *Controller) handle(ctx context.Context, ev event) bool {
	switch ev.kind {

	case evUserUtterance:
		c.onUserUtterance(ctx, ev.text)

	case evTurnResult:
		return c.onTurnResult(ctx, ev)

	case evAnalysisResult:
		c.onAnalysisResult(ev)

	case evTimerFired:
		if c.State() == StateEnded || c.stopping {
			return false
		}
		if c.State() == StateProcessingTurn {
			// Never interrupt an in-flight turn; completion runs right
			// after it resolves.
			c.completeQueued = true
			return false
		}
		if c.State() == StateAwaitingInput {
			c.beginLessonComplete(ctx)
		}

	case evSummaryResult:
		c.onSummaryResult(ctx, ev)

	case evFinalFeedback:
		if ev.err == nil && ev.text != "" {
			c.cfg.Listener.OnTurnFeedback(0, ev.text)
		}
		c.finish()
		return true

	case evContinueLesson:
		if c.State() != StateLessonComplete {
			return false
		}
		c.policy.ClearPending()
		c.timer.Restart()
		u := NewUtterance(SpeakerAgent, ContinueMessage)
		c.transcript.Append(u)
		c.cfg.Listener.OnUtterance(u)
		c.setState(StateAwaitingInput)

	case evStop:
		return c.onStop(ctx)
	}
	return false
}

func (c *Controller) onUserUtterance(ctx context.Context, text string) {
	if c.State() != StateAwaitingInput || c.stopping {
		c.cfg.Listener.OnNotice("Please wait for the current response.")
		return
	}

	c.turnSeq++
	turn := c.turnSeq
	c.mu.Lock()
	c.userTurns++
	offline := c.offline
	c.mu.Unlock()

	u := NewUtterance(SpeakerUser, text)
	c.transcript.Append(u)
	c.cfg.Listener.OnUtterance(u)

	analyzeNow := c.policy.OnUserUtterance(text)
	if analyzeNow && !offline {
		c.analysis = &turnAnalysis{turn: turn}
		go c.runAnalysis(ctx, turn, analysisGrammar, text)
		go c.runAnalysis(ctx, turn, analysisVocabulary, text)
	} else {
		c.analysis = nil
	}

	c.setState(StateProcessingTurn)
	go func() {
		reply, err := c.cfg.Executor.ContinueTurn(ctx, text)
		c.post(event{kind: evTurnResult, turn: turn, text: reply, err: err})
	}()
}

func (c *Controller) runAnalysis(ctx context.Context, turn int, kind analysisKind, text string) {
	var out string
	var err error
	switch kind {
	case analysisGrammar:
		out, err = c.cfg.Executor.AnalyzeGrammar(ctx, text)
	case analysisVocabulary:
		out, err = c.cfg.Executor.SuggestVocabulary(ctx, text)
	}
	c.post(event{kind: evAnalysisResult, turn: turn, analysis: kind, text: out, err: err})
}

func (c *Controller) onTurnResult(ctx context.Context, ev event) bool {
	if c.State() == StateEnded {
		return false
	}
	if c.stopping {
		// Result of a call that was in flight when the user stopped:
		// discard on arrival.
		return false
	}
	if ev.turn != c.turnSeq {
		c.log.WithField("turn", ev.turn).Debug("dropping stale turn result")
		return false
	}

	reply := ev.text
	if ev.err != nil {
		c.log.WithError(ev.err).Warn("turn failed, emitting fallback")
		c.cfg.Listener.OnNotice("The AI could not answer right now.")
		reply = FallbackReply
	}

	u := NewUtterance(SpeakerAgent, reply)
	c.transcript.Append(u)
	c.cfg.Listener.OnUtterance(u)

	if c.completeQueued {
		c.completeQueued = false
		c.beginLessonComplete(ctx)
		return false
	}
	c.setState(StateAwaitingInput)
	return false
}

func (c *Controller) onAnalysisResult(ev event) {
	if c.State() == StateEnded || c.analysis == nil || ev.turn != c.analysis.turn {
		// Superseded turn; late results are not displayed.
		return
	}

	text := ev.text
	if ev.err != nil {
		// Best-effort: failure degrades to "no comment".
		text = ""
	}
	switch ev.analysis {
	case analysisGrammar:
		c.analysis.setGrammar(text)
	case analysisVocabulary:
		c.analysis.setVocab(text)
	}
	if c.analysis.ready() {
		c.cfg.Listener.OnTurnFeedback(ev.turn, c.analysis.render())
	}
}

func (c *Controller) beginLessonComplete(ctx context.Context) {
	completed, total := 0, 0
	if c.cfg.Recorder != nil {
		var err error
		completed, total, err = c.cfg.Recorder.RecordLessonCompletion(ctx, c.cfg.UserID, c.cfg.ScenarioID)
		if err != nil {
			// Non-fatal: the checkpoint still shows, only the counter is off.
			c.log.WithError(err).Error("failed to record lesson completion")
			c.cfg.Listener.OnNotice("Could not save your progress.")
		}
	}
	c.lastCompleted, c.lastTotal = completed, total

	u := NewUtterance(SpeakerAgent, LessonCompleteMessage)
	c.transcript.Append(u)
	c.cfg.Listener.OnUtterance(u)

	c.setState(StateLessonComplete)

	pending := c.policy.Pending()
	if c.policy.Mode != models.FeedbackOff && len(pending) > 0 && !c.Offline() {
		go func() {
			out, err := c.cfg.Executor.OneShotPrompt(ctx, lessonSummaryPrompt(pending))
			c.post(event{kind: evSummaryResult, text: out, err: err})
		}()
		return
	}
	c.cfg.Listener.OnLessonComplete(completed, total)
}

func (c *Controller) onSummaryResult(ctx context.Context, ev event) {
	if c.State() != StateLessonComplete {
		return
	}
	if ev.err != nil {
		c.log.WithError(ev.err).Warn("lesson summary generation failed")
	} else if ev.text != "" {
		c.cfg.Listener.OnTurnFeedback(0, ev.text)
		if c.cfg.Feedback != nil {
			strengths, weaknesses := parseFeedbackSections(ev.text)
			if err := c.cfg.Feedback.SaveLessonFeedback(ctx, c.cfg.UserID, c.cfg.SessionID,
				c.cfg.ScenarioID, ev.text, strengths, weaknesses); err != nil {
				c.log.WithError(err).Warn("failed to save lesson feedback")
			}
		}
	}
	c.cfg.Listener.OnLessonComplete(c.lastCompleted, c.lastTotal)
}

func (c *Controller) onStop(ctx context.Context) bool {
	if c.State() == StateEnded || c.stopping {
		return false
	}
	c.timer.Stop()

	pending := c.policy.Pending()
	if c.policy.Mode == models.FeedbackDeferred && len(pending) > 0 && !c.Offline() {
		// End-of-conversation feedback, best-effort, before final close.
		c.stopping = true
		go func() {
			out, err := c.cfg.Executor.OneShotPrompt(ctx, lessonSummaryPrompt(pending))
			c.post(event{kind: evFinalFeedback, text: out, err: err})
		}()
		return false
	}

	c.finish()
	return true
}

// finish transitions to Ended exactly once.
func (c *Controller) finish() {
	c.mu.Lock()
	if c.state == StateEnded {
		c.mu.Unlock()
		return
	}
	from := c.state
	c.state = StateEnded
	c.mu.Unlock()

	c.timer.Stop()
	c.cfg.Listener.OnStateChange(from, StateEnded)
	c.cfg.Listener.OnEnded()
	close(c.done)
}
