package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jaysj0226/justspeak-backend/internal/models"
	"github.com/jaysj0226/justspeak-backend/internal/providers/genai"
)

type fakeExecutor struct {
	offline bool
	reply   string
	turnErr error

	grammar    string
	grammarErr error
	vocab      string
	vocabErr   error

	summary    string
	summaryErr error

	// block, when non-nil, makes ContinueTurn wait until it is closed.
	block chan struct{}

	turnCalls    int32
	oneShotCalls int32
	inflight     int32
	maxInflight  int32
}

func (f *fakeExecutor) StartSession(scenarioID, level string) (string, bool) {
	if f.offline {
		return OfflineGreeting, true
	}
	return "Hi! Let's talk.", false
}

func (f *fakeExecutor) ContinueTurn(ctx context.Context, text string) (string, error) {
	atomic.AddInt32(&f.turnCalls, 1)
	n := atomic.AddInt32(&f.inflight, 1)
	for {
		prev := atomic.LoadInt32(&f.maxInflight)
		if n <= prev || atomic.CompareAndSwapInt32(&f.maxInflight, prev, n) {
			break
		}
	}
	defer atomic.AddInt32(&f.inflight, -1)

	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.turnErr != nil {
		return "", f.turnErr
	}
	if f.offline {
		return offlineReply(text), nil
	}
	if f.reply != "" {
		return f.reply, nil
	}
	return "Sounds interesting, tell me more.", nil
}

func (f *fakeExecutor) AnalyzeGrammar(ctx context.Context, text string) (string, error) {
	return f.grammar, f.grammarErr
}

func (f *fakeExecutor) SuggestVocabulary(ctx context.Context, text string) (string, error) {
	return f.vocab, f.vocabErr
}

func (f *fakeExecutor) OneShotPrompt(ctx context.Context, prompt string) (string, error) {
	atomic.AddInt32(&f.oneShotCalls, 1)
	return f.summary, f.summaryErr
}

type fakeRecorder struct {
	mu        sync.Mutex
	completed int
	total     int
	err       error
	calls     int
}

func (r *fakeRecorder) RecordLessonCompletion(ctx context.Context, userID, scenarioID string) (int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return 0, 0, r.err
	}
	r.completed++
	return r.completed, r.total, nil
}

type recListener struct {
	utterances chan Utterance
	feedback   chan string
	complete   chan [2]int
	notices    chan string
	ended      chan struct{}
}

func newRecListener() *recListener {
	return &recListener{
		utterances: make(chan Utterance, 64),
		feedback:   make(chan string, 16),
		complete:   make(chan [2]int, 4),
		notices:    make(chan string, 16),
		ended:      make(chan struct{}),
	}
}

func (l *recListener) OnUtterance(u Utterance)          { l.utterances <- u }
func (l *recListener) OnTurnFeedback(turn int, s string) { l.feedback <- s }
func (l *recListener) OnLessonComplete(c, t int)        { l.complete <- [2]int{c, t} }
func (l *recListener) OnNotice(s string)                { l.notices <- s }
func (l *recListener) OnStateChange(from, to State)     {}
func (l *recListener) OnEnded()                         { close(l.ended) }

func (l *recListener) nextUtterance(t *testing.T) Utterance {
	t.Helper()
	select {
	case u := <-l.utterances:
		return u
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for utterance")
		return Utterance{}
	}
}

func newTestController(t *testing.T, exec TurnExecutor, rec ProgressRecorder, mode string, lesson time.Duration) (*Controller, *recListener) {
	t.Helper()
	l := newRecListener()
	c := NewController(Config{
		SessionID:      "s-1",
		UserID:         "u-1",
		ScenarioID:     "scenario_daily",
		Level:          "Beginner",
		FeedbackMode:   mode,
		LessonDuration: lesson,
		Executor:       exec,
		Recorder:       rec,
		Listener:       l,
	})
	return c, l
}

func waitState(t *testing.T, c *Controller, want State) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if c.State() == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("state = %v, want %v", c.State(), want)
}

func TestControllerAlternatingTranscript(t *testing.T) {
	exec := &fakeExecutor{}
	c, l := newTestController(t, exec, nil, models.FeedbackOff, time.Hour)
	c.Start(context.Background())
	defer c.Stop()

	l.nextUtterance(t) // greeting

	const n = 4
	for i := 0; i < n; i++ {
		waitState(t, c, StateAwaitingInput)
		if !c.HandleUserUtterance(fmt.Sprintf("message %d", i)) {
			t.Fatalf("utterance %d rejected", i)
		}
		l.nextUtterance(t) // echo of user
		l.nextUtterance(t) // agent reply
	}

	all := c.Transcript().All()
	// greeting + 2 per turn
	if len(all) != 1+2*n {
		t.Fatalf("transcript len = %d, want %d", len(all), 1+2*n)
	}
	for i, u := range all[1:] {
		want := SpeakerUser
		if i%2 == 1 {
			want = SpeakerAgent
		}
		if u.Speaker != want {
			t.Fatalf("entry %d speaker = %s, want %s", i+1, u.Speaker, want)
		}
	}
}

func TestControllerSingleOutstandingTurn(t *testing.T) {
	exec := &fakeExecutor{block: make(chan struct{})}
	c, l := newTestController(t, exec, nil, models.FeedbackOff, time.Hour)
	c.Start(context.Background())
	defer c.Stop()
	l.nextUtterance(t)

	waitState(t, c, StateAwaitingInput)
	if !c.HandleUserUtterance("first") {
		t.Fatal("first utterance rejected")
	}
	waitState(t, c, StateProcessingTurn)

	// While a turn is outstanding, further input is rejected.
	for i := 0; i < 5; i++ {
		if c.HandleUserUtterance("second") {
			t.Fatal("input accepted while processing a turn")
		}
	}

	close(exec.block)
	waitState(t, c, StateAwaitingInput)

	if got := atomic.LoadInt32(&exec.maxInflight); got != 1 {
		t.Fatalf("max in-flight ContinueTurn = %d, want 1", got)
	}
	if got := atomic.LoadInt32(&exec.turnCalls); got != 1 {
		t.Fatalf("ContinueTurn calls = %d, want 1", got)
	}
}

func TestControllerTurnFailureEmitsFallback(t *testing.T) {
	exec := &fakeExecutor{turnErr: genai.E(genai.KindTimeout, "backend call timed out", nil)}
	c, l := newTestController(t, exec, nil, models.FeedbackOff, time.Hour)
	c.Start(context.Background())
	defer c.Stop()
	l.nextUtterance(t)

	waitState(t, c, StateAwaitingInput)
	c.HandleUserUtterance("hello there")
	l.nextUtterance(t) // user echo

	reply := l.nextUtterance(t)
	if reply.Speaker != SpeakerAgent || reply.Text != FallbackReply {
		t.Fatalf("reply = %q, want fallback", reply.Text)
	}
	waitState(t, c, StateAwaitingInput) // input re-enabled
}

func TestControllerOfflineStartup(t *testing.T) {
	exec := &fakeExecutor{offline: true}
	c, l := newTestController(t, exec, nil, models.FeedbackImmediate, time.Hour)
	c.Start(context.Background())
	defer c.Stop()

	greeting := l.nextUtterance(t)
	if greeting.Text != OfflineGreeting {
		t.Fatalf("greeting = %q", greeting.Text)
	}

	waitState(t, c, StateAwaitingInput)
	c.HandleUserUtterance("bye for now")
	l.nextUtterance(t) // user echo
	reply := l.nextUtterance(t)
	if !strings.Contains(reply.Text, "Goodbye") {
		t.Fatalf("canned farewell missing, got %q", reply.Text)
	}

	// Offline mode must not request per-turn analysis even in immediate mode.
	select {
	case fb := <-l.feedback:
		t.Fatalf("unexpected feedback in offline mode: %q", fb)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestControllerStopMidTurnDiscardsResult(t *testing.T) {
	exec := &fakeExecutor{block: make(chan struct{}), reply: "late reply"}
	c, l := newTestController(t, exec, nil, models.FeedbackOff, time.Hour)
	c.Start(context.Background())
	l.nextUtterance(t)

	waitState(t, c, StateAwaitingInput)
	c.HandleUserUtterance("hi")
	l.nextUtterance(t)
	waitState(t, c, StateProcessingTurn)

	c.Stop()
	select {
	case <-l.ended:
	case <-time.After(time.Second):
		t.Fatal("session did not end")
	}
	before := c.Transcript().Len()

	close(exec.block) // late result arrives after Ended
	time.Sleep(30 * time.Millisecond)

	if c.State() != StateEnded {
		t.Fatalf("state = %v after late result, want Ended", c.State())
	}
	if got := c.Transcript().Len(); got != before {
		t.Fatalf("transcript grew from %d to %d after stop", before, got)
	}
	select {
	case u := <-l.utterances:
		t.Fatalf("late reply emitted: %q", u.Text)
	default:
	}
}

func TestControllerImmediateFeedbackAggregation(t *testing.T) {
	exec := &fakeExecutor{grammar: "Good job! Your grammar is correct.", vocab: "Try 'went' instead of 'go'."}
	c, l := newTestController(t, exec, nil, models.FeedbackImmediate, time.Hour)
	c.Start(context.Background())
	defer c.Stop()
	l.nextUtterance(t)

	waitState(t, c, StateAwaitingInput)
	c.HandleUserUtterance("I go to school yesterday")
	l.nextUtterance(t)
	l.nextUtterance(t)

	select {
	case fb := <-l.feedback:
		if !strings.Contains(fb, "Grammar:") || !strings.Contains(fb, "Vocabulary:") {
			t.Fatalf("feedback missing sections: %q", fb)
		}
	case <-time.After(time.Second):
		t.Fatal("no turn feedback delivered")
	}
}

func TestControllerFeedbackBothEmptyYieldsDefault(t *testing.T) {
	exec := &fakeExecutor{grammarErr: errors.New("boom"), vocabErr: errors.New("boom")}
	c, l := newTestController(t, exec, nil, models.FeedbackImmediate, time.Hour)
	c.Start(context.Background())
	defer c.Stop()
	l.nextUtterance(t)

	waitState(t, c, StateAwaitingInput)
	c.HandleUserUtterance("hello")
	l.nextUtterance(t)
	l.nextUtterance(t)

	select {
	case fb := <-l.feedback:
		if fb != NoIssuesFeedback {
			t.Fatalf("feedback = %q, want default", fb)
		}
	case <-time.After(time.Second):
		t.Fatal("no feedback delivered")
	}
}

func TestControllerLessonCompleteAndContinue(t *testing.T) {
	exec := &fakeExecutor{}
	rec := &fakeRecorder{completed: 3, total: 10}
	c, l := newTestController(t, exec, rec, models.FeedbackOff, 30*time.Millisecond)
	c.Start(context.Background())
	defer c.Stop()
	l.nextUtterance(t)

	select {
	case got := <-l.complete:
		if got != [2]int{4, 10} {
			t.Fatalf("completion = %v, want [4 10]", got)
		}
	case <-time.After(time.Second):
		t.Fatal("lesson never completed")
	}
	l.nextUtterance(t) // completion message
	waitState(t, c, StateLessonComplete)

	// Input is disabled at the checkpoint.
	if c.HandleUserUtterance("still there?") {
		t.Fatal("input accepted at completion checkpoint")
	}

	c.ContinueLesson()
	cont := l.nextUtterance(t)
	if cont.Text != ContinueMessage {
		t.Fatalf("continue message = %q", cont.Text)
	}
	waitState(t, c, StateAwaitingInput)

	// Timer restarted: a second completion arrives.
	select {
	case got := <-l.complete:
		if got != [2]int{5, 10} {
			t.Fatalf("second completion = %v, want [5 10]", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timer was not restarted")
	}
}

func TestControllerTimerDuringTurnQueuesCompletion(t *testing.T) {
	exec := &fakeExecutor{block: make(chan struct{})}
	rec := &fakeRecorder{total: 10}
	c, l := newTestController(t, exec, rec, models.FeedbackOff, 25*time.Millisecond)
	c.Start(context.Background())
	defer c.Stop()
	l.nextUtterance(t)

	waitState(t, c, StateAwaitingInput)
	c.HandleUserUtterance("hi")
	l.nextUtterance(t)
	waitState(t, c, StateProcessingTurn)

	// Let the timer fire while the turn is in flight.
	time.Sleep(60 * time.Millisecond)
	if c.State() != StateProcessingTurn {
		t.Fatalf("completion interrupted the turn, state = %v", c.State())
	}

	close(exec.block)
	reply := l.nextUtterance(t) // the in-flight reply lands first
	if reply.Speaker != SpeakerAgent {
		t.Fatalf("expected agent reply, got %s", reply.Speaker)
	}

	select {
	case <-l.complete:
	case <-time.After(time.Second):
		t.Fatal("queued completion never ran")
	}
	waitState(t, c, StateLessonComplete)
}

func TestControllerSummaryAtCompletion(t *testing.T) {
	exec := &fakeExecutor{
		grammar: "", vocab: "",
		summary: "Overall\nNice work.\n\nStrengths\n- clear answers\n\nWeaknesses\n- tense: \"I go\" -> \"I went\"\n\nTip\nKeep going.",
	}
	sink := &fakeFeedbackSink{}
	l := newRecListener()
	c := NewController(Config{
		SessionID:      "s-9",
		UserID:         "u-9",
		ScenarioID:     "scenario_daily",
		FeedbackMode:   models.FeedbackImmediate,
		LessonDuration: 30 * time.Millisecond,
		Executor:       exec,
		Recorder:       &fakeRecorder{total: 10},
		Feedback:       sink,
		Listener:       l,
	})
	c.Start(context.Background())
	defer c.Stop()
	l.nextUtterance(t)

	waitState(t, c, StateAwaitingInput)
	c.HandleUserUtterance("I go to school yesterday")
	l.nextUtterance(t)
	l.nextUtterance(t)
	<-l.feedback // per-turn feedback, not under test here

	// Wait for checkpoint with summary delivered first.
	var summarySeen bool
	deadline := time.After(time.Second)
	for {
		select {
		case fb := <-l.feedback:
			if strings.Contains(fb, "Strengths") {
				summarySeen = true
			}
		case <-l.complete:
			if !summarySeen {
				t.Fatal("checkpoint shown before summary feedback")
			}
			sink.mu.Lock()
			defer sink.mu.Unlock()
			if len(sink.strengths) != 1 || len(sink.weaknesses) != 1 {
				t.Fatalf("parsed sections = %v / %v", sink.strengths, sink.weaknesses)
			}
			return
		case <-deadline:
			t.Fatal("lesson completion never arrived")
		}
	}
}

type fakeFeedbackSink struct {
	mu         sync.Mutex
	summary    string
	strengths  []string
	weaknesses []string
}

func (s *fakeFeedbackSink) SaveLessonFeedback(ctx context.Context, userID, sessionID, scenarioID, summary string, strengths, weaknesses []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary = summary
	s.strengths = strengths
	s.weaknesses = weaknesses
	return nil
}

func TestControllerDeferredStopRunsFinalFeedback(t *testing.T) {
	exec := &fakeExecutor{summary: "Overall\nFine.\n\nStrengths\n- brave\n\nWeaknesses\n- none\n\nTip\nPractice."}
	c, l := newTestController(t, exec, nil, models.FeedbackDeferred, time.Hour)
	c.Start(context.Background())
	l.nextUtterance(t)

	waitState(t, c, StateAwaitingInput)
	c.HandleUserUtterance("I am practice English")
	l.nextUtterance(t)
	l.nextUtterance(t)
	waitState(t, c, StateAwaitingInput)

	c.Stop()

	select {
	case fb := <-l.feedback:
		if !strings.Contains(fb, "Strengths") {
			t.Fatalf("final feedback = %q", fb)
		}
	case <-time.After(time.Second):
		t.Fatal("no end-of-conversation feedback")
	}
	select {
	case <-l.ended:
	case <-time.After(time.Second):
		t.Fatal("session did not end after final feedback")
	}
	if atomic.LoadInt32(&exec.oneShotCalls) != 1 {
		t.Fatalf("one-shot calls = %d, want 1", exec.oneShotCalls)
	}
}

func TestControllerStopIsIdempotent(t *testing.T) {
	exec := &fakeExecutor{}
	c, l := newTestController(t, exec, nil, models.FeedbackOff, time.Hour)
	c.Start(context.Background())
	l.nextUtterance(t)
	waitState(t, c, StateAwaitingInput)

	c.Stop()
	<-l.ended
	c.Stop() // second stop must be a no-op
	waitState(t, c, StateEnded)
}
