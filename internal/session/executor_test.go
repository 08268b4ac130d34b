package session

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/jaysj0226/justspeak-backend/internal/providers/genai"
	"github.com/jaysj0226/justspeak-backend/internal/scenario"
)

type fakeChat struct {
	reply string
	errs  []error // consumed per call; nil entry means success
	calls int32
}

func (c *fakeChat) Send(ctx context.Context, text string) (string, error) {
	n := atomic.AddInt32(&c.calls, 1)
	if int(n) <= len(c.errs) && c.errs[n-1] != nil {
		return "", c.errs[n-1]
	}
	return c.reply, nil
}

type fakeBackend struct {
	chat     *fakeChat
	startErr error

	onceReply string
	onceErrs  []error
	onceCalls int32
}

func (b *fakeBackend) StartChat(system, greeting string) (genai.Chat, error) {
	if b.startErr != nil {
		return nil, b.startErr
	}
	return b.chat, nil
}

func (b *fakeBackend) GenerateOnce(ctx context.Context, prompt string) (string, error) {
	n := atomic.AddInt32(&b.onceCalls, 1)
	if int(n) <= len(b.onceErrs) && b.onceErrs[n-1] != nil {
		return "", b.onceErrs[n-1]
	}
	return b.onceReply, nil
}

func (b *fakeBackend) Close() error { return nil }

func TestExecutorStartSession(t *testing.T) {
	backend := &fakeBackend{chat: &fakeChat{reply: "nice"}}
	e := NewExecutor(backend, ExecutorConfig{}, nil)

	greeting, offline := e.StartSession("scenario_daily", "Beginner")
	if offline {
		t.Fatal("degraded to offline with a healthy backend")
	}
	if want := scenario.Lookup("scenario_daily").Greeting; greeting != want {
		t.Fatalf("greeting = %q, want %q", greeting, want)
	}
}

func TestExecutorStartFailureDegradesToOffline(t *testing.T) {
	backend := &fakeBackend{chat: &fakeChat{}, startErr: errors.New("no credentials")}
	e := NewExecutor(backend, ExecutorConfig{}, nil)

	greeting, offline := e.StartSession("scenario_daily", "Beginner")
	if !offline || greeting != OfflineGreeting {
		t.Fatalf("offline = %v greeting = %q", offline, greeting)
	}

	// Every turn after that is canned, not routed to the backend.
	reply, err := e.ContinueTurn(context.Background(), "hello there")
	if err != nil {
		t.Fatalf("offline turn errored: %v", err)
	}
	if reply == "" || atomic.LoadInt32(&backend.chat.calls) != 0 {
		t.Fatalf("reply = %q, backend calls = %d", reply, backend.chat.calls)
	}
}

func TestExecutorNilBackendIsOffline(t *testing.T) {
	e := NewExecutor(nil, ExecutorConfig{}, nil)
	greeting, offline := e.StartSession("scenario_travel", "")
	if !offline || greeting != OfflineGreeting {
		t.Fatalf("offline = %v greeting = %q", offline, greeting)
	}
	if _, err := e.OneShotPrompt(context.Background(), "anything"); genai.KindOf(err) != genai.KindNotReady {
		t.Fatalf("one-shot err = %v, want NOT_READY", err)
	}
}

func TestExecutorTurnBeforeStart(t *testing.T) {
	e := NewExecutor(&fakeBackend{chat: &fakeChat{}}, ExecutorConfig{}, nil)
	_, err := e.ContinueTurn(context.Background(), "hi")
	if genai.KindOf(err) != genai.KindNotReady {
		t.Fatalf("err = %v, want NOT_READY", err)
	}
}

func TestExecutorRetriesTransientFailures(t *testing.T) {
	timeout := genai.E(genai.KindTimeout, "deadline exceeded", context.DeadlineExceeded)
	chat := &fakeChat{reply: "made it", errs: []error{timeout, timeout}}
	e := NewExecutor(&fakeBackend{chat: chat}, ExecutorConfig{MaxAttempts: 3}, nil)
	e.StartSession("scenario_daily", "Beginner")

	reply, err := e.ContinueTurn(context.Background(), "hello")
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if reply != "made it" {
		t.Fatalf("reply = %q", reply)
	}
	if got := atomic.LoadInt32(&chat.calls); got != 3 {
		t.Fatalf("send calls = %d, want 3", got)
	}
}

func TestExecutorExhaustsAttempts(t *testing.T) {
	timeout := genai.E(genai.KindTimeout, "deadline exceeded", context.DeadlineExceeded)
	chat := &fakeChat{errs: []error{timeout, timeout, timeout, timeout}}
	e := NewExecutor(&fakeBackend{chat: chat}, ExecutorConfig{MaxAttempts: 3}, nil)
	e.StartSession("scenario_daily", "Beginner")

	_, err := e.ContinueTurn(context.Background(), "hello")
	if genai.KindOf(err) != genai.KindTimeout {
		t.Fatalf("err = %v, want TIMEOUT", err)
	}
	if got := atomic.LoadInt32(&chat.calls); got != 3 {
		t.Fatalf("send calls = %d, want 3", got)
	}
}

func TestExecutorNonRetryableFailsFast(t *testing.T) {
	quota := genai.E(genai.KindQuota, "quota exceeded", nil)
	chat := &fakeChat{errs: []error{quota}}
	e := NewExecutor(&fakeBackend{chat: chat}, ExecutorConfig{MaxAttempts: 3}, nil)
	e.StartSession("scenario_daily", "Beginner")

	_, err := e.ContinueTurn(context.Background(), "hello")
	if genai.KindOf(err) != genai.KindQuota {
		t.Fatalf("err = %v, want QUOTA_EXCEEDED", err)
	}
	if got := atomic.LoadInt32(&chat.calls); got != 1 {
		t.Fatalf("send calls = %d, want 1", got)
	}
}

func TestExecutorAnalysisIsSingleShot(t *testing.T) {
	timeout := genai.E(genai.KindTimeout, "deadline exceeded", context.DeadlineExceeded)
	backend := &fakeBackend{chat: &fakeChat{}, onceErrs: []error{timeout, timeout}}
	e := NewExecutor(backend, ExecutorConfig{MaxAttempts: 3}, nil)
	e.StartSession("scenario_daily", "Beginner")

	if _, err := e.AnalyzeGrammar(context.Background(), "I goes"); err == nil {
		t.Fatal("expected error")
	}
	if got := atomic.LoadInt32(&backend.onceCalls); got != 1 {
		t.Fatalf("analysis retried: %d calls", got)
	}

	// One-shot prompts, by contrast, do retry.
	atomic.StoreInt32(&backend.onceCalls, 0)
	backend.onceReply = "ok"
	if out, err := e.OneShotPrompt(context.Background(), "summarize"); err != nil || out != "ok" {
		t.Fatalf("out = %q err = %v", out, err)
	}
	if got := atomic.LoadInt32(&backend.onceCalls); got != 3 {
		t.Fatalf("one-shot calls = %d, want 3", got)
	}
}
