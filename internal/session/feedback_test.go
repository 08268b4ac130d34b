package session

import (
	"strings"
	"testing"

	"github.com/jaysj0226/justspeak-backend/internal/models"
)

func TestPolicyImmediate(t *testing.T) {
	p := NewPolicy(models.FeedbackImmediate)
	if !p.OnUserUtterance("first") {
		t.Fatal("immediate mode must request per-turn analysis")
	}
	p.OnUserUtterance("second")
	if got := p.Pending(); len(got) != 2 {
		t.Fatalf("pending = %v, want 2 entries", got)
	}
}

func TestPolicyDeferredAccumulatesSilently(t *testing.T) {
	p := NewPolicy(models.FeedbackDeferred)
	if p.OnUserUtterance("first") {
		t.Fatal("deferred mode must not request per-turn analysis")
	}
	if got := p.Pending(); len(got) != 1 || got[0] != "first" {
		t.Fatalf("pending = %v", got)
	}
}

func TestPolicyOffRecordsNothing(t *testing.T) {
	p := NewPolicy(models.FeedbackOff)
	if p.OnUserUtterance("first") {
		t.Fatal("off mode must not request analysis")
	}
	if got := p.Pending(); len(got) != 0 {
		t.Fatalf("off mode accumulated %v", got)
	}
}

func TestPolicyUnknownModeDefaultsToImmediate(t *testing.T) {
	p := NewPolicy("banana")
	if p.Mode != models.FeedbackImmediate {
		t.Fatalf("mode = %q", p.Mode)
	}
}

func TestPolicyClearPending(t *testing.T) {
	p := NewPolicy(models.FeedbackDeferred)
	p.OnUserUtterance("first")
	p.ClearPending()
	if got := p.Pending(); len(got) != 0 {
		t.Fatalf("pending after clear = %v", got)
	}
}

func TestPolicyPendingReturnsCopy(t *testing.T) {
	p := NewPolicy(models.FeedbackDeferred)
	p.OnUserUtterance("first")
	got := p.Pending()
	got[0] = "mutated"
	if p.Pending()[0] != "first" {
		t.Fatal("Pending exposed internal slice")
	}
}

func TestTurnAnalysisRender(t *testing.T) {
	a := &turnAnalysis{turn: 1}
	if a.ready() {
		t.Fatal("ready before both results")
	}
	a.setGrammar("Watch your past tense.")
	if a.ready() {
		t.Fatal("ready with only one result")
	}
	a.setVocab("Try 'fantastic' instead of 'good'.")
	if !a.ready() {
		t.Fatal("not ready after both results")
	}

	out := a.render()
	if !strings.Contains(out, "Grammar: Watch your past tense.") {
		t.Fatalf("render = %q", out)
	}
	if !strings.Contains(out, "Vocabulary: Try 'fantastic'") {
		t.Fatalf("render = %q", out)
	}
}

func TestTurnAnalysisRenderPartialSections(t *testing.T) {
	a := &turnAnalysis{turn: 1}
	a.setGrammar("")
	a.setVocab("Use 'delighted'.")
	out := a.render()
	if strings.Contains(out, "Grammar:") {
		t.Fatalf("empty grammar rendered: %q", out)
	}
	if !strings.Contains(out, "Vocabulary: Use 'delighted'.") {
		t.Fatalf("render = %q", out)
	}
}

func TestTurnAnalysisRenderBothEmpty(t *testing.T) {
	a := &turnAnalysis{turn: 1}
	a.setGrammar("")
	a.setVocab("")
	if got := a.render(); got != NoIssuesFeedback {
		t.Fatalf("render = %q, want default", got)
	}
}
