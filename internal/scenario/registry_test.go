package scenario

import (
	"strings"
	"testing"
)

func TestLookupCanonical(t *testing.T) {
	info := Lookup("scenario_restaurant")
	if info.ID != "scenario_restaurant" {
		t.Fatalf("id = %q", info.ID)
	}
	if info.DefaultLessonTotal != 7 {
		t.Fatalf("total = %d, want 7", info.DefaultLessonTotal)
	}
	if info.Greeting == "" {
		t.Fatal("empty greeting")
	}
}

func TestLookupAliases(t *testing.T) {
	cases := map[string]string{
		"daily":              "scenario_daily",
		"daily_conversation": "scenario_daily",
		"travel_english":     "scenario_travel",
		"interview_prep":     "scenario_job_interview",
		"business":           "scenario_business",
	}
	for alias, want := range cases {
		if got := Lookup(alias).ID; got != want {
			t.Errorf("Lookup(%q).ID = %q, want %q", alias, got, want)
		}
		if !Known(alias) {
			t.Errorf("Known(%q) = false", alias)
		}
	}
}

func TestLookupUnknownFallsBack(t *testing.T) {
	info := Lookup("scenario_underwater_basket_weaving")
	if info.ID != "scenario_default" {
		t.Fatalf("id = %q, want scenario_default", info.ID)
	}
	if info.DefaultLessonTotal != DefaultLessonTotal {
		t.Fatalf("total = %d, want %d", info.DefaultLessonTotal, DefaultLessonTotal)
	}
	if Known("scenario_underwater_basket_weaving") {
		t.Fatal("unknown id reported as known")
	}
}

func TestAllEntriesComplete(t *testing.T) {
	for _, id := range IDs() {
		info := Lookup(id)
		if info.Greeting == "" || info.PromptTopics == "" || info.Title == "" {
			t.Errorf("scenario %q has empty fields", id)
		}
		if info.DefaultLessonTotal <= 0 {
			t.Errorf("scenario %q has non-positive lesson total", id)
		}
	}
}

func TestSystemPrompt(t *testing.T) {
	p := SystemPrompt("scenario_hotel", "Intermediate")
	if !strings.Contains(p, "Your student's level is: Intermediate") {
		t.Fatalf("prompt missing level: %q", p)
	}
	if !strings.Contains(p, "check-in/check-out") {
		t.Fatal("prompt missing scenario topics")
	}
	if !strings.Contains(p, "IMPORTANT RULES") {
		t.Fatal("prompt missing rules block")
	}

	// empty level defaults to Beginner
	if !strings.Contains(SystemPrompt("scenario_daily", ""), "Beginner") {
		t.Fatal("empty level did not default to Beginner")
	}
}
