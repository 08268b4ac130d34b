package session

import (
	"strings"
	"testing"
)

func TestLessonSummaryPromptNumbersMessages(t *testing.T) {
	p := lessonSummaryPrompt([]string{"I go school", "It was fun"})
	if !strings.Contains(p, "1. I go school") || !strings.Contains(p, "2. It was fun") {
		t.Fatalf("messages not numbered:\n%s", p)
	}
	for _, section := range []string{"Overall", "Strengths", "Weaknesses", "Tip"} {
		if !strings.Contains(p, section) {
			t.Fatalf("prompt missing %s section", section)
		}
	}
}

func TestParseFeedbackSections(t *testing.T) {
	summary := `Overall
You communicated clearly throughout the lesson.

Strengths
- Consistent use of polite phrases
- Good listening responses

Weaknesses
- Past tense: "I go school" -> "I went to school"
* Article missing: "to school"

Tip
Review past tense verbs before the next lesson.`

	strengths, weaknesses := parseFeedbackSections(summary)
	if len(strengths) != 2 {
		t.Fatalf("strengths = %v", strengths)
	}
	if strengths[0] != "Consistent use of polite phrases" {
		t.Fatalf("strengths[0] = %q", strengths[0])
	}
	if len(weaknesses) != 2 {
		t.Fatalf("weaknesses = %v", weaknesses)
	}
	if !strings.HasPrefix(weaknesses[0], "Past tense") {
		t.Fatalf("weaknesses[0] = %q", weaknesses[0])
	}
}

func TestParseFeedbackSectionsBulletVariants(t *testing.T) {
	summary := "Strengths\n• brave speaking\nAreas to improve\n- hesitation"
	strengths, weaknesses := parseFeedbackSections(summary)
	if len(strengths) != 1 || strengths[0] != "brave speaking" {
		t.Fatalf("strengths = %v", strengths)
	}
	if len(weaknesses) != 1 || weaknesses[0] != "hesitation" {
		t.Fatalf("weaknesses = %v", weaknesses)
	}
}

func TestParseFeedbackSectionsNoHeadings(t *testing.T) {
	strengths, weaknesses := parseFeedbackSections("Great work today, keep practicing!")
	if len(strengths) != 0 || len(weaknesses) != 0 {
		t.Fatalf("parsed from plain text: %v / %v", strengths, weaknesses)
	}
}
