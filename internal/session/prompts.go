package session

import (
	"fmt"
	"strings"
)

func grammarPrompt(userText string) string {
	return "Analyze this English sentence for grammar errors. " +
		"If there are errors, list them briefly. If it's correct, say 'Good job!'\n\n" +
		"Sentence: \"" + userText + "\"\n\n" +
		"Response format:\n" +
		"- If correct: 'Good job! Your grammar is correct.'\n" +
		"- If errors: List 1-2 main errors only, very briefly."
}

func vocabularyPrompt(userText string) string {
	return "Suggest 2-3 alternative words or phrases to make this sentence sound more natural or advanced:\n\n" +
		"\"" + userText + "\"\n\n" +
		"Keep suggestions brief and practical."
}

// lessonSummaryPrompt asks for an end-of-lesson review of everything the
// student said, in the sectioned format parseFeedbackSections understands.
func lessonSummaryPrompt(userMessages []string) string {
	var numbered strings.Builder
	for i, m := range userMessages {
		fmt.Fprintf(&numbered, "%d. %s\n", i+1, m)
	}

	return "You are an English tutor. A student just completed a conversation practice lesson. " +
		"Analyze their messages below and provide detailed feedback.\n\n" +
		"Student's messages:\n" + numbered.String() + "\n" +
		"Please provide feedback in this EXACT format:\n\n" +
		"Overall\n[one-line overall assessment]\n\n" +
		"Strengths\n" +
		"- [specific strength 1]\n" +
		"- [specific strength 2]\n\n" +
		"Weaknesses\n" +
		"- [grammar error]: \"incorrect sentence\" -> \"corrected sentence\"\n" +
		"- [vocabulary issue]: explanation\n" +
		"(List each weakness individually with specific examples, do not summarize them.)\n\n" +
		"Tip\n[one-line advice for the next lesson]\n\n" +
		"IMPORTANT: Be encouraging but honest."
}

func levelAssessmentPrompt(answers []string) string {
	var numbered strings.Builder
	for i, a := range answers {
		fmt.Fprintf(&numbered, "%d. %s\n", i+1, a)
	}

	return "You are an English proficiency assessor. A student answered a spoken level test; " +
		"their answers are below.\n\n" + numbered.String() + "\n" +
		"Rate the student and reply in this EXACT format:\n" +
		"Level: [Beginner|Intermediate|Advanced]\n" +
		"Score: [0-100]\n" +
		"Grammar: [0-100]\n" +
		"Vocabulary: [0-100]\n" +
		"Complexity: [0-100]\n" +
		"Communication: [0-100]"
}

func motivationPrompt() string {
	return "Write one short motivational sentence (max 20 words) encouraging a language learner " +
		"to keep practicing English conversation today. Plain text, no quotes."
}

// parseFeedbackSections extracts the bullet items under the Strengths and
// Weaknesses headings of a lesson summary. Tolerates '-', '*', and bullet
// dot markers; unknown headings end the current section.
func parseFeedbackSections(summary string) (strengths, weaknesses []string) {
	const (
		none = iota
		inStrengths
		inWeaknesses
	)
	section := none

	for _, line := range strings.Split(summary, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		lower := strings.ToLower(line)
		switch {
		case strings.Contains(lower, "strength"):
			section = inStrengths
			continue
		case strings.Contains(lower, "weakness") || strings.Contains(lower, "improve"):
			section = inWeaknesses
			continue
		case strings.HasPrefix(lower, "overall") || strings.HasPrefix(lower, "tip"):
			section = none
			continue
		}

		var item string
		switch {
		case strings.HasPrefix(line, "-"):
			item = strings.TrimSpace(line[1:])
		case strings.HasPrefix(line, "*"):
			item = strings.TrimSpace(line[1:])
		case strings.HasPrefix(line, "•"):
			item = strings.TrimSpace(strings.TrimPrefix(line, "•"))
		default:
			continue
		}
		if item == "" {
			continue
		}

		switch section {
		case inStrengths:
			strengths = append(strengths, item)
		case inWeaknesses:
			weaknesses = append(weaknesses, item)
		}
	}
	return strengths, weaknesses
}
