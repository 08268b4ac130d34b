package session

import "strings"

// OfflineGreeting opens a session when the backend never came up; the
// conversation continues on canned replies instead of blocking the lesson.
const OfflineGreeting = "Welcome! (Offline Mode)\nAI is not connected. Please check your internet connection and restart the app."

// offlineReply produces a keyword-matched canned reply for offline mode.
func offlineReply(userText string) string {
	lower := strings.ToLower(userText)
	switch {
	case strings.Contains(lower, "hello") || strings.Contains(lower, "hi"):
		return "Hello! Nice to meet you. (Offline mode - please check internet connection)"
	case strings.Contains(lower, "how are you"):
		return "I'm doing well, thank you! (Offline mode)"
	case strings.Contains(lower, "bye") || strings.Contains(lower, "goodbye"):
		return "Goodbye! Have a great day! (Offline mode)"
	default:
		return "I understand. Can you tell me more? (Offline mode - AI not connected)"
	}
}
