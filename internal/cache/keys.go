package cache

// Key namespaces. Redis doubles as the "local store" tier for user data:
// writes land here first and sync to the document store afterwards.
const (
	userDataPrefix = "userdata:"
	sessionPrefix  = "session:"
	motivationKey  = "motivation:daily"
)

func UserDataKey(userID string) string   { return userDataPrefix + userID }
func SessionKey(sessionID string) string { return sessionPrefix + sessionID }
func DailyMotivationKey() string         { return motivationKey }
