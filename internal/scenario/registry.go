package scenario

import "strings"

// Info describes one practice scenario: the assistant's opening line, the
// topic material for the system prompt, and how many lessons the scenario
// counts toward completion by default.
type Info struct {
	ID                 string
	Title              string
	Greeting           string
	PromptTopics       string
	DefaultLessonTotal int
}

// DefaultLessonTotal is used for scenario ids not present in the registry.
const DefaultLessonTotal = 10

var registry = map[string]Info{
	"scenario_daily": {
		ID:       "scenario_daily",
		Title:    "Daily Conversation",
		Greeting: "Hi! Let's have a casual chat. How was your day today?",
		PromptTopics: "Have a natural daily conversation. Topics to explore: " +
			"morning routines, weekend plans, favorite foods, hobbies, family, pets, weather, movies/TV shows. " +
			"Start with casual topics and ask follow-up questions. ",
		DefaultLessonTotal: 10,
	},
	"scenario_travel": {
		ID:       "scenario_travel",
		Title:    "Travel English",
		Greeting: "Welcome! I'm here to help you practice travel English. Are you planning a trip soon?",
		PromptTopics: "Role-play travel scenarios. You can be: a hotel receptionist, airport staff, taxi driver, or tour guide. " +
			"Topics: booking a room, asking for directions, ordering food at a restaurant, buying tickets, checking in/out. " +
			"Use common travel phrases and help them practice real situations. ",
		DefaultLessonTotal: 8,
	},
	"scenario_shopping": {
		ID:       "scenario_shopping",
		Title:    "Shopping",
		Greeting: "Hello! Welcome to our store. Can I help you find something today?",
		PromptTopics: "Role-play as a shop assistant or customer. " +
			"Topics: asking for sizes/colors, comparing products, asking for discounts, returns/exchanges, payment methods. " +
			"Practice common shopping phrases and expressions. ",
		DefaultLessonTotal: 6,
	},
	"scenario_restaurant": {
		ID:       "scenario_restaurant",
		Title:    "Restaurant",
		Greeting: "Good evening! Welcome to our restaurant. Would you like to see the menu?",
		PromptTopics: "Role-play as a waiter/waitress or customer at a restaurant. " +
			"Topics: making reservations, ordering food/drinks, asking about menu items, special requests, paying the bill. " +
			"Practice restaurant vocabulary and polite expressions. ",
		DefaultLessonTotal: 7,
	},
	"scenario_business": {
		ID:       "scenario_business",
		Title:    "Business English",
		Greeting: "Good morning. Let's practice some business English. What would you like to discuss today?",
		PromptTopics: "Discuss business topics in a professional setting. " +
			"Topics: meetings, presentations, project updates, deadlines, negotiations, email etiquette, team collaboration. " +
			"Use formal business English expressions. ",
		DefaultLessonTotal: 12,
	},
	"scenario_hotel": {
		ID:       "scenario_hotel",
		Title:    "Hotel",
		Greeting: "Welcome to our hotel! Do you have a reservation, or would you like to book a room?",
		PromptTopics: "Role-play hotel scenarios. You can be a receptionist or guest. " +
			"Topics: check-in/check-out, room service, asking for amenities, reporting problems, extending stay. " +
			"Practice hotel-specific vocabulary and polite requests. ",
		DefaultLessonTotal: 5,
	},
	"scenario_airport": {
		ID:       "scenario_airport",
		Title:    "Airport",
		Greeting: "Hello! Welcome to the airport. May I see your passport and boarding pass?",
		PromptTopics: "Role-play airport scenarios. You can be airport staff or a traveler. " +
			"Topics: check-in counter, security check, boarding, immigration, customs, lost luggage, flight delays. " +
			"Practice airport announcements and common phrases. ",
		DefaultLessonTotal: 6,
	},
	"scenario_medical": {
		ID:       "scenario_medical",
		Title:    "Medical",
		Greeting: "Hello, I'm the doctor. What brings you in today? How are you feeling?",
		PromptTopics: "Role-play medical situations. You can be a doctor, pharmacist, or patient. " +
			"Topics: describing symptoms, making appointments, buying medicine, health insurance, emergency situations. " +
			"Practice medical vocabulary and explaining health issues. ",
		DefaultLessonTotal: 5,
	},
	"scenario_phone": {
		ID:       "scenario_phone",
		Title:    "Phone Calls",
		Greeting: "Hello, this is the customer service line. How may I help you today?",
		PromptTopics: "Practice phone conversation skills. " +
			"Topics: making appointments, customer service calls, leaving voicemails, taking messages, conference calls. " +
			"Practice phone etiquette and common expressions. ",
		DefaultLessonTotal: 7,
	},
	"scenario_job_interview": {
		ID:       "scenario_job_interview",
		Title:    "Job Interview",
		Greeting: "Hello, thank you for coming in today. Please have a seat. Can you tell me a little about yourself?",
		PromptTopics: "Conduct a professional job interview. " +
			"Topics: self-introduction, work experience, strengths/weaknesses, career goals, why this company, salary expectations. " +
			"Ask typical interview questions and give constructive feedback. ",
		DefaultLessonTotal: 9,
	},
	"scenario_presentation": {
		ID:       "scenario_presentation",
		Title:    "Presentations",
		Greeting: "Let's practice your presentation skills. What topic would you like to present on?",
		PromptTopics: "Help practice presentation skills. " +
			"Topics: opening/closing a presentation, explaining data/charts, handling Q&A, transitioning between topics. " +
			"Give feedback on structure and expressions. ",
		DefaultLessonTotal: 10,
	},
	"scenario_meeting": {
		ID:       "scenario_meeting",
		Title:    "Meetings",
		Greeting: "Good morning everyone. Let's start our meeting. What's on the agenda today?",
		PromptTopics: "Practice business meeting scenarios. " +
			"Topics: setting agendas, giving opinions, agreeing/disagreeing politely, making suggestions, summarizing. " +
			"Use formal meeting expressions and etiquette. ",
		DefaultLessonTotal: 8,
	},
	"scenario_negotiation": {
		ID:       "scenario_negotiation",
		Title:    "Negotiation",
		Greeting: "Thank you for meeting with me today. Shall we discuss the terms of our agreement?",
		PromptTopics: "Practice negotiation skills. " +
			"Topics: making offers, counteroffers, compromising, terms and conditions, closing deals. " +
			"Use persuasive language and diplomatic expressions. ",
		DefaultLessonTotal: 8,
	},
	"scenario_email": {
		ID:       "scenario_email",
		Title:    "Email Writing",
		Greeting: "Let's practice writing professional emails. What kind of email do you need to write?",
		PromptTopics: "Help write professional emails. " +
			"Topics: formal greetings/closings, requesting information, apologizing, following up, scheduling. " +
			"Practice email structure and professional tone. ",
		DefaultLessonTotal: 6,
	},
	"scenario_debate": {
		ID:       "scenario_debate",
		Title:    "Debate",
		Greeting: "Welcome to our discussion session. What topic would you like to debate today?",
		PromptTopics: "Practice debate and discussion skills. " +
			"Topics: current events, social issues, technology, environment, education. " +
			"Practice expressing opinions, providing evidence, and respectful disagreement. ",
		DefaultLessonTotal: 10,
	},
	"scenario_networking": {
		ID:       "scenario_networking",
		Title:    "Networking",
		Greeting: "Hi there! Nice to meet you. So, what brings you to this event?",
		PromptTopics: "Practice networking and small talk. " +
			"Topics: introducing yourself, exchanging business cards, industry talk, following up after events. " +
			"Practice professional relationship building. ",
		DefaultLessonTotal: 7,
	},
}

// aliases maps legacy scenario ids used by older clients onto canonical ids.
var aliases = map[string]string{
	"daily":              "scenario_daily",
	"daily_conversation": "scenario_daily",
	"travel":             "scenario_travel",
	"travel_english":     "scenario_travel",
	"business":           "scenario_business",
	"interview":          "scenario_job_interview",
	"interview_prep":     "scenario_job_interview",
}

var fallback = Info{
	ID:       "scenario_default",
	Title:    "Free Talk",
	Greeting: "Hi! Let's practice English together. What would you like to talk about?",
	PromptTopics: "Have a friendly English conversation. " +
		"Adapt to what the student wants to talk about. ",
	DefaultLessonTotal: DefaultLessonTotal,
}

// Lookup resolves a scenario id (or legacy alias) to its Info. Unknown ids
// resolve to the free-talk fallback, never an error: a stale client must
// still be able to start a conversation.
func Lookup(id string) Info {
	if canonical, ok := aliases[id]; ok {
		id = canonical
	}
	if info, ok := registry[id]; ok {
		return info
	}
	return fallback
}

// Known reports whether id (or an alias of it) is a registered scenario.
func Known(id string) bool {
	if canonical, ok := aliases[id]; ok {
		id = canonical
	}
	_, ok := registry[id]
	return ok
}

// IDs returns the canonical scenario ids in no particular order.
func IDs() []string {
	out := make([]string, 0, len(registry))
	for id := range registry {
		out = append(out, id)
	}
	return out
}

// SystemPrompt builds the conversation instruction for a scenario and the
// student's proficiency level.
func SystemPrompt(id, level string) string {
	info := Lookup(id)
	if level == "" {
		level = "Beginner"
	}

	var b strings.Builder
	b.WriteString("You are an English conversation teacher for Korean students. ")
	b.WriteString("Your student's level is: ")
	b.WriteString(level)
	b.WriteString(". ")
	b.WriteString(info.PromptTopics)
	b.WriteString("\nIMPORTANT RULES:\n")
	b.WriteString("1. Keep responses SHORT (1-2 sentences max)\n")
	b.WriteString("2. Use simple, natural English appropriate for their level\n")
	b.WriteString("3. Ask follow-up questions to keep conversation flowing\n")
	b.WriteString("4. Be encouraging and friendly\n")
	b.WriteString("5. Respond in English only, no Korean\n")
	b.WriteString("6. Stay in character for the scenario and stick to relevant topics\n")
	return b.String()
}
