package chat

import "time"

// Mood is the closed set of mood labels used for prompt personalization,
// persistence and music mapping.
type Mood string

const (
	MoodHappy     Mood = "Happy"
	MoodSad       Mood = "Sad"
	MoodStressed  Mood = "Stressed"
	MoodRelaxed   Mood = "Relaxed"
	MoodDepressed Mood = "Depressed"
)

// Valid 判断标签是否属于已知集合。
func (m Mood) Valid() bool {
	switch m {
	case MoodHappy, MoodSad, MoodStressed, MoodRelaxed, MoodDepressed:
		return true
	default:
		return false
	}
}

// Turn persists one completed user/bot exchange.
type Turn struct {
	ID          string    `json:"id,omitempty"`
	UserID      string    `json:"user_id"`
	UserMessage string    `json:"user_message"`
	BotResponse string    `json:"bot_response"`
	Mood        Mood      `json:"mood"`
	Timestamp   time.Time `json:"timestamp"`
}
