package sentiment

import (
	"strings"

	"github.com/mindease/backend/internal/model/chat"
)

// RiskThreshold is the inclusive polarity at or below which a message is
// treated as acute distress.
const RiskThreshold = -0.5

// Result is the per-message sentiment verdict.
type Result struct {
	Polarity     float64   `json:"polarity"`
	Subjectivity float64   `json:"subjectivity"`
	RiskFlag     bool      `json:"risk_flag"`
	Mood         chat.Mood `json:"-"`
}

// Classifier 负责情感打分与风险判定。
type Classifier struct {
	scorer Scorer
}

// NewClassifier wraps a scorer. A nil scorer falls back to the lexicon.
func NewClassifier(scorer Scorer) *Classifier {
	if scorer == nil {
		scorer = NewLexicon()
	}
	return &Classifier{scorer: scorer}
}

// Classify scores text and derives the risk flag and prompt mood.
// Blank text is neutral and never risky.
func (c *Classifier) Classify(text string) Result {
	if strings.TrimSpace(text) == "" {
		return Result{Mood: MoodFor(0)}
	}

	score := c.scorer.Score(text)
	polarity := clamp(score.Polarity, -1, 1)

	return Result{
		Polarity:     polarity,
		Subjectivity: clamp(score.Subjectivity, 0, 1),
		RiskFlag:     IsRisk(polarity),
		Mood:         MoodFor(polarity),
	}
}

// IsRisk reports whether polarity crosses the risk threshold.
func IsRisk(polarity float64) bool {
	return polarity <= RiskThreshold
}

// MoodFor maps polarity onto the mood used to personalize the companion
// prompt. Thresholds differ from the music mapper's.
func MoodFor(polarity float64) chat.Mood {
	switch {
	case polarity <= RiskThreshold:
		return chat.MoodDepressed
	case polarity < -0.2:
		return chat.MoodSad
	case polarity < 0:
		return chat.MoodStressed
	case polarity < 0.3:
		return chat.MoodRelaxed
	default:
		return chat.MoodHappy
	}
}
