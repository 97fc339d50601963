package sentiment

import (
	"strings"

	"github.com/jonreiter/govader"
)

// Vader scores text with the VADER rule set. Polarity is the compound score;
// subjectivity is approximated as the non-neutral share of the text.
type Vader struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVader loads the VADER lexicon.
func NewVader() *Vader {
	return &Vader{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Score uses the VADER compound score as polarity.
func (v *Vader) Score(text string) Score {
	if strings.TrimSpace(text) == "" {
		return Score{}
	}

	s := v.analyzer.PolarityScores(text)
	return Score{
		Polarity:     clamp(s.Compound, -1, 1),
		Subjectivity: clamp(1-s.Neutral, 0, 1),
	}
}
