package sentiment

import (
	"fmt"
	"strings"
)

// Score is the raw output of a polarity scorer.
type Score struct {
	Polarity     float64
	Subjectivity float64
}

// Scorer turns free text into a polarity in [-1, 1] and a subjectivity in [0, 1].
// Implementations must be pure and safe for concurrent use.
type Scorer interface {
	Score(text string) Score
}

// ScorerFunc adapts an ordinary function to the Scorer interface.
type ScorerFunc func(text string) Score

// Score calls f(text).
func (f ScorerFunc) Score(text string) Score {
	return f(text)
}

// Scorer names accepted by NewScorer.
const (
	NameLexicon = "lexicon"
	NameVader   = "vader"
)

// NewScorer 根据名称构造评分器。
func NewScorer(name string) (Scorer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NameLexicon, "":
		return NewLexicon(), nil
	case NameVader:
		return NewVader(), nil
	default:
		return nil, fmt.Errorf("sentiment: unknown scorer %q", name)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
