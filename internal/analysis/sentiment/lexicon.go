package sentiment

import (
	"strings"
	"unicode"
)

type entry struct {
	polarity     float64
	subjectivity float64
}

// negationFactor flips and dampens a negated word ("not good" is mildly bad,
// not as bad as "bad").
const negationFactor = -0.5

// modifierWindow is how many preceding tokens are inspected for negations and
// intensifiers.
const modifierWindow = 2

var defaultWords = map[string]entry{
	// 积极
	"happy":     {0.8, 1.0},
	"glad":      {0.5, 1.0},
	"great":     {0.8, 0.75},
	"good":      {0.7, 0.6},
	"love":      {0.5, 0.6},
	"loved":     {0.7, 0.8},
	"wonderful": {1.0, 1.0},
	"amazing":   {0.6, 0.9},
	"awesome":   {1.0, 1.0},
	"excellent": {1.0, 1.0},
	"fantastic": {0.4, 0.9},
	"nice":      {0.6, 1.0},
	"fine":      {0.4, 0.5},
	"calm":      {0.3, 0.75},
	"relaxed":   {0.4, 0.6},
	"peaceful":  {0.5, 0.7},
	"better":    {0.5, 0.5},
	"best":      {1.0, 0.3},
	"excited":   {0.375, 0.75},
	"grateful":  {0.6, 0.8},
	"thankful":  {0.5, 0.8},
	"hopeful":   {0.5, 0.8},
	"proud":     {0.8, 1.0},
	"okay":      {0.5, 0.5},
	"beautiful": {0.85, 1.0},
	"fun":       {0.3, 0.2},
	"enjoy":     {0.4, 0.5},
	"enjoyed":   {0.4, 0.5},
	"joy":       {0.8, 0.9},
	"cheerful":  {0.7, 0.8},
	"lucky":     {0.33, 1.0},
	"safe":      {0.5, 0.5},

	// 消极
	"sad":          {-0.5, 1.0},
	"unhappy":      {-0.6, 0.9},
	"bad":          {-0.7, 0.67},
	"terrible":     {-1.0, 1.0},
	"awful":        {-1.0, 1.0},
	"horrible":     {-1.0, 1.0},
	"worst":        {-1.0, 1.0},
	"worse":        {-0.4, 0.6},
	"hate":         {-0.8, 0.9},
	"angry":        {-0.5, 1.0},
	"upset":        {-0.5, 0.8},
	"tired":        {-0.4, 0.7},
	"exhausted":    {-0.4, 0.7},
	"stressed":     {-0.5, 0.8},
	"anxious":      {-0.4, 0.8},
	"worried":      {-0.4, 0.8},
	"nervous":      {-0.3, 0.7},
	"lonely":       {-0.5, 0.8},
	"alone":        {-0.2, 0.5},
	"depressed":    {-0.8, 1.0},
	"miserable":    {-1.0, 1.0},
	"hopeless":     {-1.0, 1.0},
	"worthless":    {-1.0, 1.0},
	"useless":      {-0.5, 0.3},
	"empty":        {-0.4, 0.6},
	"broken":       {-0.4, 0.5},
	"scared":       {-0.5, 0.8},
	"afraid":       {-0.6, 0.9},
	"overwhelmed":  {-0.4, 0.7},
	"hurt":         {-0.5, 0.7},
	"crying":       {-0.4, 0.6},
	"pain":         {-0.6, 0.8},
	"painful":      {-0.7, 0.8},
	"suicidal":     {-1.0, 1.0},
	"die":          {-0.8, 0.8},
	"boring":       {-1.0, 1.0},
	"annoyed":      {-0.4, 0.7},
	"frustrated":   {-0.6, 0.8},
	"disappointed": {-0.6, 0.8},
	"difficult":    {-0.5, 1.0},
	"sick":         {-0.7, 0.9},
	"stupid":       {-0.8, 1.0},
	"pathetic":     {-1.0, 1.0},
	"numb":         {-0.4, 0.6},
}

var defaultIntensifiers = map[string]float64{
	"very":       1.3,
	"really":     1.3,
	"so":         1.3,
	"super":      1.3,
	"totally":    1.3,
	"extremely":  1.5,
	"incredibly": 1.5,
	"absolutely": 1.5,
	"quite":      1.1,
	"somewhat":   0.7,
	"slightly":   0.5,
}

var defaultNegations = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "nor": {}, "cannot": {},
	"dont": {}, "cant": {}, "wont": {}, "isnt": {}, "arent": {},
	"wasnt": {}, "werent": {}, "didnt": {}, "doesnt": {}, "havent": {},
	"hasnt": {}, "couldnt": {}, "shouldnt": {},
}

// Lexicon 是基于词典的评分器：命中词的极性取平均，支持否定与程度副词。
type Lexicon struct {
	words        map[string]entry
	intensifiers map[string]float64
	negations    map[string]struct{}
}

// NewLexicon returns a scorer backed by the built-in English word list.
func NewLexicon() *Lexicon {
	return &Lexicon{
		words:        defaultWords,
		intensifiers: defaultIntensifiers,
		negations:    defaultNegations,
	}
}

// Score averages the polarity and subjectivity of every known word. Text
// without known words scores zero.
func (l *Lexicon) Score(text string) Score {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return Score{}
	}

	var polaritySum, subjectivitySum float64
	hits := 0
	for i, tok := range tokens {
		e, ok := l.words[tok]
		if !ok {
			continue
		}

		intensity, negated := l.modifiers(tokens, i)
		polarity := clamp(e.polarity*intensity, -1, 1)
		if negated {
			polarity *= negationFactor
		}

		polaritySum += polarity
		subjectivitySum += clamp(e.subjectivity*intensity, 0, 1)
		hits++
	}

	if hits == 0 {
		return Score{}
	}

	n := float64(hits)
	return Score{
		Polarity:     clamp(polaritySum/n, -1, 1),
		Subjectivity: clamp(subjectivitySum/n, 0, 1),
	}
}

// modifiers walks back from tokens[i] until another sentiment word or the
// window edge.
func (l *Lexicon) modifiers(tokens []string, i int) (intensity float64, negated bool) {
	intensity = 1
	for j := i - 1; j >= 0 && j >= i-modifierWindow; j-- {
		tok := tokens[j]
		if _, isWord := l.words[tok]; isWord {
			break
		}
		if factor, ok := l.intensifiers[tok]; ok {
			intensity *= factor
			continue
		}
		if _, ok := l.negations[tok]; ok {
			negated = true
		}
	}
	return intensity, negated
}

var apostrophes = strings.NewReplacer("'", "", "’", "")

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' && r != '’'
	})

	tokens := fields[:0]
	for _, f := range fields {
		f = apostrophes.Replace(f)
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
