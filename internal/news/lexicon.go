package news

import (
	"strings"
	"unicode"
)

// Lexicon scores text by counting weighted finance-sentiment terms. Title
// hits count double since headlines compress the editorial judgement.
type Lexicon struct {
	terms map[string]float64
}

func NewLexicon() *Lexicon {
	return &Lexicon{terms: defaultTerms()}
}

func defaultTerms() map[string]float64 {
	return map[string]float64{
		// positive
		"beat": 0.8, "beats": 0.8, "surge": 0.9, "surges": 0.9, "soar": 0.9,
		"soars": 0.9, "rally": 0.7, "rallies": 0.7, "jump": 0.6, "jumps": 0.6,
		"gain": 0.5, "gains": 0.5, "rise": 0.4, "rises": 0.4, "up": 0.2,
		"record": 0.6, "strong": 0.5, "growth": 0.5, "profit": 0.5,
		"upgrade": 0.8, "upgraded": 0.8, "outperform": 0.7, "buy": 0.5,
		"bullish": 0.7, "dividend": 0.3, "buyback": 0.4, "expansion": 0.4,
		"wins": 0.5, "approval": 0.4, "breakthrough": 0.6,

		// negative
		"miss": -0.8, "misses": -0.8, "plunge": -0.9, "plunges": -0.9,
		"crash": -1.0, "crashes": -1.0, "slump": -0.8, "slumps": -0.8,
		"fall": -0.4, "falls": -0.4, "drop": -0.5, "drops": -0.5, "down": -0.2,
		"loss": -0.6, "losses": -0.6, "weak": -0.5, "decline": -0.5,
		"downgrade": -0.8, "downgraded": -0.8, "underperform": -0.7,
		"sell": -0.5, "bearish": -0.7, "fraud": -1.0, "probe": -0.6,
		"lawsuit": -0.6, "recall": -0.6, "layoffs": -0.7, "bankruptcy": -1.0,
		"default": -0.8, "warning": -0.5, "cuts": -0.4, "scandal": -0.9,
	}
}

// Score returns the sentiment of one article in [-1,1]. Zero means neutral,
// including the no-matches case.
func (l *Lexicon) Score(title, content string) float64 {
	var sum float64
	var hits int

	for _, w := range tokenize(title) {
		if v, ok := l.terms[w]; ok {
			sum += 2 * v
			hits += 2
		}
	}
	for _, w := range tokenize(content) {
		if v, ok := l.terms[w]; ok {
			sum += v
			hits++
		}
	}
	if hits == 0 {
		return 0
	}
	score := sum / float64(hits)
	if score > 1 {
		return 1
	}
	if score < -1 {
		return -1
	}
	return score
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
