// Package lexical scores keyword overlap between a query and a document.
// It complements vector similarity and is the sole signal in fallback mode.
package lexical

import (
	"math"
	"strings"
	"unicode"
)

const (
	minTokenLen = 3
	// coverageCap bounds the denominator of the coverage term so long
	// queries are not penalized for unmatched tail vocabulary.
	coverageCap = 10
)

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "all": {}, "can": {}, "had": {}, "her": {}, "was": {},
	"one": {}, "our": {}, "out": {}, "has": {}, "have": {}, "this": {},
	"that": {}, "with": {}, "from": {}, "they": {}, "been": {}, "were": {},
	"their": {}, "which": {}, "would": {}, "there": {}, "about": {},
	"will": {}, "what": {}, "when": {}, "who": {}, "how": {}, "them": {},
	"than": {}, "then": {}, "these": {}, "those": {}, "into": {}, "over": {},
	"such": {}, "only": {}, "also": {}, "more": {}, "most": {}, "some": {},
	"any": {}, "each": {}, "other": {}, "your": {}, "his": {}, "she": {},
}

// Tokenize lowercases text, strips punctuation, and drops short tokens and
// stopwords. The token stream preserves duplicates for frequency weighting.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := fields[:0]
	for _, tok := range fields {
		if len(tok) < minTokenLen {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// frequencies builds a token frequency map.
func frequencies(tokens []string) map[string]int {
	freq := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		freq[tok]++
	}
	return freq
}

// Score measures log-frequency-weighted keyword overlap between queryText
// and docText, in [0,1]. Raw overlap overweights documents repeating one
// matching term, so the base score is adjusted by a coverage term rewarding
// breadth of matched query vocabulary.
func Score(queryText, docText string) float64 {
	queryFreq := frequencies(Tokenize(queryText))
	if len(queryFreq) == 0 {
		return 0
	}
	docFreq := frequencies(Tokenize(docText))

	var matchWeight, totalWeight float64
	uniqueMatches := 0
	for tok, qf := range queryFreq {
		w := math.Log(float64(qf) + 1)
		totalWeight += w
		if df, ok := docFreq[tok]; ok {
			matchWeight += w * math.Log(float64(df)+1)
			uniqueMatches++
		}
	}
	if totalWeight == 0 {
		return 0
	}

	base := matchWeight / totalWeight
	coverage := float64(uniqueMatches) / float64(min(len(queryFreq), coverageCap))
	return clamp01(base * (0.7 + 0.3*coverage))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
