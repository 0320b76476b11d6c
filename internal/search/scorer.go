package search

import "strings"

// Record is one retrieved knowledge-base entry, flattened for scoring and
// context assembly.
type Record struct {
	ID    string
	Title string
	Body  string
	URL   string
}

// Scorer ranks a record against a query. Higher is more relevant.
type Scorer interface {
	Score(query string, rec Record) int
}

// TermFrequencyScorer scores by summing, over every query token longer
// than two characters, the token's occurrence count in the record weighted
// by token length. Longer matched terms count for more.
type TermFrequencyScorer struct{}

func (TermFrequencyScorer) Score(query string, rec Record) int {
	text := strings.ToLower(rec.Title + " " + rec.Body)
	score := 0
	for _, token := range tokenize(strings.ToLower(query)) {
		length := len([]rune(token))
		if length <= 2 {
			continue
		}
		score += strings.Count(text, token) * length
	}
	return score
}
