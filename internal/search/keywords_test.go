package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		contains []string
		excludes []string
	}{
		{
			name:     "tech terms surface first",
			query:    "why is Redis so slow after a Kafka deploy",
			contains: []string{"redis", "kafka", "slow", "deploy"},
			excludes: []string{"is", "so"},
		},
		{
			name:     "korean issue terms",
			query:    "어제 배포 중에 타임아웃 오류가 있었나요",
			contains: []string{"배포", "타임아웃", "오류"},
		},
		{
			name:     "generic tokens over three runes",
			query:    "payment gateway rejected cards",
			contains: []string{"payment", "gateway", "rejected", "cards"},
		},
		{
			name:     "short tokens dropped",
			query:    "is it up",
			excludes: []string{"is", "it", "up"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractKeywords(tc.query)
			for _, want := range tc.contains {
				assert.Contains(t, got, want)
			}
			for _, not := range tc.excludes {
				assert.NotContains(t, got, not)
			}
		})
	}
}

func TestExtractKeywordsDeterministicAndUnique(t *testing.T) {
	first := ExtractKeywords("redis redis outage outage")
	second := ExtractKeywords("redis redis outage outage")
	assert.Equal(t, first, second)

	seen := map[string]bool{}
	for _, k := range first {
		assert.False(t, seen[k], "duplicate keyword %q", k)
		seen[k] = true
	}
}

func TestTermFrequencyScorer(t *testing.T) {
	scorer := TermFrequencyScorer{}
	rec := Record{Title: "redis outage", Body: "redis failed, redis restarted"}

	// redis appears 3 times (len 5), outage once (len 6).
	assert.Equal(t, 21, scorer.Score("redis outage", rec))
	// Tokens of length <= 2 are ignored.
	assert.Equal(t, 0, scorer.Score("is it ok", rec))
	assert.Equal(t, 0, scorer.Score("snowflake", rec))
}
