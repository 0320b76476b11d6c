package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAggregateEmptyInput(t *testing.T) {
	s := Aggregate(nil)

	assert.Zero(t, s.Total)
	assert.Zero(t, s.AverageResourceMinutes)
	assert.Zero(t, s.ThreadedShare)
	assert.Empty(t, s.CategoryFrequency)
	assert.True(t, s.TimeRange.Start.IsZero())
	assert.Empty(t, s.TopKeywords(10))
}

func TestAggregateFrequencies(t *testing.T) {
	items := []Item{
		{
			Ts: "1700000100.000100", ReplyCount: 3,
			Category: "database_issue", Urgency: "high",
			Keywords: []string{"Postgres", "pool"}, Components: []string{"postgres"},
			Resolver: "Mia Lee", ResourceMinutes: 60,
		},
		{
			Ts: "1700000500.000100",
			Category: "database_issue", Urgency: "low",
			Keywords: []string{"postgres"},
			Resolver: "unknown", ResourceMinutes: 30,
		},
		{
			Ts: "1700000300.000100", ReplyCount: 1,
			Category: "deployment_issue", Urgency: "high",
			Keywords: []string{"jenkins"}, Components: []string{"jenkins", "staging"},
			Resolver: "Mia Lee",
		},
	}

	s := Aggregate(items)

	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.CategoryFrequency["database_issue"])
	assert.Equal(t, 1, s.CategoryFrequency["deployment_issue"])
	assert.Equal(t, 2, s.UrgencyDistribution["high"])
	// Keywords are case-folded.
	assert.Equal(t, 2, s.KeywordFrequency["postgres"])
	assert.Equal(t, 2, s.ComponentFrequency["jenkins"]+s.ComponentFrequency["postgres"])
	// Unknown resolvers stay out of the leaderboard.
	assert.Equal(t, map[string]int{"Mia Lee": 2}, s.ResolverFrequency)

	assert.Equal(t, 90, s.TotalResourceMinutes)
	assert.InDelta(t, 30.0, s.AverageResourceMinutes, 0.001)
	assert.Equal(t, 90, s.CategoryResourceMinutes["database_issue"])

	assert.Equal(t, 2, s.ThreadedMessages)
	assert.InDelta(t, 2.0/3.0, s.ThreadedShare, 0.001)

	assert.Equal(t, time.Unix(1700000100, 0).UTC(), s.TimeRange.Start)
	assert.Equal(t, time.Unix(1700000500, 0).UTC(), s.TimeRange.End)
}

func TestTopKeywordsDeterministicOrder(t *testing.T) {
	s := Aggregate([]Item{
		{Ts: "1.0", Keywords: []string{"redis", "kafka", "redis", "airflow"}},
		{Ts: "2.0", Keywords: []string{"kafka"}},
	})

	top := s.TopKeywords(2)
	assert.Equal(t, []KeywordCount{
		{Keyword: "kafka", Count: 2},
		{Keyword: "redis", Count: 2},
	}, top)

	all := s.TopKeywords(0)
	assert.Len(t, all, 3)
	assert.Equal(t, "airflow", all[2].Keyword)
}

func TestAggregateIgnoresMalformedTimestamps(t *testing.T) {
	s := Aggregate([]Item{
		{Ts: "not-a-ts", Category: "etc"},
		{Ts: "1700000100.000100", Category: "etc"},
	})
	assert.Equal(t, s.TimeRange.Start, s.TimeRange.End)
	assert.False(t, s.TimeRange.Start.IsZero())
}
