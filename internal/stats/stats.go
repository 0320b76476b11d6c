// Package stats computes run summaries from classified messages. Everything
// here is pure: no I/O, no clock, same input always yields the same output.
package stats

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Item is the slice of a classified message the aggregator reads. Keeping
// the input minimal lets callers adapt whatever record shape they hold.
type Item struct {
	Ts              string
	ReplyCount      int
	Category        string
	Urgency         string
	Keywords        []string
	Components      []string
	Resolver        string
	ResourceMinutes int
}

// KeywordCount is one ranked keyword.
type KeywordCount struct {
	Keyword string
	Count   int
}

// Statistics is the aggregate view of one run.
type Statistics struct {
	Total                   int
	CategoryFrequency       map[string]int
	UrgencyDistribution     map[string]int
	KeywordFrequency        map[string]int
	ComponentFrequency      map[string]int
	ResolverFrequency       map[string]int
	TotalResourceMinutes    int
	AverageResourceMinutes  float64
	CategoryResourceMinutes map[string]int
	ThreadedMessages        int
	ThreadedShare           float64
	TimeRange               TimeRange
}

// TimeRange is the span covered by the analyzed messages.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Aggregate computes statistics over classified items. An empty input
// yields zero values throughout; no division by zero anywhere.
func Aggregate(items []Item) Statistics {
	s := Statistics{
		Total:                   len(items),
		CategoryFrequency:       make(map[string]int),
		UrgencyDistribution:     make(map[string]int),
		KeywordFrequency:        make(map[string]int),
		ComponentFrequency:      make(map[string]int),
		ResolverFrequency:       make(map[string]int),
		CategoryResourceMinutes: make(map[string]int),
	}
	if len(items) == 0 {
		return s
	}

	for _, item := range items {
		if item.Category != "" {
			s.CategoryFrequency[item.Category]++
			s.CategoryResourceMinutes[item.Category] += item.ResourceMinutes
		}
		if item.Urgency != "" {
			s.UrgencyDistribution[item.Urgency]++
		}
		for _, k := range item.Keywords {
			k = strings.ToLower(strings.TrimSpace(k))
			if k != "" {
				s.KeywordFrequency[k]++
			}
		}
		for _, c := range item.Components {
			c = strings.TrimSpace(c)
			if c != "" {
				s.ComponentFrequency[c]++
			}
		}
		if item.Resolver != "" && item.Resolver != "unknown" {
			s.ResolverFrequency[item.Resolver]++
		}
		s.TotalResourceMinutes += item.ResourceMinutes
		if item.ReplyCount > 0 {
			s.ThreadedMessages++
		}

		if t := tsTime(item.Ts); !t.IsZero() {
			if s.TimeRange.Start.IsZero() || t.Before(s.TimeRange.Start) {
				s.TimeRange.Start = t
			}
			if t.After(s.TimeRange.End) {
				s.TimeRange.End = t
			}
		}
	}

	s.AverageResourceMinutes = float64(s.TotalResourceMinutes) / float64(len(items))
	s.ThreadedShare = float64(s.ThreadedMessages) / float64(len(items))
	return s
}

// TopKeywords returns the n most frequent keywords, ties broken
// alphabetically so the ranking is deterministic.
func (s Statistics) TopKeywords(n int) []KeywordCount {
	ranked := make([]KeywordCount, 0, len(s.KeywordFrequency))
	for k, c := range s.KeywordFrequency {
		ranked = append(ranked, KeywordCount{Keyword: k, Count: c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Keyword < ranked[j].Keyword
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func tsTime(ts string) time.Time {
	if dot := strings.IndexByte(ts, '.'); dot >= 0 {
		ts = ts[:dot]
	}
	seconds, err := strconv.ParseInt(ts, 10, 64)
	if err != nil || seconds <= 0 {
		return time.Time{}
	}
	return time.Unix(seconds, 0).UTC()
}
