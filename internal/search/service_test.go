package search

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swyang-dev/opskb/internal/llm"
)

type fakeRetriever struct {
	records  []Record
	keywords []string
	calls    int
}

func (f *fakeRetriever) FetchCandidates(ctx context.Context, keywords []string, limit int) ([]Record, error) {
	f.calls++
	f.keywords = keywords
	return f.records, nil
}

type countingLLM struct {
	resp  llm.Response
	calls int
	last  llm.Request
}

func (c *countingLLM) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	c.calls++
	c.last = req
	return c.resp, nil
}

func TestSearchRanksByRelevance(t *testing.T) {
	retriever := &fakeRetriever{records: []Record{
		{ID: "a", Title: "jenkins plugin update", Body: "minor maintenance note"},
		{ID: "b", Title: "redis outage", Body: "redis cluster down, redis failover to replica, redis recovered"},
		{ID: "c", Title: "redis config tweak", Body: "adjusted redis timeout"},
	}}
	client := &countingLLM{resp: llm.Response{Text: "Redis failed over to the replica."}}
	svc := New(retriever, client)

	result, err := svc.Search(context.Background(), "what happened during the redis outage")
	require.NoError(t, err)

	require.True(t, result.Found)
	assert.Equal(t, "Redis failed over to the replica.", result.Answer)
	require.Len(t, result.Sources, 3)
	// Most occurrences of the long tokens wins.
	assert.Equal(t, "redis outage", result.Sources[0].Title)
	assert.Greater(t, result.Sources[0].Score, result.Sources[1].Score)
	assert.Equal(t, "jenkins plugin update", result.Sources[2].Title)
	assert.Equal(t, 1, client.calls)
}

func TestSearchNoCandidatesSkipsModel(t *testing.T) {
	retriever := &fakeRetriever{}
	client := &countingLLM{}
	svc := New(retriever, client)

	result, err := svc.Search(context.Background(), "anything about quantum teleportation")
	require.NoError(t, err)

	assert.False(t, result.Found)
	assert.Empty(t, result.Answer)
	assert.Zero(t, client.calls)
	assert.NotEmpty(t, result.Keywords)
}

func TestSearchEmptyQuery(t *testing.T) {
	svc := New(&fakeRetriever{}, &countingLLM{})
	_, err := svc.Search(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestSearchTruncatesContextToBudget(t *testing.T) {
	long := strings.Repeat("kafka consumer lag detail ", 100)
	retriever := &fakeRetriever{records: []Record{
		{ID: "a", Title: "kafka lag", Body: long},
		{ID: "b", Title: "kafka rebalance", Body: long},
	}}
	client := &countingLLM{resp: llm.Response{Text: "answer"}}
	svc := New(retriever, client, WithContextBudget(500))

	_, err := svc.Search(context.Background(), "kafka lag")
	require.NoError(t, err)

	prompt := client.last.Messages[0].Content
	start := strings.Index(prompt, "### ")
	end := strings.LastIndex(prompt, "\n\nQuestion:")
	require.True(t, start >= 0 && end > start)
	contextText := prompt[start:end]
	assert.LessOrEqual(t, len([]rune(contextText)), 500)
	assert.Contains(t, contextText, "...")
}

func TestSearchLimitsToTopK(t *testing.T) {
	retriever := &fakeRetriever{records: []Record{
		{ID: "a", Title: "redis one", Body: "redis"},
		{ID: "b", Title: "redis two", Body: "redis redis"},
		{ID: "c", Title: "redis three", Body: "redis redis redis"},
	}}
	client := &countingLLM{resp: llm.Response{Text: "answer"}}
	svc := New(retriever, client, WithTopK(2))

	result, err := svc.Search(context.Background(), "redis")
	require.NoError(t, err)
	require.Len(t, result.Sources, 2)
	assert.Equal(t, "redis three", result.Sources[0].Title)
}
