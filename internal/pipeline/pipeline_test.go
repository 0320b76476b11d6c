package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swyang-dev/opskb/internal/classifier"
	"github.com/swyang-dev/opskb/internal/collector"
	"github.com/swyang-dev/opskb/internal/exporter"
	"github.com/swyang-dev/opskb/internal/llm"
	"github.com/swyang-dev/opskb/internal/notion"
	"github.com/swyang-dev/opskb/internal/slack"
)

type fakeSlack struct {
	messages []slack.Message
}

func (f *fakeSlack) ListChannels(ctx context.Context, types string) ([]slack.Channel, error) {
	return []slack.Channel{{ID: "C1", Name: "ops-incidents"}}, nil
}

func (f *fakeSlack) History(ctx context.Context, channelID, oldest, cursor string, limit int) (*slack.HistoryPage, error) {
	return &slack.HistoryPage{Messages: f.messages}, nil
}

func (f *fakeSlack) ThreadReplies(ctx context.Context, channelID, threadTs string) ([]slack.Message, error) {
	return nil, nil
}

func (f *fakeSlack) UserInfo(ctx context.Context, userID string) (*slack.User, error) {
	return &slack.User{ID: userID, RealName: "Jun Park"}, nil
}

type fakeNotion struct {
	pages int
}

func (f *fakeNotion) CreateDatabase(ctx context.Context, req notion.CreateDatabaseRequest) (*notion.Database, error) {
	return &notion.Database{ID: "db-1", URL: "https://notion.so/db-1"}, nil
}

func (f *fakeNotion) CreatePage(ctx context.Context, req notion.CreatePageRequest) (*notion.Page, error) {
	f.pages++
	return &notion.Page{ID: fmt.Sprintf("page-%d", f.pages)}, nil
}

type fixedLLM struct {
	calls int
}

func (f *fixedLLM) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	f.calls++
	return llm.Response{Text: `{"category":"infrastructure","issue_type":"outage",` +
		`"cause":"disk full","resolution":"cleared logs","urgency":"high",` +
		`"keywords":["disk"],"resource_estimate":"20","summary":"disk filled up"}`}, nil
}

type memStore struct {
	saved   []classifier.Classified
	deleted bool
}

func (m *memStore) Load() ([]classifier.Classified, error) { return m.saved, nil }
func (m *memStore) Save(r []classifier.Classified) error   { m.saved = r; return nil }
func (m *memStore) Delete() error                          { m.deleted = true; return nil }

func newTestPipeline(slackAPI *fakeSlack, notionAPI *fakeNotion, model *fixedLLM, store *memStore) *Pipeline {
	pacer := collector.NewPacer(time.Millisecond, time.Millisecond)
	return New(Config{
		Collector: collector.New(slackAPI, pacer),
		Pacer:     pacer,
		Classifier: classifier.New(model, store,
			classifier.WithPacing(0, 0),
			classifier.WithRetries(2, 0),
		),
		Exporter:     exporter.New(notionAPI, "https://acme.slack.com", exporter.WithBatching(3, 0, 0)),
		Checkpoint:   store,
		ParentPageID: "parent-1",
	})
}

func TestRunEndToEnd(t *testing.T) {
	slackAPI := &fakeSlack{messages: []slack.Message{
		{User: "U1", Text: "the staging cluster ran out of disk space", Ts: "1700000100.000100"},
		{User: "U1", Text: "airflow dag failed overnight on the warehouse", Ts: "1700000200.000100"},
	}}
	notionAPI := &fakeNotion{}
	model := &fixedLLM{}
	store := &memStore{}

	report, err := newTestPipeline(slackAPI, notionAPI, model, store).Run(context.Background(), "ops-incidents", 7)
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "C1", report.ChannelID)
	assert.Equal(t, 2, report.Collected)
	assert.Equal(t, 2, report.Classified)
	assert.Zero(t, report.Fallbacks)
	assert.Equal(t, 2, report.Written)
	assert.Empty(t, report.WriteFailures)
	assert.Equal(t, "https://notion.so/db-1", report.DatabaseURL)
	assert.Equal(t, 2, report.Statistics.CategoryFrequency["infrastructure"])
	assert.Equal(t, 2, notionAPI.pages)
	// Checkpoint removed only after everything succeeded.
	assert.True(t, store.deleted)
}

func TestRunEmptyWindowShortCircuits(t *testing.T) {
	slackAPI := &fakeSlack{}
	notionAPI := &fakeNotion{}
	model := &fixedLLM{}
	store := &memStore{}

	report, err := newTestPipeline(slackAPI, notionAPI, model, store).Run(context.Background(), "ops-incidents", 7)
	require.NoError(t, err)

	assert.Zero(t, report.Collected)
	assert.Zero(t, report.Classified)
	assert.Zero(t, model.calls)
	assert.Zero(t, notionAPI.pages)
	assert.False(t, store.deleted)
}
