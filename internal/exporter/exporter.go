// Package exporter persists classified issues into a Notion database,
// creating the destination schema and writing rows in paced batches.
package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/swyang-dev/opskb/internal/classifier"
	"github.com/swyang-dev/opskb/internal/notion"
	"github.com/swyang-dev/opskb/pkg/logging"
)

// Property names of the destination database. The search path reads the
// same names, so they live in one place.
const (
	PropTitle      = "Title"
	PropCategory   = "Category"
	PropIssueType  = "Issue Type"
	PropComponents = "Components"
	PropCause      = "Cause"
	PropResolution = "Resolution"
	PropReporter   = "Reporter"
	PropResolver   = "Resolver"
	PropUrgency    = "Urgency"
	PropStatus     = "Status"
	PropKeywords   = "Keywords"
	PropEstimate   = "Estimate (min)"
	PropOriginal   = "Original Message"
	PropThread     = "Thread Text"
	PropLink       = "Slack Link"
	PropDate       = "Date"
	PropReplies    = "Reply Count"
)

var statusOptions = []string{"new", "in_review", "documented"}

// notionAPI is the slice of the Notion client the exporter uses.
type notionAPI interface {
	CreateDatabase(ctx context.Context, req notion.CreateDatabaseRequest) (*notion.Database, error)
	CreatePage(ctx context.Context, req notion.CreatePageRequest) (*notion.Page, error)
}

// Schema identifies the created destination database.
type Schema struct {
	DatabaseID string
	URL        string
}

// WriteFailure records one row that could not be written.
type WriteFailure struct {
	Ts    string
	Error string
}

// Tally summarizes a persistence pass. Failures are collected, not fatal:
// one bad row must not sink the rest of the run.
type Tally struct {
	Written  int
	Failures []WriteFailure
}

type Exporter struct {
	api        notionAPI
	logger     *slog.Logger
	teamURL    string
	batchSize  int
	writeDelay time.Duration
	batchDelay time.Duration
}

type Option func(*Exporter)

func WithBatching(size int, writeDelay, batchDelay time.Duration) Option {
	return func(e *Exporter) {
		if size > 0 {
			e.batchSize = size
		}
		if writeDelay >= 0 {
			e.writeDelay = writeDelay
		}
		if batchDelay >= 0 {
			e.batchDelay = batchDelay
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Exporter) { e.logger = logger }
}

func New(api notionAPI, teamURL string, opts ...Option) *Exporter {
	if api == nil {
		panic("exporter: nil notion api")
	}
	e := &Exporter{
		api:        api,
		logger:     logging.Default().Logger,
		teamURL:    strings.TrimRight(teamURL, "/"),
		batchSize:  3,
		writeDelay: 500 * time.Millisecond,
		batchDelay: time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateIssueDatabase creates the destination database under a parent page.
// Select options are fixed up front from the classification taxonomy, so
// every later row write uses a known option.
func (e *Exporter) CreateIssueDatabase(ctx context.Context, parentPageID, channelName string) (*Schema, error) {
	title := fmt.Sprintf("%s Issue Archive (%s)", channelName, time.Now().Format("2006-01-02"))
	db, err := e.api.CreateDatabase(ctx, notion.CreateDatabaseRequest{
		ParentPageID: parentPageID,
		Title:        title,
		Properties: map[string]any{
			PropTitle:      notion.TitleSpec(),
			PropCategory:   notion.SelectSpec(classifier.Categories...),
			PropIssueType:  notion.RichTextSpec(),
			PropComponents: notion.MultiSelectSpec(),
			PropCause:      notion.RichTextSpec(),
			PropResolution: notion.RichTextSpec(),
			PropReporter:   notion.RichTextSpec(),
			PropResolver:   notion.RichTextSpec(),
			PropUrgency:    notion.SelectSpec(classifier.Urgencies...),
			PropStatus:     notion.SelectSpec(statusOptions...),
			PropKeywords:   notion.MultiSelectSpec(),
			PropEstimate:   notion.NumberSpec(),
			PropOriginal:   notion.RichTextSpec(),
			PropThread:     notion.RichTextSpec(),
			PropLink:       notion.URLSpec(),
			PropDate:       notion.DateSpec(),
			PropReplies:    notion.NumberSpec(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create issue database: %w", err)
	}
	e.logger.Info("issue database created", "id", db.ID, "url", db.URL)
	return &Schema{DatabaseID: db.ID, URL: db.URL}, nil
}

// Persist writes every classified item as one row, in order, pacing writes
// within and between batches. Individual failures are tallied and skipped.
func (e *Exporter) Persist(ctx context.Context, schema *Schema, items []classifier.Classified) (*Tally, error) {
	tally := &Tally{}
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return tally, err
		}
		if _, err := e.api.CreatePage(ctx, notion.CreatePageRequest{
			DatabaseID: schema.DatabaseID,
			Properties: e.rowProperties(item),
		}); err != nil {
			e.logger.Warn("row write failed", "ts", item.Message.Ts, "error", err)
			tally.Failures = append(tally.Failures, WriteFailure{Ts: item.Message.Ts, Error: err.Error()})
		} else {
			tally.Written++
		}

		if i == len(items)-1 {
			break
		}
		delay := e.writeDelay
		if (i+1)%e.batchSize == 0 {
			delay = e.batchDelay
			e.logger.Info("rows persisted", "done", i+1, "total", len(items), "failed", len(tally.Failures))
		}
		if err := sleepCtx(ctx, delay); err != nil {
			return tally, err
		}
	}
	return tally, nil
}

func (e *Exporter) rowProperties(item classifier.Classified) map[string]any {
	msg := item.Message
	result := item.Classification

	props := map[string]any{
		PropTitle:      notion.TitleValue(result.Summary),
		PropCategory:   notion.SelectValue(result.Category),
		PropIssueType:  notion.RichTextValue(result.IssueType),
		PropCause:      notion.RichTextValue(result.Cause),
		PropResolution: notion.RichTextValue(result.Resolution),
		PropReporter:   notion.RichTextValue(result.Reporter),
		PropResolver:   notion.RichTextValue(result.Resolver),
		PropUrgency:    notion.SelectValue(result.Urgency),
		PropStatus:     notion.SelectValue("new"),
		PropEstimate:   notion.NumberValue(float64(result.ResourceMinutes())),
		PropOriginal:   notion.RichTextValue(msg.Text),
		PropThread:     notion.RichTextValue(msg.CombinedText),
		PropReplies:    notion.NumberValue(float64(len(msg.Replies))),
	}
	if len(result.Components) > 0 {
		props[PropComponents] = notion.MultiSelectValue(result.Components)
	}
	if len(result.Keywords) > 0 {
		props[PropKeywords] = notion.MultiSelectValue(result.Keywords)
	}
	if link := e.Permalink(msg.ChannelID, msg.Ts); link != "" {
		props[PropLink] = notion.URLValue(link)
	}
	if date := tsToDate(msg.Ts); date != "" {
		props[PropDate] = notion.DateValue(date)
	}
	return props
}

// Permalink builds the archive URL for a message. Slack drops the dot from
// the timestamp in permalink paths.
func (e *Exporter) Permalink(channelID, ts string) string {
	if e.teamURL == "" || channelID == "" || ts == "" {
		return ""
	}
	return fmt.Sprintf("%s/archives/%s/p%s", e.teamURL, channelID, strings.Replace(ts, ".", "", 1))
}

func tsToDate(ts string) string {
	dot := strings.IndexByte(ts, '.')
	if dot >= 0 {
		ts = ts[:dot]
	}
	var seconds int64
	if _, err := fmt.Sscanf(ts, "%d", &seconds); err != nil || seconds <= 0 {
		return ""
	}
	return time.Unix(seconds, 0).UTC().Format(time.RFC3339)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
