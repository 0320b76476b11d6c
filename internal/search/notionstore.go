package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/swyang-dev/opskb/internal/exporter"
	"github.com/swyang-dev/opskb/internal/notion"
)

// Retriever fetches candidate records matching any of the keywords.
type Retriever interface {
	FetchCandidates(ctx context.Context, keywords []string, limit int) ([]Record, error)
}

// maxFilterKeywords bounds the OR filter size; Notion rejects very large
// compound filters.
const maxFilterKeywords = 5

// queryAPI is the slice of the Notion client the retriever uses.
type queryAPI interface {
	QueryDatabase(ctx context.Context, q notion.Query) ([]notion.Page, error)
}

// NotionRetriever recalls issue rows from the archive database with an
// OR-of-contains filter across the searchable text properties. Recall is
// deliberately loose; precision comes from scoring afterwards.
type NotionRetriever struct {
	api        queryAPI
	databaseID string
}

func NewNotionRetriever(api queryAPI, databaseID string) *NotionRetriever {
	if api == nil {
		panic("search: nil notion api")
	}
	return &NotionRetriever{api: api, databaseID: databaseID}
}

func (r *NotionRetriever) FetchCandidates(ctx context.Context, keywords []string, limit int) ([]Record, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	if len(keywords) > maxFilterKeywords {
		keywords = keywords[:maxFilterKeywords]
	}

	var conditions []map[string]any
	for _, kw := range keywords {
		conditions = append(conditions,
			notion.ContainsFilter(exporter.PropTitle, "title", kw),
			notion.ContainsFilter(exporter.PropIssueType, "rich_text", kw),
			notion.ContainsFilter(exporter.PropCause, "rich_text", kw),
			notion.ContainsFilter(exporter.PropResolution, "rich_text", kw),
			notion.ContainsFilter(exporter.PropOriginal, "rich_text", kw),
			notion.ContainsFilter(exporter.PropThread, "rich_text", kw),
		)
	}

	pages, err := r.api.QueryDatabase(ctx, notion.Query{
		DatabaseID: r.databaseID,
		Filter:     notion.OrFilter(conditions...),
		PageSize:   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}

	records := make([]Record, 0, len(pages))
	for _, page := range pages {
		records = append(records, pageToRecord(page))
	}
	return records, nil
}

func pageToRecord(page notion.Page) Record {
	title := page.PlainText(exporter.PropTitle)
	if title == "" {
		title = "untitled issue"
	}

	var body strings.Builder
	appendField := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&body, "%s: %s\n", label, value)
		}
	}
	appendField("Type", page.PlainText(exporter.PropIssueType))
	appendField("Category", page.SelectName(exporter.PropCategory))
	appendField("Cause", page.PlainText(exporter.PropCause))
	appendField("Resolution", page.PlainText(exporter.PropResolution))
	appendField("Resolver", page.PlainText(exporter.PropResolver))
	appendField("Discussion", page.PlainText(exporter.PropThread))

	url := page.URLOf(exporter.PropLink)
	if url == "" {
		url = page.URL
	}
	return Record{
		ID:    page.ID,
		Title: title,
		Body:  strings.TrimRight(body.String(), "\n"),
		URL:   url,
	}
}
