// Package search answers operator questions from the issue archive:
// keyword recall, relevance ranking, then a model answer grounded strictly
// in the retrieved records.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/swyang-dev/opskb/internal/llm"
	"github.com/swyang-dev/opskb/pkg/logging"
)

// ErrEmptyQuery means the query had no usable content.
var ErrEmptyQuery = errors.New("search: empty query")

const answerSystemPrompt = "You are an operations knowledge assistant. Answer using only the " +
	"provided incident records. If the records do not contain the answer, say so plainly. " +
	"Respond in the same language as the question."

// Source is one record an answer was grounded in.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
	Score int    `json:"score"`
}

// Result is a completed search. Found is false when nothing matched; in
// that case no model call was made and Answer is empty.
type Result struct {
	Found    bool     `json:"found"`
	Answer   string   `json:"answer,omitempty"`
	Sources  []Source `json:"sources,omitempty"`
	Keywords []string `json:"keywords"`
}

type Service struct {
	retriever Retriever
	scorer    Scorer
	client    llm.Client
	logger    *slog.Logger
	topK      int
	budget    int
}

type Option func(*Service)

func WithTopK(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.topK = k
		}
	}
}

func WithContextBudget(chars int) Option {
	return func(s *Service) {
		if chars > 0 {
			s.budget = chars
		}
	}
}

// WithScorer swaps the ranking strategy.
func WithScorer(scorer Scorer) Option {
	return func(s *Service) {
		if scorer != nil {
			s.scorer = scorer
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(retriever Retriever, client llm.Client, opts ...Option) *Service {
	if retriever == nil {
		panic("search: nil retriever")
	}
	if client == nil {
		panic("search: nil llm client")
	}
	s := &Service{
		retriever: retriever,
		scorer:    TermFrequencyScorer{},
		client:    client,
		logger:    logging.Default().Logger,
		topK:      5,
		budget:    3000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search runs the retrieve-then-generate flow. When recall comes back
// empty the result short-circuits with Found=false and the model is never
// called.
func (s *Service) Search(ctx context.Context, query string) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	keywords := ExtractKeywords(query)
	records, err := s.retriever.FetchCandidates(ctx, keywords, s.topK)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		s.logger.Info("no matching records", "query", query, "keywords", keywords)
		return &Result{Found: false, Keywords: keywords}, nil
	}

	scores := make(map[string]int, len(records))
	for _, rec := range records {
		scores[rec.ID] = s.scorer.Score(query, rec)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return scores[records[i].ID] > scores[records[j].ID]
	})
	if len(records) > s.topK {
		records = records[:s.topK]
	}

	contextText := BuildContext(records, s.budget)
	resp, err := s.client.Complete(ctx, llm.Request{
		System: answerSystemPrompt,
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: fmt.Sprintf("Incident records:\n\n%s\n\nQuestion: %s", contextText, query),
		}},
		MaxTokens: 1024,
	})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	sources := make([]Source, 0, len(records))
	for _, rec := range records {
		sources = append(sources, Source{Title: rec.Title, URL: rec.URL, Score: scores[rec.ID]})
	}
	return &Result{
		Found:    true,
		Answer:   strings.TrimSpace(resp.Text),
		Sources:  sources,
		Keywords: keywords,
	}, nil
}
