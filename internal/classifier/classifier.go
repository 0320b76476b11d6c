// Package classifier turns collected messages into structured issue records
// through a language model, with checkpointed progress so long runs survive
// interruption.
package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/swyang-dev/opskb/internal/collector"
	"github.com/swyang-dev/opskb/internal/llm"
	"github.com/swyang-dev/opskb/internal/llm/jsonx"
	"github.com/swyang-dev/opskb/pkg/logging"
)

const systemPrompt = "You are an operations analyst. You read Slack incident discussions " +
	"and return a single JSON object, with no surrounding text or markdown."

// Classifier drives batch classification. Messages are processed strictly
// in order, one model call at a time; the checkpoint is always an exact
// prefix of the input.
type Classifier struct {
	client             llm.Client
	store              CheckpointStore
	logger             *slog.Logger
	batchSize          int
	maxRetries         int
	retryDelay         time.Duration
	requestDelay       time.Duration
	batchDelay         time.Duration
	checkpointInterval int
	resume             bool
	retries            int
}

type Option func(*Classifier)

func WithBatchSize(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

func WithRetries(max int, delay time.Duration) Option {
	return func(c *Classifier) {
		if max > 0 {
			c.maxRetries = max
		}
		if delay >= 0 {
			c.retryDelay = delay
		}
	}
}

func WithPacing(requestDelay, batchDelay time.Duration) Option {
	return func(c *Classifier) {
		c.requestDelay = requestDelay
		c.batchDelay = batchDelay
	}
}

func WithCheckpointInterval(batches int) Option {
	return func(c *Classifier) {
		if batches > 0 {
			c.checkpointInterval = batches
		}
	}
}

// WithResume controls whether an existing checkpoint is honored. Disabled,
// every run starts from scratch.
func WithResume(enabled bool) Option {
	return func(c *Classifier) { c.resume = enabled }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Classifier) { c.logger = logger }
}

func New(client llm.Client, store CheckpointStore, opts ...Option) *Classifier {
	if client == nil {
		panic("classifier: nil llm client")
	}
	c := &Classifier{
		client:             client,
		store:              store,
		logger:             logging.Default().Logger,
		batchSize:          5,
		maxRetries:         3,
		retryDelay:         time.Second,
		requestDelay:       time.Second,
		batchDelay:         2 * time.Second,
		checkpointInterval: 10,
		resume:             true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify produces exactly one Classified per input message, in input
// order. With resume enabled and a checkpoint present, completed work is
// reused and processing continues from the first unprocessed message.
func (c *Classifier) Classify(ctx context.Context, msgs []collector.ThreadedMessage) ([]Classified, error) {
	results, err := c.loadCheckpoint(msgs)
	if err != nil {
		return nil, err
	}
	start := len(results)
	if start > 0 {
		c.logger.Info("resuming from checkpoint", "completed", start, "remaining", len(msgs)-start)
	}
	if start >= len(msgs) {
		return results, nil
	}

	progress := NewProgress()
	batchNum := 0
	for batchStart := start; batchStart < len(msgs); batchStart += c.batchSize {
		batchEnd := batchStart + c.batchSize
		if batchEnd > len(msgs) {
			batchEnd = len(msgs)
		}
		batchNum++

		for i := batchStart; i < batchEnd; i++ {
			result, failed := c.classifyOne(ctx, msgs[i])
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results = append(results, Classified{
				Message:        msgs[i],
				Classification: result,
				Timestamp:      msgs[i].Ts,
				ProcessedAt:    time.Now().UTC(),
			})
			progress.Analyzed++
			if failed {
				progress.Failed++
			}
			if i < batchEnd-1 {
				if err := sleepCtx(ctx, c.requestDelay); err != nil {
					return nil, err
				}
			}
		}

		if c.store != nil && batchNum%c.checkpointInterval == 0 {
			if err := c.store.Save(results); err != nil {
				return nil, fmt.Errorf("save checkpoint: %w", err)
			}
		}

		remaining := len(msgs) - len(results)
		c.logger.Info("batch classified",
			"batch", batchNum,
			"done", len(results),
			"total", len(msgs),
			"failed", progress.Failed,
			"per_minute", fmt.Sprintf("%.1f", progress.Throughput()),
			"eta", progress.ETA(remaining).Round(time.Second).String(),
		)

		if batchEnd < len(msgs) {
			if err := sleepCtx(ctx, c.batchDelay); err != nil {
				return nil, err
			}
		}
	}

	if c.store != nil {
		if err := c.store.Save(results); err != nil {
			return nil, fmt.Errorf("save final checkpoint: %w", err)
		}
	}
	return results, nil
}

// Retries reports the model call retries issued so far.
func (c *Classifier) Retries() int { return c.retries }

func (c *Classifier) loadCheckpoint(msgs []collector.ThreadedMessage) ([]Classified, error) {
	if !c.resume || c.store == nil {
		return nil, nil
	}
	saved, err := c.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	if len(saved) > len(msgs) {
		return nil, fmt.Errorf("checkpoint has %d results for %d messages; delete it to start over", len(saved), len(msgs))
	}
	// The checkpoint must be an exact prefix of this run's input.
	for i, s := range saved {
		if s.Message.Ts != msgs[i].Ts {
			return nil, fmt.Errorf("checkpoint mismatch at %d (ts %s vs %s); delete it to start over", i, s.Message.Ts, msgs[i].Ts)
		}
	}
	return saved, nil
}

// classifyOne is total: after maxRetries failed attempts it returns the
// fallback result so the output always lines up one-to-one with the input.
func (c *Classifier) classifyOne(ctx context.Context, msg collector.ThreadedMessage) (Result, bool) {
	req := llm.Request{
		System:    systemPrompt,
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: buildPrompt(msg)}},
		MaxTokens: 1024,
	}

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		resp, err := c.client.Complete(ctx, req)
		if err == nil {
			var result Result
			err = jsonx.Unmarshal(resp.Text, &result)
			if err == nil {
				return result.normalize(msg), false
			}
		}
		c.logger.Warn("classification attempt failed", "ts", msg.Ts, "attempt", attempt, "error", err)
		if attempt < c.maxRetries {
			if serr := sleepCtx(ctx, time.Duration(attempt)*c.retryDelay); serr != nil {
				return fallbackResult(msg), true
			}
			c.retries++
		}
	}
	return fallbackResult(msg), true
}

func buildPrompt(msg collector.ThreadedMessage) string {
	var sb strings.Builder
	sb.WriteString("Analyze this Slack message and its thread, then respond with one JSON object.\n\n")
	sb.WriteString("Message:\n")
	sb.WriteString(msg.CombinedText)
	sb.WriteString("\n\nRequired JSON fields:\n")
	fmt.Fprintf(&sb, "- category: one of %s\n", strings.Join(Categories, ", "))
	sb.WriteString("- issue_type: short label for the specific problem\n")
	sb.WriteString("- system_components: array of affected systems or services\n")
	sb.WriteString("- cause: root cause if stated or inferable, otherwise \"unknown\"\n")
	sb.WriteString("- resolution: how it was resolved, otherwise \"unresolved\"\n")
	sb.WriteString("- reporter: who raised the issue, otherwise \"unknown\"\n")
	sb.WriteString("- resolver: who resolved it, otherwise \"unknown\"\n")
	fmt.Fprintf(&sb, "- urgency: one of %s\n", strings.Join(Urgencies, ", "))
	sb.WriteString("- keywords: up to 5 searchable terms\n")
	sb.WriteString("- resource_estimate: estimated handling time in minutes, as a number string\n")
	sb.WriteString("- summary: one sentence in the language of the message\n")
	return sb.String()
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
