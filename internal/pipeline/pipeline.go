// Package pipeline orchestrates one bulk run: collect, classify, persist,
// summarize. Stages run strictly in sequence.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/swyang-dev/opskb/internal/classifier"
	"github.com/swyang-dev/opskb/internal/collector"
	"github.com/swyang-dev/opskb/internal/exporter"
	"github.com/swyang-dev/opskb/internal/observability/metrics"
	"github.com/swyang-dev/opskb/internal/stats"
	"github.com/swyang-dev/opskb/pkg/logging"
)

// Report summarizes a completed run.
type Report struct {
	RunID         string
	ChannelID     string
	ChannelName   string
	RawMessages   int
	Collected     int
	Classified    int
	Fallbacks     int
	Written       int
	WriteFailures []exporter.WriteFailure
	DatabaseURL   string
	Statistics    stats.Statistics
	RateLimitHits int
	Elapsed       time.Duration
}

// Pipeline wires the stages together. The checkpoint is deleted only after
// every stage finishes; any earlier failure leaves it on disk so the next
// run resumes instead of restarting.
type Pipeline struct {
	collector  *collector.Collector
	pacer      *collector.Pacer
	classifier *classifier.Classifier
	exporter   *exporter.Exporter
	checkpoint classifier.CheckpointStore
	parentPage string
	logger     *slog.Logger
	metrics    *metrics.PipelineMetrics
}

type Config struct {
	Collector    *collector.Collector
	Pacer        *collector.Pacer
	Classifier   *classifier.Classifier
	Exporter     *exporter.Exporter
	Checkpoint   classifier.CheckpointStore
	ParentPageID string
	Logger       *slog.Logger
	Metrics      *metrics.PipelineMetrics
}

func New(cfg Config) *Pipeline {
	if cfg.Collector == nil || cfg.Classifier == nil || cfg.Exporter == nil {
		panic("pipeline: collector, classifier and exporter are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default().Logger
	}
	return &Pipeline{
		collector:  cfg.Collector,
		pacer:      cfg.Pacer,
		classifier: cfg.Classifier,
		exporter:   cfg.Exporter,
		checkpoint: cfg.Checkpoint,
		parentPage: cfg.ParentPageID,
		logger:     logger,
		metrics:    cfg.Metrics,
	}
}

// Run executes the full pipeline against one channel. An empty collection
// window ends the run early with a zero report and no downstream calls.
func (p *Pipeline) Run(ctx context.Context, channelSelector string, daysBack int) (*Report, error) {
	start := time.Now()
	report := &Report{RunID: uuid.NewString()}
	logger := p.logger.With("run_id", report.RunID, "channel", channelSelector)
	logger.Info("run started", "days_back", daysBack)

	channel, msgs, err := p.collector.Collect(ctx, channelSelector, daysBack)
	if err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}
	report.ChannelID = channel.ID
	report.ChannelName = channel.Name
	report.RawMessages, report.Collected = p.collector.LastRun()
	p.metrics.ObserveCollected(report.Collected, report.RawMessages-report.Collected)
	if p.pacer != nil {
		report.RateLimitHits = p.pacer.TotalHits()
		p.metrics.ObserveRateLimits(report.RateLimitHits)
	}

	if len(msgs) == 0 {
		report.Elapsed = time.Since(start)
		logger.Info("no messages in window, nothing to do")
		return report, nil
	}

	classified, err := p.classifier.Classify(ctx, msgs)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}
	report.Classified = len(classified)
	for _, c := range classified {
		if c.Classification.IssueType == "analysis failed" {
			report.Fallbacks++
		}
	}
	p.metrics.ObserveClassified(report.Classified-report.Fallbacks, report.Fallbacks)
	p.metrics.ObserveClassifyRetries(p.classifier.Retries())

	schema, err := p.exporter.CreateIssueDatabase(ctx, p.parentPage, channel.Name)
	if err != nil {
		return nil, fmt.Errorf("create destination: %w", err)
	}
	report.DatabaseURL = schema.URL

	tally, err := p.exporter.Persist(ctx, schema, classified)
	if err != nil {
		return nil, fmt.Errorf("persist: %w", err)
	}
	report.Written = tally.Written
	report.WriteFailures = tally.Failures
	p.metrics.ObservePersisted(tally.Written, len(tally.Failures))

	report.Statistics = stats.Aggregate(toStatItems(classified))

	// Full success: the checkpoint has served its purpose.
	if p.checkpoint != nil {
		if err := p.checkpoint.Delete(); err != nil {
			logger.Warn("checkpoint cleanup failed", "error", err)
		}
	}

	report.Elapsed = time.Since(start)
	logger.Info("run finished",
		"collected", report.Collected,
		"classified", report.Classified,
		"fallbacks", report.Fallbacks,
		"written", report.Written,
		"write_failures", len(report.WriteFailures),
		"elapsed", report.Elapsed.Round(time.Second).String(),
	)
	return report, nil
}

func toStatItems(classified []classifier.Classified) []stats.Item {
	items := make([]stats.Item, 0, len(classified))
	for _, c := range classified {
		items = append(items, stats.Item{
			Ts:              c.Message.Ts,
			ReplyCount:      len(c.Message.Replies),
			Category:        c.Classification.Category,
			Urgency:         c.Classification.Urgency,
			Keywords:        c.Classification.Keywords,
			Components:      c.Classification.Components,
			Resolver:        c.Classification.Resolver,
			ResourceMinutes: c.Classification.ResourceMinutes(),
		})
	}
	return items
}
