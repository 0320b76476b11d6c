// Command analyzer runs one bulk ingestion pass: it collects a Slack
// channel's history, classifies every message, and archives the results
// into a newly created Notion database.
//
// Usage:
//
//	analyzer <channel> [daysBack] [messageLimit]
package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/swyang-dev/opskb/cmd/mainconfig"
	"github.com/swyang-dev/opskb/internal/classifier"
	"github.com/swyang-dev/opskb/internal/collector"
	appconfig "github.com/swyang-dev/opskb/internal/config"
	"github.com/swyang-dev/opskb/internal/exporter"
	"github.com/swyang-dev/opskb/internal/llm"
	"github.com/swyang-dev/opskb/internal/notion"
	"github.com/swyang-dev/opskb/internal/pipeline"
	"github.com/swyang-dev/opskb/internal/slack"
	"github.com/swyang-dev/opskb/internal/usercache"
	"github.com/swyang-dev/opskb/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()
	logger := logging.NewText(cfg.LogLevel)

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: analyzer <channel> [daysBack] [messageLimit]")
		os.Exit(2)
	}
	channel := os.Args[1]
	daysBack := intArg(2, 30)
	messageLimit := intArg(3, 0)

	if err := appconfig.Require(
		"SLACK_BOT_TOKEN",
		"NOTION_TOKEN",
		"NOTION_PARENT_PAGE_ID",
		"BEDROCK_MODEL_ID",
	); err != nil {
		logger.Error("configuration incomplete", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slackClient, err := slack.New(slack.Config{
		Token:   cfg.SlackBotToken,
		BaseURL: cfg.SlackBaseURL,
		Logger:  logger.Logger,
	})
	if err != nil {
		logger.Error("slack client init failed", "error", err)
		os.Exit(1)
	}

	notionClient, err := notion.New(notion.Config{
		Token:   cfg.NotionToken,
		BaseURL: cfg.NotionBaseURL,
		Version: cfg.NotionVersion,
		Logger:  logger.Logger,
	})
	if err != nil {
		logger.Error("notion client init failed", "error", err)
		os.Exit(1)
	}

	model, closeModel, err := buildModel(ctx, cfg, logger)
	if err != nil {
		logger.Error("model client init failed", "error", err)
		os.Exit(1)
	}
	defer closeModel()

	pacer := collector.NewPacer(cfg.PageFetchDelay, cfg.ThreadFetchDelay)
	collectorOpts := []collector.Option{collector.WithLogger(logger.Logger)}
	if messageLimit > 0 {
		collectorOpts = append(collectorOpts, collector.WithMessageLimit(messageLimit))
	}
	if cfg.RedisAddr != "" {
		redisClient := newRedisClient(cfg)
		defer redisClient.Close()
		collectorOpts = append(collectorOpts,
			collector.WithNameCache(usercache.NewRedis(redisClient, cfg.UserCacheTTL, logger.Logger)))
	}

	checkpoint := classifier.NewFileCheckpoint(cfg.CheckpointPath)
	run := pipeline.New(pipeline.Config{
		Collector: collector.New(slackClient, pacer, collectorOpts...),
		Pacer:     pacer,
		Classifier: classifier.New(model, checkpoint,
			classifier.WithBatchSize(cfg.ClassifyBatchSize),
			classifier.WithRetries(cfg.ClassifyMaxRetries, cfg.ClassifyRetryDelay),
			classifier.WithCheckpointInterval(cfg.CheckpointInterval),
			classifier.WithResume(cfg.ResumeEnabled),
			classifier.WithLogger(logger.Logger),
		),
		Exporter: exporter.New(notionClient, cfg.SlackTeamURL,
			exporter.WithBatching(cfg.WriteBatchSize, cfg.WriteDelay, cfg.WriteBatchDelay),
			exporter.WithLogger(logger.Logger),
		),
		Checkpoint:   checkpoint,
		ParentPageID: cfg.NotionParentPageID,
		Logger:       logger.Logger,
	})

	report, err := run.Run(ctx, channel, daysBack)
	if err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
	printReport(report)
}

func buildModel(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (llm.Client, func(), error) {
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	bedrock := llm.NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID, logger.Logger)

	if cfg.GeminiAPIKey == "" {
		return bedrock, func() {}, nil
	}
	gemini, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID, logger.Logger)
	if err != nil {
		return nil, nil, err
	}
	return llm.NewFallbackClient(bedrock, gemini, logger.Logger), func() { _ = gemini.Close() }, nil
}

func newRedisClient(cfg *appconfig.Config) *redis.Client {
	opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return redis.NewClient(opts)
}

func intArg(i, fallback int) int {
	if len(os.Args) <= i {
		return fallback
	}
	n, err := strconv.Atoi(os.Args[i])
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func printReport(r *pipeline.Report) {
	fmt.Printf("\nRun %s finished in %s\n", r.RunID, r.Elapsed.Round(time.Second))
	fmt.Printf("Channel:    #%s (%s)\n", r.ChannelName, r.ChannelID)
	fmt.Printf("Messages:   %d raw, %d analyzed, %d fallback\n", r.RawMessages, r.Classified, r.Fallbacks)
	fmt.Printf("Archived:   %d rows (%d failed)\n", r.Written, len(r.WriteFailures))
	if r.RateLimitHits > 0 {
		fmt.Printf("Rate limits hit: %d\n", r.RateLimitHits)
	}
	if r.DatabaseURL != "" {
		fmt.Printf("Database:   %s\n", r.DatabaseURL)
	}

	s := r.Statistics
	if s.Total == 0 {
		return
	}
	fmt.Println("\nCategories:")
	for category, count := range s.CategoryFrequency {
		fmt.Printf("  %-20s %d\n", category, count)
	}
	if top := s.TopKeywords(10); len(top) > 0 {
		fmt.Println("\nTop keywords:")
		for _, kc := range top {
			fmt.Printf("  %-20s %d\n", kc.Keyword, kc.Count)
		}
	}
	fmt.Printf("\nThreaded: %d of %d (%.0f%%)\n", s.ThreadedMessages, s.Total, s.ThreadedShare*100)
	fmt.Printf("Estimated effort: %d min total, %.1f min average\n", s.TotalResourceMinutes, s.AverageResourceMinutes)
	if !s.TimeRange.Start.IsZero() {
		fmt.Printf("Window: %s to %s\n",
			s.TimeRange.Start.Format("2006-01-02"), s.TimeRange.End.Format("2006-01-02"))
	}
}
