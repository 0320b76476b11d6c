// Command api serves the issue-archive search endpoint backed by the Notion
// database that the analyzer populates.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/swyang-dev/opskb/cmd/mainconfig"
	"github.com/swyang-dev/opskb/internal/api"
	appconfig "github.com/swyang-dev/opskb/internal/config"
	"github.com/swyang-dev/opskb/internal/http/handlers"
	"github.com/swyang-dev/opskb/internal/llm"
	"github.com/swyang-dev/opskb/internal/notion"
	"github.com/swyang-dev/opskb/internal/observability/metrics"
	"github.com/swyang-dev/opskb/internal/search"
	"github.com/swyang-dev/opskb/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	if err := appconfig.Require(
		"NOTION_TOKEN",
		"ISSUE_DATABASE_ID",
		"BEDROCK_MODEL_ID",
	); err != nil {
		logger.Error("configuration incomplete", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("aws config failed", "error", err)
		os.Exit(1)
	}
	m := metrics.NewPipelineMetrics(prometheus.DefaultRegisterer)

	var model llm.Client = llm.NewBedrockClient(
		bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID, logger.Logger)
	if cfg.GeminiAPIKey != "" {
		gemini, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID, logger.Logger)
		if err != nil {
			logger.Error("gemini client init failed", "error", err)
			os.Exit(1)
		}
		defer gemini.Close()
		model = llm.NewFallbackClient(model, gemini, logger.Logger)
	}
	model = llm.NewTimedClient(model, m.ObserveModelLatency)

	svc := search.New(
		search.NewNotionRetriever(notionClient, cfg.IssueDatabaseID),
		model,
		search.WithTopK(cfg.SearchTopK),
		search.WithContextBudget(cfg.SearchContextBudget),
		search.WithLogger(logger.Logger),
	)

	router := api.NewRouter(handlers.NewSearchHandler(svc, logger.Logger, m))
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	logger.Info("search api listening", "port", cfg.Port, "env", cfg.Env)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
