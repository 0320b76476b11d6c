package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Env      string
	Port     string
	LogLevel string

	SlackBotToken string
	SlackBaseURL  string
	SlackTeamURL  string

	NotionToken        string
	NotionBaseURL      string
	NotionVersion      string
	NotionParentPageID string
	IssueDatabaseID    string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	BedrockModelID      string
	GeminiAPIKey        string
	GeminiModelID       string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	UserCacheTTL  time.Duration

	ClassifyBatchSize  int
	ClassifyMaxRetries int
	ClassifyRetryDelay time.Duration
	CheckpointPath     string
	CheckpointInterval int
	ResumeEnabled      bool

	PageFetchDelay   time.Duration
	ThreadFetchDelay time.Duration

	WriteBatchSize  int
	WriteDelay      time.Duration
	WriteBatchDelay time.Duration

	SearchTopK          int
	SearchContextBudget int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		SlackBotToken: getEnv("SLACK_BOT_TOKEN", ""),
		SlackBaseURL:  getEnv("SLACK_BASE_URL", ""),
		SlackTeamURL:  getEnv("SLACK_TEAM_URL", "https://app.slack.com"),

		NotionToken:        getEnv("NOTION_TOKEN", ""),
		NotionBaseURL:      getEnv("NOTION_BASE_URL", ""),
		NotionVersion:      getEnv("NOTION_VERSION", "2022-06-28"),
		NotionParentPageID: getEnv("NOTION_PARENT_PAGE_ID", ""),
		IssueDatabaseID:    getEnv("ISSUE_DATABASE_ID", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		BedrockModelID:      getEnv("BEDROCK_MODEL_ID", ""),
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:       getEnv("GEMINI_MODEL_ID", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		UserCacheTTL:  getEnvAsDuration("USER_CACHE_TTL", 7*24*time.Hour),

		ClassifyBatchSize:  getEnvAsInt("CLASSIFY_BATCH_SIZE", 5),
		ClassifyMaxRetries: getEnvAsInt("CLASSIFY_MAX_RETRIES", 3),
		ClassifyRetryDelay: getEnvAsDuration("CLASSIFY_RETRY_DELAY", time.Second),
		CheckpointPath:     getEnv("CHECKPOINT_PATH", "temp_analyses.json"),
		CheckpointInterval: getEnvAsInt("CHECKPOINT_INTERVAL", 10),
		ResumeEnabled:      getEnvAsBool("RESUME_FROM_CHECKPOINT", true),

		PageFetchDelay:   getEnvAsDuration("PAGE_FETCH_DELAY", 500*time.Millisecond),
		ThreadFetchDelay: getEnvAsDuration("THREAD_FETCH_DELAY", time.Second),

		WriteBatchSize:  getEnvAsInt("WRITE_BATCH_SIZE", 3),
		WriteDelay:      getEnvAsDuration("WRITE_DELAY", 500*time.Millisecond),
		WriteBatchDelay: getEnvAsDuration("WRITE_BATCH_DELAY", time.Second),

		SearchTopK:          getEnvAsInt("SEARCH_TOP_K", 5),
		SearchContextBudget: getEnvAsInt("SEARCH_CONTEXT_BUDGET", 3000),
	}
}

// Require verifies that the named environment variables are set. A missing
// variable is a fatal configuration error: callers are expected to report it
// and exit without attempting partial work.
func Require(names ...string) error {
	var missing []string
	for _, name := range names {
		if strings.TrimSpace(os.Getenv(name)) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
