package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/swyang-dev/opskb/pkg/logging"
)

const (
	defaultBaseURL    = "https://api.notion.com/v1"
	defaultVersion    = "2022-06-28"
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 2
	defaultBackoff    = 500 * time.Millisecond
)

// Config controls Client construction. Only Token is required.
type Config struct {
	BaseURL    string
	Token      string
	Version    string
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client wraps the Notion REST API calls the exporter and search paths use.
type Client struct {
	baseURL    string
	token      string
	version    string
	maxRetries int
	backoff    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

// APIError is a non-2xx response from the Notion API.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion: api error %s (status=%d): %s", e.Code, e.StatusCode, e.Message)
}

func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("notion: token is required")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	version := cfg.Version
	if version == "" {
		version = defaultVersion
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	} else if cfg.MaxRetries == 0 {
		maxRetries = defaultMaxRetries
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default().Logger
	}
	return &Client{
		baseURL:    baseURL,
		token:      cfg.Token,
		version:    version,
		maxRetries: maxRetries,
		backoff:    backoff,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// CreateDatabase creates an inline database under a parent page.
func (c *Client) CreateDatabase(ctx context.Context, req CreateDatabaseRequest) (*Database, error) {
	payload := map[string]any{
		"parent": map[string]any{"type": "page_id", "page_id": req.ParentPageID},
		"title": []map[string]any{
			{"type": "text", "text": map[string]any{"content": req.Title}},
		},
		"properties": req.Properties,
	}
	var db Database
	if err := c.invoke(ctx, http.MethodPost, "/databases", payload, &db); err != nil {
		return nil, fmt.Errorf("create database: %w", err)
	}
	return &db, nil
}

// CreatePage inserts one row into a database.
func (c *Client) CreatePage(ctx context.Context, req CreatePageRequest) (*Page, error) {
	payload := map[string]any{
		"parent":     map[string]any{"database_id": req.DatabaseID},
		"properties": req.Properties,
	}
	var page Page
	if err := c.invoke(ctx, http.MethodPost, "/pages", payload, &page); err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	return &page, nil
}

// QueryDatabase runs a filtered query and returns the first page of results.
// The search path caps results with PageSize, so cursor pagination is not
// followed here.
func (c *Client) QueryDatabase(ctx context.Context, q Query) ([]Page, error) {
	payload := map[string]any{}
	if q.Filter != nil {
		payload["filter"] = q.Filter
	}
	if q.PageSize > 0 {
		payload["page_size"] = q.PageSize
	}
	var out struct {
		Results []Page `json:"results"`
	}
	if err := c.invoke(ctx, http.MethodPost, "/databases/"+q.DatabaseID+"/query", payload, &out); err != nil {
		return nil, fmt.Errorf("query database: %w", err)
	}
	return out.Results, nil
}

func (c *Client) invoke(ctx context.Context, method, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, c.backoff*time.Duration(1<<(attempt-1))); err != nil {
				return err
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Notion-Version", c.version)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%s %s: %w", method, path, err)
			c.logger.Warn("notion request failed", "path", path, "attempt", attempt+1, "error", err)
			continue
		}

		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("read response: %w", readErr)
			continue
		}

		switch {
		case resp.StatusCode >= http.StatusInternalServerError,
			resp.StatusCode == http.StatusTooManyRequests:
			lastErr = decodeAPIError(resp.StatusCode, data)
			c.logger.Warn("notion retryable error", "path", path, "status", resp.StatusCode, "attempt", attempt+1)
			continue
		case resp.StatusCode >= http.StatusBadRequest:
			return decodeAPIError(resp.StatusCode, data)
		}

		if out != nil {
			if err := json.Unmarshal(data, out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	}
	return lastErr
}

func decodeAPIError(status int, body []byte) error {
	apiErr := &APIError{StatusCode: status}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
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
