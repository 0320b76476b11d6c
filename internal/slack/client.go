package slack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/swyang-dev/opskb/pkg/logging"
)

const (
	defaultBaseURL    = "https://slack.com/api"
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 2
	defaultBackoff    = 500 * time.Millisecond
)

// Config controls Client construction. Only Token is required.
type Config struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client is a minimal Slack Web API client covering the calls the
// ingestion pipeline needs. It retries transient transport failures but
// surfaces rate limits to the caller, who owns pacing decisions.
type Client struct {
	baseURL    string
	token      string
	maxRetries int
	backoff    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("slack: token is required")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
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
		maxRetries: maxRetries,
		backoff:    backoff,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// ListChannels returns every conversation of the given types, following
// pagination cursors until exhausted.
func (c *Client) ListChannels(ctx context.Context, types string) ([]Channel, error) {
	if types == "" {
		types = "public_channel,private_channel"
	}
	var channels []Channel
	cursor := ""
	for {
		params := url.Values{}
		params.Set("types", types)
		params.Set("limit", "200")
		params.Set("exclude_archived", "true")
		if cursor != "" {
			params.Set("cursor", cursor)
		}
		var out struct {
			Channels []Channel `json:"channels"`
			Metadata struct {
				NextCursor string `json:"next_cursor"`
			} `json:"response_metadata"`
		}
		if err := c.call(ctx, "conversations.list", params, &out); err != nil {
			return nil, fmt.Errorf("list channels: %w", err)
		}
		channels = append(channels, out.Channels...)
		cursor = out.Metadata.NextCursor
		if cursor == "" {
			return channels, nil
		}
	}
}

// History fetches one page of channel history. Pass the cursor from the
// previous page to continue; an empty NextCursor means the window is done.
func (c *Client) History(ctx context.Context, channelID, oldest, cursor string, limit int) (*HistoryPage, error) {
	if limit <= 0 {
		limit = 200
	}
	params := url.Values{}
	params.Set("channel", channelID)
	params.Set("limit", strconv.Itoa(limit))
	if oldest != "" {
		params.Set("oldest", oldest)
	}
	if cursor != "" {
		params.Set("cursor", cursor)
	}
	var out struct {
		Messages []Message `json:"messages"`
		HasMore  bool      `json:"has_more"`
		Metadata struct {
			NextCursor string `json:"next_cursor"`
		} `json:"response_metadata"`
	}
	if err := c.call(ctx, "conversations.history", params, &out); err != nil {
		return nil, fmt.Errorf("history %s: %w", channelID, err)
	}
	page := &HistoryPage{Messages: out.Messages}
	if out.HasMore {
		page.NextCursor = out.Metadata.NextCursor
	}
	return page, nil
}

// ThreadReplies returns the full reply chain for a thread root, including
// the root itself as the first element (Slack echoes it back).
func (c *Client) ThreadReplies(ctx context.Context, channelID, threadTs string) ([]Message, error) {
	params := url.Values{}
	params.Set("channel", channelID)
	params.Set("ts", threadTs)
	params.Set("limit", "100")
	var out struct {
		Messages []Message `json:"messages"`
	}
	if err := c.call(ctx, "conversations.replies", params, &out); err != nil {
		return nil, fmt.Errorf("thread replies %s/%s: %w", channelID, threadTs, err)
	}
	return out.Messages, nil
}

// UserInfo looks up one user profile.
func (c *Client) UserInfo(ctx context.Context, userID string) (*User, error) {
	params := url.Values{}
	params.Set("user", userID)
	var out struct {
		User User `json:"user"`
	}
	if err := c.call(ctx, "users.info", params, &out); err != nil {
		return nil, fmt.Errorf("user info %s: %w", userID, err)
	}
	return &out.User, nil
}

// call performs one Web API request and decodes the ok/error envelope.
// Transport errors and 5xx responses are retried with exponential backoff;
// rate limits and other API errors return immediately as *APIError.
func (c *Client) call(ctx context.Context, apiMethod string, params url.Values, out any) error {
	endpoint := c.baseURL + "/" + apiMethod
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, c.backoff*time.Duration(1<<(attempt-1))); err != nil {
				return err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("call %s: %w", apiMethod, err)
			c.logger.Warn("slack request failed", "method", apiMethod, "attempt", attempt+1, "error", err)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("read %s response: %w", apiMethod, readErr)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			return &APIError{
				Kind:       KindRateLimited,
				Code:       "ratelimited",
				StatusCode: resp.StatusCode,
				RetryAfter: retryAfter(resp),
			}
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			lastErr = &APIError{Kind: KindOther, StatusCode: resp.StatusCode}
			c.logger.Warn("slack server error", "method", apiMethod, "status", resp.StatusCode, "attempt", attempt+1)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return &APIError{Kind: KindOther, StatusCode: resp.StatusCode}
		}

		var envelope struct {
			OK    bool   `json:"ok"`
			Error string `json:"error"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return fmt.Errorf("decode %s envelope: %w", apiMethod, err)
		}
		if !envelope.OK {
			apiErr := &APIError{
				Kind:       kindForCode(envelope.Error),
				Code:       envelope.Error,
				StatusCode: resp.StatusCode,
			}
			if apiErr.Kind == KindRateLimited {
				apiErr.RetryAfter = retryAfter(resp)
			}
			return apiErr
		}
		if out != nil {
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("decode %s response: %w", apiMethod, err)
			}
		}
		return nil
	}
	return lastErr
}

func retryAfter(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
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
