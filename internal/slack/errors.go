package slack

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind partitions API failures by how callers should react.
type ErrorKind string

const (
	KindRateLimited  ErrorKind = "rate_limited"
	KindNotInChannel ErrorKind = "not_in_channel"
	KindNotFound     ErrorKind = "not_found"
	KindOther        ErrorKind = "other"
)

// APIError is a non-2xx or ok:false response from the Slack Web API.
type APIError struct {
	Kind       ErrorKind
	Code       string
	StatusCode int
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("slack: api error %s (kind=%s, status=%d)", e.Code, e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("slack: api error (kind=%s, status=%d)", e.Kind, e.StatusCode)
}

func kindForCode(code string) ErrorKind {
	switch code {
	case "ratelimited", "rate_limited":
		return KindRateLimited
	case "not_in_channel":
		return KindNotInChannel
	case "channel_not_found", "user_not_found", "thread_not_found":
		return KindNotFound
	default:
		return KindOther
	}
}

// IsRateLimited reports whether err is a Slack rate-limit signal.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindRateLimited
}

// IsNotFound reports whether err is a not-found response.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindNotFound
}
