package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/swyang-dev/opskb/pkg/logging"
)

// FallbackClient tries a primary provider and falls back to a secondary on
// any error. The secondary may be nil, in which case primary errors pass
// through unchanged.
type FallbackClient struct {
	primary  Client
	fallback Client
	logger   *slog.Logger
}

func NewFallbackClient(primary, fallback Client, logger *slog.Logger) *FallbackClient {
	if primary == nil {
		panic("llm: nil primary client")
	}
	if logger == nil {
		logger = logging.Default().Logger
	}
	return &FallbackClient{primary: primary, fallback: fallback, logger: logger}
}

func (c *FallbackClient) Complete(ctx context.Context, req Request) (Response, error) {
	resp, err := c.primary.Complete(ctx, req)
	if err == nil {
		return resp, nil
	}
	if c.fallback == nil {
		return Response{}, err
	}
	c.logger.Warn("primary model failed, trying fallback", "error", err)

	resp, fbErr := c.fallback.Complete(ctx, req)
	if fbErr != nil {
		return Response{}, fmt.Errorf("primary: %v; fallback: %w", err, fbErr)
	}
	return resp, nil
}
