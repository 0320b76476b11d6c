package llm

import (
	"context"
	"time"
)

// TimedClient reports completion latency through a hook, keeping the
// metrics dependency out of this package.
type TimedClient struct {
	inner   Client
	observe func(time.Duration)
}

func NewTimedClient(inner Client, observe func(time.Duration)) *TimedClient {
	if inner == nil {
		panic("llm: nil inner client")
	}
	return &TimedClient{inner: inner, observe: observe}
}

func (c *TimedClient) Complete(ctx context.Context, req Request) (Response, error) {
	start := time.Now()
	resp, err := c.inner.Complete(ctx, req)
	if c.observe != nil {
		c.observe(time.Since(start))
	}
	return resp, err
}
