package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	resp  Response
	err   error
	calls int
}

func (s *stubClient) Complete(ctx context.Context, req Request) (Response, error) {
	s.calls++
	return s.resp, s.err
}

func TestFallbackUsesPrimaryFirst(t *testing.T) {
	primary := &stubClient{resp: Response{Text: "primary answer"}}
	fallback := &stubClient{resp: Response{Text: "fallback answer"}}
	client := NewFallbackClient(primary, fallback, nil)

	resp, err := client.Complete(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "primary answer", resp.Text)
	assert.Equal(t, 1, primary.calls)
	assert.Zero(t, fallback.calls)
}

func TestFallbackOnPrimaryError(t *testing.T) {
	primary := &stubClient{err: errors.New("throttled")}
	fallback := &stubClient{resp: Response{Text: "fallback answer"}}
	client := NewFallbackClient(primary, fallback, nil)

	resp, err := client.Complete(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "fallback answer", resp.Text)
	assert.Equal(t, 1, fallback.calls)
}

func TestFallbackBothFail(t *testing.T) {
	primary := &stubClient{err: errors.New("throttled")}
	fallback := &stubClient{err: errors.New("quota exceeded")}
	client := NewFallbackClient(primary, fallback, nil)

	_, err := client.Complete(context.Background(), Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestFallbackNilSecondary(t *testing.T) {
	wantErr := errors.New("throttled")
	client := NewFallbackClient(&stubClient{err: wantErr}, nil, nil)

	_, err := client.Complete(context.Background(), Request{})
	assert.ErrorIs(t, err, wantErr)
}

func TestNewFallbackPanicsOnNilPrimary(t *testing.T) {
	assert.Panics(t, func() { NewFallbackClient(nil, nil, nil) })
}
