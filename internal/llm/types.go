package llm

import "context"

// Role identifies who authored a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of model input.
type Message struct {
	Role    Role
	Content string
}

// Request is a provider-neutral completion request. Model may be empty, in
// which case the client falls back to its configured default.
type Request struct {
	Model       string
	System      string
	Messages    []Message
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

// Response is the completed model output.
type Response struct {
	Text         string
	StopReason   string
	InputTokens  int32
	OutputTokens int32
}

// Client generates a completion for a request. Implementations must be safe
// for sequential reuse; the pipeline issues one call at a time.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}
