package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/swyang-dev/opskb/pkg/logging"
)

// converseAPI is the slice of the Bedrock runtime client this package uses.
// Narrowing the surface keeps tests free of AWS plumbing.
type converseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockClient completes requests through the Bedrock Converse API.
type BedrockClient struct {
	api     converseAPI
	modelID string
	logger  *slog.Logger
}

func NewBedrockClient(api converseAPI, modelID string, logger *slog.Logger) *BedrockClient {
	if api == nil {
		panic("llm: nil bedrock api")
	}
	if logger == nil {
		logger = logging.Default().Logger
	}
	return &BedrockClient{api: api, modelID: modelID, logger: logger}
}

func (c *BedrockClient) Complete(ctx context.Context, req Request) (Response, error) {
	model := req.Model
	if model == "" {
		model = c.modelID
	}
	if model == "" {
		return Response{}, errors.New("llm: no model id configured")
	}

	messages := make([]brtypes.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := brtypes.ConversationRoleUser
		if m.Role == RoleAssistant {
			role = brtypes.ConversationRoleAssistant
		}
		messages = append(messages, brtypes.Message{
			Role:    role,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: m.Content}},
		})
	}

	input := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(model),
		Messages: messages,
	}
	if req.System != "" {
		input.System = []brtypes.SystemContentBlock{
			&brtypes.SystemContentBlockMemberText{Value: req.System},
		}
	}
	inference := &brtypes.InferenceConfiguration{}
	if req.MaxTokens > 0 {
		inference.MaxTokens = aws.Int32(req.MaxTokens)
	}
	if req.Temperature > 0 {
		inference.Temperature = aws.Float32(req.Temperature)
	}
	if req.TopP > 0 {
		inference.TopP = aws.Float32(req.TopP)
	}
	input.InferenceConfig = inference

	out, err := c.api.Converse(ctx, input)
	if err != nil {
		return Response{}, fmt.Errorf("bedrock converse: %w", err)
	}

	message, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return Response{}, errors.New("bedrock converse: unexpected output type")
	}
	var sb strings.Builder
	for _, block := range message.Value.Content {
		if text, ok := block.(*brtypes.ContentBlockMemberText); ok {
			sb.WriteString(text.Value)
		}
	}

	resp := Response{
		Text:       sb.String(),
		StopReason: string(out.StopReason),
	}
	if out.Usage != nil {
		resp.InputTokens = aws.ToInt32(out.Usage.InputTokens)
		resp.OutputTokens = aws.ToInt32(out.Usage.OutputTokens)
	}
	return resp, nil
}
