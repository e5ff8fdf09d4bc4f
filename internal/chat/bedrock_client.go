package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

type bedrockConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockLLMClient implements LLMClient on the Bedrock Converse API.
// It serves as the fallback provider when Gemini is unavailable.
type BedrockLLMClient struct {
	api bedrockConverseAPI
}

func NewBedrockLLMClient(api bedrockConverseAPI) *BedrockLLMClient {
	if api == nil {
		panic("chat: bedrock converse client cannot be nil")
	}
	return &BedrockLLMClient{api: api}
}

func (c *BedrockLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	if strings.TrimSpace(req.Model) == "" {
		return LLMResponse{}, errors.New("chat: bedrock model id is required")
	}

	systemBlocks := make([]brtypes.SystemContentBlock, 0, len(req.System))
	for _, block := range req.System {
		if strings.TrimSpace(block) == "" {
			continue
		}
		systemBlocks = append(systemBlocks, &brtypes.SystemContentBlockMemberText{Value: block})
	}

	messages := make([]brtypes.Message, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			if content := strings.TrimSpace(msg.Content); content != "" {
				systemBlocks = append(systemBlocks, &brtypes.SystemContentBlockMemberText{Value: content})
			}
		case RoleUser:
			content := strings.TrimSpace(msg.Content)
			if content == "" {
				continue
			}
			messages = append(messages, brtypes.Message{
				Role: brtypes.ConversationRoleUser,
				Content: []brtypes.ContentBlock{
					&brtypes.ContentBlockMemberText{Value: content},
				},
			})
		case RoleAssistant:
			block, err := bedrockAssistantBlock(msg)
			if err != nil {
				return LLMResponse{}, err
			}
			if block == nil {
				continue
			}
			messages = append(messages, brtypes.Message{
				Role:    brtypes.ConversationRoleAssistant,
				Content: []brtypes.ContentBlock{block},
			})
		case RoleFunction:
			// Tool results are delivered as user-role tool result blocks.
			messages = append(messages, brtypes.Message{
				Role: brtypes.ConversationRoleUser,
				Content: []brtypes.ContentBlock{
					&brtypes.ContentBlockMemberToolResult{
						Value: brtypes.ToolResultBlock{
							ToolUseId: aws.String(bedrockToolUseID(msg.Name)),
							Content: []brtypes.ToolResultContentBlock{
								&brtypes.ToolResultContentBlockMemberText{Value: msg.Content},
							},
						},
					},
				},
			})
		default:
			return LLMResponse{}, fmt.Errorf("chat: unsupported role %q", msg.Role)
		}
	}

	inference := &brtypes.InferenceConfiguration{}
	if req.MaxTokens > 0 {
		inference.MaxTokens = aws.Int32(req.MaxTokens)
	}
	// Allow callers to omit temperature by passing a negative value.
	if req.Temperature >= 0 {
		inference.Temperature = aws.Float32(req.Temperature)
	}
	if req.TopP != 0 {
		inference.TopP = aws.Float32(req.TopP)
	}
	if inference.MaxTokens == nil && inference.Temperature == nil && inference.TopP == nil {
		inference = nil
	}

	input := &bedrockruntime.ConverseInput{
		ModelId:         aws.String(req.Model),
		System:          systemBlocks,
		Messages:        messages,
		InferenceConfig: inference,
	}
	if len(req.Tools) > 0 {
		tools := make([]brtypes.Tool, 0, len(req.Tools))
		for _, def := range req.Tools {
			tools = append(tools, &brtypes.ToolMemberToolSpec{
				Value: brtypes.ToolSpecification{
					Name:        aws.String(def.Name),
					Description: aws.String(def.Description),
					InputSchema: &brtypes.ToolInputSchemaMemberJson{
						Value: document.NewLazyDocument(def.Parameters),
					},
				},
			})
		}
		input.ToolConfig = &brtypes.ToolConfiguration{Tools: tools}
	}

	out, err := c.api.Converse(ctx, input)
	if err != nil {
		return LLMResponse{}, err
	}
	if out == nil {
		return LLMResponse{}, errors.New("chat: bedrock response is nil")
	}
	msgOut, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return LLMResponse{}, errors.New("chat: bedrock response did not include a message output")
	}

	resp := LLMResponse{}
	var text strings.Builder
	for _, block := range msgOut.Value.Content {
		switch v := block.(type) {
		case *brtypes.ContentBlockMemberText:
			text.WriteString(v.Value)
		case *brtypes.ContentBlockMemberToolUse:
			args := json.RawMessage("{}")
			if v.Value.Input != nil {
				raw, marshalErr := v.Value.Input.MarshalSmithyDocument()
				if marshalErr != nil {
					return LLMResponse{}, fmt.Errorf("chat: bedrock tool input decode failed: %w", marshalErr)
				}
				args = raw
			}
			resp.FunctionCall = &FunctionCall{
				Name:      aws.ToString(v.Value.Name),
				Arguments: args,
			}
		}
	}
	resp.Text = strings.TrimSpace(text.String())
	if resp.Text == "" && resp.FunctionCall == nil {
		return LLMResponse{}, errors.New("chat: bedrock response contained no usable content")
	}

	if out.StopReason != "" {
		resp.StopReason = string(out.StopReason)
	}
	if out.Usage != nil {
		resp.Usage = TokenUsage{
			InputTokens:  int32OrZero(out.Usage.InputTokens),
			OutputTokens: int32OrZero(out.Usage.OutputTokens),
			TotalTokens:  int32OrZero(out.Usage.TotalTokens),
		}
	}
	return resp, nil
}

func bedrockAssistantBlock(msg Turn) (brtypes.ContentBlock, error) {
	if msg.Name != "" {
		args := map[string]any{}
		if msg.Content != "" {
			if err := json.Unmarshal([]byte(msg.Content), &args); err != nil {
				return nil, fmt.Errorf("chat: bedrock tool args decode failed: %w", err)
			}
		}
		return &brtypes.ContentBlockMemberToolUse{
			Value: brtypes.ToolUseBlock{
				ToolUseId: aws.String(bedrockToolUseID(msg.Name)),
				Name:      aws.String(msg.Name),
				Input:     document.NewLazyDocument(args),
			},
		}, nil
	}
	content := strings.TrimSpace(msg.Content)
	if content == "" {
		return nil, nil
	}
	return &brtypes.ContentBlockMemberText{Value: content}, nil
}

// bedrockToolUseID derives a stable block id from the function name.
// The orchestrator replays at most one call/result pair per request, so
// name-scoped ids are unambiguous.
func bedrockToolUseID(name string) string {
	return "tooluse_" + name
}

func int32OrZero(v *int32) int32 {
	if v == nil {
		return 0
	}
	return *v
}
