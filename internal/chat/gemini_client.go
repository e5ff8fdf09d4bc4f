package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiLLMClient implements LLMClient using Google's Gemini API.
type GeminiLLMClient struct {
	client  *genai.Client
	modelID string
}

// NewGeminiLLMClient creates a new Gemini LLM client.
func NewGeminiLLMClient(ctx context.Context, apiKey, modelID string) (*GeminiLLMClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("chat: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("chat: failed to create gemini client: %w", err)
	}

	return &GeminiLLMClient{
		client:  client,
		modelID: modelID,
	}, nil
}

// Complete sends a completion request to Gemini. When tools are
// declared and the model requests one, the response carries the
// function call instead of text.
func (c *GeminiLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	model := c.client.GenerativeModel(c.modelID)

	if req.Temperature >= 0 {
		model.SetTemperature(req.Temperature)
	}
	if req.TopP > 0 {
		model.SetTopP(req.TopP)
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(req.MaxTokens)
	}

	if len(req.System) > 0 {
		systemText := strings.Join(req.System, "\n\n")
		if strings.TrimSpace(systemText) != "" {
			model.SystemInstruction = genai.NewUserContent(genai.Text(systemText))
		}
	}

	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, def := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  geminiSchema(def.Parameters),
			})
		}
		model.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	if len(req.Messages) == 0 {
		return LLMResponse{}, errors.New("chat: gemini requires at least one message")
	}

	cs := model.StartChat()
	for _, msg := range req.Messages[:len(req.Messages)-1] {
		content, err := geminiContent(msg)
		if err != nil {
			return LLMResponse{}, err
		}
		if content != nil {
			cs.History = append(cs.History, content)
		}
	}

	last := req.Messages[len(req.Messages)-1]
	lastContent, err := geminiContent(last)
	if err != nil {
		return LLMResponse{}, err
	}
	if lastContent == nil {
		return LLMResponse{}, errors.New("chat: gemini final message is empty")
	}

	resp, err := cs.SendMessage(ctx, lastContent.Parts...)
	if err != nil {
		return LLMResponse{}, fmt.Errorf("chat: gemini completion failed: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return LLMResponse{}, errors.New("chat: gemini returned no candidates")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return LLMResponse{}, errors.New("chat: gemini returned empty content")
	}

	result := LLMResponse{
		StopReason: candidate.FinishReason.String(),
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		switch v := part.(type) {
		case genai.Text:
			text.WriteString(string(v))
		case genai.FunctionCall:
			args, err := json.Marshal(v.Args)
			if err != nil {
				return LLMResponse{}, fmt.Errorf("chat: gemini function args encode failed: %w", err)
			}
			result.FunctionCall = &FunctionCall{Name: v.Name, Arguments: args}
		}
	}
	result.Text = strings.TrimSpace(text.String())

	if resp.UsageMetadata != nil {
		result.Usage = TokenUsage{
			InputTokens:  resp.UsageMetadata.PromptTokenCount,
			OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:  resp.UsageMetadata.TotalTokenCount,
		}
	}

	return result, nil
}

// Close releases resources held by the Gemini client.
func (c *GeminiLLMClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// geminiContent maps one internal turn to Gemini's content format.
// Assistant turns that requested a function become model function-call
// parts; function turns become user function-response parts.
func geminiContent(msg Turn) (*genai.Content, error) {
	switch msg.Role {
	case RoleSystem:
		// System text is handled through SystemInstruction.
		return nil, nil
	case RoleUser:
		if strings.TrimSpace(msg.Content) == "" {
			return nil, nil
		}
		return genai.NewUserContent(genai.Text(msg.Content)), nil
	case RoleAssistant:
		if msg.Name != "" {
			args := map[string]any{}
			if msg.Content != "" {
				if err := json.Unmarshal([]byte(msg.Content), &args); err != nil {
					return nil, fmt.Errorf("chat: gemini function args decode failed: %w", err)
				}
			}
			return &genai.Content{
				Role:  "model",
				Parts: []genai.Part{genai.FunctionCall{Name: msg.Name, Args: args}},
			}, nil
		}
		if strings.TrimSpace(msg.Content) == "" {
			return nil, nil
		}
		return &genai.Content{
			Role:  "model",
			Parts: []genai.Part{genai.Text(msg.Content)},
		}, nil
	case RoleFunction:
		response := map[string]any{}
		if msg.Content != "" {
			if err := json.Unmarshal([]byte(msg.Content), &response); err != nil {
				// Non-JSON results are passed through as raw output.
				response = map[string]any{"output": msg.Content}
			}
		}
		return &genai.Content{
			Role:  "user",
			Parts: []genai.Part{genai.FunctionResponse{Name: msg.Name, Response: response}},
		}, nil
	default:
		return nil, fmt.Errorf("chat: unsupported role %q", msg.Role)
	}
}

func geminiSchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Description: s.Description,
		Enum:        s.Enum,
		Required:    s.Required,
	}
	switch s.Type {
	case "object":
		out.Type = genai.TypeObject
	case "array":
		out.Type = genai.TypeArray
	case "number":
		out.Type = genai.TypeNumber
	case "integer":
		out.Type = genai.TypeInteger
	case "boolean":
		out.Type = genai.TypeBoolean
	default:
		out.Type = genai.TypeString
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = geminiSchema(prop)
		}
	}
	if s.Items != nil {
		out.Items = geminiSchema(s.Items)
	}
	return out
}
