package chat

import (
	"context"
	"encoding/json"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleFunction  = "function"
)

// Turn is one entry of the conversation context sent to the model.
// Assistant turns that requested a function carry the function name;
// function turns carry the execution result as JSON content.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

// FunctionCall is a model request to invoke one of the declared tools.
type FunctionCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ArgumentsMap decodes the call arguments into a generic map.
func (c *FunctionCall) ArgumentsMap() (map[string]any, error) {
	args := map[string]any{}
	if len(c.Arguments) == 0 {
		return args, nil
	}
	if err := json.Unmarshal(c.Arguments, &args); err != nil {
		return nil, err
	}
	return args, nil
}

// Schema is a provider-neutral subset of JSON Schema used to declare
// tool parameters. Clients map it to their provider's native format.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// FunctionDefinition declares one tool the model may call.
type FunctionDefinition struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Parameters  *Schema `json:"parameters,omitempty"`
}

type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

type LLMRequest struct {
	Model       string
	System      []string
	Messages    []Turn
	Tools       []FunctionDefinition
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

// LLMResponse carries either plain text or a function call request.
type LLMResponse struct {
	Text         string
	FunctionCall *FunctionCall
	Usage        TokenUsage
	StopReason   string
}

type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}
