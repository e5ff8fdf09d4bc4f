package chat

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/leadboard/leadboard/internal/conversations"
	"github.com/leadboard/leadboard/internal/leads"
	"github.com/leadboard/leadboard/internal/observability/metrics"
	"github.com/leadboard/leadboard/pkg/logging"
)

const (
	// TurnStatusSuccess and TurnStatusError are the terminal outcomes
	// of one processed turn. Both are delivered to the client through
	// the job store; only infrastructure faults mark a job failed.
	TurnStatusSuccess = "success"
	TurnStatusError   = "error"

	apologyMessage = "I'm sorry, I ran into a problem handling that request. Please try again."
	timeoutMessage = "The assistant took too long to respond. Please try again in a moment."
)

// TurnRequest is one user message to process.
type TurnRequest struct {
	Message        string `json:"message"`
	SessionID      string `json:"session_id"`
	ConversationID string `json:"conversation_id,omitempty"`
	OwnerID        string `json:"owner_id,omitempty"`
}

// TurnResponse is the assistant's grounded reply plus any function
// executions that happened along the way.
type TurnResponse struct {
	Message         string           `json:"ai_message"`
	FunctionResults []FunctionResult `json:"function_results,omitempty"`
	Status          string           `json:"status"`
	Error           string           `json:"error,omitempty"`
}

// OrchestratorOption customizes orchestrator behavior.
type OrchestratorOption func(*Orchestrator)

// WithConversationStore enables long-term message persistence.
func WithConversationStore(store *conversations.Store) OrchestratorOption {
	return func(o *Orchestrator) {
		o.convs = store
	}
}

// WithChatMetrics wires Prometheus instrumentation.
func WithChatMetrics(m *metrics.ChatMetrics) OrchestratorOption {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithLLMTimeout bounds each model call.
func WithLLMTimeout(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithModelParams sets model id and sampling parameters.
func WithModelParams(modelID string, maxTokens int32, temperature float32) OrchestratorOption {
	return func(o *Orchestrator) {
		if modelID != "" {
			o.modelID = modelID
		}
		if maxTokens > 0 {
			o.maxTokens = maxTokens
		}
		o.temperature = temperature
	}
}

// Orchestrator drives the two-round chat protocol: an intent call with
// the tool declarations, an optional function execution, then a
// grounded reply call carrying the function result.
type Orchestrator struct {
	llm     LLMClient
	repo    leads.Repository
	exec    *Executor
	state   *SessionState
	convs   *conversations.Store
	metrics *metrics.ChatMetrics
	logger  *logging.Logger

	modelID     string
	maxTokens   int32
	temperature float32
	timeout     time.Duration
}

// NewOrchestrator constructs the turn processor.
func NewOrchestrator(llm LLMClient, repo leads.Repository, exec *Executor, state *SessionState, logger *logging.Logger, opts ...OrchestratorOption) *Orchestrator {
	if llm == nil {
		panic("chat: llm client cannot be nil")
	}
	if repo == nil {
		panic("chat: leads repository cannot be nil")
	}
	if exec == nil {
		panic("chat: executor cannot be nil")
	}
	if state == nil {
		panic("chat: session state cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}

	o := &Orchestrator{
		llm:         llm,
		repo:        repo,
		exec:        exec,
		state:       state,
		logger:      logger.Component("orchestrator"),
		maxTokens:   1024,
		temperature: 0.1,
		timeout:     30 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ProcessTurn handles one user message end to end. It always returns a
// response: failures become error-status responses the client can show,
// never a bare error.
func (o *Orchestrator) ProcessTurn(ctx context.Context, req TurnRequest) *TurnResponse {
	all, err := o.repo.List(ctx, req.OwnerID)
	if err != nil {
		o.logger.Error("lead list load failed", "error", err)
		return o.errorResponse(apologyMessage, "failed to load leads")
	}

	history, err := o.state.Context.Load(ctx, req.SessionID)
	if err != nil {
		// A lost context degrades the reply but should not block it.
		o.logger.Warn("context load failed", "session_id", req.SessionID, "error", err)
		history = nil
	}
	pending, err := o.state.Pending.All(ctx, req.SessionID)
	if err != nil {
		o.logger.Warn("pending deletions load failed", "session_id", req.SessionID, "error", err)
		pending = nil
	}

	system := buildSystemPrompt(all, pending)
	userTurn := Turn{Role: RoleUser, Content: req.Message}
	messages := append(append([]Turn{}, history...), userTurn)

	intent, err := o.complete(ctx, "intent", LLMRequest{
		Model:       o.modelID,
		System:      []string{system},
		Messages:    messages,
		Tools:       LeadFunctions(),
		MaxTokens:   o.maxTokens,
		Temperature: o.temperature,
	})
	if err != nil {
		return o.llmFailure(err, "intent")
	}

	var (
		reply   string
		results []FunctionResult
	)
	if intent.FunctionCall != nil {
		call := *intent.FunctionCall
		if _, argErr := call.ArgumentsMap(); argErr != nil {
			o.logger.Error("function arguments decode failed", "function", call.Name, "error", argErr)
			return o.errorResponse(apologyMessage, "invalid function arguments")
		}

		result := o.exec.Execute(ctx, req.SessionID, req.OwnerID, call, all)
		o.metrics.ObserveFunctionCall(call.Name, result.Success)
		results = append(results, result)

		resultJSON, marshalErr := json.Marshal(result)
		if marshalErr != nil {
			o.logger.Error("function result encode failed", "function", call.Name, "error", marshalErr)
			resultJSON = []byte(`{"success":false,"error":"result encoding failed"}`)
		}

		followup := append(messages,
			Turn{Role: RoleAssistant, Name: call.Name, Content: string(call.Arguments)},
			Turn{Role: RoleFunction, Name: call.Name, Content: string(resultJSON)},
		)

		grounded, groundErr := o.complete(ctx, "reply", LLMRequest{
			Model:       o.modelID,
			System:      []string{system},
			Messages:    followup,
			MaxTokens:   o.maxTokens,
			Temperature: o.temperature,
		})
		if groundErr != nil {
			// The function already ran, so its outcome travels with
			// the error response, but the turn itself fails.
			o.logger.Error("grounded reply failed", "function", call.Name, "error", groundErr)
			resp := o.llmFailure(groundErr, "reply")
			resp.FunctionResults = results
			return resp
		}
		reply = grounded.Text
	} else {
		reply = intent.Text
	}

	if reply == "" {
		reply = apologyMessage
	}

	if err := o.state.Context.Append(ctx, req.SessionID, userTurn, Turn{Role: RoleAssistant, Content: reply}); err != nil {
		o.logger.Warn("context append failed", "session_id", req.SessionID, "error", err)
	}
	o.persistAssistantMessage(ctx, req.ConversationID, reply)

	o.metrics.ObserveTurn(TurnStatusSuccess)
	return &TurnResponse{
		Message:         reply,
		FunctionResults: results,
		Status:          TurnStatusSuccess,
	}
}

// complete runs one bounded LLM call and records its latency.
func (o *Orchestrator) complete(ctx context.Context, round string, req LLMRequest) (LLMResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	started := time.Now()
	resp, err := o.llm.Complete(callCtx, req)
	o.metrics.ObserveLLMLatency(round, time.Since(started).Seconds())
	return resp, err
}

func (o *Orchestrator) llmFailure(err error, round string) *TurnResponse {
	if errors.Is(err, context.DeadlineExceeded) {
		o.logger.Error("llm call timed out", "round", round)
		return o.errorResponse(timeoutMessage, "llm timeout")
	}
	o.logger.Error("llm call failed", "round", round, "error", err)
	return o.errorResponse(apologyMessage, "llm call failed")
}

func (o *Orchestrator) errorResponse(message, detail string) *TurnResponse {
	o.metrics.ObserveTurn(TurnStatusError)
	return &TurnResponse{
		Message: message,
		Status:  TurnStatusError,
		Error:   detail,
	}
}

func (o *Orchestrator) persistAssistantMessage(ctx context.Context, conversationID, reply string) {
	if o.convs == nil || conversationID == "" {
		return
	}
	if _, err := o.convs.AppendMessage(ctx, conversationID, RoleAssistant, reply); err != nil {
		o.logger.Warn("assistant message persistence failed", "conversation_id", conversationID, "error", err)
	}
}
