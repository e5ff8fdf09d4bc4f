package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/leadboard/leadboard/internal/leads"
	"github.com/leadboard/leadboard/pkg/logging"
)

// scriptedLLM returns canned responses in order, recording requests.
type scriptedLLM struct {
	responses []LLMResponse
	errs      []error
	requests  []LLMRequest
}

func (s *scriptedLLM) Complete(_ context.Context, req LLMRequest) (LLMResponse, error) {
	idx := len(s.requests)
	s.requests = append(s.requests, req)
	if idx < len(s.errs) && s.errs[idx] != nil {
		return LLMResponse{}, s.errs[idx]
	}
	if idx < len(s.responses) {
		return s.responses[idx], nil
	}
	return LLMResponse{Text: "fallthrough"}, nil
}

func newTestOrchestrator(t *testing.T, llm LLMClient) (*Orchestrator, *leads.InMemoryRepository, *SessionState) {
	t.Helper()
	repo := leads.NewInMemoryRepository()
	state := NewSessionState(testRedis(t), nil)
	exec := NewExecutor(repo, state.Pending, logging.Default())
	orch := NewOrchestrator(llm, repo, exec, state, logging.Default())
	return orch, repo, state
}

func TestProcessTurn_PlainReply(t *testing.T) {
	llm := &scriptedLLM{responses: []LLMResponse{{Text: "Your pipeline has no leads yet."}}}
	orch, _, state := newTestOrchestrator(t, llm)

	resp := orch.ProcessTurn(context.Background(), TurnRequest{
		Message:   "how is my pipeline?",
		SessionID: "sess-1",
		OwnerID:   "u",
	})

	if resp.Status != TurnStatusSuccess {
		t.Fatalf("expected success, got %+v", resp)
	}
	if resp.Message != "Your pipeline has no leads yet." {
		t.Errorf("unexpected reply: %q", resp.Message)
	}
	if len(resp.FunctionResults) != 0 {
		t.Errorf("no functions should have run: %+v", resp.FunctionResults)
	}
	if len(llm.requests) != 1 {
		t.Fatalf("expected a single round, got %d", len(llm.requests))
	}
	if len(llm.requests[0].Tools) == 0 {
		t.Error("intent round must declare the tools")
	}

	turns, _ := state.Context.Load(context.Background(), "sess-1")
	if len(turns) != 2 || turns[0].Role != RoleUser || turns[1].Role != RoleAssistant {
		t.Errorf("expected user+assistant turns persisted, got %+v", turns)
	}
}

func TestProcessTurn_FunctionCallRoundTrip(t *testing.T) {
	args, _ := json.Marshal(map[string]any{"name": "Jane Doe", "value": "1.5k"})
	llm := &scriptedLLM{responses: []LLMResponse{
		{FunctionCall: &FunctionCall{Name: FuncCreateLead, Arguments: args}},
		{Text: "Done! Jane Doe is now on the board with a value of $1,500."},
	}}
	orch, repo, _ := newTestOrchestrator(t, llm)

	resp := orch.ProcessTurn(context.Background(), TurnRequest{
		Message:   "add a lead for Jane Doe worth 1.5k",
		SessionID: "sess-1",
		OwnerID:   "u",
	})

	if resp.Status != TurnStatusSuccess {
		t.Fatalf("expected success, got %+v", resp)
	}
	if len(resp.FunctionResults) != 1 || resp.FunctionResults[0].Function != FuncCreateLead {
		t.Fatalf("expected one create_lead result, got %+v", resp.FunctionResults)
	}
	if !resp.FunctionResults[0].Success {
		t.Errorf("function should have succeeded: %+v", resp.FunctionResults[0])
	}
	if resp.FunctionResults[0].Arguments["name"] != "Jane Doe" {
		t.Errorf("result must surface the call arguments, got %+v", resp.FunctionResults[0].Arguments)
	}

	all, _ := repo.List(context.Background(), "u")
	if len(all) != 1 || all[0].Value != 1500 {
		t.Errorf("lead not created correctly: %+v", all)
	}

	if len(llm.requests) != 2 {
		t.Fatalf("expected two rounds, got %d", len(llm.requests))
	}
	// The grounded round must carry the function result and no tools.
	second := llm.requests[1]
	if len(second.Tools) != 0 {
		t.Error("reply round must not redeclare tools")
	}
	last := second.Messages[len(second.Messages)-1]
	if last.Role != RoleFunction || last.Name != FuncCreateLead {
		t.Errorf("reply round must end with the function result, got %+v", last)
	}
}

func TestProcessTurn_GroundedReplyFailure(t *testing.T) {
	args, _ := json.Marshal(map[string]any{"query": "jane"})
	llm := &scriptedLLM{
		responses: []LLMResponse{
			{FunctionCall: &FunctionCall{Name: FuncSearchLeads, Arguments: args}},
			{},
		},
		errs: []error{nil, errors.New("provider down")},
	}
	orch, _, _ := newTestOrchestrator(t, llm)

	resp := orch.ProcessTurn(context.Background(), TurnRequest{
		Message:   "find jane",
		SessionID: "sess-1",
		OwnerID:   "u",
	})

	// Losing the grounded reply fails the turn even though the search ran.
	if resp.Status != TurnStatusError {
		t.Fatalf("expected error status, got %+v", resp)
	}
	if resp.Message != apologyMessage {
		t.Errorf("expected the apology message, got %q", resp.Message)
	}
	// The executed search still travels with the response.
	if len(resp.FunctionResults) != 1 || resp.FunctionResults[0].Function != FuncSearchLeads {
		t.Errorf("expected the search result attached, got %+v", resp.FunctionResults)
	}
}

func TestProcessTurn_MalformedFunctionArguments(t *testing.T) {
	llm := &scriptedLLM{responses: []LLMResponse{
		{FunctionCall: &FunctionCall{Name: FuncCreateLead, Arguments: json.RawMessage(`{"name": "Jane"`)}},
	}}
	orch, repo, _ := newTestOrchestrator(t, llm)

	resp := orch.ProcessTurn(context.Background(), TurnRequest{
		Message:   "add jane",
		SessionID: "sess-1",
		OwnerID:   "u",
	})

	if resp.Status != TurnStatusError {
		t.Fatalf("undecodable call arguments must fail the turn, got %+v", resp)
	}
	if len(llm.requests) != 1 {
		t.Errorf("no grounded round should run, got %d requests", len(llm.requests))
	}
	if all, _ := repo.List(context.Background(), "u"); len(all) != 0 {
		t.Errorf("no function should have executed: %+v", all)
	}
}

func TestProcessTurn_LLMFailure(t *testing.T) {
	llm := &scriptedLLM{errs: []error{errors.New("provider down")}}
	orch, _, _ := newTestOrchestrator(t, llm)

	resp := orch.ProcessTurn(context.Background(), TurnRequest{
		Message:   "hello",
		SessionID: "sess-1",
		OwnerID:   "u",
	})

	if resp.Status != TurnStatusError {
		t.Fatalf("expected error status, got %+v", resp)
	}
	if resp.Message == "" {
		t.Error("error responses still carry a user-facing message")
	}
}

func TestProcessTurn_LLMTimeout(t *testing.T) {
	llm := &scriptedLLM{errs: []error{context.DeadlineExceeded}}
	orch, _, _ := newTestOrchestrator(t, llm)

	resp := orch.ProcessTurn(context.Background(), TurnRequest{
		Message:   "hello",
		SessionID: "sess-1",
		OwnerID:   "u",
	})

	if resp.Status != TurnStatusError {
		t.Fatalf("expected error status, got %+v", resp)
	}
	if resp.Message != timeoutMessage {
		t.Errorf("expected timeout message, got %q", resp.Message)
	}
}

func TestProcessTurn_SystemPromptCarriesBoardAndPending(t *testing.T) {
	llm := &scriptedLLM{responses: []LLMResponse{{Text: "ok"}}}
	orch, repo, state := newTestOrchestrator(t, llm)
	ctx := context.Background()

	lead, _ := repo.Create(ctx, &leads.CreateLeadRequest{Name: "Jane Doe", OwnerID: "u"})
	_ = state.Pending.Put(ctx, "sess-1", lead)

	_ = orch.ProcessTurn(ctx, TurnRequest{Message: "hi", SessionID: "sess-1", OwnerID: "u"})

	if len(llm.requests) != 1 {
		t.Fatalf("expected one request, got %d", len(llm.requests))
	}
	system := llm.requests[0].System[0]
	if !containsAll(system, "Jane Doe", lead.ID, "PENDING DELETIONS") {
		t.Errorf("system prompt missing board or pending state:\n%s", system)
	}
}

func TestProcessTurn_ContextWindowFedToModel(t *testing.T) {
	llm := &scriptedLLM{responses: []LLMResponse{{Text: "first"}, {Text: "second"}}}
	orch, _, _ := newTestOrchestrator(t, llm)
	ctx := context.Background()

	_ = orch.ProcessTurn(ctx, TurnRequest{Message: "one", SessionID: "sess-1", OwnerID: "u"})
	_ = orch.ProcessTurn(ctx, TurnRequest{Message: "two", SessionID: "sess-1", OwnerID: "u"})

	second := llm.requests[1]
	// Prior user+assistant turns precede the new message.
	if len(second.Messages) != 3 {
		t.Fatalf("expected 3 messages on second turn, got %d", len(second.Messages))
	}
	if second.Messages[0].Content != "one" || second.Messages[1].Content != "first" || second.Messages[2].Content != "two" {
		t.Errorf("unexpected context: %+v", second.Messages)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
