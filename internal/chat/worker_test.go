package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/leadboard/leadboard/pkg/logging"
)

type fakeProcessor struct {
	mu       sync.Mutex
	requests []TurnRequest
	response *TurnResponse
}

func (p *fakeProcessor) ProcessTurn(_ context.Context, req TurnRequest) *TurnResponse {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	if p.response != nil {
		return p.response
	}
	return &TurnResponse{Message: "ok", Status: TurnStatusSuccess}
}

type fakeJobUpdater struct {
	mu        sync.Mutex
	completed map[string]*TurnResponse
	failed    map[string]string
}

func newFakeJobUpdater() *fakeJobUpdater {
	return &fakeJobUpdater{
		completed: make(map[string]*TurnResponse),
		failed:    make(map[string]string),
	}
}

func (s *fakeJobUpdater) MarkCompleted(_ context.Context, taskID string, resp *TurnResponse, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed[taskID] = resp
	return nil
}

func (s *fakeJobUpdater) MarkFailed(_ context.Context, taskID string, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed[taskID] = errMsg
	return nil
}

func (s *fakeJobUpdater) completedResponse(taskID string) *TurnResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed[taskID]
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatal("condition not met in time")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestWorker_ProcessesEnqueuedTurn(t *testing.T) {
	queue := NewMemoryQueue(8)
	processor := &fakeProcessor{}
	jobs := newFakeJobUpdater()

	worker := NewWorker(processor, queue, jobs, logging.Default(), WithWorkerCount(1))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)

	publisher := NewPublisher(queue, logging.Default())
	if err := publisher.Enqueue(ctx, "task-1", TurnRequest{Message: "hi", SessionID: "sess-1"}); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	waitFor(t, func() bool { return jobs.completedResponse("task-1") != nil })

	resp := jobs.completedResponse("task-1")
	if resp.Status != TurnStatusSuccess || resp.Message != "ok" {
		t.Errorf("unexpected recorded response: %+v", resp)
	}

	cancel()
	worker.Wait()
}

func TestWorker_CompletesJobEvenWhenTurnErrored(t *testing.T) {
	queue := NewMemoryQueue(8)
	// Model failures come back as error-status responses; they still
	// complete the job so the client sees the apology message.
	processor := &fakeProcessor{response: &TurnResponse{
		Message: apologyMessage,
		Status:  TurnStatusError,
		Error:   "llm call failed",
	}}
	jobs := newFakeJobUpdater()

	worker := NewWorker(processor, queue, jobs, logging.Default(), WithWorkerCount(1))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)

	publisher := NewPublisher(queue, logging.Default())
	_ = publisher.Enqueue(ctx, "task-err", TurnRequest{Message: "hi", SessionID: "sess-1"})

	waitFor(t, func() bool { return jobs.completedResponse("task-err") != nil })

	resp := jobs.completedResponse("task-err")
	if resp.Status != TurnStatusError {
		t.Errorf("expected error status preserved, got %+v", resp)
	}
	jobs.mu.Lock()
	failed := len(jobs.failed)
	jobs.mu.Unlock()
	if failed != 0 {
		t.Error("turn-level errors must not mark the job failed")
	}

	cancel()
	worker.Wait()
}

func TestWorker_DropsUndecodableMessage(t *testing.T) {
	queue := NewMemoryQueue(8)
	processor := &fakeProcessor{}
	jobs := newFakeJobUpdater()

	worker := NewWorker(processor, queue, jobs, logging.Default(), WithWorkerCount(1))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)

	_ = queue.Send(ctx, "{not json")
	_ = NewPublisher(queue, logging.Default()).Enqueue(ctx, "task-2", TurnRequest{Message: "hi"})

	waitFor(t, func() bool { return jobs.completedResponse("task-2") != nil })

	processor.mu.Lock()
	calls := len(processor.requests)
	processor.mu.Unlock()
	if calls != 1 {
		t.Errorf("expected only the valid message processed, got %d calls", calls)
	}

	cancel()
	worker.Wait()
}
