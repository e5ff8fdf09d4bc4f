package chat

import (
	"context"
	"fmt"

	"github.com/leadboard/leadboard/pkg/logging"
)

// Publisher enqueues chat turns for asynchronous processing.
type Publisher struct {
	queue  queueClient
	logger *logging.Logger
}

// NewPublisher creates a queue-backed publisher.
func NewPublisher(queue queueClient, logger *logging.Logger) *Publisher {
	if queue == nil {
		panic("chat: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{
		queue:  queue,
		logger: logger,
	}
}

// Enqueue publishes a turn under the given task ID.
func (p *Publisher) Enqueue(ctx context.Context, taskID string, req TurnRequest) error {
	if ctx == nil {
		ctx = context.Background()
	}

	payload, body, err := encodePayload(taskID, req)
	if err != nil {
		return err
	}

	if err := p.queue.Send(ctx, body); err != nil {
		return fmt.Errorf("chat: failed to enqueue turn: %w", err)
	}

	p.logger.Debug("chat turn enqueued", "task_id", payload.TaskID)
	return nil
}
