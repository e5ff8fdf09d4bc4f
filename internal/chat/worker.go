package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/leadboard/leadboard/pkg/logging"
)

const (
	defaultWorkerCount  = 2
	defaultWaitSeconds  = 2
	defaultBatchSize    = 5
	maxWaitSeconds      = 20
	maxReceiveBatchSize = 10
	deleteTimeout       = 5 * time.Second
)

type workerConfig struct {
	workers          int
	receiveWaitSecs  int
	receiveBatchSize int
}

// WorkerOption customizes worker behavior.
type WorkerOption func(*workerConfig)

// WithWorkerCount sets the number of concurrent consumer goroutines.
func WithWorkerCount(count int) WorkerOption {
	return func(cfg *workerConfig) {
		if count > 0 {
			cfg.workers = count
		}
	}
}

// WithReceiveWaitSeconds sets the SQS long-poll wait duration.
func WithReceiveWaitSeconds(seconds int) WorkerOption {
	return func(cfg *workerConfig) {
		if seconds < 0 {
			return
		}
		if seconds > maxWaitSeconds {
			seconds = maxWaitSeconds
		}
		cfg.receiveWaitSecs = seconds
	}
}

// WithReceiveBatchSize sets how many messages to fetch per poll.
func WithReceiveBatchSize(size int) WorkerOption {
	return func(cfg *workerConfig) {
		if size <= 0 {
			return
		}
		if size > maxReceiveBatchSize {
			size = maxReceiveBatchSize
		}
		cfg.receiveBatchSize = size
	}
}

// TurnProcessor handles one chat turn. The orchestrator satisfies it.
type TurnProcessor interface {
	ProcessTurn(ctx context.Context, req TurnRequest) *TurnResponse
}

// Worker consumes chat jobs from the queue and invokes the processor.
type Worker struct {
	processor TurnProcessor
	queue     queueClient
	jobs      JobUpdater
	logger    *logging.Logger

	cfg workerConfig
	wg  sync.WaitGroup
}

// NewWorker builds a queue consumer for chat turns.
func NewWorker(processor TurnProcessor, queue queueClient, jobs JobUpdater, logger *logging.Logger, opts ...WorkerOption) *Worker {
	if processor == nil {
		panic("chat: processor cannot be nil")
	}
	if queue == nil {
		panic("chat: queue cannot be nil")
	}
	if jobs == nil {
		panic("chat: job store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}

	cfg := workerConfig{
		workers:          defaultWorkerCount,
		receiveWaitSecs:  defaultWaitSeconds,
		receiveBatchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Worker{
		processor: processor,
		queue:     queue,
		jobs:      jobs,
		logger:    logger,
		cfg:       cfg,
	}
}

// Start launches worker goroutines until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.cfg.workers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i+1)
	}
}

// Wait blocks until all worker goroutines exit.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()
	w.logger.Debug("chat worker started", "worker_id", workerID)

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("chat worker stopping", "worker_id", workerID)
			return
		default:
		}

		messages, err := w.queue.Receive(ctx, w.cfg.receiveBatchSize, w.cfg.receiveWaitSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			w.logger.Error("failed to receive chat jobs", "error", err, "worker_id", workerID)
			time.Sleep(backoff)
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			w.handleMessage(ctx, msg)
		}
	}
}

// handleMessage processes one job. The orchestrator reports model and
// function failures inside the response, so those still complete the
// job; only undecodable payloads or store faults mark it failed.
func (w *Worker) handleMessage(ctx context.Context, msg queueMessage) {
	var payload queuePayload
	if err := json.Unmarshal([]byte(msg.Body), &payload); err != nil {
		w.logger.Error("failed to decode chat job", "error", err)
		w.deleteMessage(context.Background(), msg.ReceiptHandle)
		return
	}

	w.logger.Info("worker processing chat turn",
		"task_id", payload.TaskID,
		"conversation_id", payload.Request.ConversationID,
		"msg_id", msg.ID,
	)

	resp := w.processor.ProcessTurn(ctx, payload.Request)

	if err := w.jobs.MarkCompleted(ctx, payload.TaskID, resp, payload.Request.ConversationID); err != nil {
		w.logger.Error("failed to record chat job result", "error", err, "task_id", payload.TaskID)
		if failErr := w.jobs.MarkFailed(ctx, payload.TaskID, "failed to persist result"); failErr != nil {
			w.logger.Error("failed to mark chat job failed", "error", failErr, "task_id", payload.TaskID)
		}
	}

	w.deleteMessage(context.Background(), msg.ReceiptHandle)
}

func (w *Worker) deleteMessage(ctx context.Context, receiptHandle string) {
	if receiptHandle == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, deleteTimeout)
	defer cancel()
	if err := w.queue.Delete(ctx, receiptHandle); err != nil {
		w.logger.Warn("failed to delete chat job message", "error", err)
	}
}
