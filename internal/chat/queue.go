package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

type queueClient interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]queueMessage, error)
	Delete(ctx context.Context, receiptHandle string) error
}

type queueMessage struct {
	ID            string
	Body          string
	ReceiptHandle string
}

// queuePayload is the wire format of one enqueued chat turn.
type queuePayload struct {
	TaskID  string      `json:"task_id"`
	Request TurnRequest `json:"request"`
}

func encodePayload(taskID string, req TurnRequest) (queuePayload, string, error) {
	payload := queuePayload{TaskID: taskID, Request: req}
	if payload.TaskID == "" {
		payload.TaskID = uuid.NewString()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return queuePayload{}, "", fmt.Errorf("chat: failed to encode payload: %w", err)
	}
	return payload, string(body), nil
}
