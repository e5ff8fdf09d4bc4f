package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/leadboard/leadboard/pkg/logging"
)

const jobTTL = 24 * time.Hour

// JobStatus represents the lifecycle of a chat job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// ErrJobNotFound indicates the requested task ID does not exist.
var ErrJobNotFound = errors.New("chat: job not found")

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// JobRecord captures the persisted state of one chat turn request.
type JobRecord struct {
	TaskID         string        `dynamodbav:"taskId" json:"task_id"`
	Status         JobStatus     `dynamodbav:"status" json:"status"`
	ConversationID string        `dynamodbav:"conversationId,omitempty" json:"conversation_id,omitempty"`
	Request        *TurnRequest  `dynamodbav:"request,omitempty" json:"request,omitempty"`
	Response       *TurnResponse `dynamodbav:"response,omitempty" json:"response,omitempty"`
	ErrorMessage   string        `dynamodbav:"errorMessage,omitempty" json:"error_message,omitempty"`
	CreatedAt      string        `dynamodbav:"createdAt" json:"created_at"`
	UpdatedAt      string        `dynamodbav:"updatedAt" json:"updated_at"`
	ExpiresAt      int64         `dynamodbav:"expiresAt,omitempty" json:"-"`
}

// JobRecorder creates and reads job records.
type JobRecorder interface {
	PutPending(ctx context.Context, job *JobRecord) error
	GetJob(ctx context.Context, taskID string) (*JobRecord, error)
}

// JobUpdater moves jobs to their terminal states.
type JobUpdater interface {
	MarkCompleted(ctx context.Context, taskID string, resp *TurnResponse, conversationID string) error
	MarkFailed(ctx context.Context, taskID string, errMsg string) error
}

// JobStore persists job records to DynamoDB.
type JobStore struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

var _ JobRecorder = (*JobStore)(nil)
var _ JobUpdater = (*JobStore)(nil)

// NewJobStore builds a store backed by the provided DynamoDB client.
func NewJobStore(client dynamoAPI, tableName string, logger *logging.Logger) *JobStore {
	if client == nil {
		panic("chat: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("chat: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &JobStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// PutPending inserts a new pending job record.
func (s *JobStore) PutPending(ctx context.Context, job *JobRecord) error {
	if job == nil {
		return errors.New("chat: job cannot be nil")
	}
	now := time.Now().UTC()
	job.Status = JobStatusPending
	job.CreatedAt = now.Format(time.RFC3339Nano)
	job.UpdatedAt = job.CreatedAt
	if job.ExpiresAt == 0 {
		job.ExpiresAt = now.Add(jobTTL).Unix()
	}

	item, err := attributevalue.MarshalMap(job)
	if err != nil {
		return fmt.Errorf("chat: failed to marshal job: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(taskId)"),
	})
	if err != nil {
		return fmt.Errorf("chat: failed to persist job: %w", err)
	}
	return nil
}

// MarkCompleted updates a job with the final response.
func (s *JobStore) MarkCompleted(ctx context.Context, taskID string, resp *TurnResponse, conversationID string) error {
	if taskID == "" {
		return errors.New("chat: taskID required")
	}
	if resp == nil {
		resp = &TurnResponse{}
	}
	respAttr, err := attributevalue.Marshal(resp)
	if err != nil {
		return fmt.Errorf("chat: failed to marshal response: %w", err)
	}

	return s.updateJob(
		ctx,
		taskID,
		map[string]types.AttributeValue{
			":status":       &types.AttributeValueMemberS{Value: string(JobStatusCompleted)},
			":response":     respAttr,
			":conversation": &types.AttributeValueMemberS{Value: conversationID},
			":error":        &types.AttributeValueMemberS{Value: ""},
			":updated":      &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
		map[string]string{
			"#status":   "status",
			"#response": "response",
			"#error":    "errorMessage",
			"#updated":  "updatedAt",
		},
		"SET #status = :status, #response = :response, conversationId = :conversation, #error = :error, #updated = :updated",
	)
}

// MarkFailed updates a job to the failed state.
func (s *JobStore) MarkFailed(ctx context.Context, taskID string, errMsg string) error {
	if taskID == "" {
		return errors.New("chat: taskID required")
	}
	return s.updateJob(
		ctx,
		taskID,
		map[string]types.AttributeValue{
			":status":   &types.AttributeValueMemberS{Value: string(JobStatusFailed)},
			":response": &types.AttributeValueMemberNULL{Value: true},
			":error":    &types.AttributeValueMemberS{Value: errMsg},
			":updated":  &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
		map[string]string{
			"#status":   "status",
			"#response": "response",
			"#error":    "errorMessage",
			"#updated":  "updatedAt",
		},
		"SET #status = :status, #response = :response, #error = :error, #updated = :updated",
	)
}

// GetJob fetches a job by task ID.
func (s *JobStore) GetJob(ctx context.Context, taskID string) (*JobRecord, error) {
	if taskID == "" {
		return nil, errors.New("chat: taskID required")
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"taskId": &types.AttributeValueMemberS{Value: taskID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat: failed to fetch job: %w", err)
	}
	if out.Item == nil {
		return nil, ErrJobNotFound
	}

	var job JobRecord
	if err := attributevalue.UnmarshalMap(out.Item, &job); err != nil {
		return nil, fmt.Errorf("chat: failed to decode job: %w", err)
	}
	return &job, nil
}

func (s *JobStore) updateJob(ctx context.Context, taskID string, values map[string]types.AttributeValue, names map[string]string, expression string) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"taskId": &types.AttributeValueMemberS{Value: taskID},
		},
		UpdateExpression:          aws.String(expression),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ConditionExpression:       aws.String("attribute_exists(taskId)"),
	})
	if err != nil {
		return fmt.Errorf("chat: failed to update job %s: %w", taskID, err)
	}
	return nil
}
