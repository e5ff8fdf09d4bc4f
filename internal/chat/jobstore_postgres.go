package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGJobStore persists job records to PostgreSQL for deployments that
// run without DynamoDB.
type PGJobStore struct {
	db *pgxpool.Pool
}

// NewPGJobStore builds a Postgres-backed JobStore.
func NewPGJobStore(db *pgxpool.Pool) *PGJobStore {
	if db == nil {
		panic("chat: pgx pool cannot be nil")
	}
	return &PGJobStore{db: db}
}

var _ JobRecorder = (*PGJobStore)(nil)
var _ JobUpdater = (*PGJobStore)(nil)

// PutPending inserts a pending job record.
func (s *PGJobStore) PutPending(ctx context.Context, job *JobRecord) error {
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

	reqJSON, err := marshalJSON(job.Request)
	if err != nil {
		return err
	}
	respJSON, err := marshalJSON(job.Response)
	if err != nil {
		return err
	}

	expiresAt := time.Unix(job.ExpiresAt, 0).UTC()
	if _, execErr := s.db.Exec(ctx, `
		INSERT INTO chat_jobs (
			task_id, status, conversation_id,
			request, response, error_message,
			created_at, updated_at, expires_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, job.TaskID, job.Status, nullString(job.ConversationID), reqJSON, respJSON, job.ErrorMessage, now, now, expiresAt); execErr != nil {
		return fmt.Errorf("chat: failed to persist job: %w", execErr)
	}
	return nil
}

// MarkCompleted updates the job as completed with the final response.
func (s *PGJobStore) MarkCompleted(ctx context.Context, taskID string, resp *TurnResponse, conversationID string) error {
	if taskID == "" {
		return errors.New("chat: taskID required")
	}
	respJSON, err := marshalJSON(resp)
	if err != nil {
		return err
	}

	result, execErr := s.db.Exec(ctx, `
		UPDATE chat_jobs
		SET status = $2,
		    response = $3,
		    conversation_id = $4,
		    error_message = '',
		    updated_at = $5
		WHERE task_id = $1
	`, taskID, JobStatusCompleted, respJSON, nullString(conversationID), time.Now().UTC())
	if execErr != nil {
		return fmt.Errorf("chat: failed to update job: %w", execErr)
	}
	if result.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

// MarkFailed marks the job as failed with an error message.
func (s *PGJobStore) MarkFailed(ctx context.Context, taskID string, errMsg string) error {
	if taskID == "" {
		return errors.New("chat: taskID required")
	}

	result, execErr := s.db.Exec(ctx, `
		UPDATE chat_jobs
		SET status = $2,
		    response = NULL,
		    error_message = $3,
		    updated_at = $4
		WHERE task_id = $1
	`, taskID, JobStatusFailed, errMsg, time.Now().UTC())
	if execErr != nil {
		return fmt.Errorf("chat: failed to update job: %w", execErr)
	}
	if result.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

// GetJob loads a job by task ID.
func (s *PGJobStore) GetJob(ctx context.Context, taskID string) (*JobRecord, error) {
	if taskID == "" {
		return nil, errors.New("chat: taskID required")
	}

	var (
		requestJSON  []byte
		responseJSON []byte
		convoID      pgtype.Text
		createdAt    time.Time
		updatedAt    time.Time
		expiresAt    pgtype.Timestamptz
		status       string
		errMsg       string
	)

	row := s.db.QueryRow(ctx, `
		SELECT task_id, status, conversation_id,
		       request, response, error_message,
		       created_at, updated_at, expires_at
		FROM chat_jobs
		WHERE task_id = $1
	`, taskID)

	if err := row.Scan(&taskID, &status, &convoID,
		&requestJSON, &responseJSON, &errMsg,
		&createdAt, &updatedAt, &expiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("chat: failed to fetch job: %w", err)
	}

	job := &JobRecord{
		TaskID:       taskID,
		Status:       JobStatus(status),
		ErrorMessage: errMsg,
		CreatedAt:    createdAt.Format(time.RFC3339Nano),
		UpdatedAt:    updatedAt.Format(time.RFC3339Nano),
	}
	if convoID.Valid {
		job.ConversationID = convoID.String
	}
	if expiresAt.Valid {
		job.ExpiresAt = expiresAt.Time.Unix()
	}

	if len(requestJSON) > 0 {
		var req TurnRequest
		if err := json.Unmarshal(requestJSON, &req); err != nil {
			return nil, fmt.Errorf("chat: failed to decode request: %w", err)
		}
		job.Request = &req
	}
	if len(responseJSON) > 0 {
		var resp TurnResponse
		if err := json.Unmarshal(responseJSON, &resp); err != nil {
			return nil, fmt.Errorf("chat: failed to decode response: %w", err)
		}
		job.Response = &resp
	}

	return job, nil
}

func marshalJSON(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("chat: failed to encode json: %w", err)
	}
	return data, nil
}

func nullString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
