package chat

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MemoryJobStore keeps job records in process memory. It pairs with
// MemoryQueue for single-process deployments and tests.
type MemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]*JobRecord
}

var _ JobRecorder = (*MemoryJobStore)(nil)
var _ JobUpdater = (*MemoryJobStore)(nil)

// NewMemoryJobStore creates an empty in-memory job store.
func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{jobs: make(map[string]*JobRecord)}
}

// PutPending records a new job in the pending state.
func (s *MemoryJobStore) PutPending(_ context.Context, job *JobRecord) error {
	if job == nil || job.TaskID == "" {
		return errors.New("chat: job cannot be nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC().Format(time.RFC3339)
	stored := *job
	stored.Status = JobStatusPending
	if stored.CreatedAt == "" {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	s.jobs[job.TaskID] = &stored
	return nil
}

// GetJob returns the job record for taskID.
func (s *MemoryJobStore) GetJob(_ context.Context, taskID string) (*JobRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[taskID]
	if !ok {
		return nil, ErrJobNotFound
	}
	clone := *job
	return &clone, nil
}

// MarkCompleted stores the turn response against the job.
func (s *MemoryJobStore) MarkCompleted(_ context.Context, taskID string, resp *TurnResponse, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[taskID]
	if !ok {
		return ErrJobNotFound
	}
	job.Status = JobStatusCompleted
	job.Response = resp
	if conversationID != "" {
		job.ConversationID = conversationID
	}
	job.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	return nil
}

// MarkFailed stores the failure reason against the job.
func (s *MemoryJobStore) MarkFailed(_ context.Context, taskID string, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[taskID]
	if !ok {
		return ErrJobNotFound
	}
	job.Status = JobStatusFailed
	job.ErrorMessage = errMsg
	job.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	return nil
}
