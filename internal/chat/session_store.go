package chat

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

// SessionState bundles the per-session stores so callers can wipe a
// session in one call (logout, explicit clear).
type SessionState struct {
	Context *ContextStore
	Pending *PendingDeletionStore
}

// NewSessionState builds both session-scoped stores on one Redis client.
func NewSessionState(rdb *redis.Client, tracer trace.Tracer) *SessionState {
	return &SessionState{
		Context: NewContextStore(rdb, tracer),
		Pending: NewPendingDeletionStore(rdb, tracer),
	}
}

// Clear removes the session's conversation context and any pending
// deletions. Both stores are attempted even if one fails.
func (s *SessionState) Clear(ctx context.Context, sessionID string) error {
	var errs []error
	if s.Context != nil {
		if err := s.Context.Clear(ctx, sessionID); err != nil {
			errs = append(errs, err)
		}
	}
	if s.Pending != nil {
		if err := s.Pending.Clear(ctx, sessionID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
