package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/leadboard/leadboard/internal/leads"
)

// PendingDeletionStore records deletion requests awaiting user
// confirmation, keyed by session. The lead snapshot is kept so the
// confirmation reply can name what was removed even after the row is
// gone.
type PendingDeletionStore struct {
	redis  *redis.Client
	tracer trace.Tracer
}

// NewPendingDeletionStore builds a store on the provided Redis client.
func NewPendingDeletionStore(rdb *redis.Client, tracer trace.Tracer) *PendingDeletionStore {
	if rdb == nil {
		panic("chat: redis client cannot be nil")
	}
	if tracer == nil {
		tracer = otel.Tracer("leadboard.internal.chat.pending")
	}
	return &PendingDeletionStore{redis: rdb, tracer: tracer}
}

// Put records a pending deletion for the session.
func (s *PendingDeletionStore) Put(ctx context.Context, sessionID string, lead *leads.Lead) error {
	ctx, span := s.tracer.Start(ctx, "chat.put_pending_deletion")
	defer span.End()

	data, err := json.Marshal(lead)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("chat: failed to marshal pending deletion: %w", err)
	}

	key := pendingKey(sessionID)
	pipe := s.redis.TxPipeline()
	pipe.HSet(ctx, key, lead.ID, data)
	pipe.Expire(ctx, key, sessionStateTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("chat: failed to persist pending deletion: %w", err)
	}
	return nil
}

// Get returns the pending deletion snapshot for leadID, or nil when
// none was recorded in this session.
func (s *PendingDeletionStore) Get(ctx context.Context, sessionID, leadID string) (*leads.Lead, error) {
	ctx, span := s.tracer.Start(ctx, "chat.get_pending_deletion")
	defer span.End()

	data, err := s.redis.HGet(ctx, pendingKey(sessionID), leadID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("chat: failed to load pending deletion: %w", err)
	}

	var lead leads.Lead
	if err := json.Unmarshal(data, &lead); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("chat: failed to decode pending deletion: %w", err)
	}
	return &lead, nil
}

// All returns every pending deletion for the session keyed by lead ID.
func (s *PendingDeletionStore) All(ctx context.Context, sessionID string) (map[string]*leads.Lead, error) {
	ctx, span := s.tracer.Start(ctx, "chat.list_pending_deletions")
	defer span.End()

	raw, err := s.redis.HGetAll(ctx, pendingKey(sessionID)).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("chat: failed to list pending deletions: %w", err)
	}

	out := make(map[string]*leads.Lead, len(raw))
	for leadID, data := range raw {
		var lead leads.Lead
		if err := json.Unmarshal([]byte(data), &lead); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("chat: failed to decode pending deletion: %w", err)
		}
		out[leadID] = &lead
	}
	return out, nil
}

// Remove drops one pending deletion after it is confirmed or cancelled.
func (s *PendingDeletionStore) Remove(ctx context.Context, sessionID, leadID string) error {
	ctx, span := s.tracer.Start(ctx, "chat.remove_pending_deletion")
	defer span.End()

	if err := s.redis.HDel(ctx, pendingKey(sessionID), leadID).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("chat: failed to remove pending deletion: %w", err)
	}
	return nil
}

// Clear drops all pending deletions for the session.
func (s *PendingDeletionStore) Clear(ctx context.Context, sessionID string) error {
	ctx, span := s.tracer.Start(ctx, "chat.clear_pending_deletions")
	defer span.End()

	if err := s.redis.Del(ctx, pendingKey(sessionID)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("chat: failed to clear pending deletions: %w", err)
	}
	return nil
}

func pendingKey(sessionID string) string {
	return fmt.Sprintf("pending_deletions:%s", sessionID)
}
