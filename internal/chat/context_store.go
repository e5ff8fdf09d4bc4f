package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	sessionStateTTL = 24 * time.Hour

	// contextWindow is how many recent turns are kept per session.
	contextWindow = 10
)

// ContextStore keeps the rolling conversation context in Redis. Each
// session holds at most the last ten turns; older ones fall off the
// front of the list.
type ContextStore struct {
	redis  *redis.Client
	tracer trace.Tracer
}

// NewContextStore builds a store on the provided Redis client.
func NewContextStore(rdb *redis.Client, tracer trace.Tracer) *ContextStore {
	if rdb == nil {
		panic("chat: redis client cannot be nil")
	}
	if tracer == nil {
		tracer = otel.Tracer("leadboard.internal.chat.context")
	}
	return &ContextStore{redis: rdb, tracer: tracer}
}

// Append pushes turns onto the session context and trims it to the
// window size.
func (s *ContextStore) Append(ctx context.Context, sessionID string, turns ...Turn) error {
	ctx, span := s.tracer.Start(ctx, "chat.append_context")
	defer span.End()

	if len(turns) == 0 {
		return nil
	}

	values := make([]any, 0, len(turns))
	for _, turn := range turns {
		data, err := json.Marshal(turn)
		if err != nil {
			span.RecordError(err)
			return fmt.Errorf("chat: failed to marshal turn: %w", err)
		}
		values = append(values, data)
	}

	key := contextKey(sessionID)
	pipe := s.redis.TxPipeline()
	pipe.RPush(ctx, key, values...)
	pipe.LTrim(ctx, key, -contextWindow, -1)
	pipe.Expire(ctx, key, sessionStateTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("chat: failed to persist context: %w", err)
	}
	return nil
}

// Load returns the session's recent turns in chronological order. An
// unknown session yields an empty slice.
func (s *ContextStore) Load(ctx context.Context, sessionID string) ([]Turn, error) {
	ctx, span := s.tracer.Start(ctx, "chat.load_context")
	defer span.End()

	raw, err := s.redis.LRange(ctx, contextKey(sessionID), 0, -1).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("chat: failed to load context: %w", err)
	}

	turns := make([]Turn, 0, len(raw))
	for _, item := range raw {
		var turn Turn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("chat: failed to decode turn: %w", err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

// Clear drops the session's context.
func (s *ContextStore) Clear(ctx context.Context, sessionID string) error {
	ctx, span := s.tracer.Start(ctx, "chat.clear_context")
	defer span.End()

	if err := s.redis.Del(ctx, contextKey(sessionID)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("chat: failed to clear context: %w", err)
	}
	return nil
}

func contextKey(sessionID string) string {
	return fmt.Sprintf("chat_context:%s", sessionID)
}
