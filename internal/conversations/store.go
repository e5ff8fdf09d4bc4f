package conversations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrConversationNotFound is returned when no conversation matches the
// lookup within the caller's scope.
var ErrConversationNotFound = errors.New("conversations: conversation not found")

// Store persists conversations and their messages to PostgreSQL.
type Store struct {
	db *sql.DB
}

// NewStore creates a conversation store backed by db.
func NewStore(db *sql.DB) *Store {
	if db == nil {
		panic("conversations: db required")
	}
	return &Store{db: db}
}

// List returns the caller's conversations, most recently updated first.
func (s *Store) List(ctx context.Context, ownerID string) ([]*Conversation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, title, created_at, updated_at
		FROM conversations
		WHERE ($1 = '' OR owner_id::text = $1)
		ORDER BY updated_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("conversations: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Conversation
	for rows.Next() {
		var (
			conv  Conversation
			owner sql.NullString
		)
		if err := rows.Scan(&conv.ID, &owner, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("conversations: list scan failed: %w", err)
		}
		conv.OwnerID = owner.String
		out = append(out, &conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("conversations: list failed: %w", err)
	}
	return out, nil
}

// Create inserts a new conversation for ownerID.
func (s *Store) Create(ctx context.Context, ownerID, title string) (*Conversation, error) {
	if title == "" {
		title = "New conversation"
	}
	conv := &Conversation{
		ID:      uuid.NewString(),
		OwnerID: ownerID,
		Title:   title,
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO conversations (id, owner_id, title)
		VALUES ($1, NULLIF($2,'')::uuid, $3)
		RETURNING created_at, updated_at
	`, conv.ID, ownerID, title).Scan(&conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("conversations: create failed: %w", err)
	}
	return conv, nil
}

// Get fetches a single conversation, scoped to ownerID when set.
func (s *Store) Get(ctx context.Context, id, ownerID string) (*Conversation, error) {
	var (
		conv  Conversation
		owner sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, title, created_at, updated_at
		FROM conversations
		WHERE id = $1 AND ($2 = '' OR owner_id::text = $2)
	`, id, ownerID).Scan(&conv.ID, &owner, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("conversations: get failed: %w", err)
	}
	conv.OwnerID = owner.String
	return &conv, nil
}

// Rename changes a conversation's title.
func (s *Store) Rename(ctx context.Context, id, ownerID, title string) (*Conversation, error) {
	if title == "" {
		title = "New conversation"
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE conversations
		SET title = $1, updated_at = $2
		WHERE id = $3 AND ($4 = '' OR owner_id::text = $4)
	`, title, time.Now().UTC(), id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("conversations: rename failed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("conversations: rename result failed: %w", err)
	}
	if affected == 0 {
		return nil, ErrConversationNotFound
	}
	return s.Get(ctx, id, ownerID)
}

// Delete removes a conversation and its messages.
func (s *Store) Delete(ctx context.Context, id, ownerID string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM conversations
		WHERE id = $1 AND ($2 = '' OR owner_id::text = $2)
	`, id, ownerID)
	if err != nil {
		return fmt.Errorf("conversations: delete failed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("conversations: delete result failed: %w", err)
	}
	if affected == 0 {
		return ErrConversationNotFound
	}
	return nil
}

// AppendMessage stores a message and bumps the conversation's
// updated_at so it sorts to the top of the list.
func (s *Store) AppendMessage(ctx context.Context, conversationID, role, content string) (*Message, error) {
	msg := &Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO messages (id, conversation_id, role, content)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, msg.ID, conversationID, role, content).Scan(&msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("conversations: append message failed: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		UPDATE conversations SET updated_at = $1 WHERE id = $2
	`, time.Now().UTC(), conversationID); err != nil {
		return nil, fmt.Errorf("conversations: touch failed: %w", err)
	}
	return msg, nil
}

// Messages returns a conversation's messages in chronological order.
// A non-positive limit returns everything.
func (s *Store) Messages(ctx context.Context, conversationID string, limit int) ([]*Message, error) {
	query := `
		SELECT id, conversation_id, role, content, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
	`
	args := []any{conversationID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("conversations: get messages failed: %w", err)
	}
	defer rows.Close()

	var out []*Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("conversations: message scan failed: %w", err)
		}
		out = append(out, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("conversations: get messages failed: %w", err)
	}
	return out, nil
}
