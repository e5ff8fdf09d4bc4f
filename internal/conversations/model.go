package conversations

import (
	"strings"
	"time"
)

// Conversation is a chat thread owned by a user.
type Conversation struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id,omitempty"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is one persisted chat message inside a conversation.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

const titleMaxLen = 50

// TitleFromMessage derives a conversation title from its first message:
// the text truncated to 50 characters on a word boundary, with an
// ellipsis when anything was cut.
func TitleFromMessage(message string) string {
	text := strings.Join(strings.Fields(message), " ")
	if text == "" {
		return "New conversation"
	}
	if len(text) <= titleMaxLen {
		return text
	}
	cut := text[:titleMaxLen]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut) + "..."
}
