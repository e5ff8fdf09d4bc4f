package conversations

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/leadboard/leadboard/internal/auth"
	"github.com/leadboard/leadboard/pkg/logging"
)

// Handler serves the /conversations endpoints.
type Handler struct {
	store  *Store
	logger *logging.Logger
}

// NewHandler constructs the conversations handler.
func NewHandler(store *Store, logger *logging.Logger) *Handler {
	if store == nil {
		panic("conversations: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger.Component("conversations_handler")}
}

func ownerFromRequest(r *http.Request) string {
	if claims, ok := auth.SessionFromContext(r.Context()); ok {
		return claims.UserID
	}
	return ""
}

// ListConversations returns the caller's conversations, newest first.
func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := h.store.List(r.Context(), ownerFromRequest(r))
	if err != nil {
		h.logger.Error("list conversations failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if convs == nil {
		convs = []*Conversation{}
	}
	writeJSON(w, http.StatusOK, convs)
}

type createConversationRequest struct {
	Title        string `json:"title"`
	FirstMessage string `json:"first_message"`
}

// CreateConversation starts a new thread. The title falls back to a
// truncation of the first message when not provided.
func (h *Handler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	var req createConversationRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	title := req.Title
	if title == "" {
		title = TitleFromMessage(req.FirstMessage)
	}

	conv, err := h.store.Create(r.Context(), ownerFromRequest(r), title)
	if err != nil {
		h.logger.Error("create conversation failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, conv)
}

// GetConversation returns one conversation with its messages.
func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversationID")
	owner := ownerFromRequest(r)

	conv, err := h.store.Get(r.Context(), id, owner)
	if err != nil {
		if errors.Is(err, ErrConversationNotFound) {
			http.Error(w, "conversation not found", http.StatusNotFound)
			return
		}
		h.logger.Error("get conversation failed", "conversation_id", id, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	messages, err := h.store.Messages(r.Context(), id, 0)
	if err != nil {
		h.logger.Error("get messages failed", "conversation_id", id, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []*Message{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"conversation": conv,
		"messages":     messages,
	})
}

type renameConversationRequest struct {
	Title string `json:"title"`
}

// RenameConversation updates a thread's title.
func (h *Handler) RenameConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversationID")

	var req renameConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	conv, err := h.store.Rename(r.Context(), id, ownerFromRequest(r), req.Title)
	if err != nil {
		if errors.Is(err, ErrConversationNotFound) {
			http.Error(w, "conversation not found", http.StatusNotFound)
			return
		}
		h.logger.Error("rename conversation failed", "conversation_id", id, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// ListMessages returns a conversation's messages in chronological order.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversationID")
	owner := ownerFromRequest(r)

	if _, err := h.store.Get(r.Context(), id, owner); err != nil {
		if errors.Is(err, ErrConversationNotFound) {
			http.Error(w, "conversation not found", http.StatusNotFound)
			return
		}
		h.logger.Error("get conversation failed", "conversation_id", id, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	messages, err := h.store.Messages(r.Context(), id, 0)
	if err != nil {
		h.logger.Error("get messages failed", "conversation_id", id, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []*Message{}
	}
	writeJSON(w, http.StatusOK, messages)
}

// DeleteConversation removes a thread and its messages.
func (h *Handler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversationID")

	if err := h.store.Delete(r.Context(), id, ownerFromRequest(r)); err != nil {
		if errors.Is(err, ErrConversationNotFound) {
			http.Error(w, "conversation not found", http.StatusNotFound)
			return
		}
		h.logger.Error("delete conversation failed", "conversation_id", id, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
