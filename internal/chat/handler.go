package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/leadboard/leadboard/internal/auth"
	"github.com/leadboard/leadboard/internal/conversations"
	"github.com/leadboard/leadboard/pkg/logging"
)

// Client-facing task states for the status endpoint.
const (
	TaskStatePending = "PENDING"
	TaskStateSuccess = "SUCCESS"
	TaskStateFailure = "FAILURE"
)

// Handler serves the /chat endpoints: submit a turn, poll its status,
// and clear session state.
type Handler struct {
	jobs      JobRecorder
	publisher *Publisher
	state     *SessionState
	convs     *conversations.Store
	logger    *logging.Logger
}

// NewHandler constructs the chat handler. convs may be nil when
// long-term persistence is disabled.
func NewHandler(jobs JobRecorder, publisher *Publisher, state *SessionState, convs *conversations.Store, logger *logging.Logger) *Handler {
	if jobs == nil {
		panic("chat: job recorder cannot be nil")
	}
	if publisher == nil {
		panic("chat: publisher cannot be nil")
	}
	if state == nil {
		panic("chat: session state cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		jobs:      jobs,
		publisher: publisher,
		state:     state,
		convs:     convs,
		logger:    logger.Component("chat_handler"),
	}
}

type sendMessageRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
}

type sendMessageResponse struct {
	TaskID         string `json:"task_id"`
	ConversationID string `json:"conversation_id,omitempty"`
	Status         string `json:"status"`
}

// SendMessage accepts one user message, records a pending job, and
// enqueues it for the worker. The client polls the status endpoint for
// the reply.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	conversationID := req.ConversationID
	if h.convs != nil {
		if conversationID == "" {
			conv, err := h.convs.Create(r.Context(), claims.UserID, conversations.TitleFromMessage(req.Message))
			if err != nil {
				h.logger.Error("conversation create failed", "error", err)
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}
			conversationID = conv.ID
		}
		if _, err := h.convs.AppendMessage(r.Context(), conversationID, RoleUser, req.Message); err != nil {
			h.logger.Warn("user message persistence failed", "conversation_id", conversationID, "error", err)
		}
	}

	taskID := uuid.NewString()
	turn := TurnRequest{
		Message:        req.Message,
		SessionID:      claims.SessionID,
		ConversationID: conversationID,
		OwnerID:        claims.UserID,
	}

	if err := h.jobs.PutPending(r.Context(), &JobRecord{
		TaskID:         taskID,
		ConversationID: conversationID,
		Request:        &turn,
	}); err != nil {
		h.logger.Error("job record failed", "task_id", taskID, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.publisher.Enqueue(r.Context(), taskID, turn); err != nil {
		h.logger.Error("enqueue failed", "task_id", taskID, "error", err)
		if markErr := h.markFailed(r, taskID); markErr != nil {
			h.logger.Error("job failure record failed", "task_id", taskID, "error", markErr)
		}
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusAccepted, sendMessageResponse{
		TaskID:         taskID,
		ConversationID: conversationID,
		Status:         TaskStatePending,
	})
}

type taskStatusResponse struct {
	TaskID string        `json:"task_id"`
	Status string        `json:"status"`
	Result *TurnResponse `json:"result,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// TaskStatus reports the state of a submitted turn.
func (h *Handler) TaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	if taskID == "" {
		http.Error(w, "taskID is required", http.StatusBadRequest)
		return
	}

	job, err := h.jobs.GetJob(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			http.Error(w, "task not found", http.StatusNotFound)
			return
		}
		h.logger.Error("job lookup failed", "task_id", taskID, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := taskStatusResponse{TaskID: taskID}
	switch job.Status {
	case JobStatusCompleted:
		resp.Status = TaskStateSuccess
		resp.Result = job.Response
	case JobStatusFailed:
		resp.Status = TaskStateFailure
		resp.Error = job.ErrorMessage
	default:
		resp.Status = TaskStatePending
	}
	writeJSON(w, http.StatusOK, resp)
}

// ClearSession wipes the caller's conversation context and pending
// deletions.
func (h *Handler) ClearSession(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.state.Clear(r.Context(), claims.SessionID); err != nil {
		h.logger.Error("session clear failed", "session_id", claims.SessionID, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (h *Handler) markFailed(r *http.Request, taskID string) error {
	updater, ok := h.jobs.(JobUpdater)
	if !ok {
		return nil
	}
	return updater.MarkFailed(r.Context(), taskID, "failed to enqueue turn")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
