package leads

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/leadboard/leadboard/internal/auth"
	"github.com/leadboard/leadboard/pkg/logging"
)

// Handler handles HTTP requests for leads
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new leads handler
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

func ownerFromRequest(r *http.Request) string {
	if claims, ok := auth.SessionFromContext(r.Context()); ok {
		return claims.UserID
	}
	return ""
}

// ListLeads handles GET /leads, returning the Kanban board grouped by status.
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerFromRequest(r)

	all, err := h.repo.List(r.Context(), ownerID)
	if err != nil {
		h.logger.Error("failed to list leads", "error", err, "owner_id", ownerID)
		http.Error(w, "failed to list leads", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, GroupByStatus(all))
}

// CreateLead handles POST /leads. The card lands at the end of its column.
func (h *Handler) CreateLead(w http.ResponseWriter, r *http.Request) {
	var req CreateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode create lead request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.OwnerID = ownerFromRequest(r)
	if req.Status == "" {
		req.Status = StatusInterest
	}

	all, err := h.repo.List(r.Context(), req.OwnerID)
	if err != nil {
		h.logger.Error("failed to load leads for ordering", "error", err)
		http.Error(w, "failed to create lead", http.StatusInternalServerError)
		return
	}
	req.CardOrder = NextCardOrder(all, req.Status)

	lead, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create lead", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.logger.Info("lead created", "id", lead.ID, "name", lead.Name, "status", lead.Status)
	h.writeJSON(w, http.StatusCreated, lead)
}

// GetLead handles GET /leads/{leadID}.
func (h *Handler) GetLead(w http.ResponseWriter, r *http.Request) {
	lead, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "leadID"), ownerFromRequest(r))
	if err != nil {
		if errors.Is(err, ErrLeadNotFound) {
			http.Error(w, "Lead not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to get lead", "error", err)
		http.Error(w, "failed to get lead", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, lead)
}

// UpdateLead handles PUT /leads/{leadID} with a partial patch body.
func (h *Handler) UpdateLead(w http.ResponseWriter, r *http.Request) {
	var patch UpdateLeadPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	lead, err := h.repo.Update(r.Context(), chi.URLParam(r, "leadID"), &patch, ownerFromRequest(r))
	if err != nil {
		switch {
		case errors.Is(err, ErrLeadNotFound):
			http.Error(w, "Lead not found", http.StatusNotFound)
		case errors.Is(err, ErrEmptyPatch), errors.Is(err, ErrInvalidName),
			errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrNegativeValue):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("failed to update lead", "error", err)
			http.Error(w, "failed to update lead", http.StatusInternalServerError)
		}
		return
	}
	h.writeJSON(w, http.StatusOK, lead)
}

// DeleteLead handles DELETE /leads/{leadID}.
func (h *Handler) DeleteLead(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), chi.URLParam(r, "leadID"), ownerFromRequest(r)); err != nil {
		if errors.Is(err, ErrLeadNotFound) {
			http.Error(w, "Lead not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to delete lead", "error", err)
		http.Error(w, "failed to delete lead", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateStatusRequest is the body for Kanban drag & drop moves.
type UpdateStatusRequest struct {
	Status    Status `json:"status"`
	CardOrder *int   `json:"card_order,omitempty"`
}

// UpdateStatus handles PUT /leads/{leadID}/status, moving a card between
// columns. When no explicit card_order is given the card lands at the end of
// the target column.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Status == "" {
		http.Error(w, "Status is required", http.StatusBadRequest)
		return
	}
	if !req.Status.Valid() {
		http.Error(w, ErrInvalidStatus.Error(), http.StatusBadRequest)
		return
	}

	ownerID := ownerFromRequest(r)
	order := 0
	if req.CardOrder != nil {
		order = *req.CardOrder
	}
	if order < 1 {
		all, err := h.repo.List(r.Context(), ownerID)
		if err != nil {
			h.logger.Error("failed to load leads for ordering", "error", err)
			http.Error(w, "failed to update lead status", http.StatusInternalServerError)
			return
		}
		order = NextCardOrder(all, req.Status)
	}

	patch := &UpdateLeadPatch{Status: &req.Status, CardOrder: &order}
	lead, err := h.repo.Update(r.Context(), chi.URLParam(r, "leadID"), patch, ownerID)
	if err != nil {
		if errors.Is(err, ErrLeadNotFound) {
			http.Error(w, "Lead not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to update lead status", "error", err)
		http.Error(w, "failed to update lead status", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, lead)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}
