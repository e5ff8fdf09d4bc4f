package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/leadboard/leadboard/internal/auth"
	"github.com/leadboard/leadboard/pkg/logging"
)

func authedRequest(method, target string, body []byte, userID string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	claims := &auth.SessionClaims{UserID: userID, SessionID: "sess-1"}
	return req.WithContext(auth.ContextWithSession(req.Context(), claims))
}

func TestCreateLead_Success(t *testing.T) {
	repo := NewInMemoryRepository()
	handler := NewHandler(repo, logging.Default())

	body, _ := json.Marshal(CreateLeadRequest{
		Name:    "Jane Doe",
		Company: "Acme",
		Email:   "jane@acme.io",
		Value:   1200,
	})
	w := httptest.NewRecorder()
	handler.CreateLead(w, authedRequest(http.MethodPost, "/leads", body, "user-1"))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, w.Code)
	}

	var lead Lead
	if err := json.NewDecoder(w.Body).Decode(&lead); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if lead.Status != StatusInterest {
		t.Errorf("expected default status Interest, got %s", lead.Status)
	}
	if lead.CardOrder != 1 {
		t.Errorf("expected card_order 1 in empty column, got %d", lead.CardOrder)
	}
	if lead.OwnerID != "user-1" {
		t.Errorf("expected owner from session, got %q", lead.OwnerID)
	}
}

func TestCreateLead_MissingName(t *testing.T) {
	handler := NewHandler(NewInMemoryRepository(), logging.Default())

	body, _ := json.Marshal(CreateLeadRequest{Company: "Acme"})
	w := httptest.NewRecorder()
	handler.CreateLead(w, authedRequest(http.MethodPost, "/leads", body, "user-1"))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestCreateLead_CardOrderAppendsToColumn(t *testing.T) {
	repo := NewInMemoryRepository()
	handler := NewHandler(repo, logging.Default())

	for i := 0; i < 2; i++ {
		body, _ := json.Marshal(CreateLeadRequest{Name: "Lead", Status: StatusProposalSent})
		w := httptest.NewRecorder()
		handler.CreateLead(w, authedRequest(http.MethodPost, "/leads", body, "user-1"))
		if w.Code != http.StatusCreated {
			t.Fatalf("create %d failed with %d", i, w.Code)
		}
	}

	all, _ := repo.List(context.Background(), "user-1")
	if len(all) != 2 {
		t.Fatalf("expected 2 leads, got %d", len(all))
	}
	if all[1].CardOrder != 2 {
		t.Errorf("expected second card to get order 2, got %d", all[1].CardOrder)
	}
}

func TestListLeads_GroupsByStatus(t *testing.T) {
	repo := NewInMemoryRepository()
	handler := NewHandler(repo, logging.Default())

	_, _ = repo.Create(context.Background(), &CreateLeadRequest{Name: "A", OwnerID: "user-1", Status: StatusInterest})
	_, _ = repo.Create(context.Background(), &CreateLeadRequest{Name: "B", OwnerID: "user-1", Status: StatusClosedWin})

	w := httptest.NewRecorder()
	handler.ListLeads(w, authedRequest(http.MethodGet, "/leads", nil, "user-1"))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var board map[string][]*Lead
	if err := json.NewDecoder(w.Body).Decode(&board); err != nil {
		t.Fatalf("failed to decode board: %v", err)
	}
	if len(board) != 5 {
		t.Errorf("expected all 5 columns present, got %d", len(board))
	}
	if len(board[string(StatusInterest)]) != 1 || len(board[string(StatusClosedWin)]) != 1 {
		t.Error("leads not grouped into expected columns")
	}
}

func TestListLeads_ScopedToOwner(t *testing.T) {
	repo := NewInMemoryRepository()
	handler := NewHandler(repo, logging.Default())

	_, _ = repo.Create(context.Background(), &CreateLeadRequest{Name: "Mine", OwnerID: "user-1"})
	_, _ = repo.Create(context.Background(), &CreateLeadRequest{Name: "Theirs", OwnerID: "user-2"})

	w := httptest.NewRecorder()
	handler.ListLeads(w, authedRequest(http.MethodGet, "/leads", nil, "user-1"))

	var board map[string][]*Lead
	_ = json.NewDecoder(w.Body).Decode(&board)
	total := 0
	for _, col := range board {
		total += len(col)
	}
	if total != 1 {
		t.Errorf("expected only the caller's lead, got %d", total)
	}
}

func newStatusRequest(t *testing.T, leadID string, body any) *http.Request {
	t.Helper()
	raw, _ := json.Marshal(body)
	req := authedRequest(http.MethodPut, "/leads/"+leadID+"/status", raw, "user-1")

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("leadID", leadID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestUpdateStatus_MovesToEndOfColumn(t *testing.T) {
	repo := NewInMemoryRepository()
	handler := NewHandler(repo, logging.Default())

	lead, _ := repo.Create(context.Background(), &CreateLeadRequest{Name: "A", OwnerID: "user-1", Status: StatusInterest})
	_, _ = repo.Create(context.Background(), &CreateLeadRequest{Name: "B", OwnerID: "user-1", Status: StatusMeetingBooked, CardOrder: 1})

	w := httptest.NewRecorder()
	handler.UpdateStatus(w, newStatusRequest(t, lead.ID, UpdateStatusRequest{Status: StatusMeetingBooked}))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var updated Lead
	_ = json.NewDecoder(w.Body).Decode(&updated)
	if updated.Status != StatusMeetingBooked {
		t.Errorf("expected status Meeting booked, got %s", updated.Status)
	}
	if updated.CardOrder != 2 {
		t.Errorf("expected card_order 2, got %d", updated.CardOrder)
	}
}

func TestUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	handler := NewHandler(NewInMemoryRepository(), logging.Default())

	w := httptest.NewRecorder()
	handler.UpdateStatus(w, newStatusRequest(t, "some-id", map[string]string{"status": "Archived"}))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestDeleteLead_NotFound(t *testing.T) {
	handler := NewHandler(NewInMemoryRepository(), logging.Default())

	req := authedRequest(http.MethodDelete, "/leads/missing", nil, "user-1")
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("leadID", "missing")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	w := httptest.NewRecorder()
	handler.DeleteLead(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}
