package leads

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for lead storage. An empty ownerID means
// unfiltered access (administrative/legacy mode); otherwise results are
// scoped to the owning user.
type Repository interface {
	List(ctx context.Context, ownerID string) ([]*Lead, error)
	Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error)
	GetByID(ctx context.Context, id, ownerID string) (*Lead, error)
	Update(ctx context.Context, id string, patch *UpdateLeadPatch, ownerID string) (*Lead, error)
	Delete(ctx context.Context, id, ownerID string) error
}

// InMemoryRepository implements Repository with in-memory storage, used in
// tests and database-less development mode.
type InMemoryRepository struct {
	mu    sync.RWMutex
	leads map[string]*Lead
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		leads: make(map[string]*Lead),
	}
}

// List returns leads ordered by status then card_order.
func (r *InMemoryRepository) List(ctx context.Context, ownerID string) ([]*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	columnRank := make(map[Status]int, len(AllStatuses()))
	for i, s := range AllStatuses() {
		columnRank[s] = i
	}

	out := make([]*Lead, 0, len(r.leads))
	for _, lead := range r.leads {
		if ownerID != "" && lead.OwnerID != ownerID {
			continue
		}
		copied := *lead
		out = append(out, &copied)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Status != out[j].Status {
			return columnRank[out[i].Status] < columnRank[out[j].Status]
		}
		return out[i].CardOrder < out[j].CardOrder
	})
	return out, nil
}

// Create creates a new lead in memory
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	lead := &Lead{
		ID:        uuid.New().String(),
		OwnerID:   req.OwnerID,
		Name:      req.Name,
		Company:   req.Company,
		Email:     req.Email,
		Phone:     req.Phone,
		Value:     req.Value,
		Notes:     req.Notes,
		Source:    req.Source,
		Status:    req.Status,
		CardOrder: req.CardOrder,
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.mu.Lock()
	r.leads[lead.ID] = lead
	r.mu.Unlock()

	copied := *lead
	return &copied, nil
}

// GetByID retrieves a lead by ID, scoped to ownerID when set.
func (r *InMemoryRepository) GetByID(ctx context.Context, id, ownerID string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[id]
	if !ok || (ownerID != "" && lead.OwnerID != ownerID) {
		return nil, ErrLeadNotFound
	}

	copied := *lead
	return &copied, nil
}

// Update applies a partial update and returns the updated lead.
func (r *InMemoryRepository) Update(ctx context.Context, id string, patch *UpdateLeadPatch, ownerID string) (*Lead, error) {
	if patch == nil || patch.Empty() {
		return nil, ErrEmptyPatch
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[id]
	if !ok || (ownerID != "" && lead.OwnerID != ownerID) {
		return nil, ErrLeadNotFound
	}

	if patch.Name != nil {
		lead.Name = *patch.Name
	}
	if patch.Company != nil {
		lead.Company = *patch.Company
	}
	if patch.Email != nil {
		lead.Email = *patch.Email
	}
	if patch.Phone != nil {
		lead.Phone = *patch.Phone
	}
	if patch.Value != nil {
		lead.Value = *patch.Value
	}
	if patch.Notes != nil {
		lead.Notes = *patch.Notes
	}
	if patch.Source != nil {
		lead.Source = *patch.Source
	}
	if patch.Status != nil {
		lead.Status = *patch.Status
	}
	if patch.CardOrder != nil {
		lead.CardOrder = *patch.CardOrder
	}
	lead.UpdatedAt = time.Now().UTC()

	copied := *lead
	return &copied, nil
}

// Delete removes a lead; ErrLeadNotFound when absent or owned by someone else.
func (r *InMemoryRepository) Delete(ctx context.Context, id, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[id]
	if !ok || (ownerID != "" && lead.OwnerID != ownerID) {
		return ErrLeadNotFound
	}
	delete(r.leads, id)
	return nil
}
