package leads

import (
	"strings"
	"time"
)

// Status is a Kanban column on the lead pipeline board.
type Status string

const (
	StatusInterest      Status = "Interest"
	StatusMeetingBooked Status = "Meeting booked"
	StatusProposalSent  Status = "Proposal sent"
	StatusClosedWin     Status = "Closed win"
	StatusClosedLost    Status = "Closed lost"
)

// AllStatuses returns the pipeline columns in board order.
func AllStatuses() []Status {
	return []Status{StatusInterest, StatusMeetingBooked, StatusProposalSent, StatusClosedWin, StatusClosedLost}
}

// Valid reports whether s is a known pipeline status.
func (s Status) Valid() bool {
	switch s {
	case StatusInterest, StatusMeetingBooked, StatusProposalSent, StatusClosedWin, StatusClosedLost:
		return true
	}
	return false
}

// Lead represents a sales opportunity tracked on the board.
type Lead struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id,omitempty"`
	Name      string    `json:"name"`
	Company   string    `json:"company,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Value     float64   `json:"value"`
	Notes     string    `json:"notes,omitempty"`
	Source    string    `json:"source,omitempty"`
	Status    Status    `json:"status"`
	CardOrder int       `json:"card_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateLeadRequest represents the request body for creating a lead
type CreateLeadRequest struct {
	OwnerID   string  `json:"-"`
	Name      string  `json:"name"`
	Company   string  `json:"company"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
	Value     float64 `json:"value"`
	Notes     string  `json:"notes"`
	Source    string  `json:"source"`
	Status    Status  `json:"status"`
	CardOrder int     `json:"card_order"`
}

// Validate validates the create lead request and applies defaults.
func (r *CreateLeadRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidName
	}
	if r.Status == "" {
		r.Status = StatusInterest
	}
	if !r.Status.Valid() {
		return ErrInvalidStatus
	}
	if r.Value < 0 {
		return ErrNegativeValue
	}
	if r.CardOrder < 1 {
		r.CardOrder = 1
	}
	return nil
}

// UpdateLeadPatch carries a partial update; nil fields are untouched.
type UpdateLeadPatch struct {
	Name      *string  `json:"name,omitempty"`
	Company   *string  `json:"company,omitempty"`
	Email     *string  `json:"email,omitempty"`
	Phone     *string  `json:"phone,omitempty"`
	Value     *float64 `json:"value,omitempty"`
	Notes     *string  `json:"notes,omitempty"`
	Source    *string  `json:"source,omitempty"`
	Status    *Status  `json:"status,omitempty"`
	CardOrder *int     `json:"card_order,omitempty"`
}

// Validate rejects patches that would violate lead invariants.
func (p *UpdateLeadPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return ErrInvalidName
	}
	if p.Status != nil && !p.Status.Valid() {
		return ErrInvalidStatus
	}
	if p.Value != nil && *p.Value < 0 {
		return ErrNegativeValue
	}
	return nil
}

// Empty reports whether the patch touches no fields.
func (p *UpdateLeadPatch) Empty() bool {
	return p.Name == nil && p.Company == nil && p.Email == nil && p.Phone == nil &&
		p.Value == nil && p.Notes == nil && p.Source == nil && p.Status == nil && p.CardOrder == nil
}

// Board groups leads by status for the Kanban view. Every column is present
// even when empty.
type Board map[Status][]*Lead

// GroupByStatus builds the Kanban board from an ordered lead list.
func GroupByStatus(all []*Lead) Board {
	board := make(Board, len(AllStatuses()))
	for _, s := range AllStatuses() {
		board[s] = []*Lead{}
	}
	for _, lead := range all {
		status := lead.Status
		if !status.Valid() {
			status = StatusInterest
		}
		board[status] = append(board[status], lead)
	}
	return board
}

// NextCardOrder computes the order key for a lead entering the given column:
// current column size plus one. Point-in-time count, not locked; concurrent
// writers to the same column can collide.
func NextCardOrder(all []*Lead, status Status) int {
	count := 0
	for _, lead := range all {
		if lead.Status == status {
			count++
		}
	}
	return count + 1
}
