package leads

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgxQuerier is the subset of pgxpool.Pool the repository needs; it also
// matches pgxmock pools in tests.
type pgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	db pgxQuerier
}

// NewPostgresRepository initializes a repo backed by a pgx pool.
func NewPostgresRepository(db pgxQuerier) *PostgresRepository {
	if db == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

var _ Repository = (*PostgresRepository)(nil)

const leadColumns = "id, owner_id, name, company, email, phone, value, notes, source, status, card_order, created_at, updated_at"

// List returns leads ordered by status then card_order, scoped to ownerID
// when set.
func (r *PostgresRepository) List(ctx context.Context, ownerID string) ([]*Lead, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM leads
		WHERE ($1 = '' OR owner_id::text = $1)
		ORDER BY array_position(ARRAY['Interest','Meeting booked','Proposal sent','Closed win','Closed lost'], status), card_order
	`, leadColumns)

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads: list scan failed: %w", err)
	}
	return out, nil
}

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	query := `
		INSERT INTO leads (id, owner_id, name, company, email, phone, value, notes, source, status, card_order)
		VALUES ($1, NULLIF($2,'')::uuid, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`
	var createdAt, updatedAt time.Time
	if err := r.db.QueryRow(ctx, query,
		id,
		req.OwnerID,
		req.Name,
		req.Company,
		req.Email,
		req.Phone,
		req.Value,
		req.Notes,
		req.Source,
		string(req.Status),
		req.CardOrder,
	).Scan(&createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("leads: insert failed: %w", err)
	}

	return &Lead{
		ID:        id.String(),
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
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

// GetByID fetches a lead, scoped to the owner when set.
func (r *PostgresRepository) GetByID(ctx context.Context, id, ownerID string) (*Lead, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM leads
		WHERE id = $1 AND ($2 = '' OR owner_id::text = $2)
	`, leadColumns)

	lead, err := scanLead(r.db.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrLeadNotFound
		}
		return nil, err
	}
	return lead, nil
}

// Update applies a partial update and returns the fresh row.
func (r *PostgresRepository) Update(ctx context.Context, id string, patch *UpdateLeadPatch, ownerID string) (*Lead, error) {
	if patch == nil || patch.Empty() {
		return nil, ErrEmptyPatch
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	set := []string{"updated_at = now()"}
	args := []any{id, ownerID}
	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Company != nil {
		add("company", *patch.Company)
	}
	if patch.Email != nil {
		add("email", *patch.Email)
	}
	if patch.Phone != nil {
		add("phone", *patch.Phone)
	}
	if patch.Value != nil {
		add("value", *patch.Value)
	}
	if patch.Notes != nil {
		add("notes", *patch.Notes)
	}
	if patch.Source != nil {
		add("source", *patch.Source)
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.CardOrder != nil {
		add("card_order", *patch.CardOrder)
	}

	query := fmt.Sprintf(`
		UPDATE leads
		SET %s
		WHERE id = $1 AND ($2 = '' OR owner_id::text = $2)
		RETURNING %s
	`, strings.Join(set, ", "), leadColumns)

	lead, err := scanLead(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrLeadNotFound
		}
		return nil, err
	}
	return lead, nil
}

// Delete removes a lead row.
func (r *PostgresRepository) Delete(ctx context.Context, id, ownerID string) error {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM leads
		WHERE id = $1 AND ($2 = '' OR owner_id::text = $2)
	`, id, ownerID)
	if err != nil {
		return fmt.Errorf("leads: delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

func scanLead(row pgx.Row) (*Lead, error) {
	var (
		lead    Lead
		ownerID *string
		status  string
	)
	if err := row.Scan(
		&lead.ID,
		&ownerID,
		&lead.Name,
		&lead.Company,
		&lead.Email,
		&lead.Phone,
		&lead.Value,
		&lead.Notes,
		&lead.Source,
		&status,
		&lead.CardOrder,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("leads: scan failed: %w", err)
	}
	if ownerID != nil {
		lead.OwnerID = *ownerID
	}
	lead.Status = Status(status)
	return &lead, nil
}
