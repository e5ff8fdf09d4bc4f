package users

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository stores users in the relational database.
type PostgresRepository struct {
	db pgxQuerier
}

// NewPostgresRepository initializes a repo backed by a pgx pool.
func NewPostgresRepository(db pgxQuerier) *PostgresRepository {
	if db == nil {
		panic("users: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

var _ Repository = (*PostgresRepository)(nil)

const userColumns = "id, email, name, password_hash, is_admin, created_at"

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE email = $1", userColumns)
	return scanUser(r.db.QueryRow(ctx, query, NormalizeEmail(email)))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE id = $1", userColumns)
	return scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *PostgresRepository) Create(ctx context.Context, user *User) (*User, error) {
	id := user.ID
	if id == "" {
		id = uuid.NewString()
	}
	query := `
		INSERT INTO users (id, email, name, password_hash, is_admin)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO NOTHING
		RETURNING created_at
	`
	out := *user
	out.ID = id
	out.Email = NormalizeEmail(user.Email)
	err := r.db.QueryRow(ctx, query, id, out.Email, user.Name, user.PasswordHash, user.IsAdmin).Scan(&out.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("users: insert failed: %w", err)
	}
	return &out, nil
}

func scanUser(row pgx.Row) (*User, error) {
	var user User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.IsAdmin,
		&user.CreatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("users: scan failed: %w", err)
	}
	return &user, nil
}
