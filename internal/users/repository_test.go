package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRepository_CreateAndLookup(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, &User{
		Email:        "Sam@Example.com",
		Name:         "Sam",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "sam@example.com", created.Email)
	assert.False(t, created.CreatedAt.IsZero())

	byEmail, err := repo.GetByEmail(ctx, "SAM@example.COM")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sam", byID.Name)
}

func TestInMemoryRepository_DuplicateEmail(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	_, err := repo.Create(ctx, &User{Email: "sam@example.com", PasswordHash: "hash"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &User{Email: "SAM@example.com", PasswordHash: "other"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestInMemoryRepository_NotFound(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	_, err := repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestInMemoryRepository_ReturnsClones(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, &User{Email: "sam@example.com", Name: "Sam", PasswordHash: "hash"})
	require.NoError(t, err)

	created.Name = "mutated"
	fresh, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sam", fresh.Name)
}
