package users

import "errors"

var (
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("users: user not found")
	// ErrInvalidCredentials is returned for a bad email/password pair.
	ErrInvalidCredentials = errors.New("users: invalid credentials")
	// ErrEmailTaken is returned when creating a user with an existing email.
	ErrEmailTaken = errors.New("users: email already registered")
)
