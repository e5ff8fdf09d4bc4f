// Package auth issues and validates the server-side session tokens that
// correlate otherwise-stateless requests from one client.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey string

const sessionKey contextKey = "session"

// SessionCookieName is the cookie the login handler sets and the
// session middleware reads.
const SessionCookieName = "leadboard_session"

// ErrInvalidToken is returned when a session token fails validation.
var ErrInvalidToken = errors.New("auth: invalid session token")

// SessionClaims carries the authenticated user and the chat session
// identifier inside an HMAC-signed JWT.
type SessionClaims struct {
	UserID    string `json:"uid"`
	SessionID string `json:"sid"`
	IsAdmin   bool   `json:"adm,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken mints a session token for the given user. A fresh session ID is
// generated; context and pending-deletion state are keyed by it.
func IssueToken(secret, userID string, isAdmin bool, ttl time.Duration) (token string, sessionID string, err error) {
	if secret == "" {
		return "", "", errors.New("auth: session secret is required")
	}
	sessionID = uuid.NewString()
	now := time.Now().UTC()
	claims := SessionClaims{
		UserID:    userID,
		SessionID: sessionID,
		IsAdmin:   isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", "", err
	}
	return signed, sessionID, nil
}

// ParseToken validates a session token and returns its claims.
func ParseToken(secret, tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ContextWithSession stores session claims on the request context.
func ContextWithSession(ctx context.Context, claims *SessionClaims) context.Context {
	return context.WithValue(ctx, sessionKey, claims)
}

// SessionFromContext returns the session claims if present.
func SessionFromContext(ctx context.Context) (*SessionClaims, bool) {
	claims, ok := ctx.Value(sessionKey).(*SessionClaims)
	return claims, ok && claims != nil
}
