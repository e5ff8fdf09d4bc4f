package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/leadboard/leadboard/internal/auth"
	"github.com/leadboard/leadboard/pkg/logging"
)

// SessionClearer wipes session-scoped chat state when a user signs out.
type SessionClearer interface {
	Clear(ctx context.Context, sessionID string) error
}

// Handler serves the /auth endpoints.
type Handler struct {
	repo       Repository
	jwtSecret  string
	sessionTTL time.Duration
	clearer    SessionClearer
	logger     *logging.Logger
}

// NewHandler constructs the auth handler. clearer may be nil.
func NewHandler(repo Repository, jwtSecret string, sessionTTL time.Duration, clearer SessionClearer, logger *logging.Logger) *Handler {
	if repo == nil {
		panic("users: repository required")
	}
	if jwtSecret == "" {
		panic("users: jwt secret required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:       repo,
		jwtSecret:  jwtSecret,
		sessionTTL: sessionTTL,
		clearer:    clearer,
		logger:     logger.Component("auth_handler"),
	}
}

const sessionCookieName = auth.SessionCookieName

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Login verifies credentials and issues a session token. The token is
// returned in the body and also set as an HTTP-only cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		http.Error(w, "email and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.repo.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		h.logger.Error("login lookup failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if !user.CheckPassword(req.Password) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, sessionID, err := auth.IssueToken(h.jwtSecret, user.ID, user.IsAdmin, h.sessionTTL)
	if err != nil {
		h.logger.Error("token issue failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.Info("user signed in", "user_id", user.ID, "session_id", sessionID)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(loginResponse{Token: token, User: user})
}

// Logout clears the session cookie and any session-scoped chat state.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if claims, ok := auth.SessionFromContext(r.Context()); ok && h.clearer != nil {
		if err := h.clearer.Clear(r.Context(), claims.SessionID); err != nil {
			h.logger.Warn("session state clear failed", "session_id", claims.SessionID, "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// CurrentUser returns the account for the authenticated session.
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.repo.GetByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		h.logger.Error("user lookup failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(user)
}
