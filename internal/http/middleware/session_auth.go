package middleware

import (
	"net/http"
	"strings"

	"github.com/leadboard/leadboard/internal/auth"
)

// RequireSession validates the session token on every request and stores
// its claims on the context. The token is read from the Authorization
// header first, then from the session cookie set at login.
func RequireSession(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, "session auth disabled", http.StatusUnauthorized)
				return
			}
			tokenString := bearerToken(r)
			if tokenString == "" {
				if cookie, err := r.Cookie(auth.SessionCookieName); err == nil {
					tokenString = cookie.Value
				}
			}
			if tokenString == "" {
				http.Error(w, "missing session token", http.StatusUnauthorized)
				return
			}
			claims, err := auth.ParseToken(secret, tokenString)
			if err != nil {
				http.Error(w, "invalid session token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.ContextWithSession(r.Context(), claims)))
		})
	}
}

// RequireAdmin allows only sessions carrying the admin claim. It must be
// mounted inside RequireSession.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.SessionFromContext(r.Context())
		if !ok {
			http.Error(w, "missing session token", http.StatusUnauthorized)
			return
		}
		if !claims.IsAdmin {
			http.Error(w, "admin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}
