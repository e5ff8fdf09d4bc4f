package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func corsProbe() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}), &called
}

func TestCORS_OriginHandling(t *testing.T) {
	cases := []struct {
		name        string
		allowed     []string
		origin      string
		wantAllowed string
	}{
		{"listed origin echoed", []string{"https://app.example.com"}, "https://app.example.com", "https://app.example.com"},
		{"unknown origin gets no headers", []string{"https://app.example.com"}, "https://evil.example.com", ""},
		{"wildcard echoes any origin", []string{"*"}, "https://anywhere.example.com", "https://anywhere.example.com"},
		{"no origin header", []string{"https://app.example.com"}, "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			inner, called := corsProbe()
			handler := CORS(tc.allowed)(inner)

			req := httptest.NewRequest(http.MethodGet, "/leads", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if !*called {
				t.Fatal("expected the inner handler to run")
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tc.wantAllowed {
				t.Errorf("allow-origin: expected %q, got %q", tc.wantAllowed, got)
			}
			if tc.wantAllowed != "" && rec.Header().Get("Access-Control-Allow-Methods") == "" {
				t.Error("expected allow-methods header on allowed origin")
			}
		})
	}
}

func TestCORS_PreflightShortCircuits(t *testing.T) {
	inner, called := corsProbe()
	handler := CORS([]string{"https://app.example.com"})(inner)

	req := httptest.NewRequest(http.MethodOptions, "/leads", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if *called {
		t.Error("preflight must not reach the inner handler")
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204 for preflight, got %d", rec.Code)
	}
}
