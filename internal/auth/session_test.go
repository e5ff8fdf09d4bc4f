package auth

import (
	"context"
	"testing"
	"time"
)

func TestIssueAndParseToken(t *testing.T) {
	token, sessionID, err := IssueToken("secret", "user-1", false, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken returned error: %v", err)
	}
	if sessionID == "" {
		t.Fatal("expected non-empty session ID")
	}

	claims, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("ParseToken returned error: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("expected user-1, got %s", claims.UserID)
	}
	if claims.SessionID != sessionID {
		t.Errorf("session ID mismatch: %s vs %s", claims.SessionID, sessionID)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, _, err := IssueToken("secret", "user-1", false, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken returned error: %v", err)
	}
	if _, err := ParseToken("other", token); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestParseTokenExpired(t *testing.T) {
	token, _, err := IssueToken("secret", "user-1", false, -time.Minute)
	if err != nil {
		t.Fatalf("IssueToken returned error: %v", err)
	}
	if _, err := ParseToken("secret", token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestIssueTokenRequiresSecret(t *testing.T) {
	if _, _, err := IssueToken("", "user-1", false, time.Hour); err == nil {
		t.Fatal("expected error for missing secret")
	}
}

func TestSessionContextRoundTrip(t *testing.T) {
	claims := &SessionClaims{UserID: "user-1", SessionID: "sess-1"}
	ctx := ContextWithSession(context.Background(), claims)

	got, ok := SessionFromContext(ctx)
	if !ok {
		t.Fatal("expected claims in context")
	}
	if got.SessionID != "sess-1" {
		t.Errorf("unexpected session ID %s", got.SessionID)
	}

	if _, ok := SessionFromContext(context.Background()); ok {
		t.Error("empty context should not contain claims")
	}
}
