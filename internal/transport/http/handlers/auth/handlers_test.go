package authhandler

import (
	"testing"
	"time"

	"perftrack/internal/domain/auth"
)

func TestIssueTokenCarriesIdentity(t *testing.T) {
	h := &Handler{Secret: "unit-secret", TokenTTL: time.Hour}

	token, err := h.issueToken("user-1", "pat@example.com", auth.RoleManager, "emp-9", "sess-3")
	if err != nil {
		t.Fatalf("issueToken failed: %v", err)
	}

	claims, err := auth.ParseToken(h.Secret, token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("expected uid user-1, got %s", claims.UserID)
	}
	if claims.Subject != "pat@example.com" {
		t.Errorf("expected subject pat@example.com, got %s", claims.Subject)
	}
	if claims.Role != auth.RoleManager {
		t.Errorf("expected manager role, got %s", claims.Role)
	}
	if claims.EmployeeID != "emp-9" {
		t.Errorf("expected eid emp-9, got %s", claims.EmployeeID)
	}
	if claims.SessionID != "sess-3" {
		t.Errorf("expected sid sess-3, got %s", claims.SessionID)
	}
}

func TestIssueTokenExpiry(t *testing.T) {
	h := &Handler{Secret: "unit-secret", TokenTTL: 15 * time.Minute}

	token, err := h.issueToken("user-1", "pat@example.com", auth.RoleEmployee, "", "sess-1")
	if err != nil {
		t.Fatalf("issueToken failed: %v", err)
	}

	claims, err := auth.ParseToken(h.Secret, token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining <= 14*time.Minute || remaining > 15*time.Minute+time.Second {
		t.Fatalf("expected roughly 15m of validity, got %s", remaining)
	}
}

func TestIssueTokenRejectedByWrongSecret(t *testing.T) {
	h := &Handler{Secret: "unit-secret", TokenTTL: time.Hour}

	token, err := h.issueToken("user-1", "pat@example.com", auth.RoleAdmin, "", "sess-1")
	if err != nil {
		t.Fatalf("issueToken failed: %v", err)
	}

	if _, err := auth.ParseToken("other-secret", token); err == nil {
		t.Fatal("expected parse failure with wrong secret")
	}
}
