package auth

import (
	"testing"
	"time"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("super-secret")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}

	if err := CheckPassword(hash, "super-secret"); err != nil {
		t.Fatalf("expected password to match, got %v", err)
	}

	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Fatal("expected mismatch error")
	}
}

func TestGenerateAndParseToken(t *testing.T) {
	secret := "test-secret"
	claims := Claims{UserID: "u1", Role: RoleEmployee, EmployeeID: "e1", SessionID: "s1"}

	token, err := GenerateToken(secret, claims, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	parsed, err := ParseToken(secret, token)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if parsed.UserID != claims.UserID || parsed.Role != claims.Role || parsed.EmployeeID != claims.EmployeeID || parsed.SessionID != claims.SessionID {
		t.Fatalf("claims mismatch: %+v", parsed)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret-a", Claims{UserID: "u1", Role: RoleAdmin}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	if _, err := ParseToken("secret-b", token); err == nil {
		t.Fatal("expected wrong-secret token to fail")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "u1", Role: RoleAdmin}, -time.Minute)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	if _, err := ParseToken("secret", token); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestOpaqueTokenHashing(t *testing.T) {
	token, err := NewOpaqueToken()
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	other, err := NewOpaqueToken()
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if token == other {
		t.Fatal("expected distinct tokens")
	}

	if HashToken(token) != HashToken(token) {
		t.Fatal("hash must be deterministic")
	}
	if HashToken(token) == HashToken(other) {
		t.Fatal("distinct tokens must hash differently")
	}
}
