package auth

import (
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("user-1", "alice", "secret")
	if err != nil {
		t.Fatalf("GenerateToken() unexpected error: %v", err)
	}

	claims, err := ValidateToken(token, "secret")
	if err != nil {
		t.Fatalf("ValidateToken() unexpected error: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("claims.UserID = %q, want %q", claims.UserID, "user-1")
	}
	if claims.Username != "alice" {
		t.Errorf("claims.Username = %q, want %q", claims.Username, "alice")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("user-1", "alice", "secret")
	if err != nil {
		t.Fatalf("GenerateToken() unexpected error: %v", err)
	}

	if _, err := ValidateToken(token, "other-secret"); err == nil {
		t.Error("ValidateToken() with wrong secret should fail")
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	if _, err := ValidateToken("not-a-token", "secret"); err == nil {
		t.Error("ValidateToken() of garbage should fail")
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	token, err := GenerateRefreshToken("user-1", "alice", "secret")
	if err != nil {
		t.Fatalf("GenerateRefreshToken() unexpected error: %v", err)
	}

	claims, err := ValidateToken(token, "secret")
	if err != nil {
		t.Fatalf("ValidateToken() unexpected error: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("claims.UserID = %q, want %q", claims.UserID, "user-1")
	}
}
