package auth

import (
	"testing"

	"github.com/google/uuid"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret"
	userID := uuid.New()

	token, err := GenerateToken(secret, userID, "AREA_MANAGER")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}

	if claims.UserID != userID {
		t.Errorf("user_id: got %s, want %s", claims.UserID, userID)
	}
	if claims.Role != "AREA_MANAGER" {
		t.Errorf("role: got %s, want AREA_MANAGER", claims.Role)
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken("secret-a", uuid.New(), "ADMIN")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err := ValidateToken("secret-b", token); err == nil {
		t.Error("expected validation to fail with wrong secret")
	}
}

func TestValidateToken_Garbage(t *testing.T) {
	if _, err := ValidateToken("secret", "not-a-jwt"); err == nil {
		t.Error("expected validation to fail for malformed token")
	}
}
