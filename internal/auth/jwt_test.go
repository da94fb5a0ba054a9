package auth

import (
	"testing"
	"time"

	"github.com/zanlubej/gusar/internal/model"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret-key"

	token, err := GenerateToken(secret, 7, "blackbeard", model.RoleQuartermaster)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}

	if claims.UserID != 7 {
		t.Errorf("expected user_id 7, got %d", claims.UserID)
	}
	if claims.Username != "blackbeard" {
		t.Errorf("expected username 'blackbeard', got %q", claims.Username)
	}
	if claims.Role != model.RoleQuartermaster {
		t.Errorf("expected quartermaster role, got %q", claims.Role)
	}
}

func TestTokenIDsAreUnique(t *testing.T) {
	// Logout revokes by JTI, so two sessions for the same crew member
	// must never share one.
	secret := "test-secret-key"
	t1, _ := GenerateToken(secret, 1, "flint", model.RoleAdmin)
	t2, _ := GenerateToken(secret, 1, "flint", model.RoleAdmin)

	c1, err := ValidateToken(secret, t1)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	c2, err := ValidateToken(secret, t2)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}

	if c1.ID == "" || c1.ID == c2.ID {
		t.Errorf("expected distinct token ids, got %q and %q", c1.ID, c2.ID)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, _ := GenerateToken("secret1", 1, "flint", model.RoleAdmin)

	_, err := ValidateToken("secret2", token)
	if err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestValidateTokenInvalid(t *testing.T) {
	_, err := ValidateToken("secret", "not-a-token")
	if err == nil {
		t.Error("expected error for invalid token")
	}
}

func TestTokenExpiry(t *testing.T) {
	secret := "test"
	token, _ := GenerateToken(secret, 1, "flint", model.RoleDeckhand)
	claims, _ := ValidateToken(secret, token)

	expiresAt := claims.ExpiresAt.Time
	expectedExpiry := time.Now().Add(TokenExpiry)

	// Should be within a few seconds.
	diff := expectedExpiry.Sub(expiresAt)
	if diff < -5*time.Second || diff > 5*time.Second {
		t.Errorf("token expiry too far from expected: diff=%v", diff)
	}
}
