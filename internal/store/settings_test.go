package store

import (
	"context"
	"testing"

	"github.com/zanlubej/gusar/internal/db"
)

func TestGetJWTSecretStable(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	secret, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatalf("GetJWTSecret: %v", err)
	}
	if len(secret) != 64 { // 32 bytes = 64 hex chars
		t.Fatalf("expected 64 hex chars, got %d", len(secret))
	}

	// A second call must hand back the same secret, or every session
	// would die on restart.
	again, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatalf("GetJWTSecret: %v", err)
	}
	if secret != again {
		t.Fatalf("expected stable secret, got %q then %q", secret, again)
	}
}
