package store

import (
	"context"
	"errors"
	"testing"

	"github.com/zanlubej/gusar/internal/db"
	"github.com/zanlubej/gusar/internal/model"
	"github.com/zanlubej/gusar/internal/vault"
)

func TestEnrollPirateWithIdentity(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	exp := newTestExpedition(t, database, "Treasure Run")
	pirate, err := EnrollPirate(ctx, database, exp.ID, "Alice", "Captain Redbeard")
	if err != nil {
		t.Fatalf("EnrollPirate: %v", err)
	}
	if pirate.PirateName != "Captain Redbeard" {
		t.Errorf("expected name 'Captain Redbeard', got %q", pirate.PirateName)
	}
	if !pirate.HasIdentity() {
		t.Error("expected encrypted identity to be stored")
	}
	if pirate.Status != model.PirateStatusActive {
		t.Errorf("expected status 'active', got %q", pirate.Status)
	}

	// Round trip under the expedition key.
	identity, err := DecryptIdentity(pirate, exp.OwnerKey)
	if err != nil {
		t.Fatalf("DecryptIdentity: %v", err)
	}
	if identity != "Alice" {
		t.Errorf("expected identity 'Alice', got %q", identity)
	}

	// Wrong key must fail authentication, never return plaintext.
	wrongKey, _ := vault.NewKey()
	if _, err := DecryptIdentity(pirate, wrongKey); !errors.Is(err, vault.ErrDecrypt) {
		t.Errorf("expected ErrDecrypt with wrong key, got %v", err)
	}
}

func TestEnrollPirateGeneratedName(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	exp := newTestExpedition(t, database, "Treasure Run")
	pirate, err := EnrollPirate(ctx, database, exp.ID, "", "")
	if err != nil {
		t.Fatalf("EnrollPirate: %v", err)
	}
	if pirate.PirateName == "" {
		t.Error("expected a generated pseudonym")
	}
	if pirate.HasIdentity() {
		t.Error("pseudonym-only pirate must have no ciphertext")
	}
}

func TestEnrollPirateDuplicateName(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	exp := newTestExpedition(t, database, "Treasure Run")
	if _, err := EnrollPirate(ctx, database, exp.ID, "", "Gunner Saltdog"); err != nil {
		t.Fatalf("EnrollPirate: %v", err)
	}

	_, err := EnrollPirate(ctx, database, exp.ID, "", "Gunner Saltdog")
	if !errors.Is(err, ErrDuplicatePirateName) {
		t.Errorf("expected ErrDuplicatePirateName, got %v", err)
	}

	// Same name in another expedition is fine.
	other := newTestExpedition(t, database, "Other Run")
	if _, err := EnrollPirate(ctx, database, other.ID, "", "Gunner Saltdog"); err != nil {
		t.Errorf("expected name to be free in other expedition, got %v", err)
	}
}

func TestEnrollPirateDuplicateIdentity(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	exp := newTestExpedition(t, database, "Treasure Run")
	if _, err := EnrollPirate(ctx, database, exp.ID, "Bob", ""); err != nil {
		t.Fatalf("EnrollPirate: %v", err)
	}

	_, err := EnrollPirate(ctx, database, exp.ID, "Bob", "")
	if !errors.Is(err, ErrDuplicateIdentity) {
		t.Errorf("expected ErrDuplicateIdentity, got %v", err)
	}

	// The same person may join a different expedition.
	other := newTestExpedition(t, database, "Other Run")
	if _, err := EnrollPirate(ctx, database, other.ID, "Bob", ""); err != nil {
		t.Errorf("expected enrollment in other expedition to succeed, got %v", err)
	}
}

func TestEnrollPirateNeverPersistsPlaintext(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	exp := newTestExpedition(t, database, "Treasure Run")
	pirate, err := EnrollPirate(ctx, database, exp.ID, "Very Secret Person", "")
	if err != nil {
		t.Fatalf("EnrollPirate: %v", err)
	}

	var encrypted []byte
	var digest string
	err = database.QueryRowContext(ctx,
		`SELECT encrypted_identity, identity_digest FROM pirates WHERE id = ?`, pirate.ID,
	).Scan(&encrypted, &digest)
	if err != nil {
		t.Fatalf("reading stored row: %v", err)
	}
	if string(encrypted) == "Very Secret Person" {
		t.Error("plaintext identity was persisted")
	}
	if digest == "Very Secret Person" {
		t.Error("plaintext identity stored as digest")
	}
}

func TestRenamePirate(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	exp := newTestExpedition(t, database, "Treasure Run")
	p1, _ := EnrollPirate(ctx, database, exp.ID, "Alice", "Captain Redbeard")
	EnrollPirate(ctx, database, exp.ID, "", "Lookout Squall")

	renamed, err := RenamePirate(ctx, database, p1.ID, "Navigator Tempest")
	if err != nil {
		t.Fatalf("RenamePirate: %v", err)
	}
	if renamed.PirateName != "Navigator Tempest" {
		t.Errorf("expected new name, got %q", renamed.PirateName)
	}

	// Renaming never touches the ciphertext.
	identity, err := DecryptIdentity(renamed, exp.OwnerKey)
	if err != nil || identity != "Alice" {
		t.Errorf("identity after rename: %q, %v", identity, err)
	}

	// Rename into a taken name fails.
	if _, err := RenamePirate(ctx, database, p1.ID, "Lookout Squall"); !errors.Is(err, ErrDuplicatePirateName) {
		t.Errorf("expected ErrDuplicatePirateName, got %v", err)
	}

	if _, err := RenamePirate(ctx, database, 9999, "Ghost"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRemovePirate(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	exp := newTestExpedition(t, database, "Treasure Run")
	pirate, _ := EnrollPirate(ctx, database, exp.ID, "", "Cook Barnacle")

	if err := RemovePirate(ctx, database, pirate.ID); err != nil {
		t.Fatalf("RemovePirate: %v", err)
	}

	got, _ := GetPirate(ctx, database, pirate.ID)
	if got.Status != model.PirateStatusRemoved {
		t.Errorf("expected status 'removed', got %q", got.Status)
	}

	// Second removal reports not-found.
	if err := RemovePirate(ctx, database, pirate.ID); err != ErrNotFound {
		t.Errorf("expected ErrNotFound on second removal, got %v", err)
	}
}

func TestRemovePirateWithOpenAssignment(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	exp := newTestExpedition(t, database, "Treasure Run")
	pirate, _ := EnrollPirate(ctx, database, exp.ID, "", "Gunner Ironfist")
	item, _ := EnrollItem(ctx, database, exp.ID, "Rum Barrel", "", "provisions", 10)
	if _, err := Allocate(ctx, database, pirate.ID, item.ID, 4, 100); err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	if err := RemovePirate(ctx, database, pirate.ID); !errors.Is(err, ErrPirateHasObligations) {
		t.Errorf("expected ErrPirateHasObligations, got %v", err)
	}
}

func TestBulkDecrypt(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	exp := newTestExpedition(t, database, "Treasure Run")
	EnrollPirate(ctx, database, exp.ID, "Alice", "Captain Redbeard")
	EnrollPirate(ctx, database, exp.ID, "Bob", "Gunner Saltdog")
	EnrollPirate(ctx, database, exp.ID, "", "Lookout Squall")

	results, err := BulkDecrypt(ctx, database, exp.ID, exp.OwnerKey)
	if err != nil {
		t.Fatalf("BulkDecrypt: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	byName := map[string]DecryptResult{}
	for _, r := range results {
		byName[r.PirateName] = r
	}
	if r := byName["Captain Redbeard"]; r.Identity != "Alice" || r.Err != nil {
		t.Errorf("Captain Redbeard: got %q, %v", r.Identity, r.Err)
	}
	if r := byName["Gunner Saltdog"]; r.Identity != "Bob" || r.Err != nil {
		t.Errorf("Gunner Saltdog: got %q, %v", r.Identity, r.Err)
	}
	if r := byName["Lookout Squall"]; r.Identity != "" || r.Err != nil {
		t.Errorf("pseudonym-only pirate: got %q, %v", r.Identity, r.Err)
	}
}

func TestBulkDecryptPartialFailure(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	exp := newTestExpedition(t, database, "Treasure Run")
	EnrollPirate(ctx, database, exp.ID, "Alice", "Captain Redbeard")

	// Simulate a ciphertext left behind by an unfinished key migration:
	// encrypted under a different historical key.
	oldKey, _ := vault.NewKey()
	stale, _ := vault.Encrypt(oldKey, []byte("Carol"))
	_, err := database.ExecContext(ctx,
		`INSERT INTO pirates (expedition_id, pirate_name, encrypted_identity, identity_digest)
		 VALUES (?, ?, ?, ?)`,
		exp.ID, "Boatswain Driftwood", stale, vault.Digest(oldKey, []byte("Carol")),
	)
	if err != nil {
		t.Fatalf("inserting stale pirate: %v", err)
	}

	results, err := BulkDecrypt(ctx, database, exp.ID, exp.OwnerKey)
	if err != nil {
		t.Fatalf("BulkDecrypt: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	var ok, failed int
	for _, r := range results {
		if r.Err != nil {
			if !errors.Is(r.Err, vault.ErrDecrypt) {
				t.Errorf("expected ErrDecrypt, got %v", r.Err)
			}
			failed++
		} else {
			ok++
		}
	}
	if ok != 1 || failed != 1 {
		t.Errorf("expected 1 success and 1 failure, got %d/%d", ok, failed)
	}
}
