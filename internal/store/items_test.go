package store

import (
	"context"
	"errors"
	"testing"

	"github.com/zanlubej/gusar/internal/db"
	"github.com/zanlubej/gusar/internal/model"
	"github.com/zanlubej/gusar/internal/vault"
)

func TestEnrollItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	exp := newTestExpedition(t, database, "Treasure Run")
	item, err := EnrollItem(ctx, database, exp.ID, "Rum Barrel", "barrel-01", "provisions", 10)
	if err != nil {
		t.Fatalf("EnrollItem: %v", err)
	}
	if item.ItemCode != "barrel-01" {
		t.Errorf("expected code 'barrel-01', got %q", item.ItemCode)
	}
	if item.QuantityRequired != 10 {
		t.Errorf("expected quantity 10, got %d", item.QuantityRequired)
	}
	if item.Status != model.ItemStatusActive {
		t.Errorf("expected status 'active', got %q", item.Status)
	}
	if len(item.EncryptedName) == 0 {
		t.Error("expected encrypted name to be stored")
	}
}

func TestEnrollItemGeneratedCode(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	exp := newTestExpedition(t, database, "Treasure Run")
	item, err := EnrollItem(ctx, database, exp.ID, "", "", "", 5)
	if err != nil {
		t.Fatalf("EnrollItem: %v", err)
	}
	if item.ItemCode == "" {
		t.Error("expected a generated item code")
	}
	if len(item.EncryptedName) != 0 {
		t.Error("item without a real name must have no ciphertext")
	}
}

func TestEnrollItemNegativeQuantity(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	exp := newTestExpedition(t, database, "Treasure Run")
	if _, err := EnrollItem(ctx, database, exp.ID, "", "", "", -1); !errors.Is(err, ErrNegativeQuantity) {
		t.Errorf("expected ErrNegativeQuantity, got %v", err)
	}
}

func TestEnrollItemDuplicateCode(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	exp := newTestExpedition(t, database, "Treasure Run")
	EnrollItem(ctx, database, exp.ID, "", "chest-7", "", 3)

	if _, err := EnrollItem(ctx, database, exp.ID, "", "chest-7", "", 3); !errors.Is(err, ErrDuplicateItemCode) {
		t.Errorf("expected ErrDuplicateItemCode, got %v", err)
	}
}

func TestArchiveItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	exp := newTestExpedition(t, database, "Treasure Run")
	pirate, _ := EnrollPirate(ctx, database, exp.ID, "", "Cook Keelhaul")
	item, _ := EnrollItem(ctx, database, exp.ID, "", "", "", 5)

	if err := ArchiveItem(ctx, database, item.ID); err != nil {
		t.Fatalf("ArchiveItem: %v", err)
	}

	got, _ := GetItem(ctx, database, item.ID)
	if got.Status != model.ItemStatusArchived {
		t.Errorf("expected status 'archived', got %q", got.Status)
	}

	// Archived items accept no new allocations.
	if _, err := Allocate(ctx, database, pirate.ID, item.ID, 1, 100); err == nil {
		t.Error("expected allocation against archived item to fail")
	}
}

func TestBulkDecryptItems(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	exp := newTestExpedition(t, database, "Treasure Run")
	EnrollItem(ctx, database, exp.ID, "Rum Barrel", "barrel-01", "", 10)
	EnrollItem(ctx, database, exp.ID, "", "sack-02", "", 4)

	results, err := BulkDecryptItems(ctx, database, exp.ID, exp.OwnerKey)
	if err != nil {
		t.Fatalf("BulkDecryptItems: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	byCode := map[string]ItemDecryptResult{}
	for _, r := range results {
		byCode[r.ItemCode] = r
	}
	if r := byCode["barrel-01"]; r.Name != "Rum Barrel" || r.Err != nil {
		t.Errorf("barrel-01: got %q, %v", r.Name, r.Err)
	}
	if r := byCode["sack-02"]; r.Name != "" || r.Err != nil {
		t.Errorf("unnamed item: got %q, %v", r.Name, r.Err)
	}

	// Wrong key fails per entry, not as a batch error.
	wrongKey, _ := vault.NewKey()
	results, err = BulkDecryptItems(ctx, database, exp.ID, wrongKey)
	if err != nil {
		t.Fatalf("BulkDecryptItems with wrong key: %v", err)
	}
	for _, r := range results {
		byCode[r.ItemCode] = r
	}
	if r := byCode["barrel-01"]; !errors.Is(r.Err, vault.ErrDecrypt) {
		t.Errorf("expected ErrDecrypt for named item under wrong key, got %v", r.Err)
	}
	if r := byCode["sack-02"]; r.Err != nil {
		t.Errorf("unnamed item must not fail under any key, got %v", r.Err)
	}
}
