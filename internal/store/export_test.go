package store

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/zanlubej/gusar/internal/codec"
	"github.com/zanlubej/gusar/internal/db"
)

func TestExportImportRoundTrip(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	exp := newTestExpedition(t, database, "Treasure Run")
	EnrollPirate(ctx, database, exp.ID, "Alice", "Captain Redbeard")
	bob, _ := EnrollPirate(ctx, database, exp.ID, "Bob", "Gunner Saltdog")
	item, _ := EnrollItem(ctx, database, exp.ID, "Rum Barrel", "barrel-01", "provisions", 10)

	a, _ := Allocate(ctx, database, bob.ID, item.ID, 4, 10)
	RecordConsumption(ctx, database, a.ID, 2)
	ApplyPayment(ctx, database, a.ID, 15, "installment")

	blob, err := ExportExpedition(ctx, database, exp.ID)
	if err != nil {
		t.Fatalf("ExportExpedition: %v", err)
	}
	if len(blob) == 0 {
		t.Fatal("expected non-empty export blob")
	}
	if bytes.Contains(blob, []byte("Alice")) || bytes.Contains(blob, []byte("Bob")) {
		t.Error("export blob contains plaintext identities")
	}

	// Restore into a fresh expedition.
	target := newTestExpedition(t, database, "Restored Run")
	if err := ImportExpedition(ctx, database, target.ID, blob); err != nil {
		t.Fatalf("ImportExpedition: %v", err)
	}

	pirates, _ := ListPirates(ctx, database, target.ID, "")
	if len(pirates) != 2 {
		t.Fatalf("expected 2 restored pirates, got %d", len(pirates))
	}

	items, _ := ListItems(ctx, database, target.ID, "")
	if len(items) != 1 {
		t.Fatalf("expected 1 restored item, got %d", len(items))
	}
	if items[0].QuantityConsumed != 2 {
		t.Errorf("expected restored consumption 2, got %d", items[0].QuantityConsumed)
	}

	assignments, _ := ListAssignments(ctx, database, target.ID, 0, 0)
	if len(assignments) != 1 {
		t.Fatalf("expected 1 restored assignment, got %d", len(assignments))
	}
	ra := assignments[0]
	if ra.PirateName != "Gunner Saltdog" || ra.ItemCode != "barrel-01" {
		t.Errorf("restored assignment links %q/%q", ra.PirateName, ra.ItemCode)
	}
	if ra.TotalCost != 40 || ra.ConsumedQuantity != 2 {
		t.Errorf("restored assignment state: cost %d, consumed %d", ra.TotalCost, ra.ConsumedQuantity)
	}

	payments, _ := ListPayments(ctx, database, ra.ID)
	if len(payments) != 1 || payments[0].Amount != 15 {
		t.Fatalf("expected 1 restored payment of 15, got %+v", payments)
	}

	// Restored ciphertexts still decrypt under the original key.
	results, err := BulkDecrypt(ctx, database, target.ID, exp.OwnerKey)
	if err != nil {
		t.Fatalf("BulkDecrypt: %v", err)
	}
	var found bool
	for _, r := range results {
		if r.PirateName == "Gunner Saltdog" {
			found = true
			if r.Identity != "Bob" || r.Err != nil {
				t.Errorf("restored identity: %q, %v", r.Identity, r.Err)
			}
		}
	}
	if !found {
		t.Error("restored pirate missing from bulk decrypt")
	}
}

func TestExportDeterministic(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	exp := newTestExpedition(t, database, "Treasure Run")
	EnrollPirate(ctx, database, exp.ID, "Alice", "Captain Redbeard")
	EnrollItem(ctx, database, exp.ID, "", "barrel-01", "", 5)

	b1, err := ExportExpedition(ctx, database, exp.ID)
	if err != nil {
		t.Fatalf("ExportExpedition: %v", err)
	}
	b2, err := ExportExpedition(ctx, database, exp.ID)
	if err != nil {
		t.Fatalf("ExportExpedition: %v", err)
	}

	if !bytes.Equal(b1, b2) {
		t.Error("identical state must export to identical bytes")
	}
}

func TestImportIntoNonEmptyExpedition(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	exp := newTestExpedition(t, database, "Treasure Run")
	EnrollPirate(ctx, database, exp.ID, "", "Captain Redbeard")
	blob, _ := ExportExpedition(ctx, database, exp.ID)

	target := newTestExpedition(t, database, "Busy Run")
	EnrollPirate(ctx, database, target.ID, "", "Lookout Squall")

	if err := ImportExpedition(ctx, database, target.ID, blob); !errors.Is(err, ErrExpeditionNotEmpty) {
		t.Errorf("expected ErrExpeditionNotEmpty, got %v", err)
	}
}

func TestImportGarbage(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	target := newTestExpedition(t, database, "Target Run")
	if err := ImportExpedition(ctx, database, target.ID, []byte("not cbor at all")); err == nil {
		t.Error("expected garbage blob to be rejected")
	}
}

func TestImportOversubscribedItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	exp := newTestExpedition(t, database, "Treasure Run")
	bob, _ := EnrollPirate(ctx, database, exp.ID, "Bob", "Gunner Saltdog")
	item, _ := EnrollItem(ctx, database, exp.ID, "", "barrel-01", "", 10)
	Allocate(ctx, database, bob.ID, item.ID, 4, 10)

	data, err := ExportExpedition(ctx, database, exp.ID)
	if err != nil {
		t.Fatalf("ExportExpedition: %v", err)
	}

	// Inflate the assignment past the item's requirement.
	var blob exportBlob
	if err := codec.Unmarshal(data, &blob); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	blob.Assignments[0].AssignedQuantity = 11
	tampered, err := codec.Marshal(blob)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	target := newTestExpedition(t, database, "Restored Run")
	if err := ImportExpedition(ctx, database, target.ID, tampered); !errors.Is(err, ErrInvalidExport) {
		t.Errorf("expected ErrInvalidExport for oversubscribed item, got %v", err)
	}
}

func TestImportOverpaidAssignment(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	exp := newTestExpedition(t, database, "Treasure Run")
	bob, _ := EnrollPirate(ctx, database, exp.ID, "Bob", "Gunner Saltdog")
	item, _ := EnrollItem(ctx, database, exp.ID, "", "barrel-01", "", 10)
	a, _ := Allocate(ctx, database, bob.ID, item.ID, 4, 10)
	ApplyPayment(ctx, database, a.ID, 15, "")

	data, err := ExportExpedition(ctx, database, exp.ID)
	if err != nil {
		t.Fatalf("ExportExpedition: %v", err)
	}

	var blob exportBlob
	if err := codec.Unmarshal(data, &blob); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	blob.Payments[0].Amount = blob.Assignments[0].TotalCost + 1
	tampered, err := codec.Marshal(blob)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	target := newTestExpedition(t, database, "Restored Run")
	if err := ImportExpedition(ctx, database, target.ID, tampered); !errors.Is(err, ErrInvalidExport) {
		t.Errorf("expected ErrInvalidExport for overpaid assignment, got %v", err)
	}
}

func TestExportMissingExpedition(t *testing.T) {
	database := db.NewTestDB(t)

	if _, err := ExportExpedition(context.Background(), database, 9999); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDigestSurvivesExport(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	exp := newTestExpedition(t, database, "Treasure Run")
	EnrollPirate(ctx, database, exp.ID, "Bob", "")
	blob, _ := ExportExpedition(ctx, database, exp.ID)

	target := newTestExpedition(t, database, "Restored Run")
	if err := ImportExpedition(ctx, database, target.ID, blob); err != nil {
		t.Fatalf("ImportExpedition: %v", err)
	}

	// The restored digest still guards against re-enrolling the same
	// plaintext person, but only under the original key. The target has
	// its own key, so the digest differs and Bob can be enrolled.
	pirates, _ := ListPirates(ctx, database, target.ID, "")
	if len(pirates) != 1 || pirates[0].IdentityDigest == "" {
		t.Fatal("expected restored pirate with identity digest")
	}
}
