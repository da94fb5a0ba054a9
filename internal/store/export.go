package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/zanlubej/gusar/internal/codec"
	"github.com/zanlubej/gusar/internal/model"
)

// exportVersion identifies the blob layout. Imports refuse unknown versions.
const exportVersion = 1

// Export blob types. Rows reference each other by pseudonym rather than
// database ID so a blob can be restored into a fresh expedition without
// re-deriving anything. Ciphertexts travel as-is; the owner key and all
// plaintext stay out of the blob.
type exportBlob struct {
	Version     int                `cbor:"version"`
	Pirates     []exportPirate     `cbor:"pirates"`
	Items       []exportItem       `cbor:"items"`
	Assignments []exportAssignment `cbor:"assignments"`
	Payments    []exportPayment    `cbor:"payments"`
}

type exportPirate struct {
	PirateName        string    `cbor:"pirate_name"`
	EncryptedIdentity []byte    `cbor:"encrypted_identity,omitempty"`
	IdentityDigest    string    `cbor:"identity_digest,omitempty"`
	Status            string    `cbor:"status"`
	JoinedAt          time.Time `cbor:"joined_at"`
}

type exportItem struct {
	ItemCode         string    `cbor:"item_code"`
	EncryptedName    []byte    `cbor:"encrypted_name,omitempty"`
	ItemType         string    `cbor:"item_type,omitempty"`
	QuantityRequired int       `cbor:"quantity_required"`
	Status           string    `cbor:"status"`
	CreatedAt        time.Time `cbor:"created_at"`
}

type exportAssignment struct {
	PirateName       string    `cbor:"pirate_name"`
	ItemCode         string    `cbor:"item_code"`
	AssignedQuantity int       `cbor:"assigned_quantity"`
	ConsumedQuantity int       `cbor:"consumed_quantity"`
	UnitPrice        int64     `cbor:"unit_price"`
	TotalCost        int64     `cbor:"total_cost"`
	Status           string    `cbor:"status"`
	PaymentStatus    string    `cbor:"payment_status"`
	CreatedAt        time.Time `cbor:"created_at"`
}

type exportPayment struct {
	// Assignment is the index into the blob's Assignments slice.
	Assignment  int       `cbor:"assignment"`
	Amount      int64     `cbor:"amount"`
	Status      string    `cbor:"status"`
	ProcessedAt time.Time `cbor:"processed_at"`
	Notes       string    `cbor:"notes,omitempty"`
}

// ExportExpedition serializes the full pseudonym mapping and ledger
// state of one expedition into a single CBOR blob for backup. Item
// consumption totals are not exported separately; they are rebuilt from
// assignment rows on import.
func ExportExpedition(ctx context.Context, db *sql.DB, expeditionID int64) ([]byte, error) {
	exp, err := GetExpedition(ctx, db, expeditionID)
	if err != nil {
		return nil, err
	}
	if exp == nil {
		return nil, ErrNotFound
	}

	blob := exportBlob{Version: exportVersion}

	pirates, err := ListPirates(ctx, db, expeditionID, "")
	if err != nil {
		return nil, err
	}
	for _, p := range pirates {
		blob.Pirates = append(blob.Pirates, exportPirate{
			PirateName:        p.PirateName,
			EncryptedIdentity: p.EncryptedIdentity,
			IdentityDigest:    p.IdentityDigest,
			Status:            p.Status,
			JoinedAt:          p.JoinedAt,
		})
	}

	items, err := ListItems(ctx, db, expeditionID, "")
	if err != nil {
		return nil, err
	}
	for _, i := range items {
		blob.Items = append(blob.Items, exportItem{
			ItemCode:         i.ItemCode,
			EncryptedName:    i.EncryptedName,
			ItemType:         i.ItemType,
			QuantityRequired: i.QuantityRequired,
			Status:           i.Status,
			CreatedAt:        i.CreatedAt,
		})
	}

	assignments, err := ListAssignments(ctx, db, expeditionID, 0, 0)
	if err != nil {
		return nil, err
	}
	assignmentIndex := make(map[int64]int, len(assignments))
	for idx, a := range assignments {
		assignmentIndex[a.ID] = idx
		blob.Assignments = append(blob.Assignments, exportAssignment{
			PirateName:       a.PirateName,
			ItemCode:         a.ItemCode,
			AssignedQuantity: a.AssignedQuantity,
			ConsumedQuantity: a.ConsumedQuantity,
			UnitPrice:        a.UnitPrice,
			TotalCost:        a.TotalCost,
			Status:           a.Status,
			PaymentStatus:    a.PaymentStatus,
			CreatedAt:        a.CreatedAt,
		})
	}

	for _, a := range assignments {
		payments, err := ListPayments(ctx, db, a.ID)
		if err != nil {
			return nil, err
		}
		for _, p := range payments {
			blob.Payments = append(blob.Payments, exportPayment{
				Assignment:  assignmentIndex[p.AssignmentID],
				Amount:      p.Amount,
				Status:      p.Status,
				ProcessedAt: p.ProcessedAt,
				Notes:       p.Notes,
			})
		}
	}

	data, err := codec.Marshal(blob)
	if err != nil {
		return nil, fmt.Errorf("encoding export blob: %w", err)
	}
	return data, nil
}

// ImportExpedition restores an export blob into an existing, empty
// expedition in one transaction. The target keeps its own owner key;
// restored ciphertexts only decrypt under the key of the expedition
// they were exported from, which the caller must still hold.
func ImportExpedition(ctx context.Context, db *sql.DB, expeditionID int64, data []byte) error {
	var blob exportBlob
	if err := codec.Unmarshal(data, &blob); err != nil {
		return fmt.Errorf("decoding failed: %w", ErrInvalidExport)
	}
	if blob.Version != exportVersion {
		return fmt.Errorf("unsupported export version %d: %w", blob.Version, ErrInvalidExport)
	}

	for _, p := range blob.Payments {
		if p.Assignment < 0 || p.Assignment >= len(blob.Assignments) {
			return fmt.Errorf("payment references assignment %d of %d: %w", p.Assignment, len(blob.Assignments), ErrInvalidExport)
		}
	}

	// The blob must satisfy the same cross-row bounds the live store
	// enforces; the schema CHECKs only cover single rows.
	required := make(map[string]int, len(blob.Items))
	for _, i := range blob.Items {
		required[i.ItemCode] = i.QuantityRequired
	}
	assigned := make(map[string]int, len(blob.Items))
	for _, a := range blob.Assignments {
		assigned[a.ItemCode] += a.AssignedQuantity
	}
	for code, total := range assigned {
		if total > required[code] {
			return fmt.Errorf("item %q assigned %d of %d required: %w",
				code, total, required[code], ErrInvalidExport)
		}
	}

	paid := make([]int64, len(blob.Assignments))
	for _, p := range blob.Payments {
		if p.Status == model.PaymentRecordCompleted {
			paid[p.Assignment] += p.Amount
		}
	}
	for idx, total := range paid {
		if total > blob.Assignments[idx].TotalCost {
			return fmt.Errorf("assignment %d paid %d of %d total cost: %w",
				idx, total, blob.Assignments[idx].TotalCost, ErrInvalidExport)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := expeditionStatusTx(ctx, tx, expeditionID); err != nil {
		return err
	}

	var existing int
	err = tx.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM pirates WHERE expedition_id = ?)
		      + (SELECT COUNT(*) FROM items WHERE expedition_id = ?)`,
		expeditionID, expeditionID,
	).Scan(&existing)
	if err != nil {
		return fmt.Errorf("checking target expedition: %w", err)
	}
	if existing > 0 {
		return ErrExpeditionNotEmpty
	}

	pirateIDs := make(map[string]int64, len(blob.Pirates))
	for _, p := range blob.Pirates {
		digest := sql.NullString{String: p.IdentityDigest, Valid: p.IdentityDigest != ""}
		result, err := tx.ExecContext(ctx,
			`INSERT INTO pirates (expedition_id, pirate_name, encrypted_identity, identity_digest, status, joined_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			expeditionID, p.PirateName, p.EncryptedIdentity, digest, p.Status, p.JoinedAt,
		)
		if err != nil {
			return fmt.Errorf("restoring pirate %q: %w", p.PirateName, err)
		}
		id, _ := result.LastInsertId()
		pirateIDs[p.PirateName] = id
	}

	itemIDs := make(map[string]int64, len(blob.Items))
	for _, i := range blob.Items {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO items (expedition_id, item_code, encrypted_name, item_type, quantity_required, status, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			expeditionID, i.ItemCode, i.EncryptedName, i.ItemType, i.QuantityRequired, i.Status, i.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("restoring item %q: %w", i.ItemCode, err)
		}
		id, _ := result.LastInsertId()
		itemIDs[i.ItemCode] = id
	}

	assignmentIDs := make([]int64, 0, len(blob.Assignments))
	for _, a := range blob.Assignments {
		pirateID, ok := pirateIDs[a.PirateName]
		if !ok {
			return fmt.Errorf("assignment references unknown pirate %q: %w", a.PirateName, ErrInvalidExport)
		}
		itemID, ok := itemIDs[a.ItemCode]
		if !ok {
			return fmt.Errorf("assignment references unknown item %q: %w", a.ItemCode, ErrInvalidExport)
		}

		result, err := tx.ExecContext(ctx,
			`INSERT INTO assignments (expedition_id, pirate_id, item_id, assigned_quantity,
			                          consumed_quantity, unit_price, total_cost, status, payment_status, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			expeditionID, pirateID, itemID, a.AssignedQuantity,
			a.ConsumedQuantity, a.UnitPrice, a.TotalCost, a.Status, a.PaymentStatus, a.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("restoring assignment for %q: %w", a.PirateName, err)
		}
		id, _ := result.LastInsertId()
		assignmentIDs = append(assignmentIDs, id)

		// Rebuild the denormalized consumption total from the rows it
		// is derived from.
		if a.ConsumedQuantity > 0 {
			if _, err := tx.ExecContext(ctx,
				`UPDATE items SET quantity_consumed = quantity_consumed + ? WHERE id = ?`,
				a.ConsumedQuantity, itemID,
			); err != nil {
				return fmt.Errorf("restoring item consumption: %w", err)
			}
		}
	}

	for _, p := range blob.Payments {
		assignmentID := assignmentIDs[p.Assignment]
		var pirateID int64
		err := tx.QueryRowContext(ctx,
			`SELECT pirate_id FROM assignments WHERE id = ?`, assignmentID,
		).Scan(&pirateID)
		if err != nil {
			return fmt.Errorf("resolving restored assignment: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO payments (assignment_id, pirate_id, amount, status, processed_at, notes)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			assignmentID, pirateID, p.Amount, p.Status, p.ProcessedAt, p.Notes,
		); err != nil {
			return fmt.Errorf("restoring payment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing import: %w", err)
	}
	return nil
}
