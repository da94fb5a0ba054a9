package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zanlubej/gusar/internal/keyring"
	"github.com/zanlubej/gusar/internal/metrics"
	"github.com/zanlubej/gusar/internal/model"
	"github.com/zanlubej/gusar/internal/namegen"
	"github.com/zanlubej/gusar/internal/vault"
)

// EnrollItem creates an anonymized good in an expedition. If itemCode
// is empty a code is generated, retried on collision. A non-empty
// realName is encrypted under the expedition key; quantityRequired is
// the total available for allocation and must not be negative.
func EnrollItem(ctx context.Context, db *sql.DB, expeditionID int64, realName, itemCode, itemType string, quantityRequired int) (*model.Item, error) {
	if quantityRequired < 0 {
		return nil, ErrNegativeQuantity
	}

	var encrypted []byte
	if realName != "" {
		key, err := keyring.Resolve(ctx, db, expeditionID)
		if err != nil {
			return nil, err
		}
		encrypted, err = vault.Encrypt(key, []byte(realName))
		if err != nil {
			return nil, fmt.Errorf("encrypting item name: %w", err)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	status, err := expeditionStatusTx(ctx, tx, expeditionID)
	if err != nil {
		return nil, err
	}
	if status != model.ExpeditionStatusActive {
		return nil, ErrExpeditionCompleted
	}

	if itemCode == "" {
		itemCode, err = generateItemCodeTx(ctx, tx, expeditionID)
		if err != nil {
			return nil, err
		}
	} else {
		taken, err := itemCodeTakenTx(ctx, tx, expeditionID, itemCode)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrDuplicateItemCode
		}
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO items (expedition_id, item_code, encrypted_name, item_type, quantity_required)
		 VALUES (?, ?, ?, ?, ?)`,
		expeditionID, itemCode, encrypted, itemType, quantityRequired,
	)
	if err != nil {
		return nil, fmt.Errorf("enrolling item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item enrollment: %w", err)
	}

	metrics.OperationsTotal.WithLabelValues("enroll_item").Inc()
	id, _ := result.LastInsertId()
	return GetItem(ctx, db, id)
}

func generateItemCodeTx(ctx context.Context, tx *sql.Tx, expeditionID int64) (string, error) {
	for range namegen.MaxAttempts {
		candidate, err := namegen.ItemCode()
		if err != nil {
			return "", fmt.Errorf("generating item code: %w", err)
		}
		taken, err := itemCodeTakenTx(ctx, tx, expeditionID, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", ErrNameGenerationExhausted
}

func itemCodeTakenTx(ctx context.Context, tx *sql.Tx, expeditionID int64, code string) (bool, error) {
	var count int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items WHERE expedition_id = ? AND item_code = ?`,
		expeditionID, code,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking item code: %w", err)
	}
	return count > 0, nil
}

// GetItem returns an item by ID.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	item := &model.Item{}
	var itemType sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, expedition_id, item_code, encrypted_name, item_type,
		        quantity_required, quantity_consumed, status, created_at
		 FROM items WHERE id = ?`, id,
	).Scan(&item.ID, &item.ExpeditionID, &item.ItemCode, &item.EncryptedName, &itemType,
		&item.QuantityRequired, &item.QuantityConsumed, &item.Status, &item.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	item.ItemType = itemType.String
	return item, nil
}

// ListItems returns all items of an expedition, optionally filtered by status.
func ListItems(ctx context.Context, db *sql.DB, expeditionID int64, status string) ([]model.Item, error) {
	var rows *sql.Rows
	var err error

	if status != "" {
		rows, err = db.QueryContext(ctx,
			`SELECT id, expedition_id, item_code, encrypted_name, item_type,
			        quantity_required, quantity_consumed, status, created_at
			 FROM items WHERE expedition_id = ? AND status = ? ORDER BY item_code`,
			expeditionID, status,
		)
	} else {
		rows, err = db.QueryContext(ctx,
			`SELECT id, expedition_id, item_code, encrypted_name, item_type,
			        quantity_required, quantity_consumed, status, created_at
			 FROM items WHERE expedition_id = ? ORDER BY item_code`,
			expeditionID,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var item model.Item
		var itemType sql.NullString
		if err := rows.Scan(&item.ID, &item.ExpeditionID, &item.ItemCode, &item.EncryptedName, &itemType,
			&item.QuantityRequired, &item.QuantityConsumed, &item.Status, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		item.ItemType = itemType.String
		items = append(items, item)
	}
	return items, rows.Err()
}

// ArchiveItem marks an item archived. Archived items accept no new
// allocations; existing assignments are unaffected.
func ArchiveItem(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET status = ? WHERE id = ? AND status != ?`,
		model.ItemStatusArchived, id, model.ItemStatusArchived,
	)
	if err != nil {
		return fmt.Errorf("archiving item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ItemDecryptResult is the outcome of decrypting one item name in a
// bulk operation.
type ItemDecryptResult struct {
	ItemCode string `json:"item_code"`
	Name     string `json:"name,omitempty"`
	Err      error  `json:"-"`
}

// BulkDecryptItems decrypts the real names of every item in an
// expedition under one key, with the same per-entry failure semantics
// as BulkDecrypt.
func BulkDecryptItems(ctx context.Context, db *sql.DB, expeditionID int64, key []byte) ([]ItemDecryptResult, error) {
	items, err := ListItems(ctx, db, expeditionID, "")
	if err != nil {
		return nil, err
	}

	results := make([]ItemDecryptResult, 0, len(items))
	for i := range items {
		item := &items[i]
		res := ItemDecryptResult{ItemCode: item.ItemCode}
		if len(item.EncryptedName) > 0 {
			plaintext, err := vault.Decrypt(key, item.EncryptedName)
			if err != nil {
				metrics.DecryptFailuresTotal.Inc()
				res.Err = err
			} else {
				res.Name = string(plaintext)
			}
		}
		results = append(results, res)
	}
	return results, nil
}
