package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zanlubej/gusar/internal/model"
	"github.com/zanlubej/gusar/internal/vault"
)

// CreateExpedition creates a new expedition with a freshly generated
// owner key. The key is returned on the model exactly once here;
// subsequent reads never include it.
func CreateExpedition(ctx context.Context, db *sql.DB, name string) (*model.Expedition, error) {
	key, err := vault.NewKey()
	if err != nil {
		return nil, fmt.Errorf("generating expedition key: %w", err)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO expeditions (name, owner_key) VALUES (?, ?)`,
		name, key,
	)
	if err != nil {
		return nil, fmt.Errorf("creating expedition: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting expedition id: %w", err)
	}

	exp, err := GetExpedition(ctx, db, id)
	if err != nil {
		return nil, err
	}
	exp.OwnerKey = key
	return exp, nil
}

// GetExpedition returns an expedition by ID, without its owner key.
func GetExpedition(ctx context.Context, db *sql.DB, id int64) (*model.Expedition, error) {
	e := &model.Expedition{}
	var emblemMime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, status, emblem_mime, created_at, completed_at
		 FROM expeditions WHERE id = ?`, id,
	).Scan(&e.ID, &e.Name, &e.Status, &emblemMime, &e.CreatedAt, &e.CompletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting expedition: %w", err)
	}
	e.EmblemMime = emblemMime.String
	return e, nil
}

// ListExpeditions returns all expeditions, optionally filtered by status.
func ListExpeditions(ctx context.Context, db *sql.DB, status string) ([]model.Expedition, error) {
	var rows *sql.Rows
	var err error

	if status != "" {
		rows, err = db.QueryContext(ctx,
			`SELECT id, name, status, emblem_mime, created_at, completed_at
			 FROM expeditions WHERE status = ? ORDER BY created_at DESC`, status,
		)
	} else {
		rows, err = db.QueryContext(ctx,
			`SELECT id, name, status, emblem_mime, created_at, completed_at
			 FROM expeditions ORDER BY created_at DESC`,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("listing expeditions: %w", err)
	}
	defer rows.Close()

	var expeditions []model.Expedition
	for rows.Next() {
		var e model.Expedition
		var emblemMime sql.NullString
		if err := rows.Scan(&e.ID, &e.Name, &e.Status, &emblemMime, &e.CreatedAt, &e.CompletedAt); err != nil {
			return nil, fmt.Errorf("scanning expedition: %w", err)
		}
		e.EmblemMime = emblemMime.String
		expeditions = append(expeditions, e)
	}
	return expeditions, rows.Err()
}

// CompleteExpedition marks an expedition completed. Enrollment and
// allocation are refused afterwards; consumption and settlement of
// existing assignments stay open.
func CompleteExpedition(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE expeditions SET status = ?, completed_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ?`,
		model.ExpeditionStatusCompleted, id, model.ExpeditionStatusActive,
	)
	if err != nil {
		return fmt.Errorf("completing expedition: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("completing expedition: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetExpeditionEmblem stores the processed emblem image for an expedition.
func SetExpeditionEmblem(ctx context.Context, db *sql.DB, id int64, emblem []byte, mime string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE expeditions SET emblem = ?, emblem_mime = ? WHERE id = ?`,
		emblem, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting expedition emblem: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetExpeditionEmblem returns an expedition's emblem image and MIME type.
func GetExpeditionEmblem(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var emblem []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT emblem, emblem_mime FROM expeditions WHERE id = ?`, id,
	).Scan(&emblem, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting expedition emblem: %w", err)
	}
	return emblem, mime.String, nil
}

// expeditionStatusTx reads an expedition's status inside a transaction.
func expeditionStatusTx(ctx context.Context, tx *sql.Tx, id int64) (string, error) {
	var status string
	err := tx.QueryRowContext(ctx,
		`SELECT status FROM expeditions WHERE id = ?`, id,
	).Scan(&status)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("checking expedition status: %w", err)
	}
	return status, nil
}
