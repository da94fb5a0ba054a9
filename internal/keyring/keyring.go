// Package keyring resolves the decryption key for an expedition. It is
// the single source of truth for key material: callers resolve a key
// per logical operation and never cache it, so a future per-owner
// master key (or a completed key migration) changes only this package.
package keyring

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrKeyNotFound is returned when no key exists for an expedition.
var ErrKeyNotFound = errors.New("expedition key not found")

// Resolve returns the current encryption key for an expedition.
func Resolve(ctx context.Context, db *sql.DB, expeditionID int64) ([]byte, error) {
	var key []byte
	err := db.QueryRowContext(ctx,
		`SELECT owner_key FROM expeditions WHERE id = ?`, expeditionID,
	).Scan(&key)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("expedition %d: %w", expeditionID, ErrKeyNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("resolving expedition key: %w", err)
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("expedition %d: %w", expeditionID, ErrKeyNotFound)
	}
	return key, nil
}
