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

// EnrollPirate creates an anonymized participant in an expedition. If
// pirateName is empty a pseudonym is generated, retried on collision up
// to namegen.MaxAttempts. A non-empty realIdentity is encrypted under
// the expedition key before storage; the plaintext is never persisted.
// A keyed digest of the plaintext detects duplicate enrollments of the
// same person within one expedition.
//
// The key is resolved before the write transaction opens, so no lock is
// held across key resolution.
func EnrollPirate(ctx context.Context, db *sql.DB, expeditionID int64, realIdentity, pirateName string) (*model.Pirate, error) {
	var encrypted []byte
	var digest sql.NullString
	if realIdentity != "" {
		key, err := keyring.Resolve(ctx, db, expeditionID)
		if err != nil {
			return nil, err
		}
		encrypted, err = vault.Encrypt(key, []byte(realIdentity))
		if err != nil {
			return nil, fmt.Errorf("encrypting identity: %w", err)
		}
		digest = sql.NullString{String: vault.Digest(key, []byte(realIdentity)), Valid: true}
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

	if digest.Valid {
		taken, err := pirateDigestTakenTx(ctx, tx, expeditionID, digest.String)
		if err != nil {
			return nil, err
		}
		if taken {
			metrics.RejectionsTotal.WithLabelValues("duplicate_identity").Inc()
			return nil, ErrDuplicateIdentity
		}
	}

	if pirateName == "" {
		pirateName, err = generatePirateNameTx(ctx, tx, expeditionID)
		if err != nil {
			return nil, err
		}
	} else {
		taken, err := pirateNameTakenTx(ctx, tx, expeditionID, pirateName)
		if err != nil {
			return nil, err
		}
		if taken {
			metrics.RejectionsTotal.WithLabelValues("duplicate_pirate_name").Inc()
			return nil, ErrDuplicatePirateName
		}
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO pirates (expedition_id, pirate_name, encrypted_identity, identity_digest)
		 VALUES (?, ?, ?, ?)`,
		expeditionID, pirateName, encrypted, digest,
	)
	if err != nil {
		return nil, fmt.Errorf("enrolling pirate: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing enrollment: %w", err)
	}

	metrics.OperationsTotal.WithLabelValues("enroll_pirate").Inc()
	id, _ := result.LastInsertId()
	return GetPirate(ctx, db, id)
}

// generatePirateNameTx draws random pseudonyms until one is free in the
// expedition or the attempt budget runs out.
func generatePirateNameTx(ctx context.Context, tx *sql.Tx, expeditionID int64) (string, error) {
	for range namegen.MaxAttempts {
		candidate, err := namegen.PirateName()
		if err != nil {
			return "", fmt.Errorf("generating pirate name: %w", err)
		}
		taken, err := pirateNameTakenTx(ctx, tx, expeditionID, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", ErrNameGenerationExhausted
}

func pirateNameTakenTx(ctx context.Context, tx *sql.Tx, expeditionID int64, name string) (bool, error) {
	var count int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pirates WHERE expedition_id = ? AND pirate_name = ?`,
		expeditionID, name,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking pirate name: %w", err)
	}
	return count > 0, nil
}

func pirateDigestTakenTx(ctx context.Context, tx *sql.Tx, expeditionID int64, digest string) (bool, error) {
	var count int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pirates WHERE expedition_id = ? AND identity_digest = ?`,
		expeditionID, digest,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking identity digest: %w", err)
	}
	return count > 0, nil
}

// GetPirate returns a pirate by ID.
func GetPirate(ctx context.Context, db *sql.DB, id int64) (*model.Pirate, error) {
	p := &model.Pirate{}
	var digest sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, expedition_id, pirate_name, encrypted_identity, identity_digest, status, joined_at
		 FROM pirates WHERE id = ?`, id,
	).Scan(&p.ID, &p.ExpeditionID, &p.PirateName, &p.EncryptedIdentity, &digest, &p.Status, &p.JoinedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting pirate: %w", err)
	}
	p.IdentityDigest = digest.String
	return p, nil
}

// ListPirates returns all pirates of an expedition, optionally filtered
// by status, ordered by join time.
func ListPirates(ctx context.Context, db *sql.DB, expeditionID int64, status string) ([]model.Pirate, error) {
	var rows *sql.Rows
	var err error

	if status != "" {
		rows, err = db.QueryContext(ctx,
			`SELECT id, expedition_id, pirate_name, encrypted_identity, identity_digest, status, joined_at
			 FROM pirates WHERE expedition_id = ? AND status = ? ORDER BY joined_at, id`,
			expeditionID, status,
		)
	} else {
		rows, err = db.QueryContext(ctx,
			`SELECT id, expedition_id, pirate_name, encrypted_identity, identity_digest, status, joined_at
			 FROM pirates WHERE expedition_id = ? ORDER BY joined_at, id`,
			expeditionID,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("listing pirates: %w", err)
	}
	defer rows.Close()

	var pirates []model.Pirate
	for rows.Next() {
		var p model.Pirate
		var digest sql.NullString
		if err := rows.Scan(&p.ID, &p.ExpeditionID, &p.PirateName, &p.EncryptedIdentity, &digest, &p.Status, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("scanning pirate: %w", err)
		}
		p.IdentityDigest = digest.String
		pirates = append(pirates, p)
	}
	return pirates, rows.Err()
}

// RenamePirate changes a pirate's pseudonym. The encrypted identity is
// never touched.
func RenamePirate(ctx context.Context, db *sql.DB, pirateID int64, newName string) (*model.Pirate, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var expeditionID int64
	err = tx.QueryRowContext(ctx,
		`SELECT expedition_id FROM pirates WHERE id = ?`, pirateID,
	).Scan(&expeditionID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting pirate: %w", err)
	}

	taken, err := pirateNameTakenTx(ctx, tx, expeditionID, newName)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicatePirateName
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE pirates SET pirate_name = ? WHERE id = ?`, newName, pirateID,
	); err != nil {
		return nil, fmt.Errorf("renaming pirate: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing rename: %w", err)
	}

	return GetPirate(ctx, db, pirateID)
}

// RemovePirate soft-removes a pirate. Removal is refused while the
// pirate still has assignments that are not fully consumed and paid;
// the row itself is never deleted, since assignments reference it.
func RemovePirate(ctx context.Context, db *sql.DB, pirateID int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM pirates WHERE id = ?`, pirateID,
	).Scan(&status)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("getting pirate: %w", err)
	}
	if status == model.PirateStatusRemoved {
		return ErrNotFound
	}

	var open int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM assignments
		 WHERE pirate_id = ? AND NOT (status = ? AND payment_status = ?)`,
		pirateID, model.AssignmentStatusCompleted, model.PaymentStatusPaid,
	).Scan(&open)
	if err != nil {
		return fmt.Errorf("checking open assignments: %w", err)
	}
	if open > 0 {
		return ErrPirateHasObligations
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE pirates SET status = ? WHERE id = ?`,
		model.PirateStatusRemoved, pirateID,
	); err != nil {
		return fmt.Errorf("removing pirate: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing removal: %w", err)
	}
	return nil
}

// DecryptIdentity decrypts a pirate's real identity with a
// caller-supplied key. Pseudonym-only pirates yield an empty string.
func DecryptIdentity(pirate *model.Pirate, key []byte) (string, error) {
	if !pirate.HasIdentity() {
		return "", nil
	}
	plaintext, err := vault.Decrypt(key, pirate.EncryptedIdentity)
	if err != nil {
		metrics.DecryptFailuresTotal.Inc()
		return "", err
	}
	return string(plaintext), nil
}

// DecryptResult is the outcome of decrypting one record in a bulk
// operation: either Identity is set or Err explains the failure.
type DecryptResult struct {
	PirateName string `json:"pirate_name"`
	Identity   string `json:"identity,omitempty"`
	Err        error  `json:"-"`
}

// BulkDecrypt decrypts the identities of every pirate in an expedition
// under one key. Individual authentication failures are reported per
// entry instead of aborting the batch: after an unfinished key
// migration an expedition may legitimately hold ciphertexts under more
// than one historical key. Results are ordered by join time.
func BulkDecrypt(ctx context.Context, db *sql.DB, expeditionID int64, key []byte) ([]DecryptResult, error) {
	pirates, err := ListPirates(ctx, db, expeditionID, "")
	if err != nil {
		return nil, err
	}

	results := make([]DecryptResult, 0, len(pirates))
	for i := range pirates {
		p := &pirates[i]
		res := DecryptResult{PirateName: p.PirateName}
		res.Identity, res.Err = DecryptIdentity(p, key)
		results = append(results, res)
	}
	return results, nil
}
