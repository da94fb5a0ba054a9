package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zanlubej/gusar/internal/metrics"
	"github.com/zanlubej/gusar/internal/model"
)

// Allocate reserves a quantity of an item for a pirate. The sum of
// assigned quantities across all of the item's assignments, including
// the new row, is recomputed inside the transaction and must not exceed
// the item's required quantity; on violation nothing is committed.
// TotalCost is frozen here and never recomputed.
func Allocate(ctx context.Context, db *sql.DB, pirateID, itemID int64, quantity int, unitPrice int64) (*model.Assignment, error) {
	if quantity <= 0 {
		return nil, ErrNonPositiveQuantity
	}
	if unitPrice < 0 {
		return nil, fmt.Errorf("unit price must not be negative")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var itemExpedition int64
	var required int
	var itemStatus string
	err = tx.QueryRowContext(ctx,
		`SELECT expedition_id, quantity_required, status FROM items WHERE id = ?`, itemID,
	).Scan(&itemExpedition, &required, &itemStatus)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	if itemStatus == model.ItemStatusArchived {
		return nil, fmt.Errorf("item is archived")
	}

	var pirateExpedition int64
	var pirateStatus string
	err = tx.QueryRowContext(ctx,
		`SELECT expedition_id, status FROM pirates WHERE id = ?`, pirateID,
	).Scan(&pirateExpedition, &pirateStatus)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting pirate: %w", err)
	}
	if pirateStatus != model.PirateStatusActive {
		return nil, fmt.Errorf("pirate is removed")
	}
	if pirateExpedition != itemExpedition {
		return nil, fmt.Errorf("pirate and item belong to different expeditions")
	}

	expStatus, err := expeditionStatusTx(ctx, tx, itemExpedition)
	if err != nil {
		return nil, err
	}
	if expStatus != model.ExpeditionStatusActive {
		return nil, ErrExpeditionCompleted
	}

	var allocated int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(assigned_quantity), 0) FROM assignments WHERE item_id = ?`, itemID,
	).Scan(&allocated)
	if err != nil {
		return nil, fmt.Errorf("summing allocations: %w", err)
	}

	if allocated+quantity > required {
		metrics.RejectionsTotal.WithLabelValues("over_allocation").Inc()
		return nil, fmt.Errorf("allocating %d of %d remaining: %w",
			quantity, required-allocated, ErrOverAllocation)
	}

	totalCost := int64(quantity) * unitPrice

	// A free allocation owes nothing, so it is born settled.
	paymentStatus := model.PaymentStatusUnpaid
	if totalCost == 0 {
		paymentStatus = model.PaymentStatusPaid
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO assignments (expedition_id, pirate_id, item_id, assigned_quantity, unit_price, total_cost, payment_status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		itemExpedition, pirateID, itemID, quantity, unitPrice, totalCost, paymentStatus,
	)
	if err != nil {
		return nil, fmt.Errorf("creating assignment: %w", err)
	}

	// Allocation exactly exhausting the pool depletes the item.
	if allocated+quantity == required && itemStatus == model.ItemStatusActive {
		if _, err := tx.ExecContext(ctx,
			`UPDATE items SET status = ? WHERE id = ?`,
			model.ItemStatusDepleted, itemID,
		); err != nil {
			return nil, fmt.Errorf("marking item depleted: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing allocation: %w", err)
	}

	metrics.OperationsTotal.WithLabelValues("allocate").Inc()
	id, _ := result.LastInsertId()
	return GetAssignment(ctx, db, id)
}

// RecordConsumption advances an assignment's consumed quantity. The
// owning item's denormalized quantity_consumed and the assignment's
// status machine (pending -> active -> completed) are updated in the
// same transaction, so the totals can never drift.
func RecordConsumption(ctx context.Context, db *sql.DB, assignmentID int64, quantity int) (*model.Assignment, error) {
	if quantity <= 0 {
		return nil, ErrNonPositiveQuantity
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var itemID int64
	var assigned, consumed int
	err = tx.QueryRowContext(ctx,
		`SELECT item_id, assigned_quantity, consumed_quantity FROM assignments WHERE id = ?`,
		assignmentID,
	).Scan(&itemID, &assigned, &consumed)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting assignment: %w", err)
	}

	if consumed+quantity > assigned {
		metrics.RejectionsTotal.WithLabelValues("over_consumption").Inc()
		return nil, fmt.Errorf("consuming %d with %d remaining: %w",
			quantity, assigned-consumed, ErrOverConsumption)
	}

	newConsumed := consumed + quantity
	newStatus := model.AssignmentStatusActive
	if newConsumed == assigned {
		newStatus = model.AssignmentStatusCompleted
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE assignments SET consumed_quantity = ?, status = ? WHERE id = ?`,
		newConsumed, newStatus, assignmentID,
	); err != nil {
		return nil, fmt.Errorf("updating assignment: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE items SET quantity_consumed = quantity_consumed + ? WHERE id = ?`,
		quantity, itemID,
	); err != nil {
		return nil, fmt.Errorf("updating item consumption: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing consumption: %w", err)
	}

	metrics.OperationsTotal.WithLabelValues("consume").Inc()
	return GetAssignment(ctx, db, assignmentID)
}

// CancelAllocation deletes a pending assignment, releasing its reserved
// quantity back to the item's pool. Only assignments with no recorded
// consumption and no completed payments can be cancelled. Cancelling an
// already-cancelled assignment reports ErrNotFound; quantity is never
// released twice.
func CancelAllocation(ctx context.Context, db *sql.DB, assignmentID int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var itemID int64
	var consumed int
	err = tx.QueryRowContext(ctx,
		`SELECT item_id, consumed_quantity FROM assignments WHERE id = ?`, assignmentID,
	).Scan(&itemID, &consumed)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("getting assignment: %w", err)
	}

	if consumed > 0 {
		metrics.RejectionsTotal.WithLabelValues("cancel_consumed").Inc()
		return ErrCannotCancelConsumed
	}

	var paid int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM payments WHERE assignment_id = ? AND status = ?`,
		assignmentID, model.PaymentRecordCompleted,
	).Scan(&paid)
	if err != nil {
		return fmt.Errorf("checking payments: %w", err)
	}
	if paid > 0 {
		return ErrCannotCancelPaid
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM assignments WHERE id = ?`, assignmentID,
	); err != nil {
		return fmt.Errorf("deleting assignment: %w", err)
	}

	// Releasing quantity reopens a depleted item.
	if _, err := tx.ExecContext(ctx,
		`UPDATE items SET status = ? WHERE id = ? AND status = ?`,
		model.ItemStatusActive, itemID, model.ItemStatusDepleted,
	); err != nil {
		return fmt.Errorf("reactivating item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing cancellation: %w", err)
	}

	metrics.OperationsTotal.WithLabelValues("cancel").Inc()
	return nil
}

// GetAssignment returns an assignment by ID, with pirate and item
// labels joined in.
func GetAssignment(ctx context.Context, db *sql.DB, id int64) (*model.Assignment, error) {
	a := &model.Assignment{}
	err := db.QueryRowContext(ctx,
		`SELECT a.id, a.expedition_id, a.pirate_id, a.item_id, a.assigned_quantity,
		        a.consumed_quantity, a.unit_price, a.total_cost, a.status, a.payment_status,
		        a.created_at, p.pirate_name, i.item_code
		 FROM assignments a
		 JOIN pirates p ON p.id = a.pirate_id
		 JOIN items i ON i.id = a.item_id
		 WHERE a.id = ?`, id,
	).Scan(&a.ID, &a.ExpeditionID, &a.PirateID, &a.ItemID, &a.AssignedQuantity,
		&a.ConsumedQuantity, &a.UnitPrice, &a.TotalCost, &a.Status, &a.PaymentStatus,
		&a.CreatedAt, &a.PirateName, &a.ItemCode)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting assignment: %w", err)
	}
	return a, nil
}

// ListAssignments returns assignments for an expedition, optionally
// filtered by pirate or item.
func ListAssignments(ctx context.Context, db *sql.DB, expeditionID, pirateID, itemID int64) ([]model.Assignment, error) {
	query := `SELECT a.id, a.expedition_id, a.pirate_id, a.item_id, a.assigned_quantity,
	                 a.consumed_quantity, a.unit_price, a.total_cost, a.status, a.payment_status,
	                 a.created_at, p.pirate_name, i.item_code
	          FROM assignments a
	          JOIN pirates p ON p.id = a.pirate_id
	          JOIN items i ON i.id = a.item_id
	          WHERE a.expedition_id = ?`
	args := []any{expeditionID}

	if pirateID > 0 {
		query += ` AND a.pirate_id = ?`
		args = append(args, pirateID)
	}
	if itemID > 0 {
		query += ` AND a.item_id = ?`
		args = append(args, itemID)
	}

	query += ` ORDER BY a.created_at, a.id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing assignments: %w", err)
	}
	defer rows.Close()

	var assignments []model.Assignment
	for rows.Next() {
		var a model.Assignment
		if err := rows.Scan(&a.ID, &a.ExpeditionID, &a.PirateID, &a.ItemID, &a.AssignedQuantity,
			&a.ConsumedQuantity, &a.UnitPrice, &a.TotalCost, &a.Status, &a.PaymentStatus,
			&a.CreatedAt, &a.PirateName, &a.ItemCode); err != nil {
			return nil, fmt.Errorf("scanning assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}
