package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zanlubej/gusar/internal/metrics"
	"github.com/zanlubej/gusar/internal/model"
)

// ApplyPayment records a payment against an assignment. The remaining
// debt (total cost minus completed payments) is computed inside the
// transaction; a payment above it is refused with nothing committed.
// The assignment's payment status moves to partial or paid atomically
// with the payment insertion.
func ApplyPayment(ctx context.Context, db *sql.DB, assignmentID, amount int64, notes string) (*model.Payment, error) {
	if amount <= 0 {
		return nil, ErrNonPositiveAmount
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var pirateID, totalCost int64
	err = tx.QueryRowContext(ctx,
		`SELECT pirate_id, total_cost FROM assignments WHERE id = ?`, assignmentID,
	).Scan(&pirateID, &totalCost)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting assignment: %w", err)
	}

	paid, err := paidTotalTx(ctx, tx, assignmentID)
	if err != nil {
		return nil, err
	}

	if amount > totalCost-paid {
		metrics.RejectionsTotal.WithLabelValues("payment_exceeds_debt").Inc()
		return nil, fmt.Errorf("paying %d with %d remaining: %w",
			amount, totalCost-paid, ErrPaymentExceedsDebt)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO payments (assignment_id, pirate_id, amount, notes) VALUES (?, ?, ?, ?)`,
		assignmentID, pirateID, amount, notes,
	)
	if err != nil {
		return nil, fmt.Errorf("recording payment: %w", err)
	}

	if err := setPaymentStatusTx(ctx, tx, assignmentID, totalCost, paid+amount); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing payment: %w", err)
	}

	metrics.OperationsTotal.WithLabelValues("payment").Inc()
	paymentID, _ := result.LastInsertId()
	return GetPayment(ctx, db, paymentID)
}

// ReversePayment marks a payment reversed, excluding it from debt
// calculations, and recomputes the assignment's payment status in the
// same transaction. Reversing a payment twice reports ErrNotFound.
func ReversePayment(ctx context.Context, db *sql.DB, paymentID int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var assignmentID int64
	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT assignment_id, status FROM payments WHERE id = ?`, paymentID,
	).Scan(&assignmentID, &status)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("getting payment: %w", err)
	}
	if status == model.PaymentRecordReversed {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE payments SET status = ? WHERE id = ?`,
		model.PaymentRecordReversed, paymentID,
	); err != nil {
		return fmt.Errorf("reversing payment: %w", err)
	}

	var totalCost int64
	err = tx.QueryRowContext(ctx,
		`SELECT total_cost FROM assignments WHERE id = ?`, assignmentID,
	).Scan(&totalCost)
	if err != nil {
		return fmt.Errorf("getting assignment: %w", err)
	}

	paid, err := paidTotalTx(ctx, tx, assignmentID)
	if err != nil {
		return err
	}

	if err := setPaymentStatusTx(ctx, tx, assignmentID, totalCost, paid); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing reversal: %w", err)
	}

	metrics.OperationsTotal.WithLabelValues("reverse_payment").Inc()
	return nil
}

// paidTotalTx sums completed payments for an assignment inside a transaction.
func paidTotalTx(ctx context.Context, tx *sql.Tx, assignmentID int64) (int64, error) {
	var paid int64
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE assignment_id = ? AND status = ?`,
		assignmentID, model.PaymentRecordCompleted,
	).Scan(&paid)
	if err != nil {
		return 0, fmt.Errorf("summing payments: %w", err)
	}
	return paid, nil
}

// setPaymentStatusTx derives the assignment's payment status from the
// paid total. It is only ever written alongside the payment rows it is
// derived from. An assignment with nothing owed counts as paid, so a
// free allocation never blocks settlement checks.
func setPaymentStatusTx(ctx context.Context, tx *sql.Tx, assignmentID, totalCost, paid int64) error {
	status := model.PaymentStatusUnpaid
	switch {
	case paid >= totalCost:
		status = model.PaymentStatusPaid
	case paid > 0:
		status = model.PaymentStatusPartial
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE assignments SET payment_status = ? WHERE id = ?`,
		status, assignmentID,
	); err != nil {
		return fmt.Errorf("updating payment status: %w", err)
	}
	return nil
}

// GetPayment returns a payment by ID.
func GetPayment(ctx context.Context, db *sql.DB, id int64) (*model.Payment, error) {
	p := &model.Payment{}
	var notes sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, assignment_id, pirate_id, amount, status, processed_at, notes
		 FROM payments WHERE id = ?`, id,
	).Scan(&p.ID, &p.AssignmentID, &p.PirateID, &p.Amount, &p.Status, &p.ProcessedAt, &notes)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting payment: %w", err)
	}
	p.Notes = notes.String
	return p, nil
}

// ListPayments returns all payments for an assignment, oldest first.
func ListPayments(ctx context.Context, db *sql.DB, assignmentID int64) ([]model.Payment, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, assignment_id, pirate_id, amount, status, processed_at, notes
		 FROM payments WHERE assignment_id = ? ORDER BY processed_at, id`, assignmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}
	defer rows.Close()

	var payments []model.Payment
	for rows.Next() {
		var p model.Payment
		var notes sql.NullString
		if err := rows.Scan(&p.ID, &p.AssignmentID, &p.PirateID, &p.Amount, &p.Status, &p.ProcessedAt, &notes); err != nil {
			return nil, fmt.Errorf("scanning payment: %w", err)
		}
		p.Notes = notes.String
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// DebtForPirate sums the remaining debt across all of a pirate's
// assignments, with a per-assignment breakdown. Per-assignment
// remainders are clamped at zero so an over-reversal elsewhere can
// never produce negative debt.
func DebtForPirate(ctx context.Context, db *sql.DB, pirateID int64) (*model.PirateDebt, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT a.id, i.item_code, a.total_cost,
		        COALESCE((SELECT SUM(p.amount) FROM payments p
		                  WHERE p.assignment_id = a.id AND p.status = ?), 0) AS paid
		 FROM assignments a
		 JOIN items i ON i.id = a.item_id
		 WHERE a.pirate_id = ?
		 ORDER BY a.created_at, a.id`,
		model.PaymentRecordCompleted, pirateID,
	)
	if err != nil {
		return nil, fmt.Errorf("computing pirate debt: %w", err)
	}
	defer rows.Close()

	debt := &model.PirateDebt{PirateID: pirateID}
	for rows.Next() {
		var d model.AssignmentDebt
		if err := rows.Scan(&d.AssignmentID, &d.ItemCode, &d.TotalCost, &d.Paid); err != nil {
			return nil, fmt.Errorf("scanning assignment debt: %w", err)
		}
		d.Remaining = d.TotalCost - d.Paid
		if d.Remaining < 0 {
			d.Remaining = 0
		}
		debt.TotalDebt += d.Remaining
		debt.Assignments = append(debt.Assignments, d)
	}
	return debt, rows.Err()
}
