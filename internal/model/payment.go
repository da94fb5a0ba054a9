package model

import "time"

// Payment records money paid against an assignment's total cost, in
// integer cents. PirateID duplicates the assignment's pirate for query
// convenience and always matches it. Reversed payments stay on record
// but are excluded from debt calculations.
type Payment struct {
	ID           int64     `json:"id"`
	AssignmentID int64     `json:"assignment_id"`
	PirateID     int64     `json:"pirate_id"`
	Amount       int64     `json:"amount"`
	Status       string    `json:"status"`
	ProcessedAt  time.Time `json:"processed_at"`
	Notes        string    `json:"notes,omitempty"`
}

// Payment record statuses.
const (
	PaymentRecordCompleted = "completed"
	PaymentRecordReversed  = "reversed"
)

// PirateDebt summarizes what one pirate still owes across all of their
// assignments. Per-assignment remainders are never negative.
type PirateDebt struct {
	PirateID    int64            `json:"pirate_id"`
	TotalDebt   int64            `json:"total_debt"`
	Assignments []AssignmentDebt `json:"assignments,omitempty"`
}

// AssignmentDebt is the settlement state of a single assignment.
type AssignmentDebt struct {
	AssignmentID int64  `json:"assignment_id"`
	ItemCode     string `json:"item_code,omitempty"`
	TotalCost    int64  `json:"total_cost"`
	Paid         int64  `json:"paid"`
	Remaining    int64  `json:"remaining"`
}
