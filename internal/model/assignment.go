package model

import "time"

// Assignment allocates a quantity of one item to one pirate. TotalCost
// is frozen at allocation time; later price changes never touch it.
// All money amounts are integer cents.
type Assignment struct {
	ID               int64     `json:"id"`
	ExpeditionID     int64     `json:"expedition_id"`
	PirateID         int64     `json:"pirate_id"`
	ItemID           int64     `json:"item_id"`
	AssignedQuantity int       `json:"assigned_quantity"`
	ConsumedQuantity int       `json:"consumed_quantity"`
	UnitPrice        int64     `json:"unit_price"`
	TotalCost        int64     `json:"total_cost"`
	Status           string    `json:"status"`
	PaymentStatus    string    `json:"payment_status"`
	CreatedAt        time.Time `json:"created_at"`

	// Joined fields (not always populated).
	PirateName string `json:"pirate_name,omitempty"`
	ItemCode   string `json:"item_code,omitempty"`
}

// Assignment statuses. An assignment is pending until its first
// consumption, active while partially consumed, and completed once
// consumed quantity reaches assigned quantity.
const (
	AssignmentStatusPending   = "pending"
	AssignmentStatusActive    = "active"
	AssignmentStatusCompleted = "completed"
)

// Payment statuses for an assignment.
const (
	PaymentStatusUnpaid  = "unpaid"
	PaymentStatusPartial = "partial"
	PaymentStatusPaid    = "paid"
)
