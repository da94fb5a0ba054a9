package model

import "time"

// Item is an anonymized good within an expedition. QuantityConsumed is
// denormalized and always equals the sum of consumed quantities across
// the item's assignments; both are updated in the same transaction.
type Item struct {
	ID               int64     `json:"id"`
	ExpeditionID     int64     `json:"expedition_id"`
	ItemCode         string    `json:"item_code"`
	EncryptedName    []byte    `json:"encrypted_name,omitempty"`
	ItemType         string    `json:"item_type,omitempty"`
	QuantityRequired int       `json:"quantity_required"`
	QuantityConsumed int       `json:"quantity_consumed"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}

// Item statuses.
const (
	ItemStatusActive   = "active"
	ItemStatusDepleted = "depleted"
	ItemStatusArchived = "archived"
)
