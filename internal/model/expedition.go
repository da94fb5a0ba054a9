package model

import "time"

// Expedition is a time-boxed collective operation that scopes all
// pseudonyms, allocations and payments. Its owner key is generated at
// creation and never changes.
type Expedition struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	OwnerKey    []byte     `json:"-"`
	Status      string     `json:"status"`
	EmblemMime  string     `json:"emblem_mime,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Expedition statuses.
const (
	ExpeditionStatusActive    = "active"
	ExpeditionStatusCompleted = "completed"
)
