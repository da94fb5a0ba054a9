package model

import (
	"fmt"
	"time"
)

// User represents an operator account for the API layer (separate from
// pirates, which are anonymized ledger identities, not logins).
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Roles. Admins manage operator accounts, quartermasters run the
// ledger (enroll, allocate, settle), deckhands get read-only access.
const (
	RoleAdmin         = "admin"
	RoleQuartermaster = "quartermaster"
	RoleDeckhand      = "deckhand"
)

// RoleAtLeast checks if role meets or exceeds the minimum required role.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleAdmin:         3,
		RoleQuartermaster: 2,
		RoleDeckhand:      1,
	}
	return levels[role] >= levels[minimum]
}

// MinPasswordLength is the minimum operator password length.
const MinPasswordLength = 8

// ValidatePassword checks that a password meets the minimum requirements.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}
