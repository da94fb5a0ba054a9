package model

import "time"

// Pirate is an anonymized participant within one expedition. The real
// identity exists only as authenticated ciphertext under the expedition
// key; IdentityDigest is a keyed hash of the plaintext used to detect
// duplicate enrollments without storing the plaintext itself.
type Pirate struct {
	ID                int64     `json:"id"`
	ExpeditionID      int64     `json:"expedition_id"`
	PirateName        string    `json:"pirate_name"`
	EncryptedIdentity []byte    `json:"encrypted_identity,omitempty"`
	IdentityDigest    string    `json:"-"`
	Status            string    `json:"status"`
	JoinedAt          time.Time `json:"joined_at"`
}

// Pirate statuses.
const (
	PirateStatusActive  = "active"
	PirateStatusRemoved = "removed"
)

// HasIdentity reports whether a real identity was ever supplied for
// this pirate. Pseudonym-only participants have no ciphertext.
func (p *Pirate) HasIdentity() bool {
	return len(p.EncryptedIdentity) > 0
}
