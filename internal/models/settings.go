package models

import "time"

// BondSettings holds the shared per-bond settings. One row is expected per
// bond (created at bond creation), though the store does not enforce it.
type BondSettings struct {
	// ID is the unique identifier for the settings row (UUID format).
	ID string `json:"id"`

	// BondID is the bond these settings belong to.
	BondID string `json:"bond_id"`

	// Quote is the shared quote text, editable by either participant.
	Quote string `json:"quote"`

	// UpdatedAt is when the quote was last changed.
	UpdatedAt time.Time `json:"updated_at"`
}
