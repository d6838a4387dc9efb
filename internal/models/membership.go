package models

// Membership associates a device user id with a bond.
// Intended usage is at most two memberships per bond, but the store does not
// enforce that; a third device joining simply becomes another member row.
type Membership struct {
	// ID is the unique identifier for the membership row (UUID format).
	ID string `json:"id"`

	// BondID is the bond this membership belongs to.
	BondID string `json:"bond_id"`

	// UserID is the device user identifier.
	UserID string `json:"user_id"`
}
