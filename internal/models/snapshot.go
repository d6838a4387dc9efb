package models

import "time"

// BondSnapshot is the merged read-only view of a bond: the bond row, the
// shared settings and both participants' latest data, flattened for the
// presentation layer. It is also what the local cache persists so a reload
// can show last-known values before the next remote fetch.
type BondSnapshot struct {
	BondName   string    `json:"bond_name"`
	BondReason string    `json:"bond_reason"`
	StartDate  time.Time `json:"start_date"`
	Theme      Theme     `json:"theme"`
	Quote      string    `json:"quote"`

	MyStatus   string `json:"my_status"`
	MyActivity string `json:"my_activity"`
	MyPlan     string `json:"my_plan"`

	PartnerStatus   string `json:"partner_status"`
	PartnerActivity string `json:"partner_activity"`
	PartnerPlan     string `json:"partner_plan"`

	// PartnerID is the other member's user id, empty until a second
	// membership is observed.
	PartnerID string `json:"partner_id,omitempty"`
}
