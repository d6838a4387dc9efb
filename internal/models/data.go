package models

import (
	"fmt"
	"time"
)

// Field names one of the per-user free-text fields on a BondData row.
type Field string

const (
	FieldStatus   Field = "status"
	FieldActivity Field = "activity"
	FieldPlan     Field = "plan"
)

// Valid reports whether f is one of the known fields.
func (f Field) Valid() bool {
	switch f {
	case FieldStatus, FieldActivity, FieldPlan:
		return true
	}
	return false
}

// BondData is an append-style per-user record. The current value of a field
// is the most recently updated row, per user and per field, where that field
// is non-null. Rows are never deleted.
type BondData struct {
	// ID is the unique identifier for the row (UUID format).
	ID string `json:"id"`

	// BondID is the bond this row belongs to.
	BondID string `json:"bond_id"`

	// UserID is the device user the row belongs to.
	UserID string `json:"user_id"`

	// Status, Activity and Plan are independent free-text fields.
	// A nil pointer means the field was not written on this row.
	Status   *string `json:"status,omitempty"`
	Activity *string `json:"activity,omitempty"`
	Plan     *string `json:"plan,omitempty"`

	// UpdatedAt is when the row was last written.
	UpdatedAt time.Time `json:"updated_at"`
}

// FieldValue returns the value of the named field and whether it is set.
func (d *BondData) FieldValue(f Field) (string, bool) {
	var p *string
	switch f {
	case FieldStatus:
		p = d.Status
	case FieldActivity:
		p = d.Activity
	case FieldPlan:
		p = d.Plan
	}
	if p == nil {
		return "", false
	}
	return *p, true
}

// SetField sets the named field on the row.
func (d *BondData) SetField(f Field, value string) error {
	switch f {
	case FieldStatus:
		d.Status = &value
	case FieldActivity:
		d.Activity = &value
	case FieldPlan:
		d.Plan = &value
	default:
		return fmt.Errorf("unknown field %q", f)
	}
	return nil
}
