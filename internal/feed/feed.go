// Package feed defines the change feed: row-change events scoped to a bond,
// the subscription interface the synchronization core consumes, and the
// in-process hub the server publishes through.
package feed

import (
	"context"

	"github.com/themax-01/heartbond-moments/internal/models"
)

// Table identifies which remote table an event refers to.
type Table string

const (
	TableBonds    Table = "bonds"
	TableSettings Table = "bond_settings"
	TableData     Table = "bond_data"
)

// Kind is the type of row change.
type Kind string

const (
	KindInsert Kind = "insert"
	KindUpdate Kind = "update"
)

// Event is one row-change notification. Exactly one of Bond, Settings or
// Data is set, matching Table. Data payloads carry only the fields present
// on the row; subscribers must not treat an absent field as cleared.
type Event struct {
	Table  Table  `json:"table"`
	Kind   Kind   `json:"kind"`
	BondID string `json:"bond_id"`

	Bond     *models.Bond         `json:"bond,omitempty"`
	Settings *models.BondSettings `json:"settings,omitempty"`
	Data     *models.BondData     `json:"data,omitempty"`
}

// Source delivers change events for one bond. Subscribe returns a channel
// that is closed when the subscription ends; the returned cancel function
// tears the subscription down and must be called exactly once.
type Source interface {
	Subscribe(ctx context.Context, bondID string) (<-chan Event, func(), error)
}
