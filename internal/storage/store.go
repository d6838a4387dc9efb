// Package storage provides abstractions for persistent bond storage.
package storage

import (
	"context"
	"errors"

	"github.com/themax-01/heartbond-moments/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the row-level interface to the remote bond repository.
// The server implements it on SQLite; clients implement it over the HTTP API.
// Keeping it row-level matters: the synchronization core composes these
// operations itself (e.g. the lookup-then-update-or-insert done by PushField),
// so both implementations must expose the same granularity.
type Store interface {
	// CreateBond persists a new bond. ID and StartDate are populated if
	// unset; the join code is stored uppercase.
	CreateBond(ctx context.Context, bond *models.Bond) error

	// GetBond retrieves a bond by id. Returns ErrNotFound if missing.
	GetBond(ctx context.Context, bondID string) (*models.Bond, error)

	// GetBondByCode retrieves a bond by join code, case-insensitively.
	// Returns ErrNotFound if no bond matches.
	GetBondByCode(ctx context.Context, code string) (*models.Bond, error)

	// UpdateBondTheme sets the theme of an existing bond.
	UpdateBondTheme(ctx context.Context, bondID string, theme models.Theme) error

	// AddMember persists a membership row. ID is populated if unset.
	AddMember(ctx context.Context, member *models.Membership) error

	// ListMembers returns all memberships of a bond.
	ListMembers(ctx context.Context, bondID string) ([]models.Membership, error)

	// CreateSettings persists the settings row for a bond.
	CreateSettings(ctx context.Context, settings *models.BondSettings) error

	// GetSettings retrieves the settings row of a bond.
	// Returns ErrNotFound if the bond has no settings row.
	GetSettings(ctx context.Context, bondID string) (*models.BondSettings, error)

	// UpdateQuote sets the quote on the bond's settings row and bumps its
	// updated_at. Returns the updated settings row.
	UpdateQuote(ctx context.Context, bondID, quote string) (*models.BondSettings, error)

	// InsertData appends a new data row. ID and UpdatedAt are populated
	// if unset.
	InsertData(ctx context.Context, row *models.BondData) error

	// UpdateDataField sets one field on an existing data row and bumps its
	// updated_at. Returns the updated row, or ErrNotFound.
	UpdateDataField(ctx context.Context, rowID string, field models.Field, value string) (*models.BondData, error)

	// LatestData returns the most recently updated data row for the user in
	// the bond, or (nil, nil) if the user has no rows.
	LatestData(ctx context.Context, bondID, userID string) (*models.BondData, error)

	// LatestFieldRow returns the most recently updated data row for the
	// user in the bond where the given field is non-null, or (nil, nil).
	LatestFieldRow(ctx context.Context, bondID, userID string, field models.Field) (*models.BondData, error)

	// Close releases any resources held by the store.
	Close() error
}
