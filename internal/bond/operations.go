package bond

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/themax-01/heartbond-moments/internal/models"
	"github.com/themax-01/heartbond-moments/internal/storage"
)

// codeLength is the length of the human-shareable join code.
const codeLength = 6

const codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewBondCode generates a join code: uppercase alphanumeric, fixed length.
// Uniqueness is probabilistic; the bonds table's unique constraint catches
// the rare collision and the whole creation fails.
func NewBondCode() (string, error) {
	out := make([]byte, codeLength)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate bond code: %w", err)
		}
		out[i] = codeAlphabet[idx.Int64()]
	}
	return string(out), nil
}

// CreateBond writes the bond row, the creator's membership and the initial
// settings row. There is no rollback: if a later write fails the earlier
// rows stay behind remotely and the caller must not adopt the bond locally.
// A stale bond row with an unclaimed code is harmless.
func CreateBond(ctx context.Context, store storage.Store, userID, name, reason string, theme models.Theme, quote string) (*models.Bond, error) {
	code, err := NewBondCode()
	if err != nil {
		return nil, err
	}

	bond := &models.Bond{
		Name:      name,
		Reason:    reason,
		StartDate: time.Now().UTC(),
		Theme:     theme,
		Code:      code,
	}
	if err := store.CreateBond(ctx, bond); err != nil {
		return nil, fmt.Errorf("failed to create bond: %w", err)
	}

	member := &models.Membership{BondID: bond.ID, UserID: userID}
	if err := store.AddMember(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to add creator membership: %w", err)
	}

	settings := &models.BondSettings{BondID: bond.ID, Quote: quote}
	if err := store.CreateSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to create bond settings: %w", err)
	}

	return bond, nil
}

// JoinBond looks the bond up by code (case-insensitive) and adds the user as
// a member unless they already are one. Joining a bond you are already in
// is a no-op beyond the lookup.
func JoinBond(ctx context.Context, store storage.Store, userID, code string) (*models.Bond, error) {
	bond, err := store.GetBondByCode(ctx, strings.ToUpper(code))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("bond code not found: %w", err)
		}
		return nil, fmt.Errorf("failed to look up bond code: %w", err)
	}

	members, err := store.ListMembers(ctx, bond.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	for _, m := range members {
		if m.UserID == userID {
			return bond, nil
		}
	}

	member := &models.Membership{BondID: bond.ID, UserID: userID}
	if err := store.AddMember(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to join bond: %w", err)
	}
	return bond, nil
}

// LoadBondState reads the full remote state of a bond from the caller's
// point of view: the bond row, settings (falling back to the default quote),
// the partner identity (first membership with a different user id) and both
// participants' current field values (absent fields default to empty).
func LoadBondState(ctx context.Context, store storage.Store, bondID, userID string) (*models.BondSnapshot, error) {
	bond, err := store.GetBond(ctx, bondID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bond: %w", err)
	}

	snap := &models.BondSnapshot{
		BondName:   bond.Name,
		BondReason: bond.Reason,
		StartDate:  bond.StartDate,
		Theme:      bond.Theme,
		Quote:      models.DefaultQuote,
	}

	settings, err := store.GetSettings(ctx, bondID)
	if err == nil && settings.Quote != "" {
		snap.Quote = settings.Quote
	} else if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	members, err := store.ListMembers(ctx, bondID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	for _, m := range members {
		if m.UserID != userID {
			snap.PartnerID = m.UserID
			break
		}
	}

	// Fields live on independent rows, so each is resolved by its own
	// latest-non-null lookup. A single latest-row read would lose any field
	// whose row is older than the most recent write of another field.
	mine, err := loadFields(ctx, store, bondID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load own data: %w", err)
	}
	snap.MyStatus = mine[models.FieldStatus]
	snap.MyActivity = mine[models.FieldActivity]
	snap.MyPlan = mine[models.FieldPlan]

	if snap.PartnerID != "" {
		theirs, err := loadFields(ctx, store, bondID, snap.PartnerID)
		if err != nil {
			return nil, fmt.Errorf("failed to load partner data: %w", err)
		}
		snap.PartnerStatus = theirs[models.FieldStatus]
		snap.PartnerActivity = theirs[models.FieldActivity]
		snap.PartnerPlan = theirs[models.FieldPlan]
	}

	return snap, nil
}

// loadFields resolves each field to the value on its most recent non-null
// row for the user. Fields with no row yet are absent from the map.
func loadFields(ctx context.Context, store storage.Store, bondID, userID string) (map[models.Field]string, error) {
	out := make(map[models.Field]string, 3)
	for _, f := range []models.Field{models.FieldStatus, models.FieldActivity, models.FieldPlan} {
		row, err := store.LatestFieldRow(ctx, bondID, userID, f)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
		if row == nil {
			continue
		}
		if v, ok := row.FieldValue(f); ok {
			out[f] = v
		}
	}
	return out, nil
}

// PushField writes one field value for the user: update the most recent row
// that already carries the field, or insert a new row. Empty values are
// never pushed — clearing a field locally does not propagate.
func PushField(ctx context.Context, store storage.Store, bondID, userID string, field models.Field, value string) error {
	if value == "" {
		return nil
	}

	existing, err := store.LatestFieldRow(ctx, bondID, userID, field)
	if err != nil {
		return fmt.Errorf("failed to look up existing %s row: %w", field, err)
	}

	if existing != nil {
		if _, err := store.UpdateDataField(ctx, existing.ID, field, value); err != nil {
			return fmt.Errorf("failed to update %s: %w", field, err)
		}
		return nil
	}

	row := &models.BondData{BondID: bondID, UserID: userID}
	if err := row.SetField(field, value); err != nil {
		return err
	}
	if err := store.InsertData(ctx, row); err != nil {
		return fmt.Errorf("failed to insert %s: %w", field, err)
	}
	return nil
}

// PushQuote writes the shared quote to the bond's settings row.
func PushQuote(ctx context.Context, store storage.Store, bondID, quote string) error {
	if _, err := store.UpdateQuote(ctx, bondID, quote); err != nil {
		return fmt.Errorf("failed to push quote: %w", err)
	}
	return nil
}

// PushTheme writes the shared theme to the bond row.
func PushTheme(ctx context.Context, store storage.Store, bondID string, theme models.Theme) error {
	if err := store.UpdateBondTheme(ctx, bondID, theme); err != nil {
		return fmt.Errorf("failed to push theme: %w", err)
	}
	return nil
}
