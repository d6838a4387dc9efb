// Package localcache is the durable local snapshot store: the last-known
// bond state mirrored to disk so a restart shows data immediately, before
// the next remote fetch. It also reads the legacy flat snapshot shape from
// before remote sync existed and migrates it in place.
package localcache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/themax-01/heartbond-moments/internal/models"
)

// State is what the cache persists.
type State struct {
	// BondID and BondCode identify the remote bond; BondID empty with a
	// non-nil Snapshot means legacy local-only data.
	BondID   string               `json:"bond_id,omitempty"`
	BondCode string               `json:"bond_code,omitempty"`
	Snapshot *models.BondSnapshot `json:"snapshot,omitempty"`
}

// Cache reads and writes the snapshot file.
type Cache struct {
	path string
}

// New creates a cache at the given file path.
func New(path string) *Cache {
	return &Cache{path: path}
}

// fileShape is the on-disk form: the current envelope plus the legacy flat
// fields, so one decode handles both generations.
type fileShape struct {
	BondID   string               `json:"bond_id,omitempty"`
	BondCode string               `json:"bond_code,omitempty"`
	Snapshot *models.BondSnapshot `json:"snapshot,omitempty"`

	// Legacy flat shape (pre remote sync).
	BondName        string       `json:"bondName,omitempty"`
	BondReason      string       `json:"bondReason,omitempty"`
	BondStartDate   *time.Time   `json:"bondStartDate,omitempty"`
	CurrentTheme    models.Theme `json:"currentTheme,omitempty"`
	Quote           string       `json:"quote,omitempty"`
	MyStatus        string       `json:"myStatus,omitempty"`
	PartnerStatus   string       `json:"partnerStatus,omitempty"`
	MyActivity      string       `json:"myActivity,omitempty"`
	PartnerActivity string       `json:"partnerActivity,omitempty"`
	MyPlan          string       `json:"myPlan,omitempty"`
	PartnerPlan     string       `json:"partnerPlan,omitempty"`
}

// legacySnapshot converts the flat fields into a snapshot.
func (f *fileShape) legacySnapshot() *models.BondSnapshot {
	snap := &models.BondSnapshot{
		BondName:        f.BondName,
		BondReason:      f.BondReason,
		Theme:           f.CurrentTheme,
		Quote:           f.Quote,
		MyStatus:        f.MyStatus,
		MyActivity:      f.MyActivity,
		MyPlan:          f.MyPlan,
		PartnerStatus:   f.PartnerStatus,
		PartnerActivity: f.PartnerActivity,
		PartnerPlan:     f.PartnerPlan,
	}
	if f.BondStartDate != nil {
		snap.StartDate = *f.BondStartDate
	}
	if snap.Theme == "" {
		snap.Theme = models.ThemeSpring
	}
	if snap.Quote == "" {
		snap.Quote = models.DefaultQuote
	}
	return snap
}

// Load reads the cached state. A missing or malformed file is treated as
// absence (fresh start), never as an error: local cache corruption must not
// keep the app from starting.
func (c *Cache) Load() State {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		return State{}
	}

	var f fileShape
	if err := json.Unmarshal(raw, &f); err != nil {
		return State{}
	}

	if f.BondID != "" {
		return State{BondID: f.BondID, BondCode: f.BondCode, Snapshot: f.Snapshot}
	}
	if f.Snapshot != nil {
		return State{Snapshot: f.Snapshot}
	}
	if f.BondName != "" || f.Quote != "" || f.MyStatus != "" {
		// Legacy flat snapshot: adopt without a bond id (one-time migration).
		return State{Snapshot: f.legacySnapshot()}
	}
	return State{}
}

// Save writes the state atomically (write to temp file, then rename).
func (c *Cache) Save(state State) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	raw, err := json.MarshalIndent(fileShape{
		BondID:   state.BondID,
		BondCode: state.BondCode,
		Snapshot: state.Snapshot,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0600); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// Clear removes the cached state.
func (c *Cache) Clear() error {
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}
