package localcache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/themax-01/heartbond-moments/internal/models"
)

func TestRoundtrip(t *testing.T) {
	cache := New(filepath.Join(t.TempDir(), "state", "bond.json"))

	snap := &models.BondSnapshot{
		BondName:      "Us",
		Theme:         models.ThemeAutumn,
		Quote:         "hand in hand",
		MyStatus:      "happy",
		PartnerStatus: "excited",
		StartDate:     time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC),
		PartnerID:     "partner000000000000000000",
	}
	state := State{BondID: "bond-1", BondCode: "K3F9QZ", Snapshot: snap}
	if err := cache.Save(state); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got := cache.Load()
	if got.BondID != "bond-1" || got.BondCode != "K3F9QZ" {
		t.Errorf("unexpected identity: %+v", got)
	}
	if got.Snapshot == nil {
		t.Fatal("expected snapshot")
	}
	if got.Snapshot.BondName != snap.BondName ||
		got.Snapshot.Theme != snap.Theme ||
		got.Snapshot.Quote != snap.Quote ||
		got.Snapshot.MyStatus != snap.MyStatus ||
		got.Snapshot.PartnerStatus != snap.PartnerStatus ||
		got.Snapshot.PartnerID != snap.PartnerID {
		t.Errorf("snapshot changed across roundtrip:\n got %+v\nwant %+v", got.Snapshot, snap)
	}
	if !got.Snapshot.StartDate.Equal(snap.StartDate) {
		t.Errorf("start date changed: got %v want %v", got.Snapshot.StartDate, snap.StartDate)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cache := New(filepath.Join(t.TempDir(), "nope.json"))
	if got := cache.Load(); got.BondID != "" || got.Snapshot != nil {
		t.Errorf("expected empty state, got %+v", got)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bond.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if got := New(path).Load(); got.BondID != "" || got.Snapshot != nil {
		t.Errorf("expected empty state for malformed file, got %+v", got)
	}
}

func TestLoadLegacyFlatSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bond.json")
	legacy := `{
		"bondName": "Old Flame",
		"bondReason": "history",
		"myStatus": "nostalgic",
		"partnerPlan": "call tonight"
	}`
	if err := os.WriteFile(path, []byte(legacy), 0600); err != nil {
		t.Fatal(err)
	}

	got := New(path).Load()
	if got.BondID != "" {
		t.Errorf("legacy state must not carry a bond id, got %q", got.BondID)
	}
	snap := got.Snapshot
	if snap == nil {
		t.Fatal("expected migrated snapshot")
	}
	if snap.BondName != "Old Flame" || snap.MyStatus != "nostalgic" || snap.PartnerPlan != "call tonight" {
		t.Errorf("legacy fields not migrated: %+v", snap)
	}
	if snap.Theme != models.ThemeSpring {
		t.Errorf("expected default theme, got %q", snap.Theme)
	}
	if snap.Quote != models.DefaultQuote {
		t.Errorf("expected default quote, got %q", snap.Quote)
	}
}

func TestClear(t *testing.T) {
	cache := New(filepath.Join(t.TempDir(), "bond.json"))
	if err := cache.Save(State{BondID: "b", Snapshot: &models.BondSnapshot{}}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := cache.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if got := cache.Load(); got.BondID != "" {
		t.Errorf("expected empty state after clear, got %+v", got)
	}
	// Clearing an already-missing file is fine.
	if err := cache.Clear(); err != nil {
		t.Errorf("second Clear failed: %v", err)
	}
}
