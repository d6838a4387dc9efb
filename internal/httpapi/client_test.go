package httpapi

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/themax-01/heartbond-moments/internal/auth"
	"github.com/themax-01/heartbond-moments/internal/bond"
	"github.com/themax-01/heartbond-moments/internal/feed"
	"github.com/themax-01/heartbond-moments/internal/localcache"
	"github.com/themax-01/heartbond-moments/internal/models"
	"github.com/themax-01/heartbond-moments/internal/server"
	"github.com/themax-01/heartbond-moments/internal/storage"
	"github.com/themax-01/heartbond-moments/internal/storage/sqlite"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	srv := server.New(store, feed.NewHub(), auth.NewJWTManager("test-secret", time.Hour))
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func newTestClient(t *testing.T, ts *httptest.Server, userID string) *Client {
	t.Helper()
	client := NewClient(ts.URL)
	if err := client.Register(context.Background(), userID); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return client
}

func TestClientStoreOperations(t *testing.T) {
	ts := newTestServer(t)
	client := newTestClient(t, ts, "useraaaaaaaaaaaaaaaaaaaaaa")
	ctx := context.Background()

	t.Run("unregistered client is rejected", func(t *testing.T) {
		fresh := NewClient(ts.URL)
		if _, err := fresh.GetBond(ctx, "any"); err == nil {
			t.Error("expected error without registration")
		}
	})

	b := &models.Bond{Name: "Us", Reason: "because", Code: "k3f9qz"}
	if err := client.CreateBond(ctx, b); err != nil {
		t.Fatalf("CreateBond failed: %v", err)
	}
	if b.ID == "" || b.Code != "K3F9QZ" {
		t.Fatalf("response not folded back into bond: %+v", b)
	}

	t.Run("lookup by id and code", func(t *testing.T) {
		got, err := client.GetBond(ctx, b.ID)
		if err != nil || got.Name != "Us" {
			t.Errorf("GetBond: %v, %+v", err, got)
		}
		got, err = client.GetBondByCode(ctx, "k3f9qz")
		if err != nil || got.ID != b.ID {
			t.Errorf("GetBondByCode: %v, %+v", err, got)
		}
	})

	t.Run("not found maps to ErrNotFound", func(t *testing.T) {
		if _, err := client.GetBond(ctx, "nope"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("members", func(t *testing.T) {
		m := &models.Membership{BondID: b.ID, UserID: "useraaaaaaaaaaaaaaaaaaaaaa"}
		if err := client.AddMember(ctx, m); err != nil {
			t.Fatalf("AddMember failed: %v", err)
		}
		if m.ID == "" {
			t.Error("expected generated membership id")
		}
		members, err := client.ListMembers(ctx, b.ID)
		if err != nil || len(members) != 1 {
			t.Errorf("ListMembers: %v, %v", err, members)
		}
	})

	t.Run("settings", func(t *testing.T) {
		s := &models.BondSettings{BondID: b.ID, Quote: models.DefaultQuote}
		if err := client.CreateSettings(ctx, s); err != nil {
			t.Fatalf("CreateSettings failed: %v", err)
		}
		updated, err := client.UpdateQuote(ctx, b.ID, "always us")
		if err != nil || updated.Quote != "always us" {
			t.Errorf("UpdateQuote: %v, %+v", err, updated)
		}
		got, err := client.GetSettings(ctx, b.ID)
		if err != nil || got.Quote != "always us" {
			t.Errorf("GetSettings: %v, %+v", err, got)
		}
	})

	t.Run("data", func(t *testing.T) {
		// Absence is (nil, nil), mirroring the store contract.
		row, err := client.LatestData(ctx, b.ID, "useraaaaaaaaaaaaaaaaaaaaaa")
		if err != nil || row != nil {
			t.Fatalf("expected (nil, nil), got %+v, %v", row, err)
		}

		insert := &models.BondData{BondID: b.ID, UserID: "useraaaaaaaaaaaaaaaaaaaaaa"}
		insert.SetField(models.FieldStatus, "happy")
		if err := client.InsertData(ctx, insert); err != nil {
			t.Fatalf("InsertData failed: %v", err)
		}

		row, err = client.LatestFieldRow(ctx, b.ID, "useraaaaaaaaaaaaaaaaaaaaaa", models.FieldStatus)
		if err != nil || row == nil || row.Status == nil || *row.Status != "happy" {
			t.Fatalf("LatestFieldRow: %v, %+v", err, row)
		}

		updated, err := client.UpdateDataField(ctx, row.ID, models.FieldStatus, "calm")
		if err != nil || updated.Status == nil || *updated.Status != "calm" {
			t.Errorf("UpdateDataField: %v, %+v", err, updated)
		}
	})

	t.Run("theme", func(t *testing.T) {
		if err := client.UpdateBondTheme(ctx, b.ID, models.ThemeAutumn); err != nil {
			t.Fatalf("UpdateBondTheme failed: %v", err)
		}
		got, err := client.GetBond(ctx, b.ID)
		if err != nil || got.Theme != models.ThemeAutumn {
			t.Errorf("theme not applied: %v, %+v", err, got)
		}
	})
}

func TestFeedURL(t *testing.T) {
	cases := []struct {
		base string
		want string
	}{
		{"http://localhost:8080", "ws://localhost:8080/ws/bonds/b-1?token=tok"},
		{"https://bond.example", "wss://bond.example/ws/bonds/b-1?token=tok"},
		// An "http" inside the host name must not be rewritten.
		{"http://httpbin.example:9000", "ws://httpbin.example:9000/ws/bonds/b-1?token=tok"},
	}
	for _, tc := range cases {
		c := NewClient(tc.base)
		c.token = "tok"
		got, err := c.feedURL("b-1")
		if err != nil {
			t.Errorf("feedURL(%q) failed: %v", tc.base, err)
			continue
		}
		if got != tc.want {
			t.Errorf("feedURL(%q) = %q, want %q", tc.base, got, tc.want)
		}
	}

	c := NewClient("ftp://bond.example")
	if _, err := c.feedURL("b-1"); err == nil {
		t.Error("expected error for non-http scheme")
	}
}

func TestClientFeedSubscription(t *testing.T) {
	ts := newTestServer(t)
	client := newTestClient(t, ts, "useraaaaaaaaaaaaaaaaaaaaaa")
	ctx := context.Background()

	b := &models.Bond{Name: "Us", Code: "WSCL01"}
	if err := client.CreateBond(ctx, b); err != nil {
		t.Fatalf("CreateBond failed: %v", err)
	}

	events, cancel, err := client.Subscribe(ctx, b.ID)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer cancel()

	row := &models.BondData{BondID: b.ID, UserID: "partner0000000000000000000"}
	row.SetField(models.FieldPlan, "sunset walk")
	if err := client.InsertData(ctx, row); err != nil {
		t.Fatalf("InsertData failed: %v", err)
	}

	select {
	case ev, ok := <-events:
		if !ok {
			t.Fatal("feed closed before delivering event")
		}
		if ev.Table != feed.TableData || ev.Data == nil || ev.Data.Plan == nil || *ev.Data.Plan != "sunset walk" {
			t.Errorf("unexpected event: %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for feed event")
	}

	cancel()
	select {
	case _, ok := <-events:
		if ok {
			t.Error("expected channel close after cancel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

// TestTwoDevicesEndToEnd runs the full stack: two synchronization cores, each
// over its own API client, sharing one server. One creates, the other joins
// with a lowercase code, and edits flow both ways through the change feed.
func TestTwoDevicesEndToEnd(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	const (
		userA = "alice0000000000000000000000"
		userB = "bob000000000000000000000000"
	)

	clientA := newTestClient(t, ts, userA)
	alice := bond.NewCore(clientA, clientA, localcache.New(filepath.Join(t.TempDir(), "a.json")), userA)
	defer alice.Close()

	clientB := newTestClient(t, ts, userB)
	bob := bond.NewCore(clientB, clientB, localcache.New(filepath.Join(t.TempDir(), "b.json")), userB)
	defer bob.Close()

	code, err := alice.CreateBond(ctx, "Us", "forever", models.ThemeSummer, "")
	if err != nil {
		t.Fatalf("CreateBond failed: %v", err)
	}
	if err := bob.JoinBond(ctx, "k3f9qz"); err == nil {
		t.Fatal("expected join with wrong code to fail")
	}
	if err := bob.JoinBond(ctx, strings.ToLower(code)); err != nil {
		t.Fatalf("JoinBond failed: %v", err)
	}

	if got := bob.Snapshot(); got.BondName != "Us" || got.Theme != models.ThemeSummer {
		t.Fatalf("joiner state wrong: %+v", got)
	}
	if got := bob.PartnerID(); got != userA {
		t.Fatalf("expected partner %q, got %q", userA, got)
	}

	// Alice's edit reaches Bob through the feed.
	alice.SetMyStatus("excited")
	if err := alice.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	waitFor(t, "bob sees alice's status", func() bool {
		return bob.Snapshot().PartnerStatus == "excited"
	})

	// And the other direction.
	bob.SetMyPlan("movie night")
	if err := bob.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	waitFor(t, "alice sees bob's plan", func() bool {
		return alice.Snapshot().PartnerPlan == "movie night"
	})

	// Shared settings propagate too.
	alice.SetQuote("two hearts, one road")
	if err := alice.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	waitFor(t, "bob sees the quote", func() bool {
		return bob.Snapshot().Quote == "two hearts, one road"
	})

	// Bob breaking the bond is local-only: Alice still sees it remotely.
	bob.BreakBond()
	if bob.HasBond() {
		t.Error("bob should be unbonded")
	}
	if _, err := clientA.GetBondByCode(ctx, code); err != nil {
		t.Errorf("bond should survive bob's break: %v", err)
	}
}

func waitFor(t *testing.T, desc string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", desc)
}
