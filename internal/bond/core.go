// Package bond implements the bond synchronization core: the single
// authoritative holder of bond state on a device. It mediates everything
// between the presentation layer and the remote repository — optimistic
// local edits, fire-and-forget pushes, change-feed reconciliation, and the
// local snapshot cache.
package bond

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/themax-01/heartbond-moments/internal/feed"
	"github.com/themax-01/heartbond-moments/internal/localcache"
	"github.com/themax-01/heartbond-moments/internal/models"
	"github.com/themax-01/heartbond-moments/internal/storage"
)

// pushTimeout bounds each remote push so a hung call cannot wedge the queue.
const pushTimeout = 10 * time.Second

// Notification reports a background sync failure to the presentation layer.
// Failures never roll back the optimistic local value.
type Notification struct {
	Op  string
	Err error
}

// Core owns the authoritative in-memory bond state.
//
// Pushes run on a single-consumer task queue, so this device's writes reach
// the store in the order they were issued. Feed events are applied on their
// own goroutine; they only ever touch the partner's fields and the shared
// settings, never this user's own editable fields (own-user events are
// filtered out), so a notification arriving mid-edit cannot clobber typing.
type Core struct {
	store  storage.Store
	feed   feed.Source
	cache  *localcache.Cache
	userID string

	mu         sync.Mutex
	bondID     string
	bondCode   string
	bondName   string
	bondReason string
	startDate  time.Time
	theme      models.Theme
	quote      string

	myStatus   string
	myActivity string
	myPlan     string

	partnerID       string
	partnerStatus   string
	partnerActivity string
	partnerPlan     string

	hasBond bool
	closed  bool

	tasks     chan task
	queueDone chan struct{}
	notes     chan Notification

	subMu       sync.Mutex
	unsubscribe func()
	feedDone    chan struct{}
}

type task struct {
	op  string
	run func(ctx context.Context) error
}

// NewCore creates a core for the given device user. The push queue starts
// immediately; call Start to load cached state and begin syncing.
func NewCore(store storage.Store, src feed.Source, cache *localcache.Cache, userID string) *Core {
	c := &Core{
		store:     store,
		feed:      src,
		cache:     cache,
		userID:    userID,
		theme:     models.ThemeSpring,
		quote:     models.DefaultQuote,
		tasks:     make(chan task, 64),
		queueDone: make(chan struct{}),
		notes:     make(chan Notification, 16),
	}
	go c.runQueue()
	return c
}

// Start restores state from the local cache. A stored bond id means the
// device is bonded: cached values show immediately and a remote reload
// follows. A legacy flat snapshot (no bond id) is adopted as-is without
// contacting the remote repository.
func (c *Core) Start(ctx context.Context) {
	st := c.cache.Load()

	switch {
	case st.BondID != "":
		c.mu.Lock()
		c.bondID = st.BondID
		c.bondCode = st.BondCode
		c.hasBond = true
		if st.Snapshot != nil {
			c.adoptSnapshotLocked(st.Snapshot)
		}
		c.mu.Unlock()

		if err := c.Reload(ctx); err != nil {
			slog.Warn("initial reload failed, serving cached state",
				"bond_id", st.BondID, "error", err)
		}
		c.resubscribe(st.BondID)

	case st.Snapshot != nil:
		c.mu.Lock()
		c.adoptSnapshotLocked(st.Snapshot)
		c.hasBond = true
		c.persistLocked()
		c.mu.Unlock()
		slog.Info("migrated legacy local snapshot")
	}
}

// Close tears down the push queue and the feed subscription. Pending pushes
// are drained first.
func (c *Core) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	close(c.tasks)
	<-c.queueDone
	c.resubscribe("")
}

// Notifications exposes background sync failures. The channel is buffered
// and never blocks the core; a reader that falls behind misses old entries.
func (c *Core) Notifications() <-chan Notification {
	return c.notes
}

// UserID returns this device's user id.
func (c *Core) UserID() string { return c.userID }

// HasBond reports whether the device has an active bond.
func (c *Core) HasBond() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasBond
}

// BondID returns the current bond id, empty if unbonded.
func (c *Core) BondID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bondID
}

// BondCode returns the join code of the current bond.
func (c *Core) BondCode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bondCode
}

// PartnerID returns the partner's user id, empty while unknown.
func (c *Core) PartnerID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.partnerID
}

// Snapshot returns a copy of the current state for rendering.
func (c *Core) Snapshot() models.BondSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Core) snapshotLocked() models.BondSnapshot {
	return models.BondSnapshot{
		BondName:        c.bondName,
		BondReason:      c.bondReason,
		StartDate:       c.startDate,
		Theme:           c.theme,
		Quote:           c.quote,
		MyStatus:        c.myStatus,
		MyActivity:      c.myActivity,
		MyPlan:          c.myPlan,
		PartnerStatus:   c.partnerStatus,
		PartnerActivity: c.partnerActivity,
		PartnerPlan:     c.partnerPlan,
		PartnerID:       c.partnerID,
	}
}

func (c *Core) adoptSnapshotLocked(s *models.BondSnapshot) {
	c.bondName = s.BondName
	c.bondReason = s.BondReason
	c.startDate = s.StartDate
	if s.Theme != "" {
		c.theme = s.Theme
	}
	if s.Quote != "" {
		c.quote = s.Quote
	}
	c.myStatus = s.MyStatus
	c.myActivity = s.MyActivity
	c.myPlan = s.MyPlan
	c.partnerStatus = s.PartnerStatus
	c.partnerActivity = s.PartnerActivity
	c.partnerPlan = s.PartnerPlan
	if s.PartnerID != "" {
		c.partnerID = s.PartnerID
	}
}

// persistLocked mirrors the full state into the local cache. Called on
// every state change while bonded, so a reload before the next remote fetch
// still shows last-known values.
func (c *Core) persistLocked() {
	if !c.hasBond {
		return
	}
	snap := c.snapshotLocked()
	err := c.cache.Save(localcache.State{
		BondID:   c.bondID,
		BondCode: c.bondCode,
		Snapshot: &snap,
	})
	if err != nil {
		slog.Warn("failed to persist local snapshot", "error", err)
	}
}

// CreateBond creates a new bond remotely and adopts it locally. On any
// remote failure nothing is adopted: the device stays unbonded.
func (c *Core) CreateBond(ctx context.Context, name, reason string, theme models.Theme, quote string) (string, error) {
	if theme == "" {
		theme = models.ThemeSpring
	}
	if quote == "" {
		quote = models.DefaultQuote
	}

	b, err := CreateBond(ctx, c.store, c.userID, name, reason, theme, quote)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.bondID = b.ID
	c.bondCode = b.Code
	c.bondName = b.Name
	c.bondReason = b.Reason
	c.startDate = b.StartDate
	c.theme = b.Theme
	c.quote = quote
	c.hasBond = true
	c.persistLocked()
	c.mu.Unlock()

	c.resubscribe(b.ID)
	slog.Info("bond created", "bond_id", b.ID, "code", b.Code)
	return b.Code, nil
}

// JoinBond joins an existing bond by code (case-insensitive) and loads its
// full state. A failed lookup or membership insert adopts nothing locally.
func (c *Core) JoinBond(ctx context.Context, code string) error {
	b, err := JoinBond(ctx, c.store, c.userID, code)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.bondID = b.ID
	c.bondCode = b.Code
	c.bondName = b.Name
	c.bondReason = b.Reason
	c.startDate = b.StartDate
	c.theme = b.Theme
	c.hasBond = true
	c.persistLocked()
	c.mu.Unlock()

	if err := c.Reload(ctx); err != nil {
		slog.Warn("post-join load failed", "bond_id", b.ID, "error", err)
	}
	c.resubscribe(b.ID)
	slog.Info("bond joined", "bond_id", b.ID)
	return nil
}

// Reload fetches the full remote state and replaces the local view.
func (c *Core) Reload(ctx context.Context) error {
	c.mu.Lock()
	bondID := c.bondID
	c.mu.Unlock()
	if bondID == "" {
		return nil
	}

	snap, err := LoadBondState(ctx, c.store, bondID, c.userID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.adoptSnapshotLocked(snap)
	c.persistLocked()
	c.mu.Unlock()
	return nil
}

// BreakBond clears local state and the cache. The remote rows are left
// untouched: breaking a bond is a local forgetting, not a remote delete.
func (c *Core) BreakBond() {
	c.resubscribe("")

	c.mu.Lock()
	c.bondID = ""
	c.bondCode = ""
	c.bondName = ""
	c.bondReason = ""
	c.startDate = time.Time{}
	c.theme = models.ThemeSpring
	c.quote = models.DefaultQuote
	c.myStatus = ""
	c.myActivity = ""
	c.myPlan = ""
	c.partnerID = ""
	c.partnerStatus = ""
	c.partnerActivity = ""
	c.partnerPlan = ""
	c.hasBond = false
	c.mu.Unlock()

	if err := c.cache.Clear(); err != nil {
		slog.Warn("failed to clear local cache", "error", err)
	}
	slog.Info("bond broken locally")
}

// SetMyStatus updates the local status and pushes it if non-empty.
func (c *Core) SetMyStatus(value string) { c.setMyField(models.FieldStatus, value) }

// SetMyActivity updates the local activity and pushes it if non-empty.
func (c *Core) SetMyActivity(value string) { c.setMyField(models.FieldActivity, value) }

// SetMyPlan updates the local plan and pushes it if non-empty.
func (c *Core) SetMyPlan(value string) { c.setMyField(models.FieldPlan, value) }

func (c *Core) setMyField(field models.Field, value string) {
	c.mu.Lock()
	switch field {
	case models.FieldStatus:
		c.myStatus = value
	case models.FieldActivity:
		c.myActivity = value
	case models.FieldPlan:
		c.myPlan = value
	}
	bondID := c.bondID
	bonded := c.hasBond && bondID != ""
	c.persistLocked()
	c.mu.Unlock()

	if bonded && value != "" {
		c.enqueue("push "+string(field), func(ctx context.Context) error {
			return PushField(ctx, c.store, bondID, c.userID, field, value)
		})
	}
}

// SetQuote updates the shared quote and pushes it if non-empty.
func (c *Core) SetQuote(value string) {
	c.mu.Lock()
	c.quote = value
	bondID := c.bondID
	bonded := c.hasBond && bondID != ""
	c.persistLocked()
	c.mu.Unlock()

	if bonded && value != "" {
		c.enqueue("push quote", func(ctx context.Context) error {
			return PushQuote(ctx, c.store, bondID, value)
		})
	}
}

// SetTheme updates the shared theme and pushes it. Unknown themes are ignored.
func (c *Core) SetTheme(theme models.Theme) {
	if !theme.Valid() {
		slog.Warn("ignoring unknown theme", "theme", theme)
		return
	}

	c.mu.Lock()
	c.theme = theme
	bondID := c.bondID
	bonded := c.hasBond && bondID != ""
	c.persistLocked()
	c.mu.Unlock()

	if bonded {
		c.enqueue("push theme", func(ctx context.Context) error {
			return PushTheme(ctx, c.store, bondID, theme)
		})
	}
}

// Flush waits until every push enqueued so far has completed.
func (c *Core) Flush(ctx context.Context) error {
	done := make(chan struct{})
	if !c.enqueueTask(task{op: "flush", run: func(context.Context) error {
		close(done)
		return nil
	}}) {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Core) enqueue(op string, run func(ctx context.Context) error) {
	c.enqueueTask(task{op: op, run: run})
}

func (c *Core) enqueueTask(t task) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.tasks <- t:
		return true
	default:
		slog.Warn("sync queue full, dropping task", "op", t.op)
		c.notifyLocked(t.op, errQueueFull)
		return false
	}
}

// runQueue is the single consumer of the push queue. One task at a time, in
// issue order; failures are logged and surfaced, never retried, and the
// optimistic local value stands either way.
func (c *Core) runQueue() {
	defer close(c.queueDone)
	for t := range c.tasks {
		ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		err := t.run(ctx)
		cancel()
		if err != nil {
			slog.Warn("background sync failed", "op", t.op, "error", err)
			c.mu.Lock()
			c.notifyLocked(t.op, err)
			c.mu.Unlock()
		}
	}
}

func (c *Core) notifyLocked(op string, err error) {
	select {
	case c.notes <- Notification{Op: op, Err: err}:
	default:
	}
}
