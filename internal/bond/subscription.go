package bond

import (
	"context"
	"errors"
	"log/slog"

	"github.com/themax-01/heartbond-moments/internal/feed"
)

var errQueueFull = errors.New("sync queue full")

// resubscribe replaces the change-feed subscription with one for the given
// bond id, or just tears the old one down when bondID is empty. The old
// subscription is fully drained before the new one starts, so handlers are
// never registered twice. Called on every bond-id change, not on every
// state change.
func (c *Core) resubscribe(bondID string) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	if c.unsubscribe != nil {
		c.unsubscribe()
		<-c.feedDone
		c.unsubscribe = nil
		c.feedDone = nil
	}
	if bondID == "" {
		return
	}

	events, cancel, err := c.feed.Subscribe(context.Background(), bondID)
	if err != nil {
		slog.Warn("change feed subscription failed", "bond_id", bondID, "error", err)
		c.mu.Lock()
		c.notifyLocked("subscribe", err)
		c.mu.Unlock()
		return
	}

	done := make(chan struct{})
	c.unsubscribe = cancel
	c.feedDone = done

	go func() {
		defer close(done)
		for ev := range events {
			c.applyEvent(ev)
		}
	}()
}

// applyEvent reconciles one change-feed notification into local state.
//
// Data events from this device's own user id are ignored — the device never
// reacts to its own echo — and only the fields present in the payload are
// applied, so an update that carried just a status cannot blank the
// partner's activity or plan.
func (c *Core) applyEvent(ev feed.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.hasBond || ev.BondID != c.bondID {
		return // stale subscription
	}

	switch ev.Table {
	case feed.TableData:
		d := ev.Data
		if d == nil || d.UserID == c.userID {
			return
		}
		if d.Status != nil {
			c.partnerStatus = *d.Status
		}
		if d.Activity != nil {
			c.partnerActivity = *d.Activity
		}
		if d.Plan != nil {
			c.partnerPlan = *d.Plan
		}

	case feed.TableBonds:
		if ev.Bond == nil {
			return
		}
		c.theme = ev.Bond.Theme

	case feed.TableSettings:
		if ev.Settings == nil {
			return
		}
		c.quote = ev.Settings.Quote

	default:
		return
	}

	c.persistLocked()
}
