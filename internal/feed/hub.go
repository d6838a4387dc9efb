package feed

import (
	"context"
	"log/slog"
	"sync"
)

// subscriberBuffer is the per-subscriber event buffer. A subscriber that
// falls this far behind starts losing events; it will catch up on its next
// full load.
const subscriberBuffer = 16

// Hub is the in-process change feed: handlers publish events after
// successful writes and each websocket connection (or in-process core)
// holds one subscription per bond.
type Hub struct {
	mu      sync.Mutex
	subs    map[string]map[int]chan Event
	nextID  int
	dropped int64
}

var _ Source = (*Hub)(nil)

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]chan Event)}
}

// Subscribe registers a subscriber for the bond. The subscription ends when
// cancel is called or ctx is done, after which the channel is closed.
func (h *Hub) Subscribe(ctx context.Context, bondID string) (<-chan Event, func(), error) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	if h.subs[bondID] == nil {
		h.subs[bondID] = make(map[int]chan Event)
	}
	h.subs[bondID][id] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if m := h.subs[bondID]; m != nil {
				delete(m, id)
				if len(m) == 0 {
					delete(h.subs, bondID)
				}
			}
			h.mu.Unlock()
			close(ch)
		})
	}

	if ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			cancel()
		}()
	}

	return ch, cancel, nil
}

// Publish fans the event out to every subscriber of its bond. Sends never
// block: a full subscriber buffer drops the event.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[ev.BondID] {
		select {
		case ch <- ev:
		default:
			h.dropped++
			slog.Warn("feed subscriber too slow, dropping event",
				"bond_id", ev.BondID, "table", ev.Table)
		}
	}
}

// SubscriberCount returns the number of active subscriptions across bonds.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, m := range h.subs {
		n += len(m)
	}
	return n
}

// Dropped returns how many events were dropped on slow subscribers.
func (h *Hub) Dropped() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}
