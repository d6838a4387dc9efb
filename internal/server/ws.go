package server

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/themax-01/heartbond-moments/internal/metrics"
)

var upgrader = websocket.Upgrader{
	// The API is token-authenticated; origin checking adds nothing here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// serveFeed streams change events for one bond over a websocket. The
// connection carries server-to-client JSON events only; the read loop exists
// to notice the client going away.
func (s *Server) serveFeed(w http.ResponseWriter, r *http.Request) {
	bondID := r.PathValue("id")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("feed upgrade failed", "bond_id", bondID, "error", err)
		return
	}
	defer conn.Close()

	events, cancel, err := s.hub.Subscribe(r.Context(), bondID)
	if err != nil {
		slog.Error("feed subscribe failed", "bond_id", bondID, "error", err)
		return
	}
	defer cancel()

	metrics.FeedSubscribers.Inc()
	defer metrics.FeedSubscribers.Dec()
	slog.Info("feed subscribed", "bond_id", bondID, "user_id", requestUserID(r.Context()))

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				slog.Warn("feed write failed", "bond_id", bondID, "error", err)
				return
			}
		case <-gone:
			return
		case <-r.Context().Done():
			return
		}
	}
}
