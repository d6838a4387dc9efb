// Package server exposes the bond repository as a JSON HTTP API plus a
// websocket change feed. The API is row-level on purpose: clients compose
// the same store operations the synchronization core is written against.
package server

import (
	"net/http"

	"github.com/themax-01/heartbond-moments/internal/auth"
	"github.com/themax-01/heartbond-moments/internal/feed"
	"github.com/themax-01/heartbond-moments/internal/metrics"
	"github.com/themax-01/heartbond-moments/internal/storage"
)

// Server holds the handler dependencies.
type Server struct {
	store storage.Store
	hub   *feed.Hub
	jwt   *auth.JWTManager
}

// New creates a Server over the given store, feed hub and token manager.
func New(store storage.Store, hub *feed.Hub, jwt *auth.JWTManager) *Server {
	return &Server{store: store, hub: hub, jwt: jwt}
}

// Router builds the full route table with middleware applied.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("POST /api/devices", s.registerDevice)

	mux.HandleFunc("POST /api/bonds", s.requireAuth(s.createBond))
	mux.HandleFunc("GET /api/bonds/{id}", s.requireAuth(s.getBond))
	// Deliberately not under /api/bonds/{id}: a code segment there would
	// conflict with the {id} subtree patterns.
	mux.HandleFunc("GET /api/bonds/by-code/{code}", s.requireAuth(s.getBondByCode))
	mux.HandleFunc("PATCH /api/bonds/{id}/theme", s.requireAuth(s.updateTheme))

	mux.HandleFunc("POST /api/bonds/{id}/members", s.requireAuth(s.addMember))
	mux.HandleFunc("GET /api/bonds/{id}/members", s.requireAuth(s.listMembers))

	mux.HandleFunc("POST /api/bonds/{id}/settings", s.requireAuth(s.createSettings))
	mux.HandleFunc("GET /api/bonds/{id}/settings", s.requireAuth(s.getSettings))
	mux.HandleFunc("PUT /api/bonds/{id}/settings", s.requireAuth(s.updateQuote))

	mux.HandleFunc("POST /api/bonds/{id}/data", s.requireAuth(s.insertData))
	mux.HandleFunc("GET /api/bonds/{id}/data/latest", s.requireAuth(s.latestData))
	mux.HandleFunc("PATCH /api/data/{id}", s.requireAuth(s.updateDataField))

	mux.HandleFunc("GET /ws/bonds/{id}", s.requireAuth(s.serveFeed))

	return loggingMiddleware(metricsMiddleware(corsMiddleware(mux)))
}

// publish sends a change event to feed subscribers and counts it.
func (s *Server) publish(ev feed.Event) {
	metrics.FeedEventsPublished.WithLabelValues(string(ev.Table)).Inc()
	s.hub.Publish(ev)
}
