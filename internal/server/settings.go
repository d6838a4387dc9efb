package server

import (
	"net/http"

	"github.com/themax-01/heartbond-moments/internal/feed"
	"github.com/themax-01/heartbond-moments/internal/models"
)

type settingsRequest struct {
	Quote string `json:"quote"`
}

func (s *Server) createSettings(w http.ResponseWriter, r *http.Request) {
	bondID := r.PathValue("id")
	var req settingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	settings := &models.BondSettings{BondID: bondID, Quote: req.Quote}
	if err := s.store.CreateSettings(r.Context(), settings); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, settings)
}

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.GetSettings(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) updateQuote(w http.ResponseWriter, r *http.Request) {
	bondID := r.PathValue("id")
	var req settingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	settings, err := s.store.UpdateQuote(r.Context(), bondID, req.Quote)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	s.publish(feed.Event{
		Table:    feed.TableSettings,
		Kind:     feed.KindUpdate,
		BondID:   bondID,
		Settings: settings,
	})
	writeJSON(w, http.StatusOK, settings)
}
