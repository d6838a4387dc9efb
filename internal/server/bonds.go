package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/themax-01/heartbond-moments/internal/feed"
	"github.com/themax-01/heartbond-moments/internal/models"
)

type createBondRequest struct {
	Name      string       `json:"name"`
	Reason    string       `json:"reason"`
	StartDate time.Time    `json:"start_date"`
	Theme     models.Theme `json:"theme"`
	Code      string       `json:"code"`
}

func (s *Server) createBond(w http.ResponseWriter, r *http.Request) {
	var req createBondRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" || req.Code == "" {
		writeError(w, http.StatusBadRequest, "name and code required")
		return
	}
	if req.Theme != "" && !req.Theme.Valid() {
		writeError(w, http.StatusBadRequest, "unknown theme")
		return
	}

	bond := &models.Bond{
		Name:      req.Name,
		Reason:    req.Reason,
		StartDate: req.StartDate,
		Theme:     req.Theme,
		Code:      req.Code,
	}
	if err := s.store.CreateBond(r.Context(), bond); err != nil {
		writeStoreError(w, err)
		return
	}

	slog.Info("bond created", "bond_id", bond.ID, "user_id", requestUserID(r.Context()))
	writeJSON(w, http.StatusCreated, bond)
}

func (s *Server) getBond(w http.ResponseWriter, r *http.Request) {
	bond, err := s.store.GetBond(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bond)
}

func (s *Server) getBondByCode(w http.ResponseWriter, r *http.Request) {
	bond, err := s.store.GetBondByCode(r.Context(), r.PathValue("code"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bond)
}

type updateThemeRequest struct {
	Theme models.Theme `json:"theme"`
}

func (s *Server) updateTheme(w http.ResponseWriter, r *http.Request) {
	bondID := r.PathValue("id")
	var req updateThemeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.Theme.Valid() {
		writeError(w, http.StatusBadRequest, "unknown theme")
		return
	}

	if err := s.store.UpdateBondTheme(r.Context(), bondID, req.Theme); err != nil {
		writeStoreError(w, err)
		return
	}

	bond, err := s.store.GetBond(r.Context(), bondID)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	s.publish(feed.Event{
		Table:  feed.TableBonds,
		Kind:   feed.KindUpdate,
		BondID: bondID,
		Bond:   bond,
	})
	writeJSON(w, http.StatusOK, bond)
}
