package server

import (
	"log/slog"
	"net/http"

	"github.com/themax-01/heartbond-moments/internal/models"
)

type addMemberRequest struct {
	UserID string `json:"user_id"`
}

func (s *Server) addMember(w http.ResponseWriter, r *http.Request) {
	bondID := r.PathValue("id")
	var req addMemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id required")
		return
	}

	member := &models.Membership{BondID: bondID, UserID: req.UserID}
	if err := s.store.AddMember(r.Context(), member); err != nil {
		writeStoreError(w, err)
		return
	}

	slog.Info("member added", "bond_id", bondID, "user_id", req.UserID)
	writeJSON(w, http.StatusCreated, member)
}

func (s *Server) listMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.store.ListMembers(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if members == nil {
		members = []models.Membership{}
	}
	writeJSON(w, http.StatusOK, members)
}
