package server

import (
	"net/http"

	"github.com/themax-01/heartbond-moments/internal/feed"
	"github.com/themax-01/heartbond-moments/internal/models"
)

type insertDataRequest struct {
	UserID   string  `json:"user_id"`
	Status   *string `json:"status,omitempty"`
	Activity *string `json:"activity,omitempty"`
	Plan     *string `json:"plan,omitempty"`
}

func (s *Server) insertData(w http.ResponseWriter, r *http.Request) {
	bondID := r.PathValue("id")
	var req insertDataRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id required")
		return
	}

	row := &models.BondData{
		BondID:   bondID,
		UserID:   req.UserID,
		Status:   req.Status,
		Activity: req.Activity,
		Plan:     req.Plan,
	}
	if err := s.store.InsertData(r.Context(), row); err != nil {
		writeStoreError(w, err)
		return
	}

	s.publish(feed.Event{
		Table:  feed.TableData,
		Kind:   feed.KindInsert,
		BondID: bondID,
		Data:   row,
	})
	writeJSON(w, http.StatusCreated, row)
}

// latestData serves both "most recent row for user" (no field param) and
// "most recent row where field is non-null" lookups. A user with no rows
// yet gets 204, not 404: absence is a normal state here.
func (s *Server) latestData(w http.ResponseWriter, r *http.Request) {
	bondID := r.PathValue("id")
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id required")
		return
	}

	var row *models.BondData
	var err error
	if f := r.URL.Query().Get("field"); f != "" {
		field := models.Field(f)
		if !field.Valid() {
			writeError(w, http.StatusBadRequest, "unknown field")
			return
		}
		row, err = s.store.LatestFieldRow(r.Context(), bondID, userID, field)
	} else {
		row, err = s.store.LatestData(r.Context(), bondID, userID)
	}
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if row == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

type updateDataFieldRequest struct {
	Field models.Field `json:"field"`
	Value string       `json:"value"`
}

func (s *Server) updateDataField(w http.ResponseWriter, r *http.Request) {
	rowID := r.PathValue("id")
	var req updateDataFieldRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.Field.Valid() {
		writeError(w, http.StatusBadRequest, "unknown field")
		return
	}

	row, err := s.store.UpdateDataField(r.Context(), rowID, req.Field, req.Value)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	s.publish(feed.Event{
		Table:  feed.TableData,
		Kind:   feed.KindUpdate,
		BondID: row.BondID,
		Data:   row,
	})
	writeJSON(w, http.StatusOK, row)
}
