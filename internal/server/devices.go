package server

import (
	"log/slog"
	"net/http"
)

type registerDeviceRequest struct {
	UserID string `json:"user_id"`
}

type registerDeviceResponse struct {
	Token string `json:"token"`
}

// registerDevice exchanges a device-generated user id for a signed token.
// There is no credential to check: the id itself is the identity.
func (s *Server) registerDevice(w http.ResponseWriter, r *http.Request) {
	var req registerDeviceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id required")
		return
	}

	token, err := s.jwt.Generate(req.UserID)
	if err != nil {
		slog.Error("failed to generate device token", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	slog.Info("device registered", "user_id", req.UserID)
	writeJSON(w, http.StatusOK, registerDeviceResponse{Token: token})
}
