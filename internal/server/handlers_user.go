package server

import (
	"net/http"

	"github.com/bobmcallan/folio/internal/models"
)

func (s *Server) handleUserGet(w http.ResponseWriter, r *http.Request) {
	user, err := s.app.UserService.GetUser(r.Context(), currentUserID(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, user)
}

func (s *Server) handleUserUpdate(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateUserRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	user, err := s.app.UserService.UpdateUser(r.Context(), currentUserID(r), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, user)
}

// handleUserDelete removes the caller with their portfolios and trades.
func (s *Server) handleUserDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.app.UserService.DeleteUser(r.Context(), currentUserID(r)); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
