package adapthttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"foodpoints/internal/app"
	"foodpoints/internal/domain"
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.accounts.ListUsers(r.Context(), sessionFromContext(r).session)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req app.NewUser
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, domain.Validation("%v", err))
		return
	}
	if err := s.accounts.CreateUser(r.Context(), sessionFromContext(r).session, req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "ok", "username": req.Username})
}

func (s *Server) handleEditUser(w http.ResponseWriter, r *http.Request) {
	var req app.AccountEdit
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, domain.Validation("%v", err))
		return
	}
	username := chi.URLParam(r, "username")
	if err := s.accounts.EditUser(r.Context(), sessionFromContext(r).session, username, req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
