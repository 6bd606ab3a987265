package adapthttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"foodpoints/internal/app"
)

func dateRangeQuery(r *http.Request) app.DateRange {
	q := r.URL.Query()
	return app.DateRange{Start: q.Get("start"), End: q.Get("end")}
}

func (s *Server) handleLogList(w http.ResponseWriter, r *http.Request) {
	review, err := s.workflow.Review(r.Context(), sessionFromContext(r).session, dateRangeQuery(r))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

func (s *Server) handleLogDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	review, err := s.workflow.DeleteEntry(r.Context(), sessionFromContext(r).session, id, dateRangeQuery(r))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}
