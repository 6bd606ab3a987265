package adapthttp

import (
	"net/http"

	"foodpoints/internal/domain"
)

// workflowResponse is the session reached by a transition plus derived flags
// the client renders from.
type workflowResponse struct {
	domain.Session
	PendingLog bool             `json:"pendingLog"`
	Entry      *domain.LogEntry `json:"entry,omitempty"`
}

// transition stores next as the caller's session and writes it. On error the
// stored session is left as it was.
func (s *Server) transition(w http.ResponseWriter, r *http.Request, next domain.Session, entry *domain.LogEntry, err error) {
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if err := s.auth.Save(r.Context(), sessionFromContext(r).token, next); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, workflowResponse{
		Session:    next,
		PendingLog: next.PendingLog(),
		Entry:      entry,
	})
}

func (s *Server) handleWorkflowGet(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r).session
	writeJSON(w, http.StatusOK, workflowResponse{Session: sess, PendingLog: sess.PendingLog()})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, domain.Validation("%v", err))
		return
	}
	next, err := s.workflow.Search(r.Context(), sessionFromContext(r).session, req.Query)
	s.transition(w, r, next, nil, err)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index *int `json:"index"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, domain.Validation("%v", err))
		return
	}
	if req.Index == nil {
		writeError(w, http.StatusBadRequest, domain.Validation("index is required"))
		return
	}
	next, err := s.workflow.Select(r.Context(), sessionFromContext(r).session, *req.Index)
	s.transition(w, r, next, nil, err)
}

func (s *Server) handleInputs(w http.ResponseWriter, r *http.Request) {
	var req domain.Nutrients
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, domain.Validation("%v", err))
		return
	}
	next, err := s.workflow.SetInputs(r.Context(), sessionFromContext(r).session, req)
	s.transition(w, r, next, nil, err)
}

func (s *Server) handleCompute(w http.ResponseWriter, r *http.Request) {
	next, err := s.workflow.Compute(r.Context(), sessionFromContext(r).session)
	s.transition(w, r, next, nil, err)
}

func (s *Server) handleConfirmLog(w http.ResponseWriter, r *http.Request) {
	next, entry, err := s.workflow.ConfirmLog(r.Context(), sessionFromContext(r).session)
	s.transition(w, r, next, &entry, err)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	next, err := s.workflow.Reset(r.Context(), sessionFromContext(r).session)
	s.transition(w, r, next, nil, err)
}
