package adapthttp

import (
	"net/http"
	"time"
)

func (s *Server) handleChartsDaily(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r).session
	days := intQuery(r, "days", 30)

	points, err := s.charts.GetDaily(r.Context(), sess.Username(), days)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"days":  days,
		"today": localDayString(time.Now()),
		"items": points,
	})
}
