package adapthttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strconv"
	"time"

	"foodpoints/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	body := map[string]any{"error": err.Error()}
	if kind := domain.KindOf(err); kind != "" {
		body["kind"] = kind
	}
	writeJSON(w, status, body)
}

// statusFor maps an error's kind to an HTTP status.
func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindAuthentication:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindProvider:
		return http.StatusBadGateway
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindNoSelection:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError writes err with the status for its kind. Server-side
// failures are logged and reported without detail.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		kind := domain.KindOf(err)
		if kind == "" {
			kind = domain.KindPersistence
		}
		writeJSON(w, status, map[string]any{"error": "internal error", "kind": kind})
		return
	}
	if errors.Is(err, domain.ErrProvider) {
		slog.WarnContext(r.Context(), "food lookup failed", slog.Any("error", err))
	}
	writeError(w, status, err)
}

func parseJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

func intQuery(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func localDayString(t time.Time) string {
	return t.In(time.Local).Format(domain.DayLayout)
}

func withNoCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// spaFromDisk serves a client bundle built outside this repo. Paths that
// are not files under dir fall back to index.html so client routes resolve.
func spaFromDisk(dir string) http.Handler {
	fileServer := http.FileServer(http.Dir(dir))
	indexPath := path.Join(dir, "index.html")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqPath := path.Clean(r.URL.Path)
		if reqPath == "/" {
			http.ServeFile(w, r, indexPath)
			return
		}

		staticPath := path.Join(dir, reqPath)
		if _, err := os.Stat(staticPath); err == nil {
			fileServer.ServeHTTP(w, r)
			return
		}

		http.ServeFile(w, r, indexPath)
	})
}
