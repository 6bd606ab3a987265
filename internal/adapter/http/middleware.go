package adapthttp

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"foodpoints/internal/domain"
)

type contextKey string

const sessionContextKey contextKey = "session"

const sessionCookie = "session"

// requestSession is the caller's token and the session it resolved to.
type requestSession struct {
	token   string
	session domain.Session
}

func sessionFromContext(r *http.Request) requestSession {
	rs, _ := r.Context().Value(sessionContextKey).(requestSession)
	return rs
}

// tokenFromRequest reads the session cookie, falling back to a bearer token.
func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// authMiddleware resolves the caller's token to a session. Requests sharing a
// token run one at a time so each transition sees the previous one's result.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := tokenFromRequest(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, domain.Authentication("login required"))
			return
		}

		unlock := s.locks.Lock(token)
		defer unlock()

		sess, err := s.auth.Resolve(r.Context(), token, r.UserAgent())
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, requestSession{token: token, session: sess})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// rateLimitMiddleware applies the per-user request limit.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}
		username := sessionFromContext(r).session.Username()
		if !s.limiter.allow(username) {
			slog.WarnContext(r.Context(), "rate limit exceeded", slog.String("username", username))
			writeRateLimitResponse(w, s.limiter.retryAfter())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs one line per request.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		slog.InfoContext(r.Context(), "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
