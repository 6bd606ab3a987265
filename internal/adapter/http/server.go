// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/oauth2"

	"foodpoints/internal/app"
)

// OIDCConfig holds the SSO client. The zero value disables SSO.
type OIDCConfig struct {
	Enabled      bool
	Provider     *oidc.Provider
	OAuth2Config oauth2.Config
}

// NewOIDCConfig discovers issuer and builds the SSO client.
func NewOIDCConfig(ctx context.Context, issuer, clientID, clientSecret, redirectURL string) (OIDCConfig, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return OIDCConfig{}, fmt.Errorf("oidc discovery: %w", err)
	}
	return OIDCConfig{
		Enabled:  true,
		Provider: provider,
		OAuth2Config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
	}, nil
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	auth     *app.AuthService
	accounts *app.AccountsService
	workflow *app.Workflow
	charts   *app.ChartsService
	webDir   string

	oidcConfig    OIDCConfig
	limiter       *rateLimiter
	locks         *keyedMutex
	metrics       http.Handler
	secureCookies bool
}

// New creates a Server wired to the given application services.
func New(auth *app.AuthService, accounts *app.AccountsService, workflow *app.Workflow, charts *app.ChartsService, webDir string) *Server {
	return &Server{
		auth:     auth,
		accounts: accounts,
		workflow: workflow,
		charts:   charts,
		webDir:   webDir,
		locks:    newKeyedMutex(),
	}
}

// WithOIDC enables SSO login.
func (s *Server) WithOIDC(cfg OIDCConfig) *Server {
	s.oidcConfig = cfg
	return s
}

// WithRateLimit caps authenticated API requests per user. Zero disables it.
func (s *Server) WithRateLimit(perMinute int) *Server {
	if perMinute > 0 {
		s.limiter = newRateLimiter(perMinute)
	}
	return s
}

// WithMetrics serves h at /metrics.
func (s *Server) WithMetrics(h http.Handler) *Server {
	s.metrics = h
	return s
}

// WithSecureCookies marks session cookies Secure.
func (s *Server) WithSecureCookies(secure bool) *Server {
	s.secureCookies = secure
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		})
		r.Get("/config", s.handleConfig)
		r.Post("/setup", s.handleSetup)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.Get("/auth/sso/login", s.handleSSOLogin)
		r.Get("/auth/sso/callback", s.handleSSOCallback)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Use(s.rateLimitMiddleware)

			r.Get("/me", s.handleMe)

			r.Route("/workflow", func(r chi.Router) {
				r.Get("/", s.handleWorkflowGet)
				r.Post("/search", s.handleSearch)
				r.Post("/select", s.handleSelect)
				r.Put("/inputs", s.handleInputs)
				r.Post("/compute", s.handleCompute)
				r.Post("/log", s.handleConfirmLog)
				r.Post("/reset", s.handleReset)
			})

			r.Get("/log", s.handleLogList)
			r.Delete("/log/{id}", s.handleLogDelete)

			r.Get("/charts/daily", s.handleChartsDaily)

			r.Route("/admin/users", func(r chi.Router) {
				r.Get("/", s.handleListUsers)
				r.Post("/", s.handleCreateUser)
				r.Put("/{username}", s.handleEditUser)
			})
		})
	})

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	r.Handle("/*", spaFromDisk(s.webDir))

	return withNoCache(r)
}
