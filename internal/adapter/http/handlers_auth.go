package adapthttp

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"

	"foodpoints/internal/app"
	"foodpoints/internal/domain"
)

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(s.auth.SessionTTL().Seconds()),
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, domain.Validation("%v", err))
		return
	}

	token, sess, err := s.auth.Login(r.Context(), req.Username, req.Password, r.UserAgent())
	if errors.Is(err, app.ErrInvalidCredentials) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"error":   err.Error(),
			"kind":    domain.KindAuthentication,
			"session": sess,
		})
		return
	}
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, map[string]any{
		"token":   token,
		"session": sess,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := domain.NewSession()
	if token := tokenFromRequest(r); token != "" {
		unlock := s.locks.Lock(token)
		next, err := s.auth.Logout(r.Context(), token)
		unlock()
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		sess = next
	}

	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"session": sess})
}

func (s *Server) handleSetup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, domain.Validation("%v", err))
		return
	}

	if err := s.auth.CreateInitialAdmin(r.Context(), req.Name, req.Username, req.Password); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"sso_enabled": s.oidcConfig.Enabled,
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r).session
	writeJSON(w, http.StatusOK, map[string]any{
		"identity": sess.Identity,
		"session":  sess,
	})
}

func (s *Server) handleSSOLogin(w http.ResponseWriter, r *http.Request) {
	if !s.oidcConfig.Enabled {
		writeError(w, http.StatusNotFound, domain.NotFound("sso disabled"))
		return
	}
	state := generateState()
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil || s.secureCookies,
		SameSite: http.SameSiteLaxMode, // Lax required for cross-site redirect returns
		MaxAge:   300,
	})
	http.Redirect(w, r, s.oidcConfig.OAuth2Config.AuthCodeURL(state), http.StatusFound)
}

func (s *Server) handleSSOCallback(w http.ResponseWriter, r *http.Request) {
	if !s.oidcConfig.Enabled {
		writeError(w, http.StatusNotFound, domain.NotFound("sso disabled"))
		return
	}

	state, err := r.Cookie("oauth_state")
	if err != nil || r.URL.Query().Get("state") != state.Value {
		writeError(w, http.StatusBadRequest, domain.Validation("invalid state"))
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", MaxAge: -1, Path: "/"})

	oauthToken, err := s.oidcConfig.OAuth2Config.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		s.writeDomainError(w, r, domain.Provider("exchange sso code", err))
		return
	}
	rawIDToken, ok := oauthToken.Extra("id_token").(string)
	if !ok {
		s.writeDomainError(w, r, domain.Provider("sso response has no id_token", nil))
		return
	}

	verifier := s.oidcConfig.Provider.Verifier(&oidc.Config{ClientID: s.oidcConfig.OAuth2Config.ClientID})
	idToken, err := verifier.Verify(r.Context(), rawIDToken)
	if err != nil {
		writeError(w, http.StatusUnauthorized, domain.Authentication("invalid id_token"))
		return
	}

	var claims struct {
		PreferredUsername string `json:"preferred_username"`
		Email             string `json:"email"`
		Sub               string `json:"sub"`
	}
	if err := idToken.Claims(&claims); err != nil {
		writeError(w, http.StatusUnauthorized, domain.Authentication("invalid id_token claims"))
		return
	}

	username := claims.PreferredUsername
	if username == "" {
		username = claims.Email
	}
	if username == "" {
		username = claims.Sub
	}

	token, err := s.auth.LoginWithUser(r.Context(), username, r.UserAgent())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.setSessionCookie(w, token)
	http.Redirect(w, r, "/", http.StatusFound)
}

func generateState() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
