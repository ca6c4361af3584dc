package api

import (
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"authgate/internal/guard"
	"authgate/internal/models"
)

const loginStateCookie = "login_state"

// loginState rides a cookie across the social-provider round-trip: the
// anti-forgery secret the provider must echo back, and where to resume
// afterwards.
type loginState struct {
	Secret   string `json:"secret"`
	ReturnTo string `json:"return_to"`
}

// LoginHandler starts the social login round-trip.
// GET /login?return_to=/oauth/authorize?...
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	returnTo := r.URL.Query().Get("return_to")
	// Relative paths only; anything else is an open-redirect vector.
	if !strings.HasPrefix(returnTo, "/") || strings.HasPrefix(returnTo, "//") {
		returnTo = "/whoami"
	}

	state := loginState{
		Secret:   uuid.NewString(),
		ReturnTo: returnTo,
	}

	encoded, err := encodeLoginState(state)
	if err != nil {
		slog.Error("Failed to encode login state", "error", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     loginStateCookie,
		Value:    encoded,
		Path:     "/login",
		MaxAge:   600,
		HttpOnly: true,
	})

	http.Redirect(w, r, s.provider.LoginURL(state.Secret), http.StatusFound)
}

// LoginCallbackHandler finishes the social login round-trip: the provider
// redirected the browser back with a code and our state echoed.
// GET /login/callback?code=...&state=...
func (s *Server) LoginCallbackHandler(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(loginStateCookie)
	if err != nil {
		writeError(w, http.StatusForbidden, "state_mismatch")
		return
	}

	state, err := decodeLoginState(cookie.Value)
	if err != nil {
		writeError(w, http.StatusForbidden, "state_mismatch")
		return
	}

	clearLoginState(w)

	echoed := r.URL.Query().Get("state")
	if subtle.ConstantTimeCompare([]byte(state.Secret), []byte(echoed)) != 1 {
		slog.Warn("Login state mismatch", "remote", r.RemoteAddr)
		writeError(w, http.StatusForbidden, "state_mismatch")
		return
	}

	principal, err := s.provider.Authenticate(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		slog.Error("Social login failed", "provider", s.provider.Name(), "error", err)
		writeError(w, http.StatusBadGateway, "login_failed")
		return
	}

	now := time.Now()
	session := &models.Session{
		ID:        uuid.NewString(),
		Principal: *principal,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}

	if err := s.sessions.SaveSession(r.Context(), session); err != nil {
		slog.Error("Failed to save session", "error", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     guard.SessionCookieName,
		Value:    session.ID,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
	})

	http.Redirect(w, r, state.ReturnTo, http.StatusFound)
}

func encodeLoginState(state loginState) (string, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

func decodeLoginState(value string) (loginState, error) {
	var state loginState
	data, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return state, err
	}
	err = json.Unmarshal(data, &state)
	return state, err
}

func clearLoginState(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     loginStateCookie,
		Path:     "/login",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
