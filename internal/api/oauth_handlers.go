package api

import (
	"errors"
	"log/slog"
	"net/http"

	"authgate/internal/guard"
	"authgate/internal/issuer"
)

// AuthorizeHandler handles OAuth authorization requests
// GET /oauth/authorize?response_type=code&client_id=myapp&redirect_uri=https://myapp.com/callback&state=xyz123
//
// The session guard runs upstream: by the time this handler executes the
// request carries an authenticated principal, or the browser was already sent
// through the social login round-trip.
func (s *Server) AuthorizeHandler(w http.ResponseWriter, r *http.Request) {
	sc, ok := guard.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	query := r.URL.Query()
	clientID := query.Get("client_id")
	redirectURI := query.Get("redirect_uri")
	state := query.Get("state")

	if clientID == "" || redirectURI == "" {
		writeError(w, http.StatusBadRequest, issuer.ErrorCodeInvalidRequest)
		return
	}

	// An unknown client or a redirect target off the allow-list must never be
	// redirected to; answer directly.
	if _, err := s.issuer.ValidateAuthorization(clientID, redirectURI); err != nil {
		slog.Error("Invalid authorization request", "client_id", clientID, "error", err)
		writeError(w, http.StatusBadRequest, errorCode(err))
		return
	}

	if query.Get("response_type") != "code" {
		redirectURL := issuer.BuildErrorRedirectURL(redirectURI, "unsupported_response_type", "only response_type=code is supported", state)
		http.Redirect(w, r, redirectURL, http.StatusFound)
		return
	}

	code, err := s.issuer.BeginAuthorization(r.Context(), clientID, redirectURI, sc.Principal)
	if err != nil {
		slog.Error("Failed to create authorization code", "client_id", clientID, "error", err)
		redirectURL := issuer.BuildErrorRedirectURL(redirectURI, "server_error", "failed to process request", state)
		http.Redirect(w, r, redirectURL, http.StatusFound)
		return
	}

	http.Redirect(w, r, issuer.BuildRedirectURL(redirectURI, code.Code, state), http.StatusFound)
}

// TokenHandler handles authorization code exchange
// POST /oauth/token
func (s *Server) TokenHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, issuer.ErrorCodeInvalidRequest)
		return
	}

	// Client credentials arrive via Basic auth or in the form body.
	clientID, clientSecret, ok := r.BasicAuth()
	if !ok {
		clientID = r.PostFormValue("client_id")
		clientSecret = r.PostFormValue("client_secret")
	}

	if r.PostFormValue("grant_type") != "authorization_code" {
		writeError(w, http.StatusBadRequest, "unsupported_grant_type")
		return
	}

	code := r.PostFormValue("code")
	redirectURI := r.PostFormValue("redirect_uri")
	if code == "" || clientID == "" || redirectURI == "" {
		writeError(w, http.StatusBadRequest, issuer.ErrorCodeInvalidRequest)
		return
	}

	token, err := s.issuer.ExchangeCode(r.Context(), code, clientID, clientSecret, redirectURI)
	if err != nil {
		slog.Error("Token exchange error", "client_id", clientID, "error", err)
		switch {
		case errors.Is(err, issuer.ErrInvalidClient):
			writeError(w, http.StatusUnauthorized, issuer.ErrorCodeInvalidClient)
		case errors.Is(err, issuer.ErrInvalidGrant):
			writeError(w, http.StatusBadRequest, issuer.ErrorCodeInvalidGrant)
		default:
			writeError(w, http.StatusInternalServerError, "server_error")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": token.Token,
		"token_type":   "bearer",
		"expires_in":   s.issuer.TokenTTLSeconds(),
	})
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, issuer.ErrInvalidClient):
		return issuer.ErrorCodeInvalidClient
	case errors.Is(err, issuer.ErrInvalidRedirect):
		return issuer.ErrorCodeInvalidRedirectURI
	case errors.Is(err, issuer.ErrInvalidGrant):
		return issuer.ErrorCodeInvalidGrant
	}
	return "server_error"
}
