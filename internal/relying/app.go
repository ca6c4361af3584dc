// Package relying implements the OAuth2 client process: it walks the browser
// through the authorization-code grant against the authorization server, then
// calls the protected resource with the obtained bearer token.
package relying

import (
	"crypto/subtle"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const (
	localSessionCookie = "client_session"
	stateCookie        = "oauth_state"
)

// App is the client redirector. Per local browser session it is in one of
// three states: no token (redirect to the authorization endpoint), awaiting
// the callback, or holding a token to call the resource with.
type App struct {
	conf         *oauth2.Config
	resourceURL  string
	callbackPath string

	mu     sync.Mutex
	tokens map[string]*oauth2.Token
}

func New(conf *oauth2.Config, resourceURL string) (*App, error) {
	callback, err := url.Parse(conf.RedirectURL)
	if err != nil {
		return nil, err
	}

	return &App{
		conf:         conf,
		resourceURL:  resourceURL,
		callbackPath: callback.Path,
		tokens:       make(map[string]*oauth2.Token),
	}, nil
}

func (a *App) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+a.callbackPath, a.CallbackHandler)
	mux.HandleFunc("GET /", a.IndexHandler)
	return mux
}

// IndexHandler either starts the authorization flow or, with a token in hand,
// calls the protected resource on the user's behalf.
func (a *App) IndexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	sid := a.localSession(w, r)

	token := a.token(sid)
	if token == nil || !token.Valid() {
		a.beginFlow(w, r)
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), "GET", a.resourceURL, nil)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	token.SetAuthHeader(req)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		slog.Error("Resource call failed", "url", a.resourceURL, "error", err)
		http.Error(w, "resource unavailable", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// Token no longer valid server-side: forget it and restart the whole
		// flow on the next request. Never retry with the same credentials.
		a.dropToken(sid)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	w.Header().Set("Content-Type", resp.Header.Get("Content-Type"))
	w.WriteHeader(resp.StatusCode)
	io.Copy(w, resp.Body)
}

// CallbackHandler receives the redirect back from the authorization server.
// The echoed state must match the one this flow instance issued before any
// code exchange happens; a mismatch is fatal to the flow.
func (a *App) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" {
		writeError(w, http.StatusForbidden, "state_mismatch")
		return
	}

	clearCookie(w, stateCookie)

	echoed := r.URL.Query().Get("state")
	if subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(echoed)) != 1 {
		slog.Warn("State mismatch on callback", "remote", r.RemoteAddr)
		writeError(w, http.StatusForbidden, "state_mismatch")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	token, err := a.conf.Exchange(r.Context(), code)
	if err != nil {
		slog.Error("Code exchange failed", "error", err)
		writeError(w, http.StatusBadGateway, "exchange_failed")
		return
	}

	sid := a.localSession(w, r)
	a.mu.Lock()
	a.tokens[sid] = token
	a.mu.Unlock()

	http.Redirect(w, r, "/", http.StatusFound)
}

func (a *App) beginFlow(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
	})

	http.Redirect(w, r, a.conf.AuthCodeURL(state), http.StatusFound)
}

// localSession identifies the browser to this process only; it has nothing to
// do with the authorization server's session.
func (a *App) localSession(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(localSessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	sid := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     localSessionCookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
	})
	return sid
}

func (a *App) token(sid string) *oauth2.Token {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tokens[sid]
}

func (a *App) dropToken(sid string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.tokens, sid)
}

func writeError(w http.ResponseWriter, status int, code string) {
	http.Error(w, code, status)
}

func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
