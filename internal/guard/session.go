package guard

import (
	"net/http"
	"net/url"

	"authgate/internal/storage"
)

// SessionCookieName is the browser session cookie set after social login.
const SessionCookieName = "session_id"

// SessionGuard authenticates a request with a previously established
// interactive session. A request without one is redirected to the login entry
// point rather than failed: this is the human-in-the-loop path.
type SessionGuard struct {
	Sessions  storage.SessionStore
	LoginPath string
}

func (g *SessionGuard) Authenticate(r *http.Request) (*SecurityContext, *Failure) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, g.loginRedirect(r)
	}

	session, err := g.Sessions.GetSession(r.Context(), cookie.Value)
	if err != nil {
		return nil, &Failure{Status: http.StatusInternalServerError, Code: "server_error"}
	}
	if session == nil {
		// Stale cookie: treat like no session and start the login round-trip.
		return nil, g.loginRedirect(r)
	}

	return &SecurityContext{Principal: session.Principal, Method: MethodSession}, nil
}

func (g *SessionGuard) loginRedirect(r *http.Request) *Failure {
	return &Failure{
		Status:   http.StatusFound,
		Code:     "unauthenticated",
		Redirect: g.LoginPath + "?return_to=" + url.QueryEscape(r.URL.RequestURI()),
	}
}
