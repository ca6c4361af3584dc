package api

import (
	"encoding/json"
	"net/http"
	"time"

	"authgate/internal/guard"
	"authgate/internal/issuer"
	"authgate/internal/social"
	"authgate/internal/storage"
)

// DefaultSessionTTL bounds interactive browser sessions.
const DefaultSessionTTL = 12 * time.Hour

// Server carries the handlers of the combined authorization/resource server.
type Server struct {
	issuer     *issuer.Issuer
	sessions   storage.SessionStore
	provider   social.Provider
	sessionTTL time.Duration
}

func NewServer(iss *issuer.Issuer, sessions storage.SessionStore, provider social.Provider) *Server {
	return &Server{
		issuer:     iss,
		sessions:   sessions,
		provider:   provider,
		sessionTTL: DefaultSessionTTL,
	}
}

// Routes registers the server's endpoints. The protected resource is
// reachable under two aliases: /whoami for session-authenticated browsers and
// /me for token-authenticated programs. Which guard protects which alias is
// the guard chain's business, not the handler's.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /oauth/authorize", s.AuthorizeHandler)
	mux.HandleFunc("POST /oauth/token", s.TokenHandler)

	mux.HandleFunc("GET /login", s.LoginHandler)
	mux.HandleFunc("GET /login/callback", s.LoginCallbackHandler)

	mux.HandleFunc("GET /me", s.WhoamiHandler)
	mux.HandleFunc("GET /whoami", s.WhoamiHandler)

	mux.HandleFunc("GET /healthz", s.HealthHandler)

	return mux
}

// principalView is the only shape of a Principal that crosses the trust
// boundary. Internal identifiers stay inside.
type principalView struct {
	Name string `json:"name"`
}

// WhoamiHandler returns the authenticated principal's projection. Serves both
// resource aliases.
func (s *Server) WhoamiHandler(w http.ResponseWriter, r *http.Request) {
	sc, ok := guard.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	writeJSON(w, http.StatusOK, principalView{Name: sc.Principal.DisplayName})
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
