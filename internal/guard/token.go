package guard

import (
	"net/http"
	"strings"

	"authgate/internal/storage"
)

// TokenGuard authenticates a request by validating a bearer token against the
// token store. It never redirects: token-authenticated callers are
// programmatic, there is no login page to send them to.
type TokenGuard struct {
	Tokens storage.TokenStore
}

func (g *TokenGuard) Authenticate(r *http.Request) (*SecurityContext, *Failure) {
	value := bearerToken(r)
	if value == "" {
		return nil, &Failure{Status: http.StatusUnauthorized, Code: "unauthenticated"}
	}

	token, err := g.Tokens.GetToken(r.Context(), value)
	if err != nil {
		return nil, &Failure{Status: http.StatusInternalServerError, Code: "server_error"}
	}
	if token == nil {
		// Unknown or expired; the store treats both as absent.
		return nil, &Failure{Status: http.StatusUnauthorized, Code: "invalid_token"}
	}

	return &SecurityContext{Principal: token.Principal, Method: MethodToken}, nil
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if value, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return value
	}
	return ""
}
