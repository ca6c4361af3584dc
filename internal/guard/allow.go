package guard

import (
	"net/http"
)

// AllowGuard lets requests through without authentication. Used for the
// endpoints that carry their own credentials (the token endpoint) and for the
// login round-trip itself, so that "every path has a rule" still holds.
type AllowGuard struct{}

func (AllowGuard) Authenticate(r *http.Request) (*SecurityContext, *Failure) {
	return nil, nil
}
