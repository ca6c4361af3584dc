package guard

import (
	"context"
	"encoding/json"
	"net/http"

	"authgate/internal/models"
)

// Method records which mechanism authenticated the request.
type Method string

const (
	MethodSession Method = "session"
	MethodToken   Method = "token"
)

// SecurityContext is the outcome of a successful authentication. It travels
// with the request as an explicit context value; there is no process-global
// "current principal".
type SecurityContext struct {
	Principal models.Principal
	Method    Method
}

// Failure describes how to answer a request the guard rejected. A non-empty
// Redirect wins over Status: the session path sends browsers to the login
// entry point instead of failing outright.
type Failure struct {
	Status   int
	Code     string
	Redirect string
}

// WriteResponse terminates the request with the failure.
func (f *Failure) WriteResponse(w http.ResponseWriter, r *http.Request) {
	if f.Redirect != "" {
		http.Redirect(w, r, f.Redirect, http.StatusFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(f.Status)
	json.NewEncoder(w).Encode(map[string]string{"error": f.Code})
}

// Guard authenticates a request before the protected handler runs.
//
// Return values:
//   - (ctx, nil): authenticated
//   - (nil, nil): request allowed through without a principal (public paths)
//   - (nil, failure): rejected; failure says how to answer
type Guard interface {
	Authenticate(r *http.Request) (*SecurityContext, *Failure)
}

type securityContextKey struct{}

// NewContext returns a context carrying the security context.
func NewContext(ctx context.Context, sc *SecurityContext) context.Context {
	return context.WithValue(ctx, securityContextKey{}, sc)
}

// FromContext extracts the security context established by a guard.
func FromContext(ctx context.Context) (*SecurityContext, bool) {
	sc, ok := ctx.Value(securityContextKey{}).(*SecurityContext)
	return sc, ok
}
