package models

// Principal is the authenticated identity of the acting user, independent of
// which mechanism (session cookie or bearer token) authenticated the request.
// Immutable once constructed. Never serialize a Principal directly to an
// untrusted caller; hand out a projection with the fields you mean to expose.
type Principal struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}
