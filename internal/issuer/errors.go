package issuer

import "errors"

// OAuth 2.0 error codes from RFC 6749, as written on the wire.
const (
	ErrorCodeInvalidClient      = "invalid_client"
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeInvalidRedirectURI = "invalid_redirect_uri"
	ErrorCodeInvalidGrant       = "invalid_grant"
)

var (
	// ErrInvalidClient: unknown client id or bad secret. Never retried.
	ErrInvalidClient = errors.New("invalid client")

	// ErrInvalidRedirect: redirect URI not on the client's allow-list.
	ErrInvalidRedirect = errors.New("invalid redirect URI")

	// ErrInvalidGrant: code unknown, expired, already redeemed, or bound to a
	// different client or redirect URI. The client may restart the flow but
	// must not retry the same code.
	ErrInvalidGrant = errors.New("invalid grant")
)
