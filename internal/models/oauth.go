package models

import (
	"time"
)

// Client is a registered OAuth client application. Loaded at startup, never
// mutated afterwards.
type Client struct {
	ID           string   `json:"id"`
	Secret       string   `json:"secret"`
	Name         string   `json:"name"`
	RedirectURIs []string `json:"redirect_uris"`
}

// AllowsRedirect reports whether uri is on the client's allow-list.
func (c *Client) AllowsRedirect(uri string) bool {
	for _, allowed := range c.RedirectURIs {
		if allowed == uri {
			return true
		}
	}
	return false
}

// AuthorizationCode bridges an interactive authentication to token issuance.
// Single use: Redeemed flips to true exactly once, and the flip must be atomic
// with the lookup that observes it.
type AuthorizationCode struct {
	Code        string    `json:"code"`
	ClientID    string    `json:"client_id"`
	RedirectURI string    `json:"redirect_uri"`
	Principal   Principal `json:"principal"`
	Redeemed    bool      `json:"redeemed"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the code is past its expiry at the given instant.
func (a *AuthorizationCode) Expired(now time.Time) bool {
	return now.After(a.ExpiresAt)
}

// AccessToken is a bearer credential minted from a redeemed authorization
// code. A zero ExpiresAt means the token never expires.
type AccessToken struct {
	Token     string    `json:"token"`
	ClientID  string    `json:"client_id"`
	Principal Principal `json:"principal"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the token is past its expiry at the given instant.
func (t *AccessToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}
