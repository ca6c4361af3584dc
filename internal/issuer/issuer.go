package issuer

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"authgate/internal/models"
	"authgate/internal/registry"
	"authgate/internal/storage"
)

const (
	// A code only has to survive one browser redirect.
	CodeTTL = 60 * time.Second

	TokenTTL = time.Hour
)

// Issuer implements the authorization-code grant: it mints short-lived codes
// for authenticated principals and exchanges them for access tokens recorded
// in the token store.
type Issuer struct {
	clients *registry.Registry
	codes   storage.CodeStore
	tokens  storage.TokenStore

	codeTTL  time.Duration
	tokenTTL time.Duration
}

func New(clients *registry.Registry, codes storage.CodeStore, tokens storage.TokenStore) *Issuer {
	return &Issuer{
		clients:  clients,
		codes:    codes,
		tokens:   tokens,
		codeTTL:  CodeTTL,
		tokenTTL: TokenTTL,
	}
}

// ValidateAuthorization checks the client id and redirect URI of an incoming
// authorization request against the registry.
func (i *Issuer) ValidateAuthorization(clientID, redirectURI string) (*models.Client, error) {
	client, exists := i.clients.Client(clientID)
	if !exists {
		return nil, fmt.Errorf("%w: unknown client_id %q", ErrInvalidClient, clientID)
	}

	if !client.AllowsRedirect(redirectURI) {
		// A registered client asking for a foreign redirect target is a
		// possible attack, not a misconfiguration.
		slog.Warn("Redirect URI not on allow-list", "client_id", clientID, "redirect_uri", redirectURI)
		return nil, fmt.Errorf("%w: %q", ErrInvalidRedirect, redirectURI)
	}

	return client, nil
}

// BeginAuthorization creates an authorization code bound to an already
// authenticated principal. The caller is responsible for having authenticated
// the principal; an interactive login upstream is a precondition, not handled
// here.
func (i *Issuer) BeginAuthorization(ctx context.Context, clientID, redirectURI string, principal models.Principal) (*models.AuthorizationCode, error) {
	client, err := i.ValidateAuthorization(clientID, redirectURI)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	code := &models.AuthorizationCode{
		Code:        generateRandomCode(32),
		ClientID:    client.ID,
		RedirectURI: redirectURI,
		Principal:   principal,
		CreatedAt:   now,
		ExpiresAt:   now.Add(i.codeTTL),
	}

	if err := i.codes.SaveCode(ctx, code); err != nil {
		return nil, fmt.Errorf("failed to save authorization code: %w", err)
	}

	return code, nil
}

// ExchangeCode redeems an authorization code for an access token. The code is
// consumed atomically, so a second exchange of the same code fails with
// ErrInvalidGrant no matter how the two attempts interleave.
func (i *Issuer) ExchangeCode(ctx context.Context, codeValue, clientID, clientSecret, redirectURI string) (*models.AccessToken, error) {
	client, exists := i.clients.Client(clientID)
	if !exists {
		return nil, fmt.Errorf("%w: unknown client_id %q", ErrInvalidClient, clientID)
	}

	if subtle.ConstantTimeCompare([]byte(client.Secret), []byte(clientSecret)) != 1 {
		return nil, fmt.Errorf("%w: bad secret for client %q", ErrInvalidClient, clientID)
	}

	code, err := i.codes.ConsumeCode(ctx, codeValue)
	if err != nil {
		return nil, fmt.Errorf("failed to consume authorization code: %w", err)
	}
	if code == nil {
		return nil, fmt.Errorf("%w: code unknown, expired, or already redeemed", ErrInvalidGrant)
	}

	// The code is already burned at this point; a mismatched client or
	// redirect URI must not leave it redeemable by anyone else.
	if code.ClientID != clientID {
		return nil, fmt.Errorf("%w: code issued to a different client", ErrInvalidGrant)
	}
	if code.RedirectURI != redirectURI {
		return nil, fmt.Errorf("%w: redirect_uri does not match authorization request", ErrInvalidGrant)
	}

	now := time.Now()
	token := &models.AccessToken{
		Token:     generateRandomCode(32),
		ClientID:  clientID,
		Principal: code.Principal,
		IssuedAt:  now,
		ExpiresAt: now.Add(i.tokenTTL),
	}

	if err := i.tokens.SaveToken(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to save access token: %w", err)
	}

	return token, nil
}

// TokenTTLSeconds is the expires_in value reported by the token endpoint.
func (i *Issuer) TokenTTLSeconds() int {
	return int(i.tokenTTL / time.Second)
}

// BuildRedirectURL builds the callback URL with code and state
func BuildRedirectURL(redirectURI, code, state string) string {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return redirectURI // fallback
	}

	q := u.Query()
	q.Set("code", code)
	if state != "" {
		q.Set("state", state)
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// BuildErrorRedirectURL builds a callback URL with error information
func BuildErrorRedirectURL(redirectURI, errorCode, errorDescription, state string) string {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return redirectURI // fallback
	}

	q := u.Query()
	q.Set("error", errorCode)
	if errorDescription != "" {
		q.Set("error_description", errorDescription)
	}
	if state != "" {
		q.Set("state", state)
	}
	u.RawQuery = q.Encode()

	return u.String()
}

func generateRandomCode(length int) string {
	bytes := make([]byte, length)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
