package storage

import (
	"context"

	"authgate/internal/models"
)

// TokenStore holds issued access tokens. Lookup runs on every protected
// request; implementations must support concurrent readers without blocking
// each other. Expired tokens are treated as absent on lookup.
type TokenStore interface {
	SaveToken(ctx context.Context, token *models.AccessToken) error
	GetToken(ctx context.Context, tokenValue string) (*models.AccessToken, error)
	DeleteToken(ctx context.Context, tokenValue string) error
}

// CodeStore holds pending authorization codes. ConsumeCode is the single-use
// redemption: it returns the code and marks it redeemed in one atomic step, so
// two concurrent exchanges of the same code cannot both succeed. It returns
// (nil, nil) for codes that are unknown, expired, or already redeemed.
type CodeStore interface {
	SaveCode(ctx context.Context, code *models.AuthorizationCode) error
	ConsumeCode(ctx context.Context, codeValue string) (*models.AuthorizationCode, error)
}

// SessionStore holds interactive browser sessions established by social login.
type SessionStore interface {
	SaveSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// Store is the full persistence surface of the authorization server.
type Store interface {
	TokenStore
	CodeStore
	SessionStore
}
