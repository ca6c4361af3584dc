package social

import (
	"context"

	"authgate/internal/models"
)

// Provider is an upstream social identity provider. The login handshake is
// the provider's business; this interface only cares about where to send the
// user and what identity comes back.
type Provider interface {
	Name() string

	// LoginURL is where the browser goes to authenticate. state is echoed
	// back on the callback.
	LoginURL(state string) string

	// Authenticate trades the provider's callback code for the authenticated
	// identity.
	Authenticate(ctx context.Context, code string) (*models.Principal, error)
}
