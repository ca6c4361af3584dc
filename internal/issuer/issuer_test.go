package issuer

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authgate/internal/models"
	"authgate/internal/registry"
	"authgate/internal/storage"
)

const (
	testClientID = "acme"
	testSecret   = "acme-secret"
	testRedirect = "http://localhost:9999/client/login"
)

func testIssuer(t *testing.T) (*Issuer, *storage.MemoryStorage) {
	t.Helper()

	reg, err := registry.Parse([]byte(`
clients:
  - id: acme
    secret: acme-secret
    name: Acme Dashboard
    redirect_uris:
      - http://localhost:9999/client/login
`))
	require.NoError(t, err)

	store := storage.NewMemoryStorage()
	return New(reg, store, store), store
}

func testPrincipal() models.Principal {
	return models.Principal{ID: "github:1", DisplayName: "Ada Lovelace"}
}

func TestBeginAuthorizationUnknownClient(t *testing.T) {
	iss, _ := testIssuer(t)

	_, err := iss.BeginAuthorization(context.Background(), "ghost", testRedirect, testPrincipal())
	assert.ErrorIs(t, err, ErrInvalidClient)
}

func TestBeginAuthorizationRedirectNotAllowed(t *testing.T) {
	iss, _ := testIssuer(t)

	_, err := iss.BeginAuthorization(context.Background(), testClientID, "http://evil.example/steal", testPrincipal())
	assert.ErrorIs(t, err, ErrInvalidRedirect)
}

func TestBeginAuthorizationIssuesShortLivedCode(t *testing.T) {
	iss, _ := testIssuer(t)

	code, err := iss.BeginAuthorization(context.Background(), testClientID, testRedirect, testPrincipal())
	require.NoError(t, err)
	assert.NotEmpty(t, code.Code)
	assert.Equal(t, testClientID, code.ClientID)
	assert.False(t, code.Redeemed)
	assert.WithinDuration(t, time.Now().Add(CodeTTL), code.ExpiresAt, 5*time.Second)
}

func TestExchangeCodeRoundTripsPrincipal(t *testing.T) {
	iss, store := testIssuer(t)
	ctx := context.Background()

	code, err := iss.BeginAuthorization(ctx, testClientID, testRedirect, testPrincipal())
	require.NoError(t, err)

	token, err := iss.ExchangeCode(ctx, code.Code, testClientID, testSecret, testRedirect)
	require.NoError(t, err)
	assert.NotEmpty(t, token.Token)

	// The principal resolved through the token store must be the one that
	// authenticated interactively, by id and display name.
	stored, err := store.GetToken(ctx, token.Token)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, testPrincipal().ID, stored.Principal.ID)
	assert.Equal(t, testPrincipal().DisplayName, stored.Principal.DisplayName)
}

func TestExchangeCodeBadSecret(t *testing.T) {
	iss, _ := testIssuer(t)
	ctx := context.Background()

	code, err := iss.BeginAuthorization(ctx, testClientID, testRedirect, testPrincipal())
	require.NoError(t, err)

	_, err = iss.ExchangeCode(ctx, code.Code, testClientID, "wrong", testRedirect)
	assert.ErrorIs(t, err, ErrInvalidClient)

	// The bad-secret attempt must not have burned the code.
	_, err = iss.ExchangeCode(ctx, code.Code, testClientID, testSecret, testRedirect)
	assert.NoError(t, err)
}

func TestExchangeCodeUnknownClient(t *testing.T) {
	iss, _ := testIssuer(t)

	_, err := iss.ExchangeCode(context.Background(), "whatever", "ghost", "x", testRedirect)
	assert.ErrorIs(t, err, ErrInvalidClient)
}

func TestExchangeCodeUnknown(t *testing.T) {
	iss, _ := testIssuer(t)

	_, err := iss.ExchangeCode(context.Background(), "no-such-code", testClientID, testSecret, testRedirect)
	assert.ErrorIs(t, err, ErrInvalidGrant)
}

func TestExchangeCodeRedirectMismatchBurnsCode(t *testing.T) {
	iss, _ := testIssuer(t)
	ctx := context.Background()

	code, err := iss.BeginAuthorization(ctx, testClientID, testRedirect, testPrincipal())
	require.NoError(t, err)

	_, err = iss.ExchangeCode(ctx, code.Code, testClientID, testSecret, "http://localhost:9999/other")
	assert.ErrorIs(t, err, ErrInvalidGrant)

	// A code that reached redemption with a mismatched redirect stays burned.
	_, err = iss.ExchangeCode(ctx, code.Code, testClientID, testSecret, testRedirect)
	assert.ErrorIs(t, err, ErrInvalidGrant)
}

func TestExchangeCodeSingleUse(t *testing.T) {
	iss, _ := testIssuer(t)
	ctx := context.Background()

	code, err := iss.BeginAuthorization(ctx, testClientID, testRedirect, testPrincipal())
	require.NoError(t, err)

	_, err = iss.ExchangeCode(ctx, code.Code, testClientID, testSecret, testRedirect)
	require.NoError(t, err)

	_, err = iss.ExchangeCode(ctx, code.Code, testClientID, testSecret, testRedirect)
	assert.ErrorIs(t, err, ErrInvalidGrant)
}

func TestExchangeCodeConcurrentSingleWinner(t *testing.T) {
	iss, _ := testIssuer(t)
	ctx := context.Background()

	code, err := iss.BeginAuthorization(ctx, testClientID, testRedirect, testPrincipal())
	require.NoError(t, err)

	const attempts = 16
	var wins atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := iss.ExchangeCode(ctx, code.Code, testClientID, testSecret, testRedirect); err == nil {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load(), "exactly one concurrent exchange may mint a token")
}

func TestExchangeCodeExpired(t *testing.T) {
	iss, _ := testIssuer(t)
	ctx := context.Background()

	code := &models.AuthorizationCode{
		Code:      "stale",
		ClientID:  testClientID,
		Principal: testPrincipal(),
		CreatedAt: time.Now().Add(-time.Minute),
		ExpiresAt: time.Now().Add(-time.Second),
	}
	require.NoError(t, iss.codes.SaveCode(ctx, code))

	_, err := iss.ExchangeCode(ctx, "stale", testClientID, testSecret, testRedirect)
	assert.ErrorIs(t, err, ErrInvalidGrant)
}

func TestBuildRedirectURL(t *testing.T) {
	url := BuildRedirectURL("http://localhost:9999/client/login", "abc", "xyz")
	assert.Equal(t, "http://localhost:9999/client/login?code=abc&state=xyz", url)

	url = BuildRedirectURL("http://localhost:9999/client/login", "abc", "")
	assert.Equal(t, "http://localhost:9999/client/login?code=abc", url)
}

func TestBuildErrorRedirectURL(t *testing.T) {
	url := BuildErrorRedirectURL("http://localhost:9999/client/login", "server_error", "", "xyz")
	assert.Contains(t, url, "error=server_error")
	assert.Contains(t, url, "state=xyz")
	assert.NotContains(t, url, "error_description")
}
