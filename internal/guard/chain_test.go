package guard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authgate/internal/models"
	"authgate/internal/storage"
)

func testPrincipal() models.Principal {
	return models.Principal{ID: "github:1", DisplayName: "Ada Lovelace"}
}

// testChain is the configuration from the design brief: a token-guarded alias
// at the highest precedence in front of a session-guarded catch-all.
func testChain(t *testing.T, store *storage.MemoryStorage) *Chain {
	t.Helper()
	chain, err := NewChain([]Rule{
		{Pattern: "/me", Guard: &TokenGuard{Tokens: store}, Order: 0},
		{Pattern: "/**", Guard: &SessionGuard{Sessions: store, LoginPath: "/login"}, Order: 10},
	})
	require.NoError(t, err)
	return chain
}

func echoHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sc, ok := FromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"name": sc.Principal.DisplayName, "method": string(sc.Method)})
	})
}

func TestNewChainRejectsEqualOrderOverlap(t *testing.T) {
	store := storage.NewMemoryStorage()

	_, err := NewChain([]Rule{
		{Pattern: "/me", Guard: &TokenGuard{Tokens: store}, Order: 5},
		{Pattern: "/**", Guard: &SessionGuard{Sessions: store}, Order: 5},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "equal order")
}

func TestNewChainAllowsEqualOrderDisjoint(t *testing.T) {
	store := storage.NewMemoryStorage()

	_, err := NewChain([]Rule{
		{Pattern: "/me", Guard: &TokenGuard{Tokens: store}, Order: 0},
		{Pattern: "/healthz", Guard: AllowGuard{}, Order: 0},
		{Pattern: "/**", Guard: &SessionGuard{Sessions: store}, Order: 10},
	})
	assert.NoError(t, err)
}

func TestNewChainRejectsNoCatchAll(t *testing.T) {
	store := storage.NewMemoryStorage()

	_, err := NewChain([]Rule{
		{Pattern: "/me", Guard: &TokenGuard{Tokens: store}, Order: 0},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unguarded")
}

func TestNewChainRejectsEmpty(t *testing.T) {
	_, err := NewChain(nil)
	assert.Error(t, err)
}

func TestChainTokenAliasWinsOverCatchAll(t *testing.T) {
	store := storage.NewMemoryStorage()
	chain := testChain(t, store)
	handler := chain.Middleware(echoHandler())

	require.NoError(t, store.SaveToken(context.Background(), &models.AccessToken{
		Token:     "tok-1",
		Principal: testPrincipal(),
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	// Valid bearer token, no session: the token guard must be authoritative.
	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer tok-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Ada Lovelace", body["name"])
	assert.Equal(t, "token", body["method"])
}

func TestChainTokenFailureDoesNotFallThrough(t *testing.T) {
	store := storage.NewMemoryStorage()
	chain := testChain(t, store)
	handler := chain.Middleware(echoHandler())

	// No token on the token-guarded alias: 401, never a login redirect.
	req := httptest.NewRequest("GET", "/me", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Header().Get("Location"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unauthenticated", body["error"])
}

func TestChainExpiredTokenRejected(t *testing.T) {
	store := storage.NewMemoryStorage()
	chain := testChain(t, store)
	handler := chain.Middleware(echoHandler())

	require.NoError(t, store.SaveToken(context.Background(), &models.AccessToken{
		Token:     "tok-old",
		Principal: testPrincipal(),
		IssuedAt:  time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
	}))

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer tok-old")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid_token", body["error"])
}

func TestChainSessionCatchAllRedirectsToLogin(t *testing.T) {
	store := storage.NewMemoryStorage()
	chain := testChain(t, store)
	handler := chain.Middleware(echoHandler())

	req := httptest.NewRequest("GET", "/whoami", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?return_to=%2Fwhoami", rec.Header().Get("Location"))
}

func TestChainSessionCookieAuthenticates(t *testing.T) {
	store := storage.NewMemoryStorage()
	chain := testChain(t, store)
	handler := chain.Middleware(echoHandler())

	require.NoError(t, store.SaveSession(context.Background(), &models.Session{
		ID:        "sess-1",
		Principal: testPrincipal(),
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "sess-1"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Ada Lovelace", body["name"])
	assert.Equal(t, "session", body["method"])
}

func TestChainStaleSessionCookieRedirects(t *testing.T) {
	store := storage.NewMemoryStorage()
	chain := testChain(t, store)
	handler := chain.Middleware(echoHandler())

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "gone"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestAllowGuardPassesWithoutContext(t *testing.T) {
	store := storage.NewMemoryStorage()
	chain, err := NewChain([]Rule{
		{Pattern: "/healthz", Guard: AllowGuard{}, Order: 0},
		{Pattern: "/**", Guard: &SessionGuard{Sessions: store, LoginPath: "/login"}, Order: 10},
	})
	require.NoError(t, err)

	handler := chain.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := FromContext(r.Context())
		assert.False(t, ok)
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}
