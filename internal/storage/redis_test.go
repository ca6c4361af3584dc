package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authgate/internal/models"
)

func newRedisStorage(t *testing.T) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStorage(client), mr
}

func TestRedisTokenRoundTrip(t *testing.T) {
	store, _ := newRedisStorage(t)
	ctx := context.Background()

	token := &models.AccessToken{
		Token:     "tok-1",
		ClientID:  "acme",
		Principal: testPrincipal(),
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, store.SaveToken(ctx, token))

	got, err := store.GetToken(ctx, "tok-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, testPrincipal(), got.Principal)

	require.NoError(t, store.DeleteToken(ctx, "tok-1"))
	got, err = store.GetToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisTokenTTLExpiry(t *testing.T) {
	store, mr := newRedisStorage(t)
	ctx := context.Background()

	token := &models.AccessToken{
		Token:     "tok-short",
		Principal: testPrincipal(),
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, store.SaveToken(ctx, token))

	mr.FastForward(2 * time.Hour)

	got, err := store.GetToken(ctx, "tok-short")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisSaveTokenAlreadyExpired(t *testing.T) {
	store, _ := newRedisStorage(t)

	err := store.SaveToken(context.Background(), &models.AccessToken{
		Token:     "tok-dead",
		ExpiresAt: time.Now().Add(-time.Minute),
	})
	assert.Error(t, err)
}

func TestRedisConsumeCodeSingleUse(t *testing.T) {
	store, _ := newRedisStorage(t)
	ctx := context.Background()

	code := &models.AuthorizationCode{
		Code:        "code-1",
		ClientID:    "acme",
		RedirectURI: "http://localhost:9999/client/login",
		Principal:   testPrincipal(),
		CreatedAt:   time.Now(),
		ExpiresAt:   time.Now().Add(time.Minute),
	}
	require.NoError(t, store.SaveCode(ctx, code))

	first, err := store.ConsumeCode(ctx, "code-1")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.True(t, first.Redeemed)
	assert.Equal(t, "acme", first.ClientID)

	second, err := store.ConsumeCode(ctx, "code-1")
	require.NoError(t, err)
	assert.Nil(t, second, "a redeemed code must not be consumable again")
}

func TestRedisConsumeCodeExpired(t *testing.T) {
	store, mr := newRedisStorage(t)
	ctx := context.Background()

	code := &models.AuthorizationCode{
		Code:      "code-old",
		Principal: testPrincipal(),
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Minute),
	}
	require.NoError(t, store.SaveCode(ctx, code))

	mr.FastForward(2 * time.Minute)

	got, err := store.ConsumeCode(ctx, "code-old")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisSessionRoundTrip(t *testing.T) {
	store, _ := newRedisStorage(t)
	ctx := context.Background()

	session := &models.Session{
		ID:        "sess-1",
		Principal: testPrincipal(),
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, store.SaveSession(ctx, session))

	got, err := store.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, testPrincipal(), got.Principal)

	require.NoError(t, store.DeleteSession(ctx, "sess-1"))
	got, err = store.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}
