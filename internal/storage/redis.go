package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"authgate/internal/models"
)

type RedisStorage struct {
	client *redis.Client
}

func NewRedisStorage(client *redis.Client) *RedisStorage {
	return &RedisStorage{
		client: client,
	}
}

func (r *RedisStorage) SaveToken(ctx context.Context, token *models.AccessToken) error {
	key := fmt.Sprintf("token:%s", token.Token)

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	// Tokens without an expiry are stored without a TTL.
	var ttl time.Duration
	if !token.ExpiresAt.IsZero() {
		ttl = time.Until(token.ExpiresAt)
		if ttl <= 0 {
			return fmt.Errorf("token already expired")
		}
	}

	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	return nil
}

func (r *RedisStorage) GetToken(ctx context.Context, tokenValue string) (*models.AccessToken, error) {
	key := fmt.Sprintf("token:%s", tokenValue)

	data, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	var token models.AccessToken
	if err := json.Unmarshal([]byte(data), &token); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token: %w", err)
	}

	if token.Expired(time.Now()) {
		r.client.Del(ctx, key)
		return nil, nil
	}

	return &token, nil
}

func (r *RedisStorage) DeleteToken(ctx context.Context, tokenValue string) error {
	key := fmt.Sprintf("token:%s", tokenValue)
	return r.client.Del(ctx, key).Err()
}

func (r *RedisStorage) SaveCode(ctx context.Context, code *models.AuthorizationCode) error {
	key := fmt.Sprintf("auth_code:%s", code.Code)

	data, err := json.Marshal(code)
	if err != nil {
		return fmt.Errorf("failed to marshal authorization code: %w", err)
	}

	ttl := time.Until(code.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("authorization code already expired")
	}

	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save authorization code: %w", err)
	}

	return nil
}

// ConsumeCode redeems via GETDEL: a single command, so concurrent exchange
// attempts race on the server and exactly one gets the value back. The TTL
// set at save time makes expired codes absent without a check here.
func (r *RedisStorage) ConsumeCode(ctx context.Context, codeValue string) (*models.AuthorizationCode, error) {
	key := fmt.Sprintf("auth_code:%s", codeValue)

	data, err := r.client.GetDel(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume authorization code: %w", err)
	}

	var code models.AuthorizationCode
	if err := json.Unmarshal([]byte(data), &code); err != nil {
		return nil, fmt.Errorf("failed to unmarshal authorization code: %w", err)
	}

	if code.Redeemed || code.Expired(time.Now()) {
		return nil, nil
	}

	code.Redeemed = true
	return &code, nil
}

func (r *RedisStorage) SaveSession(ctx context.Context, session *models.Session) error {
	key := fmt.Sprintf("session:%s", session.ID)

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}

	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

func (r *RedisStorage) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	key := fmt.Sprintf("session:%s", sessionID)

	data, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	if session.Expired(time.Now()) {
		r.client.Del(ctx, key)
		return nil, nil
	}

	return &session, nil
}

func (r *RedisStorage) DeleteSession(ctx context.Context, sessionID string) error {
	key := fmt.Sprintf("session:%s", sessionID)
	return r.client.Del(ctx, key).Err()
}
