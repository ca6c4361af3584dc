package storage

import (
	"context"
	"sync"
	"time"

	"authgate/internal/models"
)

type MemoryStorage struct {
	tokens   map[string]*models.AccessToken
	codes    map[string]*models.AuthorizationCode
	sessions map[string]*models.Session
	mu       sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	storage := &MemoryStorage{
		tokens:   make(map[string]*models.AccessToken),
		codes:    make(map[string]*models.AuthorizationCode),
		sessions: make(map[string]*models.Session),
	}

	// Start background cleanup routine
	go storage.cleanupRoutine()

	return storage
}

func (m *MemoryStorage) SaveToken(ctx context.Context, token *models.AccessToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tokens[token.Token] = token
	return nil
}

func (m *MemoryStorage) GetToken(ctx context.Context, tokenValue string) (*models.AccessToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	token, exists := m.tokens[tokenValue]
	if !exists {
		return nil, nil
	}

	// Expired tokens are logically absent even while still present in the map;
	// the cleanup routine removes them eventually.
	if token.Expired(time.Now()) {
		return nil, nil
	}

	copied := *token
	return &copied, nil
}

func (m *MemoryStorage) DeleteToken(ctx context.Context, tokenValue string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.tokens, tokenValue)
	return nil
}

func (m *MemoryStorage) SaveCode(ctx context.Context, code *models.AuthorizationCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.codes[code.Code] = code
	return nil
}

// ConsumeCode looks up and redeems a code under a single write lock, so only
// one of any number of concurrent exchange attempts can observe Redeemed as
// false.
func (m *MemoryStorage) ConsumeCode(ctx context.Context, codeValue string) (*models.AuthorizationCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	code, exists := m.codes[codeValue]
	if !exists || code.Redeemed || code.Expired(time.Now()) {
		return nil, nil
	}

	code.Redeemed = true

	copied := *code
	return &copied, nil
}

func (m *MemoryStorage) SaveSession(ctx context.Context, session *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[session.ID] = session
	return nil
}

func (m *MemoryStorage) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[sessionID]
	if !exists {
		return nil, nil
	}

	if session.Expired(time.Now()) {
		return nil, nil
	}

	copied := *session
	return &copied, nil
}

func (m *MemoryStorage) DeleteSession(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, sessionID)
	return nil
}

// cleanupRoutine runs every 5 minutes to clean up expired records
func (m *MemoryStorage) cleanupRoutine() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		m.cleanup()
	}
}

func (m *MemoryStorage) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()

	for value, token := range m.tokens {
		if token.Expired(now) {
			delete(m.tokens, value)
		}
	}

	// Redeemed codes only matter for rejecting replays, so they can go as
	// soon as they expire.
	for value, code := range m.codes {
		if code.Expired(now) {
			delete(m.codes, value)
		}
	}

	for sessionID, session := range m.sessions {
		if session.Expired(now) {
			delete(m.sessions, sessionID)
		}
	}
}
