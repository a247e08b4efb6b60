package auth

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/backend-starter/api/internal/utils"
)

// fakeIdentityStore serves accounts from memory.
type fakeIdentityStore struct {
	byEmail map[string]*Identity
}

func newFakeIdentityStore(identities ...*Identity) *fakeIdentityStore {
	s := &fakeIdentityStore{byEmail: make(map[string]*Identity)}
	for _, id := range identities {
		s.byEmail[id.Email] = id
	}
	return s
}

func (s *fakeIdentityStore) FindByEmail(_ *gorm.DB, email string) (*Identity, error) {
	if id, ok := s.byEmail[email]; ok {
		copied := *id
		return &copied, nil
	}
	return nil, nil
}

func (s *fakeIdentityStore) FindByID(_ *gorm.DB, id uint) (*Identity, error) {
	for _, identity := range s.byEmail {
		if identity.ID == id {
			copied := *identity
			return &copied, nil
		}
	}
	return nil, nil
}

// fakeRefreshStore mimics the relational store, including the
// compare-and-set semantics of Rotate.
type fakeRefreshStore struct {
	mu      sync.Mutex
	nextID  uint
	records map[string]*RefreshToken // raw token -> record
}

func newFakeRefreshStore() *fakeRefreshStore {
	return &fakeRefreshStore{records: make(map[string]*RefreshToken)}
}

func (s *fakeRefreshStore) issueLocked(userID uint) (string, *RefreshToken) {
	s.nextID++
	raw := fmt.Sprintf("raw-token-%d", s.nextID)
	record := &RefreshToken{
		ID:        s.nextID,
		UserID:    userID,
		TokenHash: fmt.Sprintf("hash-%d", s.nextID),
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(30 * 24 * time.Hour),
	}
	s.records[raw] = record
	return raw, record
}

func (s *fakeRefreshStore) Issue(userID uint) (string, *RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, record := s.issueLocked(userID)
	copied := *record
	return raw, &copied, nil
}

func (s *fakeRefreshStore) FindByRawToken(raw string) (*RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[raw]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (s *fakeRefreshStore) Rotate(record *RefreshToken) (string, *RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, current := range s.records {
		if current.ID == record.ID {
			if current.Revoked {
				return "", nil, ErrTokenClaimed
			}
			current.Revoked = true
			raw, successor := s.issueLocked(record.UserID)
			copied := *successor
			return raw, &copied, nil
		}
	}
	return "", nil, ErrTokenClaimed
}

func (s *fakeRefreshStore) Revoke(raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record, ok := s.records[raw]; ok {
		record.Revoked = true
	}
	return nil
}

func (s *fakeRefreshStore) RevokeAllForUser(userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range s.records {
		if record.UserID == userID {
			record.Revoked = true
		}
	}
	return nil
}

func (s *fakeRefreshStore) expire(raw string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[raw].ExpiresAt = at
}

func (s *fakeRefreshStore) activeCount(userID uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, record := range s.records {
		if record.UserID == userID && !record.Revoked {
			n++
		}
	}
	return n
}

const testPassword = "Str0ng!Passw0rd"

func newTestSessionManager(t *testing.T) (*SessionManager, *fakeRefreshStore) {
	t.Helper()
	hash, err := utils.HashPassword(testPassword)
	require.NoError(t, err)

	identities := newFakeIdentityStore(
		&Identity{ID: 1, Email: "alice@example.com", PasswordHash: hash, Active: true},
		&Identity{ID: 2, Email: "inactive@example.com", PasswordHash: hash, Active: false},
	)
	store := newFakeRefreshStore()
	tokens := NewTokenService(testTokenConfig())
	return NewSessionManager(nil, identities, tokens, store, 30*time.Second, zap.NewNop()), store
}

func TestLoginReturnsVerifiablePair(t *testing.T) {
	manager, _ := newTestSessionManager(t)

	pair, err := manager.Login("alice@example.com", testPassword)
	require.NoError(t, err)
	assert.Equal(t, "bearer", pair.TokenType)
	assert.NotEmpty(t, pair.RefreshToken)

	userID, err := manager.tokens.Verify(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(1), userID)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	manager, store := newTestSessionManager(t)

	_, unknownErr := manager.Login("nobody@example.com", testPassword)
	_, wrongErr := manager.Login("alice@example.com", "wrong-password")

	assert.ErrorIs(t, unknownErr, ErrAuthenticationFailed)
	assert.ErrorIs(t, wrongErr, ErrAuthenticationFailed)
	assert.Equal(t, unknownErr, wrongErr)
	assert.Zero(t, store.activeCount(1))
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	manager, _ := newTestSessionManager(t)

	_, err := manager.Login("inactive@example.com", testPassword)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestRotateConsumesTokenAndIssuesSuccessor(t *testing.T) {
	manager, store := newTestSessionManager(t)

	pair, err := manager.Login("alice@example.com", testPassword)
	require.NoError(t, err)

	rotated, err := manager.Rotate(pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)
	assert.NotEmpty(t, rotated.AccessToken)

	// Exactly one active token remains: the successor.
	assert.Equal(t, 1, store.activeCount(1))
}

func TestRotateReuseTriggersCascadingRevocation(t *testing.T) {
	manager, store := newTestSessionManager(t)

	pair, err := manager.Login("alice@example.com", testPassword)
	require.NoError(t, err)
	rotated, err := manager.Rotate(pair.RefreshToken)
	require.NoError(t, err)

	// Replaying the consumed token fails and takes the whole family
	// down with it.
	_, err = manager.Rotate(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshInvalid)
	assert.Zero(t, store.activeCount(1))

	_, err = manager.Rotate(rotated.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshInvalid)
}

func TestRotateUnknownTokenDoesNotCascade(t *testing.T) {
	manager, store := newTestSessionManager(t)

	pair, err := manager.Login("alice@example.com", testPassword)
	require.NoError(t, err)

	_, err = manager.Rotate("completely-unknown-token")
	assert.ErrorIs(t, err, ErrRefreshInvalid)

	// The legitimate token is untouched.
	_, err = manager.Rotate(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, 1, store.activeCount(1))
}

func TestRotateExpiredTokenIsBenign(t *testing.T) {
	manager, store := newTestSessionManager(t)

	first, err := manager.Login("alice@example.com", testPassword)
	require.NoError(t, err)
	second, err := manager.Login("alice@example.com", testPassword)
	require.NoError(t, err)

	store.expire(first.RefreshToken, time.Now().Add(-time.Hour))

	_, err = manager.Rotate(first.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshInvalid)

	// Expiry is not a theft signal: the second session still works.
	_, err = manager.Rotate(second.RefreshToken)
	require.NoError(t, err)
}

func TestRotateExpiredWithinLeewayStillWorks(t *testing.T) {
	manager, store := newTestSessionManager(t)

	pair, err := manager.Login("alice@example.com", testPassword)
	require.NoError(t, err)

	store.expire(pair.RefreshToken, time.Now().Add(-10*time.Second))

	_, err = manager.Rotate(pair.RefreshToken)
	require.NoError(t, err)
}

func TestLogoutIsIdempotent(t *testing.T) {
	manager, store := newTestSessionManager(t)

	pair, err := manager.Login("alice@example.com", testPassword)
	require.NoError(t, err)

	manager.Logout(pair.RefreshToken)
	manager.Logout(pair.RefreshToken)
	manager.Logout("garbage-token")

	assert.Zero(t, store.activeCount(1))

	// Using a logged-out token afterwards is a reuse signal.
	_, err = manager.Rotate(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshInvalid)
}

func TestConcurrentRotationSingleWinner(t *testing.T) {
	manager, store := newTestSessionManager(t)

	pair, err := manager.Login("alice@example.com", testPassword)
	require.NoError(t, err)

	const attempts = 8
	var wg sync.WaitGroup
	results := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = manager.Rotate(pair.RefreshToken)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range results {
		if err == nil {
			successes++
			continue
		}
		assert.True(t, errors.Is(err, ErrRefreshInvalid))
	}
	assert.Equal(t, 1, successes)

	// At least one loser went through the reuse path, so the winner's
	// successor is revoked too.
	assert.Zero(t, store.activeCount(1))
}
