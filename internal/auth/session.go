package auth

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/backend-starter/api/internal/utils"
)

// TokenPair is the result of a successful login or rotation.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
}

// SessionManager orchestrates login, refresh-token rotation and logout.
// Refresh tokens are single-use: a successful rotation revokes the
// presented token, and presenting an already-revoked token is treated
// as a theft signal that revokes every token the user holds.
type SessionManager struct {
	db     *gorm.DB
	users  IdentityStore
	tokens *TokenService
	store  RefreshStore
	leeway time.Duration
	log    *zap.Logger
	now    func() time.Time
}

func NewSessionManager(db *gorm.DB, users IdentityStore, tokens *TokenService, store RefreshStore, leeway time.Duration, log *zap.Logger) *SessionManager {
	return &SessionManager{
		db:     db,
		users:  users,
		tokens: tokens,
		store:  store,
		leeway: leeway,
		log:    log,
		now:    time.Now,
	}
}

// Login verifies the credentials and, on success, returns a fresh
// access/refresh pair. Unknown email and wrong password produce the
// same ErrAuthenticationFailed.
func (m *SessionManager) Login(email, password string) (*TokenPair, error) {
	identity, err := m.users.FindByEmail(m.db, email)
	if err != nil {
		return nil, fmt.Errorf("look up user: %w", err)
	}
	if identity == nil || !identity.Active {
		return nil, ErrAuthenticationFailed
	}
	// bcrypt is deliberately slow; it runs before any transaction is
	// opened.
	if !utils.CheckPassword(identity.PasswordHash, password) {
		return nil, ErrAuthenticationFailed
	}

	// Mint the access token before persisting anything so a signing
	// failure cannot leave an orphaned refresh record.
	access, err := m.tokens.Issue(identity.ID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	raw, _, err := m.store.Issue(identity.ID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, TokenType: "bearer", RefreshToken: raw}, nil
}

// Rotate exchanges a valid refresh token for a new pair, consuming the
// presented token. A token that was already consumed is a reuse signal:
// every refresh token of that user is revoked before the request fails.
// An expired token fails without the cascade. Either way the caller
// sees the same ErrRefreshInvalid.
func (m *SessionManager) Rotate(raw string) (*TokenPair, error) {
	record, err := m.store.FindByRawToken(raw)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrRefreshInvalid
	}
	if record.Revoked {
		return nil, m.handleReuse(record)
	}
	if m.now().After(record.ExpiresAt.Add(m.leeway)) {
		// Benign expiry, not a theft signal.
		return nil, ErrRefreshInvalid
	}

	access, err := m.tokens.Issue(record.UserID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	newRaw, _, err := m.store.Rotate(record)
	if errors.Is(err, ErrTokenClaimed) {
		// Lost the race against a concurrent rotation of the same
		// token: same treatment as a straight replay.
		return nil, m.handleReuse(record)
	}
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, TokenType: "bearer", RefreshToken: newRaw}, nil
}

// handleReuse revokes the whole token family of the owning user. The
// caller still gets the generic ErrRefreshInvalid; the security
// response is the internal state change, not the response shape.
func (m *SessionManager) handleReuse(record *RefreshToken) error {
	m.log.Warn("refresh token reuse detected, revoking all tokens for user",
		zap.Uint("user_id", record.UserID),
		zap.Uint("token_id", record.ID),
	)
	if err := m.store.RevokeAllForUser(record.UserID); err != nil {
		m.log.Error("cascading revocation failed", zap.Uint("user_id", record.UserID), zap.Error(err))
	}
	return ErrRefreshInvalid
}

// Logout revokes the presented refresh token. It never fails visibly:
// unknown, garbage and already-revoked tokens are all treated the same
// so the endpoint cannot be used to probe token validity.
func (m *SessionManager) Logout(raw string) {
	if err := m.store.Revoke(raw); err != nil {
		m.log.Error("logout revocation failed", zap.Error(err))
	}
}
