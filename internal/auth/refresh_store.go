package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// rawTokenBytes is the entropy of a raw refresh token. 48 random bytes
// encode to a 64-character URL-safe string.
const rawTokenBytes = 48

// RefreshStore persists refresh-token records. Rotate is the atomic
// claim-and-reissue primitive: exactly one of any number of concurrent
// rotations of the same record succeeds; the losers get
// ErrTokenClaimed.
type RefreshStore interface {
	Issue(userID uint) (string, *RefreshToken, error)
	FindByRawToken(raw string) (*RefreshToken, error)
	Rotate(record *RefreshToken) (string, *RefreshToken, error)
	Revoke(raw string) error
	RevokeAllForUser(userID uint) error
}

type refreshStore struct {
	db     *gorm.DB
	secret []byte
	ttl    time.Duration
}

// NewRefreshStore returns a gorm-backed RefreshStore. The secret keys
// the HMAC under which raw tokens are stored; ttl is the absolute
// lifetime of newly issued tokens.
func NewRefreshStore(db *gorm.DB, secret string, ttl time.Duration) RefreshStore {
	return &refreshStore{db: db, secret: []byte(secret), ttl: ttl}
}

func genRaw() (string, error) {
	b := make([]byte, rawTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// hashRaw computes the deterministic keyed hash stored in place of the
// raw token.
func (s *refreshStore) hashRaw(raw string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *refreshStore) newRecord(tx *gorm.DB, userID uint) (string, *RefreshToken, error) {
	raw, err := genRaw()
	if err != nil {
		return "", nil, fmt.Errorf("generate refresh token: %w", err)
	}
	record := &RefreshToken{
		UserID:    userID,
		TokenHash: s.hashRaw(raw),
		ExpiresAt: time.Now().Add(s.ttl),
	}
	if err := tx.Create(record).Error; err != nil {
		return "", nil, fmt.Errorf("store refresh token: %w", err)
	}
	return raw, record, nil
}

// Issue creates a fresh record for the user and returns the raw token
// alongside it. The raw token is handed to the caller and never stored.
func (s *refreshStore) Issue(userID uint) (string, *RefreshToken, error) {
	return s.newRecord(s.db, userID)
}

// FindByRawToken hashes the input and looks the record up by hash.
// Returns (nil, nil) when no record matches.
func (s *refreshStore) FindByRawToken(raw string) (*RefreshToken, error) {
	var record RefreshToken
	err := s.db.Where("token_hash = ?", s.hashRaw(raw)).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup refresh token: %w", err)
	}
	return &record, nil
}

// Rotate revokes the given record and issues its successor inside a
// single transaction. The revoke step is a conditional update on the
// revoked flag, so of two racing rotations exactly one sees the record
// as active; the other gets ErrTokenClaimed and nothing committed.
func (s *refreshStore) Rotate(record *RefreshToken) (string, *RefreshToken, error) {
	var (
		raw       string
		successor *RefreshToken
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&RefreshToken{}).
			Where("id = ? AND revoked = ?", record.ID, false).
			Update("revoked", true)
		if res.Error != nil {
			return fmt.Errorf("claim refresh token: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrTokenClaimed
		}
		var err error
		raw, successor, err = s.newRecord(tx, record.UserID)
		return err
	})
	if err != nil {
		return "", nil, err
	}
	return raw, successor, nil
}

// Revoke idempotently marks the record matching the raw token as
// revoked. Unknown and already-revoked tokens are no-ops.
func (s *refreshStore) Revoke(raw string) error {
	err := s.db.Model(&RefreshToken{}).
		Where("token_hash = ? AND revoked = ?", s.hashRaw(raw), false).
		Update("revoked", true).Error
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeAllForUser flips every record owned by the user to revoked,
// regardless of current state. This is the cascading-revocation
// primitive used on reuse detection.
func (s *refreshStore) RevokeAllForUser(userID uint) error {
	err := s.db.Model(&RefreshToken{}).
		Where("user_id = ?", userID).
		Update("revoked", true).Error
	if err != nil {
		return fmt.Errorf("revoke refresh tokens for user: %w", err)
	}
	return nil
}
