package auth

import "time"

// RefreshToken is the persisted record of one issued refresh token.
// Only the HMAC of the raw token is stored, never the raw token itself,
// so the table can never leak usable credentials. Records are retained
// after revocation for reuse detection; they are never deleted here.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"index;not null"`
	TokenHash string    `gorm:"uniqueIndex;size:64;not null"`
	Revoked   bool      `gorm:"not null;default:false"`
	CreatedAt time.Time
	ExpiresAt time.Time `gorm:"index;not null"`
}
