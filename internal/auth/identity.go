package auth

import "gorm.io/gorm"

// Identity is the minimal view of a user account the auth subsystem
// needs: enough to verify credentials and to confirm a token subject
// still refers to a live account.
type Identity struct {
	ID           uint
	Email        string
	PasswordHash string
	Active       bool
}

// IdentityStore resolves accounts for login and token verification.
// The user package provides the gorm-backed implementation; tests use
// in-memory fakes. A nil Identity with a nil error means "not found".
type IdentityStore interface {
	FindByEmail(db *gorm.DB, email string) (*Identity, error)
	FindByID(db *gorm.DB, id uint) (*Identity, error)
}
