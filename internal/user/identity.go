package user

import (
	"gorm.io/gorm"

	"github.com/backend-starter/api/internal/auth"
)

// identityStore adapts Repository to the auth subsystem's view of an
// account.
type identityStore struct {
	repo Repository
}

func NewIdentityStore(repo Repository) auth.IdentityStore {
	return &identityStore{repo: repo}
}

func (s *identityStore) FindByEmail(db *gorm.DB, email string) (*auth.Identity, error) {
	u, err := s.repo.FindByEmail(db, email)
	if err != nil || u == nil {
		return nil, err
	}
	return toIdentity(u), nil
}

func (s *identityStore) FindByID(db *gorm.DB, id uint) (*auth.Identity, error) {
	u, err := s.repo.FindByID(db, id)
	if err != nil || u == nil {
		return nil, err
	}
	return toIdentity(u), nil
}

func toIdentity(u *User) *auth.Identity {
	return &auth.Identity{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.Password,
		Active:       u.IsActive,
	}
}
