package user

import "gorm.io/gorm"

// User is a registered account. The password is stored only as a
// bcrypt hash and never serialized.
type User struct {
	gorm.Model
	Email    string `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Password string `json:"-" gorm:"size:255;not null"`
	IsActive bool   `json:"is_active" gorm:"not null;default:true"`
}
