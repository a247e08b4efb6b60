package item

import "gorm.io/gorm"

// Item is a user-owned resource. Every operation on it is scoped to
// its owner.
type Item struct {
	gorm.Model
	Title       string `json:"title" gorm:"size:255;not null"`
	Description string `json:"description" gorm:"size:255"`
	OwnerID     uint   `json:"owner_id" gorm:"index;not null"`
}
