package item

import (
	"errors"

	"gorm.io/gorm"
)

type Repository interface {
	Create(db *gorm.DB, i *Item) error
	FindByID(db *gorm.DB, id uint) (*Item, error)
	ListByOwner(db *gorm.DB, ownerID uint) ([]Item, error)
	Save(db *gorm.DB, i *Item) error
	Delete(db *gorm.DB, id uint) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Create(db *gorm.DB, i *Item) error {
	return db.Create(i).Error
}

// FindByID returns (nil, nil) when no item matches.
func (r *repositoryImpl) FindByID(db *gorm.DB, id uint) (*Item, error) {
	var i Item
	err := db.First(&i, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *repositoryImpl) ListByOwner(db *gorm.DB, ownerID uint) ([]Item, error) {
	var items []Item
	err := db.Where("owner_id = ?", ownerID).Find(&items).Error
	return items, err
}

func (r *repositoryImpl) Save(db *gorm.DB, i *Item) error {
	return db.Save(i).Error
}

func (r *repositoryImpl) Delete(db *gorm.DB, id uint) error {
	return db.Delete(&Item{}, id).Error
}
