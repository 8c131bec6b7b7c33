package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Recipe anchors the recipe↔image association. The recipe text itself comes
// from an external generation pipeline and is stored as-is.
type Recipe struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UUID        string         `gorm:"type:char(36);uniqueIndex;not null" json:"uuid"`
	UserID      uint           `gorm:"index;not null" json:"user_id"`
	User        User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Title       string         `gorm:"type:varchar(255);not null" json:"title" validate:"required,max=255"`
	Description string         `gorm:"type:text" json:"description"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.UUID == "" {
		r.UUID = uuid.New().String()
	}
	return nil
}

// FindRecipeByUUID finds a recipe by its UUID
func FindRecipeByUUID(db *gorm.DB, uuid string) (*Recipe, error) {
	var recipe Recipe
	result := db.Where("uuid = ?", uuid).First(&recipe)
	return &recipe, result.Error
}
