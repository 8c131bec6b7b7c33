package models

import (
	"time"
)

// RecipeImageTTL is the advisory lifetime of a stored recipe image. The field
// is surfaced to clients ("image expires in N days") but nothing sweeps
// expired rows or objects.
const RecipeImageTTL = 7 * 24 * time.Hour

// RecipeImage links a recipe to its current stored image object. A recipe has
// at most one live row at a time (unique index on recipe_id); regeneration
// replaces the row in place and deletes the superseded object.
type RecipeImage struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"index;not null" json:"user_id"`
	RecipeID   uint      `gorm:"uniqueIndex;not null" json:"recipe_id"`
	ImagePath  string    `gorm:"type:varchar(255);not null" json:"image_path"`
	ImageModel string    `gorm:"type:varchar(50);not null" json:"image_model"`
	ExpiresAt  time.Time `gorm:"not null" json:"expires_at"`
	ViewCount  int64     `gorm:"not null;default:0" json:"view_count"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Expired reports whether the advisory TTL has passed.
func (ri *RecipeImage) Expired() bool {
	return time.Now().After(ri.ExpiresAt)
}

// ExpiresInDays returns the remaining advisory lifetime in whole days, never
// negative.
func (ri *RecipeImage) ExpiresInDays() int {
	remaining := time.Until(ri.ExpiresAt)
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Hours() / 24)
}
