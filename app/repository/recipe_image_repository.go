package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/plateful-app/plateful/app/models"
)

// recipeImageRepository implements the RecipeImageRepository interface
type recipeImageRepository struct {
	db *gorm.DB
}

// NewRecipeImageRepository creates a new recipe image repository instance
func NewRecipeImageRepository(db *gorm.DB) RecipeImageRepository {
	return &recipeImageRepository{db: db}
}

// GetByRecipeID retrieves the current image row for a recipe
func (r *recipeImageRepository) GetByRecipeID(recipeID uint) (*models.RecipeImage, error) {
	var image models.RecipeImage
	err := r.db.Where("recipe_id = ?", recipeID).First(&image).Error
	if err != nil {
		return nil, err
	}
	return &image, nil
}

// Replace upserts the association row for a recipe. The unique index on
// recipe_id guarantees at most one live row; concurrent regenerations are
// last-writer-wins on this row. Returns the superseded object path so the
// caller can delete the old object after the new row is committed.
func (r *recipeImageRepository) Replace(image *models.RecipeImage) (string, error) {
	previousPath := ""

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var existing models.RecipeImage
		err := tx.Where("recipe_id = ?", image.RecipeID).First(&existing).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return tx.Create(image).Error
			}
			return err
		}

		previousPath = existing.ImagePath
		res := tx.Model(&models.RecipeImage{}).
			Where("id = ?", existing.ID).
			Updates(map[string]interface{}{
				"user_id":     image.UserID,
				"image_path":  image.ImagePath,
				"image_model": image.ImageModel,
				"expires_at":  image.ExpiresAt,
				"updated_at":  time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		image.ID = existing.ID
		image.CreatedAt = existing.CreatedAt
		return nil
	})
	if err != nil {
		return "", err
	}

	// The previous path may equal the new one when a caller re-saves the same
	// object; never report it as superseded in that case.
	if previousPath == image.ImagePath {
		previousPath = ""
	}
	return previousPath, nil
}

// DeleteByRecipeID removes the association row for a recipe
func (r *recipeImageRepository) DeleteByRecipeID(recipeID uint) error {
	return r.db.Where("recipe_id = ?", recipeID).Delete(&models.RecipeImage{}).Error
}
