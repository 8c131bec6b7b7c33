package repository

import (
	"gorm.io/gorm"

	"github.com/plateful-app/plateful/app/models"
)

// recipeRepository implements the RecipeRepository interface
type recipeRepository struct {
	db *gorm.DB
}

// NewRecipeRepository creates a new recipe repository instance
func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

// Create creates a new recipe in the database
func (r *recipeRepository) Create(recipe *models.Recipe) error {
	return r.db.Create(recipe).Error
}

// GetByID retrieves a recipe by its ID
func (r *recipeRepository) GetByID(id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	err := r.db.First(&recipe, id).Error
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

// GetByUUID retrieves a recipe by its UUID
func (r *recipeRepository) GetByUUID(uuid string) (*models.Recipe, error) {
	var recipe models.Recipe
	err := r.db.Where("uuid = ?", uuid).First(&recipe).Error
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

// GetByUserID retrieves recipes belonging to a specific user with pagination
func (r *recipeRepository) GetByUserID(userID uint, offset, limit int) ([]models.Recipe, error) {
	var recipes []models.Recipe
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&recipes).Error
	return recipes, err
}

// CountByUserID returns the number of recipes for a specific user
func (r *recipeRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Recipe{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
