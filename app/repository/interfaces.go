package repository

import (
	"github.com/plateful-app/plateful/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, error)
	Update(user *models.User) error
}

// RecipeRepository defines the interface for recipe-related database operations
type RecipeRepository interface {
	Create(recipe *models.Recipe) error
	GetByID(id uint) (*models.Recipe, error)
	GetByUUID(uuid string) (*models.Recipe, error)
	GetByUserID(userID uint, offset, limit int) ([]models.Recipe, error)
	CountByUserID(userID uint) (int64, error)
}

// CreditsRepository defines the storage contract for the credit ledger.
// Spend is the only mutation allowed to decrement a balance and must be a
// single conditional update at the storage layer; a prior balance read is
// advisory only.
type CreditsRepository interface {
	GetByUserID(userID uint) (*models.UserCredits, error)
	// Create inserts the balance row together with its seed transaction in one
	// database transaction. The unique index on user_id rejects duplicates.
	Create(credits *models.UserCredits, seed *models.CreditTransaction) error
	// Spend atomically decrements credits and increments total_spent, guarded
	// by credits >= amount, and appends the ledger entry. The returned bool is
	// false when the guard rejected the update (insufficient credits).
	Spend(userID uint, amount int64, entry *models.CreditTransaction) (*models.UserCredits, bool, error)
	// Earn atomically increments credits and total_earned and appends the
	// ledger entry.
	Earn(userID uint, amount int64, entry *models.CreditTransaction) (*models.UserCredits, error)
	// AppendTransaction writes a ledger entry without touching the balance.
	// Used for zero-cost audit rows (admin generations).
	AppendTransaction(entry *models.CreditTransaction) error
	ListTransactions(userID uint, offset, limit int) ([]models.CreditTransaction, error)
	CountTransactions(userID uint) (int64, error)
	// SumSigned returns the signed transaction sum for a user (earn positive,
	// spend negative); used for reconciliation checks.
	SumSigned(userID uint) (int64, error)
}

// RecipeImageRepository defines the interface for recipe-image association rows
type RecipeImageRepository interface {
	GetByRecipeID(recipeID uint) (*models.RecipeImage, error)
	// Replace upserts the association row for image.RecipeID and returns the
	// previously stored object path, or "" if the recipe had no image yet.
	Replace(image *models.RecipeImage) (previousPath string, err error)
	DeleteByRecipeID(recipeID uint) error
}

// SettingRepository defines the interface for application settings
type SettingRepository interface {
	GetValue(key string) (string, error)
	SetValue(key, value string) error
	// Typed reads fall back to def on missing rows or parse failures.
	GetString(key, def string) string
	GetInt(key string, def int) int
	GetBool(key string, def bool) bool
}

// Repositories struct holds all repository instances
type Repositories struct {
	User        UserRepository
	Recipe      RecipeRepository
	Credits     CreditsRepository
	RecipeImage RecipeImageRepository
	Setting     SettingRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:        NewUserRepository(db),
		Recipe:      NewRecipeRepository(db),
		Credits:     NewCreditsRepository(db),
		RecipeImage: NewRecipeImageRepository(db),
		Setting:     NewSettingRepository(db),
	}
}
