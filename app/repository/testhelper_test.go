package repository

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/plateful-app/plateful/app/models"
)

// newTestDB opens an isolated in-memory database with the full schema. One
// connection only, so concurrent transactions serialize instead of failing
// with a busy error.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access underlying connection: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.User{},
		&models.Recipe{},
		&models.UserCredits{},
		&models.CreditTransaction{},
		&models.RecipeImage{},
		&models.Setting{},
	); err != nil {
		t.Fatalf("failed to migrate test schema: %v", err)
	}

	return db
}

// seedBalance inserts a balance row plus its seed transaction.
func seedBalance(t *testing.T, db *gorm.DB, userID uint, amount int64) {
	t.Helper()

	repo := NewCreditsRepository(db)
	err := repo.Create(
		&models.UserCredits{UserID: userID, Credits: amount, TotalEarned: amount},
		&models.CreditTransaction{
			Type:   models.TransactionTypeEarn,
			Amount: amount,
			Reason: models.TransactionReasonInitial,
		},
	)
	if err != nil {
		t.Fatalf("failed to seed balance for user %d: %v", userID, err)
	}
}
