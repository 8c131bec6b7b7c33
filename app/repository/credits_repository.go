package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/plateful-app/plateful/app/models"
)

// creditsRepository implements the CreditsRepository interface
type creditsRepository struct {
	db *gorm.DB
}

// NewCreditsRepository creates a new credits repository instance
func NewCreditsRepository(db *gorm.DB) CreditsRepository {
	return &creditsRepository{db: db}
}

// GetByUserID retrieves the balance row for a user
func (r *creditsRepository) GetByUserID(userID uint) (*models.UserCredits, error) {
	var credits models.UserCredits
	err := r.db.Where("user_id = ?", userID).First(&credits).Error
	if err != nil {
		return nil, err
	}
	return &credits, nil
}

// Create inserts the balance row and its seed transaction atomically. The
// unique index on user_id makes concurrent first-time creates collapse to a
// single row; callers should re-read on a duplicate-key failure.
func (r *creditsRepository) Create(credits *models.UserCredits, seed *models.CreditTransaction) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(credits).Error; err != nil {
			return err
		}
		if seed != nil {
			seed.UserID = credits.UserID
			if err := tx.Create(seed).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Spend decrements the balance with a guard clause and appends the ledger
// entry. The conditional UPDATE closes the read-then-write race window: two
// concurrent spends against the same balance can never both pass the guard.
func (r *creditsRepository) Spend(userID uint, amount int64, entry *models.CreditTransaction) (*models.UserCredits, bool, error) {
	applied := false
	var credits models.UserCredits

	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.UserCredits{}).
			Where("user_id = ? AND credits >= ?", userID, amount).
			Updates(map[string]interface{}{
				"credits":     gorm.Expr("credits - ?", amount),
				"total_spent": gorm.Expr("total_spent + ?", amount),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Guard rejected the update: balance too low (or row missing).
			return nil
		}
		applied = true

		if entry != nil {
			entry.UserID = userID
			entry.Type = models.TransactionTypeSpend
			entry.Amount = amount
			if err := tx.Create(entry).Error; err != nil {
				return err
			}
		}

		return tx.Where("user_id = ?", userID).First(&credits).Error
	})
	if err != nil {
		return nil, false, fmt.Errorf("spend for user %d: %w", userID, err)
	}
	if !applied {
		return nil, false, nil
	}
	return &credits, true, nil
}

// Earn increments the balance unconditionally and appends the ledger entry.
func (r *creditsRepository) Earn(userID uint, amount int64, entry *models.CreditTransaction) (*models.UserCredits, error) {
	var credits models.UserCredits

	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.UserCredits{}).
			Where("user_id = ?", userID).
			Updates(map[string]interface{}{
				"credits":      gorm.Expr("credits + ?", amount),
				"total_earned": gorm.Expr("total_earned + ?", amount),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if entry != nil {
			entry.UserID = userID
			entry.Type = models.TransactionTypeEarn
			entry.Amount = amount
			if err := tx.Create(entry).Error; err != nil {
				return err
			}
		}

		return tx.Where("user_id = ?", userID).First(&credits).Error
	})
	if err != nil {
		return nil, err
	}
	return &credits, nil
}

// AppendTransaction writes a ledger entry without touching the balance
func (r *creditsRepository) AppendTransaction(entry *models.CreditTransaction) error {
	return r.db.Create(entry).Error
}

// ListTransactions returns ledger entries for a user, newest first
func (r *creditsRepository) ListTransactions(userID uint, offset, limit int) ([]models.CreditTransaction, error) {
	var entries []models.CreditTransaction
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&entries).Error
	return entries, err
}

// CountTransactions returns the number of ledger entries for a user
func (r *creditsRepository) CountTransactions(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.CreditTransaction{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// SumSigned returns the signed transaction sum for a user
func (r *creditsRepository) SumSigned(userID uint) (int64, error) {
	var sum *int64
	err := r.db.Model(&models.CreditTransaction{}).
		Select("SUM(CASE WHEN type = ? THEN -amount ELSE amount END)", models.TransactionTypeSpend).
		Where("user_id = ?", userID).
		Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}
