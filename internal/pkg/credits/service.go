package credits

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/plateful-app/plateful/app/models"
	"github.com/plateful-app/plateful/app/repository"
)

// DefaultInitialCredits seeds new balances when the initial_credits setting
// is absent.
const DefaultInitialCredits = 100

// Service is the credit ledger: a per-user spendable balance plus the
// append-only transaction log it reconciles against.
type Service struct {
	repo     repository.CreditsRepository
	settings repository.SettingRepository
}

// NewService creates a ledger service from injected repositories.
func NewService(repo repository.CreditsRepository, settings repository.SettingRepository) *Service {
	return &Service{repo: repo, settings: settings}
}

// NewServiceFromDB creates a ledger service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(repository.NewCreditsRepository(db), repository.NewSettingRepository(db))
}

// GetOrCreate returns the balance row for a user, creating and seeding it on
// first sight. Safe under concurrent first-time calls: the unique index on
// user_id rejects the losing insert and we fall back to re-reading the row
// the winner created.
func (s *Service) GetOrCreate(userID uint) (*models.UserCredits, error) {
	credits, err := s.repo.GetByUserID(userID)
	if err == nil {
		return credits, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup credits for user %d: %w", userID, err)
	}

	initial := int64(s.settings.GetInt(models.SettingInitialCredits, DefaultInitialCredits))
	credits = &models.UserCredits{
		UserID:      userID,
		Credits:     initial,
		TotalEarned: initial,
		TotalSpent:  0,
	}
	seed := &models.CreditTransaction{
		Type:        models.TransactionTypeEarn,
		Amount:      initial,
		Reason:      models.TransactionReasonInitial,
		Description: "Welcome credits",
		Reference:   uuid.New().String(),
	}

	if createErr := s.repo.Create(credits, seed); createErr != nil {
		// Lost the create race (or the insert failed for another reason); a
		// successful re-read means another request seeded the row first.
		existing, readErr := s.repo.GetByUserID(userID)
		if readErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("create credits for user %d: %w", userID, createErr)
	}

	log.Infof("[Credits] Seeded user %d with %d initial credits", userID, initial)
	return credits, nil
}

// Spend deducts amount from the user's balance. The balance row is created
// first if the user has never been seen. Returns ErrInsufficientCredits when
// the guarded update rejects the deduction; the balance is left unchanged.
func (s *Service) Spend(userID uint, amount int64, reason, description string) (*models.UserCredits, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("spend %d for user %d: %w", amount, userID, ErrInvalidAmount)
	}
	if _, err := s.GetOrCreate(userID); err != nil {
		return nil, err
	}

	entry := &models.CreditTransaction{
		Reason:      reason,
		Description: description,
		Reference:   uuid.New().String(),
	}
	credits, applied, err := s.repo.Spend(userID, amount, entry)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, ErrInsufficientCredits
	}
	return credits, nil
}

// Earn adds amount to the user's balance, creating it first if needed.
func (s *Service) Earn(userID uint, amount int64, reason, description string) (*models.UserCredits, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("earn %d for user %d: %w", amount, userID, ErrInvalidAmount)
	}
	if _, err := s.GetOrCreate(userID); err != nil {
		return nil, err
	}

	entry := &models.CreditTransaction{
		Reason:      reason,
		Description: description,
		Reference:   uuid.New().String(),
	}
	return s.repo.Earn(userID, amount, entry)
}

// RecordAdminUsage writes a zero-cost spend entry for an admin generation so
// the ledger stays symmetric even when the gate is bypassed.
func (s *Service) RecordAdminUsage(userID uint, description string) error {
	if _, err := s.GetOrCreate(userID); err != nil {
		return err
	}
	return s.repo.AppendTransaction(&models.CreditTransaction{
		UserID:      userID,
		Type:        models.TransactionTypeSpend,
		Amount:      0,
		Reason:      models.TransactionReasonGeneration,
		Description: description,
		Reference:   uuid.New().String(),
	})
}

// GenerationCost returns the configured credit price of one image generation.
func (s *Service) GenerationCost() int64 {
	return int64(s.settings.GetInt(models.SettingImageGenerationCost, 1))
}

// Transactions returns a page of the user's ledger history plus the total count.
func (s *Service) Transactions(userID uint, offset, limit int) ([]models.CreditTransaction, int64, error) {
	entries, err := s.repo.ListTransactions(userID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.CountTransactions(userID)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
