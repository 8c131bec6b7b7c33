package credits

import (
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/plateful-app/plateful/app/models"
	"github.com/plateful-app/plateful/app/repository"
)

func newTestService(t *testing.T) (*Service, repository.SettingRepository, *gorm.DB) {
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

	if err := db.AutoMigrate(&models.UserCredits{}, &models.CreditTransaction{}, &models.Setting{}); err != nil {
		t.Fatalf("failed to migrate test schema: %v", err)
	}

	settings := repository.NewSettingRepository(db)
	return NewService(repository.NewCreditsRepository(db), settings), settings, db
}

func TestService_GetOrCreate_SeedsOnFirstSight(t *testing.T) {
	svc, _, db := newTestService(t)

	balance, err := svc.GetOrCreate(1)
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultInitialCredits), balance.Credits)
	assert.Equal(t, int64(DefaultInitialCredits), balance.TotalEarned)

	var entry models.CreditTransaction
	require.NoError(t, db.Where("user_id = ?", 1).First(&entry).Error)
	assert.Equal(t, models.TransactionTypeEarn, entry.Type)
	assert.Equal(t, models.TransactionReasonInitial, entry.Reason)
	assert.Equal(t, int64(DefaultInitialCredits), entry.Amount)
}

func TestService_GetOrCreate_Idempotent(t *testing.T) {
	svc, _, db := newTestService(t)

	first, err := svc.GetOrCreate(1)
	require.NoError(t, err)

	// Spend something so a second call would be observable if it re-seeded.
	_, err = svc.Spend(1, 10, models.TransactionReasonGeneration, "test spend")
	require.NoError(t, err)

	second, err := svc.GetOrCreate(1)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Credits-10, second.Credits)

	var rows int64
	require.NoError(t, db.Model(&models.UserCredits{}).Where("user_id = ?", 1).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestService_GetOrCreate_ConcurrentFirstSightSeedsOnce(t *testing.T) {
	svc, _, db := newTestService(t)

	const callers = 16
	balances := make([]*models.UserCredits, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			balances[i], errs[i] = svc.GetOrCreate(9)
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i], "caller %d", i)
		require.NotNil(t, balances[i], "caller %d", i)
		assert.Equal(t, int64(DefaultInitialCredits), balances[i].Credits, "caller %d", i)
	}

	var rows int64
	require.NoError(t, db.Model(&models.UserCredits{}).Where("user_id = ?", 9).Count(&rows).Error)
	assert.Equal(t, int64(1), rows, "exactly one balance row")

	var seeds int64
	require.NoError(t, db.Model(&models.CreditTransaction{}).
		Where("user_id = ? AND reason = ?", 9, models.TransactionReasonInitial).
		Count(&seeds).Error)
	assert.Equal(t, int64(1), seeds, "exactly one welcome entry")
}

// lostSeedRaceRepo simulates losing the first-sight race: another request
// seeds the row between our not-found read and our insert, so the insert
// hits the unique index on user_id.
type lostSeedRaceRepo struct {
	repository.CreditsRepository
}

func (r *lostSeedRaceRepo) Create(credits *models.UserCredits, seed *models.CreditTransaction) error {
	winner := &models.UserCredits{UserID: credits.UserID, Credits: 42, TotalEarned: 42}
	winnerSeed := &models.CreditTransaction{
		Type:        models.TransactionTypeEarn,
		Amount:      42,
		Reason:      models.TransactionReasonInitial,
		Description: "Welcome credits",
		Reference:   uuid.New().String(),
	}
	if err := r.CreditsRepository.Create(winner, winnerSeed); err != nil {
		return err
	}
	return r.CreditsRepository.Create(credits, seed)
}

func TestService_GetOrCreate_LostCreateRaceReturnsWinnerRow(t *testing.T) {
	_, settings, db := newTestService(t)
	svc := NewService(&lostSeedRaceRepo{CreditsRepository: repository.NewCreditsRepository(db)}, settings)

	balance, err := svc.GetOrCreate(3)
	require.NoError(t, err)
	assert.Equal(t, int64(42), balance.Credits, "the winner's row is returned, not re-seeded")

	var rows int64
	require.NoError(t, db.Model(&models.UserCredits{}).Where("user_id = ?", 3).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestService_GetOrCreate_HonorsConfiguredSeed(t *testing.T) {
	svc, settings, _ := newTestService(t)

	require.NoError(t, settings.SetValue(models.SettingInitialCredits, "250"))

	balance, err := svc.GetOrCreate(2)
	require.NoError(t, err)
	assert.Equal(t, int64(250), balance.Credits)
}

func TestService_Spend_DeductsOneGeneration(t *testing.T) {
	svc, _, _ := newTestService(t)

	balance, err := svc.Spend(1, svc.GenerationCost(), models.TransactionReasonGeneration, "Image generation (flux)")
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultInitialCredits-1), balance.Credits)
}

func TestService_Spend_Insufficient(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Spend(1, DefaultInitialCredits+1, models.TransactionReasonGeneration, "too expensive")
	assert.ErrorIs(t, err, ErrInsufficientCredits)

	balance, err := svc.GetOrCreate(1)
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultInitialCredits), balance.Credits, "failed spend must not move the balance")
}

func TestService_Spend_ExactBalanceThenZero(t *testing.T) {
	svc, _, _ := newTestService(t)

	balance, err := svc.Spend(1, DefaultInitialCredits, models.TransactionReasonGeneration, "drain")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance.Credits)

	_, err = svc.Spend(1, 1, models.TransactionReasonGeneration, "broke")
	assert.ErrorIs(t, err, ErrInsufficientCredits)
}

func TestService_Spend_InvalidAmount(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Spend(1, 0, models.TransactionReasonGeneration, "free")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.Spend(1, -5, models.TransactionReasonGeneration, "negative")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestService_Earn_AddsCredits(t *testing.T) {
	svc, _, _ := newTestService(t)

	balance, err := svc.Earn(1, 50, models.TransactionReasonAdminGrant, "grant")
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultInitialCredits+50), balance.Credits)

	_, err = svc.Earn(1, 0, models.TransactionReasonAdminGrant, "nothing")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestService_RecordAdminUsage_ZeroCostEntry(t *testing.T) {
	svc, _, db := newTestService(t)

	require.NoError(t, svc.RecordAdminUsage(1, "Image generation (flux)"))

	balance, err := svc.GetOrCreate(1)
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultInitialCredits), balance.Credits, "audit entries must not charge")

	var entry models.CreditTransaction
	require.NoError(t, db.Where("user_id = ? AND type = ?", 1, models.TransactionTypeSpend).First(&entry).Error)
	assert.Equal(t, int64(0), entry.Amount)
	assert.Equal(t, models.TransactionReasonGeneration, entry.Reason)
}

func TestService_GenerationCost_Configured(t *testing.T) {
	svc, settings, _ := newTestService(t)

	assert.Equal(t, int64(1), svc.GenerationCost())

	require.NoError(t, settings.SetValue(models.SettingImageGenerationCost, "5"))
	assert.Equal(t, int64(5), svc.GenerationCost())
}

func TestService_Transactions_Paging(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Spend(1, 1, models.TransactionReasonGeneration, "one")
	require.NoError(t, err)
	_, err = svc.Spend(1, 1, models.TransactionReasonGeneration, "two")
	require.NoError(t, err)

	entries, total, err := svc.Transactions(1, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total, "seed entry plus two spends")
	require.Len(t, entries, 2)
	assert.Equal(t, "two", entries[0].Description, "newest first")
}
