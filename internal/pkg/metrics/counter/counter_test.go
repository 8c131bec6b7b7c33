package counter

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/plateful-app/plateful/app/models"
	"github.com/plateful-app/plateful/internal/pkg/cache"
	"github.com/plateful-app/plateful/internal/pkg/database"
	"github.com/plateful-app/plateful/internal/pkg/env"
)

const isolatedCounterTestRedisDB = 13

// setupCounterRedis points the cache package at an isolated Redis database,
// skipping the test when no Redis is reachable.
func setupCounterRedis(t *testing.T) *redis.Client {
	t.Helper()

	addr := fmt.Sprintf("%s:%s",
		env.GetEnv("CACHE_HOST", "localhost"),
		env.GetEnv("CACHE_PORT", "6379"))
	client := redis.NewClient(&redis.Options{Addr: addr, DB: isolatedCounterTestRedisDB})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not reachable at %s: %v", addr, err)
	}
	require.NoError(t, client.FlushDB(context.Background()).Err())

	cache.SetClient(client)
	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
		cache.SetClient(nil)
	})
	return client
}

func setupCounterDB(t *testing.T, migrate bool) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	if migrate {
		require.NoError(t, db.AutoMigrate(&models.RecipeImage{}))
	}
	database.SetDB(db)
	return db
}

func seedImage(t *testing.T, db *gorm.DB, recipeID uint) {
	t.Helper()
	require.NoError(t, db.Create(&models.RecipeImage{
		UserID:     1,
		RecipeID:   recipeID,
		ImagePath:  fmt.Sprintf("1/%d/test.png", recipeID),
		ImageModel: "flux",
		ExpiresAt:  time.Now().Add(models.RecipeImageTTL),
	}).Error)
}

func TestFlushAll_AppliesBufferedViews(t *testing.T) {
	client := setupCounterRedis(t)
	db := setupCounterDB(t, true)
	seedImage(t, db, 1)

	for i := 0; i < 3; i++ {
		require.NoError(t, AddRecipeImageView(1))
	}
	require.NoError(t, FlushAll())

	var image models.RecipeImage
	require.NoError(t, db.Where("recipe_id = ?", 1).First(&image).Error)
	assert.Equal(t, int64(3), image.ViewCount)

	keys, err := client.Keys(context.Background(), recipeImageViewsKey+"*").Result()
	require.NoError(t, err)
	assert.Empty(t, keys, "live and temporary keys must be gone after a clean flush")
}

func TestFlushAll_DatabaseFailureKeepsCounts(t *testing.T) {
	client := setupCounterRedis(t)
	// No recipe_images table, so the batched UPDATE fails.
	setupCounterDB(t, false)

	require.NoError(t, AddRecipeImageView(7))
	require.NoError(t, AddRecipeImageView(7))

	require.Error(t, FlushAll())

	ctx := context.Background()
	buffered, err := client.HGet(ctx, recipeImageViewsKey, "7").Result()
	require.NoError(t, err, "drained counts must be merged back into the live hash")
	assert.Equal(t, "2", buffered)

	tmpKeys, err := client.Keys(ctx, recipeImageViewsKey+":tmp:*").Result()
	require.NoError(t, err)
	assert.Empty(t, tmpKeys, "merged-back drains must not leave temporary keys")

	// Once the database is healthy again the retained counts flush through.
	db := setupCounterDB(t, true)
	seedImage(t, db, 7)
	require.NoError(t, FlushAll())

	var image models.RecipeImage
	require.NoError(t, db.Where("recipe_id = ?", 7).First(&image).Error)
	assert.Equal(t, int64(2), image.ViewCount)
}

func TestFlushAll_NothingBufferedIsNoOp(t *testing.T) {
	setupCounterRedis(t)
	setupCounterDB(t, true)

	require.NoError(t, FlushAll())
}
