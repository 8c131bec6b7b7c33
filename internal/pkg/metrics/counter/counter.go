package counter

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/plateful-app/plateful/internal/pkg/cache"
	"github.com/plateful-app/plateful/internal/pkg/database"
)

const (
	recipeImageViewsKey = "recipe_image:counters:views"
)

// AddRecipeImageView increments the pending view counter for a recipe's
// stored image in Redis, keyed by recipe id. Views are buffered and flushed
// in batches so the hot read path never writes to the database.
func AddRecipeImageView(recipeID uint) error {
	ctx := context.Background()
	field := strconv.FormatUint(uint64(recipeID), 10)
	return cache.GetClient().HIncrBy(ctx, recipeImageViewsKey, field, 1).Err()
}

// FlushAll flushes buffered view counters to the database
func FlushAll() error {
	return flushHashToTable(recipeImageViewsKey, "recipe_images", "recipe_id", "view_count")
}

// flushHashToTable drains a Redis hash atomically and applies batched increments.
// Uses RENAME to a temporary key for atomic drain without losing in-flight increments.
func flushHashToTable(redisKey, table, keyColumn, column string) error {
	ctx := context.Background()
	rdb := cache.GetClient()

	// Atomically move the hash to a temp key for draining
	tmpKey := fmt.Sprintf("%s:tmp:%d", redisKey, time.Now().UnixNano())
	if err := rdb.Do(ctx, "RENAME", redisKey, tmpKey).Err(); err != nil {
		// If key does not exist, nothing to flush
		if strings.Contains(strings.ToLower(err.Error()), "no such key") {
			return nil
		}
		if err.Error() == "redis: nil" {
			return nil
		}
		return err
	}

	data, err := rdb.HGetAll(ctx, tmpKey).Result()
	if err != nil {
		// Leave tmpKey in place; the drained counts are still there and the
		// next flush starts a fresh drain of the live key.
		return err
	}
	if len(data) == 0 {
		rdb.Del(ctx, tmpKey)
		return nil
	}

	// Collect ids and increments; sort ids for stable SQL
	type pair struct {
		id  uint64
		inc int64
	}
	pairs := make([]pair, 0, len(data))
	for k, v := range data {
		id, perr := strconv.ParseUint(k, 10, 64)
		if perr != nil {
			continue
		}
		inc, ierr := strconv.ParseInt(v, 10, 64)
		if ierr != nil || inc == 0 {
			continue
		}
		pairs = append(pairs, pair{id: id, inc: inc})
	}
	if len(pairs) == 0 {
		rdb.Del(ctx, tmpKey)
		return nil
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].id < pairs[j].id })

	// UPDATE <table> SET <column> = <column> + CASE <key> WHEN ? THEN ? ... END WHERE <key> IN ( ... )
	var builder strings.Builder
	args := make([]interface{}, 0, len(pairs)*3)
	builder.WriteString("UPDATE ")
	builder.WriteString(table)
	builder.WriteString(" SET ")
	builder.WriteString(column)
	builder.WriteString(" = ")
	builder.WriteString(column)
	builder.WriteString(" + CASE ")
	builder.WriteString(keyColumn)
	builder.WriteString(" ")
	for _, p := range pairs {
		builder.WriteString(" WHEN ? THEN ?")
		args = append(args, p.id, p.inc)
	}
	builder.WriteString(" END WHERE ")
	builder.WriteString(keyColumn)
	builder.WriteString(" IN (")
	for i, p := range pairs {
		if i > 0 {
			builder.WriteString(",")
		}
		builder.WriteString("?")
		args = append(args, p.id)
	}
	builder.WriteString(")")

	db := database.GetDB()
	if err := db.Exec(builder.String(), args...).Error; err != nil {
		// The database rejected the batch: merge the drained counts back into
		// the live hash so they are retried on the next flush.
		for _, p := range pairs {
			field := strconv.FormatUint(p.id, 10)
			if mergeErr := rdb.HIncrBy(ctx, redisKey, field, p.inc).Err(); mergeErr != nil {
				// tmpKey survives as the fallback copy of anything not merged.
				return fmt.Errorf("flush failed (%w) and merge-back failed: %v", err, mergeErr)
			}
		}
		rdb.Del(ctx, tmpKey)
		return err
	}
	rdb.Del(ctx, tmpKey)
	return nil
}

// StartFlusher runs FlushAll on the given interval until ctx is cancelled.
func StartFlusher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = FlushAll()
		}
	}
}
