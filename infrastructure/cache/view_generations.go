package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// generationTTL must outlive any cached view so a counter never resets under a live entry.
const generationTTL = 24 * time.Hour

func viewGenerationKey(userID string) string {
	return fmt.Sprintf("%s:view:%s", keyPrefix, userID)
}

// ViewGenerations keeps a per-user counter in Redis shared by every instance.
type ViewGenerations struct {
	rdb redis.Cmdable
}

func NewViewGenerations(rdb redis.Cmdable) *ViewGenerations {
	return &ViewGenerations{rdb: rdb}
}

func (g *ViewGenerations) Current(ctx context.Context, userID string) (int64, error) {
	n, err := g.rdb.Get(ctx, viewGenerationKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get view generation: %w", err)
	}
	return n, nil
}

func (g *ViewGenerations) Bump(ctx context.Context, userID string) error {
	k := viewGenerationKey(userID)
	pipe := g.rdb.TxPipeline()
	pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, generationTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis bump view generation: %w", err)
	}
	return nil
}
