package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chainpress/newsverify/src/verification"
)

const (
	resultKeyPrefix = "verify:result:"
	resultTTL       = 15 * time.Minute
)

func MustRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	return redis.NewClient(opt)
}

// Cache fronts the MySQL store with per-article result entries. Best
// effort; the store stays the source of truth.
type Cache struct {
	rdb *redis.Client
}

func NewCache(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

func (c *Cache) CacheResult(ctx context.Context, res *verification.Result) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return c.rdb.Set(ctx, resultKeyPrefix+res.ArticleID.String(), raw, resultTTL).Err()
}

// CachedResult returns the cached result or verification.ErrNotFound.
// Transport and decode errors also read as a miss so lookups fall through
// to the store.
func (c *Cache) CachedResult(ctx context.Context, articleID string) (*verification.Result, error) {
	raw, err := c.rdb.Get(ctx, resultKeyPrefix+articleID).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("cache read: %w", err)
		}
		return nil, fmt.Errorf("%w: article %s", verification.ErrNotFound, articleID)
	}
	var res verification.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("%w: article %s", verification.ErrNotFound, articleID)
	}
	return &res, nil
}
