package helpers

import (
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient initializes a redis client
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

var cacheHits, cacheMisses atomic.Int64

func init() {
	expvar.Publish("redis_cache", expvar.Func(func() any {
		hits, misses := CacheStats()
		return map[string]int64{"hits": hits, "misses": misses}
	}))
}

// CacheStats reports how many RedisGetJSON lookups hit and missed since start.
func CacheStats() (hits, misses int64) {
	return cacheHits.Load(), cacheMisses.Load()
}

// CacheKey joins a namespace and its identifying parts with ':', e.g.
// CacheKey("service", id) -> "service:<id>". Empty parts are dropped.
func CacheKey(namespace string, parts ...string) string {
	b := strings.Builder{}
	b.WriteString(namespace)
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(p)
	}
	return b.String()
}

func RedisSetJSON(ctx context.Context, rdb *redis.Client, key string, value interface{}, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, b, ttl).Err()
}

// RedisGetJSON reports false without error on a cache miss or an undecodable entry
func RedisGetJSON[T any](ctx context.Context, rdb *redis.Client, key string, dest *T) (bool, error) {
	res, err := rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		cacheMisses.Add(1)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(res, dest); err != nil {
		// an entry that no longer decodes is evicted and counted as a miss
		cacheMisses.Add(1)
		_ = rdb.Del(ctx, key).Err()
		return false, nil
	}
	cacheHits.Add(1)
	return true, nil
}

func RedisDel(ctx context.Context, rdb *redis.Client, key string) error {
	return rdb.Del(ctx, key).Err()
}
