// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"auth_backend/internal/feature/auth/domain/entity"
	"auth_backend/internal/feature/auth/usecase"
)

// CachingAuditRepository decorates an AuditRepository with Redis caching on
// the read path. It implements the decorator pattern, transparently adding
// caching without modifying the underlying repository. Writes always go to
// the inner repository first; affected cache entries are invalidated so a
// fresh attempt is never hidden from the history view.
type CachingAuditRepository struct {
	inner     usecase.AuditRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

// CachingAuditRepositoryがAuditRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.AuditRepository = (*CachingAuditRepository)(nil)

// NewCachingAuditRepository decorates an AuditRepository with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "audit".
func NewCachingAuditRepository(rdb *redis.Client, ttl time.Duration, inner usecase.AuditRepository, namespace string) *CachingAuditRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "audit"
	}
	return &CachingAuditRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// Record appends an audit row and invalidates the user's cached history.
// The append itself is never best-effort: a write failure propagates so the
// attempt cannot complete without its audit row.
func (c *CachingAuditRepository) Record(ctx context.Context, log *entity.AuditLog) error {
	if err := c.inner.Record(ctx, log); err != nil {
		return err
	}
	if c.rdb == nil {
		return nil
	}
	// Best effort: a stale cache entry expires via TTL anyway
	_ = c.deleteByPattern(ctx, c.cacheKeyPrefix(log.UserID)+"*")
	return nil
}

// RecentByUser retrieves recent audit rows, checking cache first then
// falling back to the database.
func (c *CachingAuditRepository) RecentByUser(ctx context.Context, userID uint, limit int) ([]entity.AuditLog, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return c.inner.RecentByUser(ctx, userID, limit)
	}

	key := c.cacheKey(userID, limit)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []entity.AuditLog
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to database
	out, err := c.inner.RecentByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}

	return out, nil
}

// cacheKey generates a cache key for a specific query.
func (c *CachingAuditRepository) cacheKey(userID uint, limit int) string {
	return fmt.Sprintf("%s:%d:%d", c.namespace, userID, limit)
}

// cacheKeyPrefix generates a prefix for invalidating a user's entries.
func (c *CachingAuditRepository) cacheKeyPrefix(userID uint) string {
	return fmt.Sprintf("%s:%d:", c.namespace, userID)
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingAuditRepository) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}
