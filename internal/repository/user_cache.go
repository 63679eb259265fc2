package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/karlseguin/ccache/v3"

	"github.com/iliyamo/lightbnb/internal/model"
)

// UserCache is a read-through, in-process cache in front of UserRepo.GetByID.
// Users are immutable once created, so entries only leave by TTL or size
// pressure.  Misses and errors are never cached.
type UserCache struct {
	*UserRepo
	cache *ccache.Cache[model.User]
	ttl   time.Duration
}

// NewUserCache wraps repo with a cache holding at most maxSize users.
func NewUserCache(repo *UserRepo, maxSize int64, ttl time.Duration) *UserCache {
	if maxSize <= 0 {
		maxSize = 1000
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &UserCache{
		UserRepo: repo,
		cache:    ccache.New(ccache.Configure[model.User]().MaxSize(maxSize)),
		ttl:      ttl,
	}
}

// GetByID serves from the cache when a live entry exists, otherwise loads
// from the store and remembers the result.
func (c *UserCache) GetByID(ctx context.Context, id uint64) (model.User, error) {
	key := strconv.FormatUint(id, 10)
	if item := c.cache.Get(key); item != nil && !item.Expired() {
		return item.Value(), nil
	}
	u, err := c.UserRepo.GetByID(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	c.cache.Set(key, u, c.ttl)
	return u, nil
}

// Stop releases the cache's background worker.
func (c *UserCache) Stop() { c.cache.Stop() }
