package mongodb

import (
	"context"
	"time"
)

// CacheService is the read-cache contract repositories lean on. A nil cache
// is always legal; every repository degrades to store-only reads.
type CacheService interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
