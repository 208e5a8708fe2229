package cache

import (
	"context"
	"time"

	"github.com/rendau/kvclient/value"
)

// Cache is a key-value store of tagged values scoped to one group.
// The bool results report success; errors are reserved for misuse
// (e.g. not connected) or backend failures the caller must see.
type Cache interface {
	Get(ctx context.Context, key string) (value.Value, bool, error)
	Set(ctx context.Context, key string, v value.Value, expiration time.Duration) (bool, error)
	Del(ctx context.Context, key string) (bool, error)
	Clean(ctx context.Context) (bool, error)
}
