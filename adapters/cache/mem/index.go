package mem

import (
	"context"
	"sync"
	"time"

	"github.com/rendau/kvclient/value"
)

type St struct {
	data map[string]itemSt
	mu   sync.RWMutex

	now func() time.Time
}

type itemSt struct {
	v         value.Value
	expiresAt time.Time
}

func New() *St {
	return &St{
		data: map[string]itemSt{},
		now:  time.Now,
	}
}

func (c *St) Get(_ context.Context, key string) (value.Value, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.data[key]
	if !ok || c.expired(item) {
		return nil, false, nil
	}

	return item.v, true, nil
}

func (c *St) Set(_ context.Context, key string, v value.Value, expiration time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := itemSt{v: v}
	if expiration > 0 {
		item.expiresAt = c.now().Add(expiration)
	}

	c.data[key] = item

	return true, nil
}

// Del reports whether a live key was removed.
func (c *St) Del(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.data[key]
	if !ok {
		return false, nil
	}

	delete(c.data, key)

	return !c.expired(item), nil
}

func (c *St) Clean(_ context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = map[string]itemSt{}

	return true, nil
}

func (c *St) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.data)
}

func (c *St) expired(item itemSt) bool {
	return !item.expiresAt.IsZero() && !c.now().Before(item.expiresAt)
}
