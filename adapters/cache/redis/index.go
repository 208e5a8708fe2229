package redis

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/rendau/kvclient/adapters/logger"
	"github.com/rendau/kvclient/value"
)

// St keeps values in redis in their tagged JSON form, so a key written here
// decodes the same way as a reply of the remote service.
type St struct {
	lg     logger.WarnAndError
	prefix string

	r *redis.Client
}

func New(lg logger.WarnAndError, url, psw string, db int, prefix string) *St {
	return NewWithClient(lg, redis.NewClient(&redis.Options{
		Addr:     url,
		Password: psw,
		DB:       db,
	}), prefix)
}

func NewWithClient(lg logger.WarnAndError, r *redis.Client, prefix string) *St {
	return &St{
		lg:     lg,
		prefix: prefix,
		r:      r,
	}
}

func (c *St) Get(ctx context.Context, key string) (value.Value, bool, error) {
	data, err := c.r.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		c.lg.Errorw("Redis: fail to 'get'", err)
		return nil, false, err
	}

	v, err := value.Unmarshal(data)
	if err != nil {
		c.lg.Warnw("Redis: fail to decode value", "key", key, "error", err)
		return nil, false, nil
	}

	return v, true, nil
}

func (c *St) Set(ctx context.Context, key string, v value.Value, expiration time.Duration) (bool, error) {
	data, err := value.Marshal(v)
	if err != nil {
		return false, err
	}

	err = c.r.Set(ctx, c.prefix+key, data, expiration).Err()
	if err != nil {
		c.lg.Errorw("Redis: fail to 'set'", err)
		return false, err
	}

	return true, nil
}

func (c *St) Del(ctx context.Context, key string) (bool, error) {
	n, err := c.r.Del(ctx, c.prefix+key).Result()
	if err != nil {
		c.lg.Errorw("Redis: fail to 'del'", err)
		return false, err
	}

	return n > 0, nil
}

// Clean deletes every key under the prefix.
func (c *St) Clean(ctx context.Context) (bool, error) {
	var err error
	var cursor uint64
	var keys []string

	for {
		keys, cursor, err = c.r.Scan(ctx, cursor, c.prefix+"*", 100).Result()
		if err != nil {
			c.lg.Errorw("Redis: fail to 'scan'", err)
			return false, err
		}

		if len(keys) > 0 {
			if err = c.r.Del(ctx, keys...).Err(); err != nil {
				c.lg.Errorw("Redis: fail to 'del'", err)
				return false, err
			}
		}

		if cursor == 0 {
			break
		}
	}

	return true, nil
}

func (c *St) Close() error {
	return c.r.Close()
}
