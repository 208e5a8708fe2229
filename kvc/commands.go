package kvc

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/rendau/kvclient/adapters/cache"
	"github.com/rendau/kvclient/errs"
	"github.com/rendau/kvclient/value"
)

var _ cache.Cache = (*St)(nil)

func (c *St) Get(ctx context.Context, key string) (value.Value, bool, error) {
	reply, ok, err := c.Execute(ctx, "get "+key)
	if err != nil || !ok {
		return nil, false, err
	}

	v, err := decodeReply(reply)
	if err != nil {
		c.lg.Warnw("Fail to decode value", "key", key, "error", err)
		return nil, false, nil
	}

	return v, true, nil
}

// Set stores v for expiration (whole seconds, NoExpiration keeps it forever).
func (c *St) Set(ctx context.Context, key string, v value.Value, expiration time.Duration) (bool, error) {
	command := "set " + key + " " + value.EncodeB64(v) + " " + strconv.FormatInt(int64(expiration/time.Second), 10)

	_, ok, err := c.Execute(ctx, command)

	return ok, err
}

func (c *St) Del(ctx context.Context, key string) (bool, error) {
	_, ok, err := c.Execute(ctx, "delete "+key)

	return ok, err
}

// Clean removes every key of the selected group.
func (c *St) Clean(ctx context.Context) (bool, error) {
	_, ok, err := c.Execute(ctx, "clean")

	return ok, err
}

// decodeReply accepts the tagged value either inline or serialized into a
// JSON string, the latter being what the service sends for `get`.
func decodeReply(reply json.RawMessage) (value.Value, error) {
	reply = bytes.TrimSpace(reply)
	if len(reply) == 0 || bytes.Equal(reply, []byte("null")) {
		return nil, errs.ErrWithDesc{Err: errs.BadPayload, Desc: "empty reply"}
	}

	if reply[0] == '"' {
		var s string

		if err := json.Unmarshal(reply, &s); err != nil {
			return nil, errs.ErrWithDesc{Err: errs.BadJson, Desc: err.Error()}
		}

		reply = []byte(s)
	}

	return value.Unmarshal(reply)
}
