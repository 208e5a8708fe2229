// Package kvc is the command executor of the cache service client: it holds
// the session (token and selected group), runs commands with bearer auth and
// re-authenticates once when the service rejects an expired token.
package kvc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/rendau/kvclient/adapters/auth"
	"github.com/rendau/kvclient/adapters/auth/auths"
	"github.com/rendau/kvclient/adapters/client/httpc"
	"github.com/rendau/kvclient/adapters/client/httpc/httpclient"
	"github.com/rendau/kvclient/adapters/logger"
	"github.com/rendau/kvclient/errs"
)

const reauthKey = "auth"

type St struct {
	lg    logger.Lite
	opts  OptionsSt
	httpc httpc.HttpC
	auth  auth.Auth

	reauth singleflight.Group

	mu    sync.RWMutex
	token string
	group string
}

func New(lg logger.Lite, opts OptionsSt) *St {
	opts.mergeWithDefaults()

	hc := httpclient.New(lg, httpc.OptionsSt{
		Client:        opts.Client,
		BaseUrl:       opts.ServiceUrl(),
		Method:        http.MethodPost,
		BaseLogPrefix: "kvc: ",
		LogFlags:      opts.LogFlags,
		Timeout:       opts.Timeout,
	})

	return NewWith(lg, opts, hc, auths.New(lg, hc))
}

// NewWith builds the executor over an explicit transport and auth manager.
func NewWith(lg logger.Lite, opts OptionsSt, hc httpc.HttpC, au auth.Auth) *St {
	opts.mergeWithDefaults()

	return &St{
		lg:    lg,
		opts:  opts,
		httpc: hc,
		auth:  au,
		group: opts.Group,
	}
}

// Connect (re)authenticates. On failure the session drops back to
// unauthenticated.
func (c *St) Connect(ctx context.Context) bool {
	token, ok := c.auth.GetToken(ctx, c.opts.Password)

	c.setToken(token)

	if !ok {
		c.lg.Warnw("Fail to connect", "url", c.ServiceUrl())
	}

	return ok
}

func (c *St) ServiceUrl() string {
	return c.opts.ServiceUrl()
}

func (c *St) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.token != ""
}

func (c *St) Select(group string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.group = group
}

func (c *St) Group() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.group
}

func (c *St) setToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = token
}

func (c *St) session() (string, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.token, c.group
}

// Execute runs command in the selected group and returns the raw reply.
//
// Calling it before a successful Connect returns errs.NotConnected without
// touching the network. Every other failure (bad status, unreadable body,
// service-side error, token rejected twice in a row, failed
// re-authentication) is logged and reported as ok == false.
func (c *St) Execute(ctx context.Context, command string) (json.RawMessage, bool, error) {
	reply, err := c.ExecuteE(ctx, command)
	if err != nil {
		if errors.Is(err, errs.NotConnected) {
			return nil, false, err
		}

		if errors.Is(err, errs.ServiceError) {
			c.lg.Debugw("Command failed", "command", commandVerb(command), "error", err)
		} else {
			c.lg.Warnw("Fail to execute command", "command", commandVerb(command), "error", err)
		}

		return nil, false, nil
	}

	return reply, true, nil
}

// ExecuteE is Execute with the failure reason kept as an errs kind.
func (c *St) ExecuteE(ctx context.Context, command string) (json.RawMessage, error) {
	token, group := c.session()
	if token == "" {
		return nil, errs.NotConnected
	}

	for attempt := 0; ; attempt++ {
		reply, err := c.send(ctx, token, group, command)
		if !errors.Is(err, errs.NotAuthorized) || attempt >= maxAuthRetries {
			return reply, err
		}

		token, err = c.reconnect(ctx)
		if err != nil {
			return nil, err
		}
	}
}

// reconnect fetches a fresh token after the service rejected the held one.
// Concurrent callers share one auth request. The shared request does not
// inherit the cancellation of whichever caller started it; each caller stops
// waiting when its own ctx is done.
func (c *St) reconnect(ctx context.Context) (string, error) {
	ch := c.reauth.DoChan(reauthKey, func() (any, error) {
		token, ok := c.auth.GetToken(context.WithoutCancel(ctx), c.opts.Password)

		c.setToken(token)

		if !ok {
			return "", errs.AuthFailed
		}

		return token, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}

		return res.Val.(string), nil
	}
}

func (c *St) send(ctx context.Context, token, group, command string) (json.RawMessage, error) {
	repObj := executeRepSt{}

	_, err := c.httpc.SendFormRecvJson(ctx, httpc.Object2UrlValues(executeReqSt{
		Query: command,
		Style: StyleJson,
	}), &repObj, httpc.OptionsSt{
		Method:      http.MethodPost,
		Path:        url.PathEscape(group) + "/" + ExecutePath,
		BearerToken: token,
		LogPrefix:   "Execute: ",
		LogFlags:    c.opts.LogFlags | httpc.NoLogError,
	})
	if err != nil {
		return nil, err
	}

	if repObj.Alpha != AlphaOk {
		desc := repObj.Alpha
		if repObj.Data != nil && len(repObj.Data.Reply) > 0 {
			desc += ": " + string(repObj.Data.Reply)
		}
		return nil, errs.ErrWithDesc{Err: errs.ServiceError, Desc: desc}
	}

	if repObj.Data == nil {
		return nil, errs.ErrWithDesc{Err: errs.BadPayload, Desc: "reply envelope has no data"}
	}

	return repObj.Data.Reply, nil
}

func commandVerb(command string) string {
	verb, _, _ := strings.Cut(command, " ")
	return verb
}
