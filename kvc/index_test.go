package kvc

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	authMock "github.com/rendau/kvclient/adapters/auth/mock"
	httpcMock "github.com/rendau/kvclient/adapters/client/httpc/mock"
	"github.com/rendau/kvclient/errs"
	"github.com/rendau/kvclient/kvtest"
	"github.com/rendau/kvclient/logger/zap"
	"github.com/rendau/kvclient/value"
)

const testPassword = "TEST@TEST"

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newFake(t *testing.T) (*kvtest.St, *St) {
	t.Helper()

	fake := kvtest.New(testPassword)
	t.Cleanup(fake.Close)

	host, port := fake.Addr()

	c := New(zap.NewNop(), OptionsSt{
		Host:     host,
		Port:     port,
		Password: testPassword,
		Client:   fake.Server.Client(),
	})

	return fake, c
}

func newMocked() (*httpcMock.St, *authMock.St, *St) {
	lg := zap.NewNop()

	hc := httpcMock.New(lg)
	au := authMock.New(testPassword)

	return hc, au, NewWith(lg, OptionsSt{Password: testPassword}, hc, au)
}

func TestOptions(t *testing.T) {
	opts := OptionsSt{}
	opts.mergeWithDefaults()

	assert.Equal(t, "http://127.0.0.1:8080", opts.ServiceUrl())
	assert.Equal(t, DefaultGroup, opts.Group)

	opts = OptionsSt{Host: "cache.local", Port: 443, UseHttps: true, Group: "g"}
	opts.mergeWithDefaults()

	assert.Equal(t, "https://cache.local:443", opts.ServiceUrl())
	assert.Equal(t, "g", opts.Group)
}

func TestNotConnected(t *testing.T) {
	ctx := context.Background()
	fake, c := newFake(t)

	assert.False(t, c.Connected())

	_, ok, err := c.Execute(ctx, "get k")
	assert.False(t, ok)
	assert.True(t, errors.Is(err, errs.NotConnected))

	_, _, err = c.Get(ctx, "k")
	assert.True(t, errors.Is(err, errs.NotConnected))

	_, err = c.Set(ctx, "k", value.Number(1), NoExpiration)
	assert.True(t, errors.Is(err, errs.NotConnected))

	assert.Equal(t, 0, fake.ExecuteCalls())
	assert.Equal(t, 0, fake.AuthCalls())
}

func TestConnect(t *testing.T) {
	ctx := context.Background()
	fake, c := newFake(t)

	require.True(t, c.Connect(ctx))
	assert.True(t, c.Connected())

	// idempotent: authenticates again
	require.True(t, c.Connect(ctx))
	assert.Equal(t, 2, fake.AuthCalls())

	c.opts.Password = "wrong"

	assert.False(t, c.Connect(ctx))
	assert.False(t, c.Connected())

	_, _, err := c.Execute(ctx, "clean")
	assert.True(t, errors.Is(err, errs.NotConnected))
}

func TestSetGetScenario(t *testing.T) {
	ctx := context.Background()
	fake, c := newFake(t)

	require.True(t, c.Connect(ctx))

	c.Select("cache1")
	assert.Equal(t, "cache1", c.Group())

	ok, err := c.Set(ctx, "k", value.Dict{"n": value.Number(1)}, NoExpiration)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, []string{"set k b:eyJuIjoxfQ==: 0"}, fake.Queries())

	v, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, value.Dict{"n": value.Number(1)}, v)

	_, ok, _ = fake.Group("cache1").Get(ctx, "k")
	assert.True(t, ok)
	_, ok, _ = fake.Group(DefaultGroup).Get(ctx, "k")
	assert.False(t, ok)
}

func TestAllVariantsThroughService(t *testing.T) {
	ctx := context.Background()
	_, c := newFake(t)

	require.True(t, c.Connect(ctx))

	v := value.Dict{
		"string":  value.String("hey"),
		"tuple":   value.NewTuple(value.String("PI"), value.Number(3.14)),
		"list":    value.List{value.Number(1), value.Number(2), value.Number(3)},
		"dict":    value.Dict{"foo": value.String("bar")},
		"number":  value.Number(1314),
		"boolean": value.Boolean(false),
		"binary":  value.Binary("hello world"),
	}

	ok, err := c.Set(ctx, "foo", v, time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	got, ok, err := c.Get(ctx, "foo")
	require.NoError(t, err)
	require.True(t, ok)

	// tuples come back as a dict of their fields
	want := value.Dict{
		"string":  value.String("hey"),
		"tuple":   value.Dict{"first": value.String("PI"), "second": value.Number(3.14)},
		"list":    value.List{value.Number(1), value.Number(2), value.Number(3)},
		"dict":    value.Dict{"foo": value.String("bar")},
		"number":  value.Number(1314),
		"boolean": value.Boolean(false),
		"binary":  value.Binary("hello world"),
	}
	assert.Equal(t, want, got)
}

func TestDelClean(t *testing.T) {
	ctx := context.Background()
	fake, c := newFake(t)

	require.True(t, c.Connect(ctx))

	_, _ = c.Set(ctx, "a", value.Number(1), NoExpiration)
	_, _ = c.Set(ctx, "b", value.Number(2), NoExpiration)

	ok, err := c.Del(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	// service reports a missing key as an error
	ok, err = c.Del(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, _ = c.Get(ctx, "a")
	assert.False(t, ok)

	ok, err = c.Clean(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	_, ok, _ = fake.Group(DefaultGroup).Get(ctx, "b")
	assert.False(t, ok)
}

func TestReauthOnExpiredToken(t *testing.T) {
	ctx := context.Background()
	fake, c := newFake(t)

	require.True(t, c.Connect(ctx))
	_, _ = c.Set(ctx, "k", value.String("v"), NoExpiration)

	fake.ExpireTokens()

	v, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, value.String("v"), v)

	assert.Equal(t, 2, fake.AuthCalls())
	assert.Equal(t, 3, fake.ExecuteCalls())
}

func TestReauthRetriesOnlyOnce(t *testing.T) {
	ctx := context.Background()
	fake, c := newFake(t)

	require.True(t, c.Connect(ctx))

	fake.RejectAll(true)

	reply, ok, err := c.Execute(ctx, "get k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, reply)

	assert.Equal(t, 2, fake.AuthCalls())
	assert.Equal(t, 2, fake.ExecuteCalls())

	_, err = c.ExecuteE(ctx, "get k")
	assert.True(t, errors.Is(err, errs.NotAuthorized))
}

func TestReauthFailure(t *testing.T) {
	ctx := context.Background()
	hc, au, c := newMocked()

	require.True(t, c.Connect(ctx))

	hc.SetResponse("default/execute", httpcMock.ResponseSt{Err: errs.NotAuthorized})
	au.SetFail(true)

	_, err := c.ExecuteE(ctx, "get k")
	assert.True(t, errors.Is(err, errs.AuthFailed))

	assert.Equal(t, 2, au.Calls())
	assert.Len(t, hc.GetPathRequests("default/execute"), 1)
	assert.False(t, c.Connected())
}

func TestRetryUsesNewToken(t *testing.T) {
	ctx := context.Background()
	hc, au, c := newMocked()

	require.True(t, c.Connect(ctx))

	hc.SetResponse("default/execute",
		httpcMock.ResponseSt{Err: errs.NotAuthorized},
		httpcMock.ResponseSt{Raw: []byte(`{"alpha":"Ok","data":{"reply":"OK"}}`)},
	)

	reply, ok, err := c.Execute(ctx, "clean")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `"OK"`, string(reply))

	reqs := hc.GetPathRequests("default/execute")
	require.Len(t, reqs, 2)
	assert.Equal(t, "token-1", reqs[0].Opts.BearerToken)
	assert.Equal(t, "token-2", reqs[1].Opts.BearerToken)
	assert.Equal(t, "clean", reqs[1].Form.Get("query"))
	assert.Equal(t, StyleJson, reqs[1].Form.Get("style"))
	assert.Equal(t, 2, au.Calls())
}

func TestExecuteReplies(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		response  httpcMock.ResponseSt
		wantReply string
		wantOk    bool
		wantErr   errs.Err
	}{
		{
			name:      "ok",
			response:  httpcMock.ResponseSt{Raw: []byte(`{"alpha":"Ok","data":{"reply":{"x":1}}}`)},
			wantReply: `{"x":1}`,
			wantOk:    true,
		},
		{
			name:     "service error",
			response: httpcMock.ResponseSt{Raw: []byte(`{"alpha":"Err","data":{"reply":"key not found"}}`)},
			wantErr:  errs.ServiceError,
		},
		{
			name:     "no data",
			response: httpcMock.ResponseSt{Raw: []byte(`{"alpha":"Ok"}`)},
			wantErr:  errs.BadPayload,
		},
		{
			name:     "bad json",
			response: httpcMock.ResponseSt{Raw: []byte(`{"alpha":`)},
			wantErr:  errs.BadJson,
		},
		{
			name:     "bad status",
			response: httpcMock.ResponseSt{Err: errs.ErrWithDesc{Err: errs.BadStatusCode, Desc: "500"}},
			wantErr:  errs.BadStatusCode,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc, _, c := newMocked()
			require.True(t, c.Connect(ctx))

			hc.SetResponse("default/execute", tt.response)

			reply, ok, err := c.Execute(ctx, "get k")
			require.NoError(t, err)
			assert.Equal(t, tt.wantOk, ok)
			if tt.wantOk {
				assert.JSONEq(t, tt.wantReply, string(reply))
			}

			_, err = c.ExecuteE(ctx, "get k")
			if tt.wantErr != "" {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetReplyShapes(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		raw    string
		want   value.Value
		wantOk bool
	}{
		{name: "string holding json", raw: `{"alpha":"Ok","data":{"reply":"{\"Number\":7}"}}`, want: value.Number(7), wantOk: true},
		{name: "inline json", raw: `{"alpha":"Ok","data":{"reply":{"String":"x"}}}`, want: value.String("x"), wantOk: true},
		{name: "unknown tag", raw: `{"alpha":"Ok","data":{"reply":{"Float":1}}}`},
		{name: "null reply", raw: `{"alpha":"Ok","data":{"reply":null}}`},
		{name: "no reply", raw: `{"alpha":"Ok","data":{}}`},
		{name: "plain text", raw: `{"alpha":"Ok","data":{"reply":"OK"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc, _, c := newMocked()
			require.True(t, c.Connect(ctx))

			hc.SetResponse("default/execute", httpcMock.ResponseSt{Raw: []byte(tt.raw)})

			v, ok, err := c.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestSetCommand(t *testing.T) {
	ctx := context.Background()
	hc, _, c := newMocked()
	require.True(t, c.Connect(ctx))

	c.Select("g 1")

	hc.SetResponse("g%201/execute", httpcMock.ResponseSt{Raw: []byte(`{"alpha":"Ok","data":{"reply":"OK"}}`)})

	ok, err := c.Set(ctx, "k", value.Binary("hello"), 90*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	reqs := hc.GetPathRequests("g%201/execute")
	require.Len(t, reqs, 1)
	// base64 of binary!(aGVsbG8=)
	assert.Equal(t, "set k b:YmluYXJ5IShhR1ZzYkc4PSk=: 90", reqs[0].Form.Get("query"))
}

func TestConcurrentReauth(t *testing.T) {
	ctx := context.Background()
	fake, c := newFake(t)

	require.True(t, c.Connect(ctx))
	_, _ = c.Set(ctx, "k", value.Number(1), NoExpiration)

	fake.ExpireTokens()

	const n = 8

	var wg sync.WaitGroup
	results := make([]bool, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i], _ = c.Get(ctx, "k")
		}(i)
	}
	wg.Wait()

	for i, ok := range results {
		assert.True(t, ok, "call %d", i)
	}

	assert.LessOrEqual(t, fake.AuthCalls(), 1+n)
}

// gatedAuth blocks its first armed call until release is closed or its ctx
// is done.
type gatedAuth struct {
	mu      sync.Mutex
	calls   int
	gate    chan struct{}
	entered chan struct{}
}

func (a *gatedAuth) arm() chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.gate = make(chan struct{})
	a.entered = make(chan struct{}, 1)

	return a.gate
}

func (a *gatedAuth) GetToken(ctx context.Context, _ string) (string, bool) {
	a.mu.Lock()
	a.calls++
	n := a.calls
	gate, entered := a.gate, a.entered
	a.gate = nil
	a.mu.Unlock()

	if gate != nil {
		entered <- struct{}{}

		select {
		case <-gate:
		case <-ctx.Done():
			return "", false
		}
	}

	return "token-" + strconv.Itoa(n), true
}

func TestReauthSurvivesCancelledCaller(t *testing.T) {
	lg := zap.NewNop()
	hc := httpcMock.New(lg)
	au := &gatedAuth{}
	c := NewWith(lg, OptionsSt{Password: testPassword}, hc, au)

	require.True(t, c.Connect(context.Background()))

	hc.SetResponse("default/execute",
		httpcMock.ResponseSt{Err: errs.NotAuthorized},
		httpcMock.ResponseSt{Err: errs.NotAuthorized},
		httpcMock.ResponseSt{Raw: []byte(`{"alpha":"Ok","data":{"reply":"OK"}}`)},
	)

	release := au.arm()

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()

	errA := make(chan error, 1)
	go func() {
		_, err := c.ExecuteE(ctxA, "clean")
		errA <- err
	}()

	// A's re-auth is in flight
	<-au.entered

	errB := make(chan error, 1)
	go func() {
		_, err := c.ExecuteE(context.Background(), "clean")
		errB <- err
	}()

	require.Eventually(t, func() bool {
		return len(hc.GetPathRequests("default/execute")) == 2
	}, time.Second, time.Millisecond)

	cancelA()
	assert.True(t, errors.Is(<-errA, context.Canceled))

	close(release)
	require.NoError(t, <-errB)

	assert.True(t, c.Connected())

	_, ok, err := c.Execute(context.Background(), "clean")
	require.NoError(t, err)
	assert.True(t, ok)
}
