package mock

import (
	"context"
	"strconv"
	"sync"
)

// St hands out "token-1", "token-2", ... for the configured password.
type St struct {
	password string

	calls int
	fail  bool
	mu    sync.Mutex
}

func New(password string) *St {
	return &St{password: password}
}

func (m *St) GetToken(_ context.Context, password string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++

	if m.fail || password != m.password {
		return "", false
	}

	return "token-" + strconv.Itoa(m.calls), true
}

// SetFail makes every following call fail (or succeed again).
func (m *St) SetFail(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.fail = v
}

func (m *St) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.calls
}
