// Package kvtest runs an in-process fake of the cache service for tests:
// password auth, bearer-token checks and the get/set/delete/clean commands
// over one store per group (in-memory unless another backend is given).
package kvtest

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rendau/kvclient/adapters/cache"
	"github.com/rendau/kvclient/adapters/cache/mem"
	"github.com/rendau/kvclient/value"
)

const (
	AlphaOk  = "Ok"
	AlphaErr = "Err"
)

type St struct {
	Server *httptest.Server

	password string
	newStore func(group string) cache.Cache

	mu           sync.Mutex
	tokenSeq     int
	tokens       map[string]bool
	groups       map[string]cache.Cache
	authCalls    int
	executeCalls int
	queries      []string
	rejectAll    bool
}

func New(password string) *St {
	return NewWithStore(password, func(string) cache.Cache { return mem.New() })
}

// NewWithStore backs every group with the store returned by newStore.
func NewWithStore(password string, newStore func(group string) cache.Cache) *St {
	s := &St{
		password: password,
		newStore: newStore,
		tokens:   map[string]bool{},
		groups:   map[string]cache.Cache{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth", s.hAuth)
	mux.HandleFunc("POST /{group}/execute", s.hExecute)

	s.Server = httptest.NewServer(mux)

	return s
}

func (s *St) Close() {
	s.Server.Close()
}

func (s *St) URL() string {
	return s.Server.URL
}

// Addr returns host and port of the listener.
func (s *St) Addr() (string, int) {
	addr := s.Server.Listener.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port
}

// ExpireTokens invalidates every issued token, so the next command is
// answered with 401.
func (s *St) ExpireTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens = map[string]bool{}
}

// RejectAll makes every execute request fail with 401 regardless of token.
func (s *St) RejectAll(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rejectAll = v
}

func (s *St) AuthCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.authCalls
}

func (s *St) ExecuteCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.executeCalls
}

// Queries returns the received command texts, in order.
func (s *St) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.queries...)
}

// Group returns the store behind a group, creating it if needed.
func (s *St) Group(name string) cache.Cache {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.group(name)
}

func (s *St) group(name string) cache.Cache {
	g, ok := s.groups[name]
	if !ok {
		g = s.newStore(name)
		s.groups[name] = g
	}
	return g
}

func (s *St) hAuth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.authCalls++

	if r.PostFormValue("password") != s.password {
		writeJson(w, http.StatusUnauthorized, map[string]any{"alpha": AlphaErr, "data": "wrong password"})
		return
	}

	s.tokenSeq++
	token := "tok-" + strconv.Itoa(s.tokenSeq)
	s.tokens[token] = true

	writeJson(w, http.StatusOK, map[string]any{"alpha": AlphaOk, "data": token})
}

func (s *St) hExecute(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()

	s.executeCalls++

	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if s.rejectAll || !s.tokens[token] {
		s.mu.Unlock()
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	query := r.PostFormValue("query")
	s.queries = append(s.queries, query)

	g := s.group(r.PathValue("group"))

	s.mu.Unlock()

	reply, err := execute(r.Context(), g, query)
	if err != "" {
		writeJson(w, http.StatusOK, map[string]any{"alpha": AlphaErr, "data": map[string]any{"reply": err}})
		return
	}

	writeJson(w, http.StatusOK, map[string]any{"alpha": AlphaOk, "data": map[string]any{"reply": reply}})
}

func execute(ctx context.Context, g cache.Cache, query string) (any, string) {
	args := strings.Fields(query)
	if len(args) == 0 {
		return nil, "empty command"
	}

	switch {
	case args[0] == "get" && len(args) == 2:
		v, ok, err := g.Get(ctx, args[1])
		if err != nil {
			return nil, err.Error()
		}
		if !ok {
			return nil, "key not found"
		}
		raw, err := value.Marshal(v)
		if err != nil {
			return nil, err.Error()
		}
		return string(raw), ""
	case args[0] == "set" && (len(args) == 3 || len(args) == 4):
		v, err := value.ParseB64(args[2])
		if err != nil {
			return nil, err.Error()
		}
		var expire int64
		if len(args) == 4 {
			if expire, err = strconv.ParseInt(args[3], 10, 64); err != nil {
				return nil, "bad expire"
			}
		}
		if _, err = g.Set(ctx, args[1], v, time.Duration(expire)*time.Second); err != nil {
			return nil, err.Error()
		}
		return "OK", ""
	case args[0] == "delete" && len(args) == 2:
		if ok, _ := g.Del(ctx, args[1]); !ok {
			return nil, "key not found"
		}
		return "OK", ""
	case args[0] == "clean" && len(args) == 1:
		if _, err := g.Clean(ctx); err != nil {
			return nil, err.Error()
		}
		return "OK", ""
	}

	return nil, "unknown command"
}

func writeJson(w http.ResponseWriter, status int, obj any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(obj)
}
