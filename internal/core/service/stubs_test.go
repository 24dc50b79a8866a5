package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonuar/Donacrypto/internal/core/domain"
	"github.com/jonuar/Donacrypto/internal/core/ports"
	"github.com/jonuar/Donacrypto/internal/infrastructure/db/memory"
	"github.com/jonuar/Donacrypto/internal/pkg/validation"
)

// stubReply is what a stub route answers: a JSON-encodable body or an error.
type stubReply struct {
	body any
	err  error
}

func ok(body any) stubReply { return stubReply{body: body} }

func fail(status int, msg string) stubReply {
	return stubReply{err: &domain.APIError{Status: status, Message: msg}}
}

// stubTransport answers requests by "METHOD path" and records every call. A
// 401 reply runs the unauthorized hook the same way the real client does.
type stubTransport struct {
	mu             sync.Mutex
	routes         map[string]func(ports.Request) stubReply
	calls          []ports.Request
	onUnauthorized func()
}

func newStubTransport() *stubTransport {
	return &stubTransport{routes: make(map[string]func(ports.Request) stubReply)}
}

func (s *stubTransport) on(method, path string, reply stubReply) {
	s.handle(method, path, func(ports.Request) stubReply { return reply })
}

func (s *stubTransport) handle(method, path string, fn func(ports.Request) stubReply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[method+" "+path] = fn
}

func (s *stubTransport) Do(_ context.Context, req ports.Request, out any) error {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	fn, found := s.routes[req.Method+" "+req.Path]
	hook := s.onUnauthorized
	s.mu.Unlock()

	if !found {
		return &domain.APIError{Status: http.StatusNotFound, Message: "no stub for " + req.Method + " " + req.Path}
	}
	reply := fn(req)
	if reply.err != nil {
		if errors.Is(reply.err, domain.ErrUnauthorized) && hook != nil {
			hook()
		}
		return reply.err
	}
	if out == nil || reply.body == nil {
		return nil
	}
	raw, err := json.Marshal(reply.body)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (s *stubTransport) count(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

func (s *stubTransport) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *stubTransport) last(method, path string) (ports.Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.calls) - 1; i >= 0; i-- {
		if c := s.calls[i]; c.Method == method && c.Path == path {
			return c, true
		}
	}
	return ports.Request{}, false
}

// recordingEvents delivers synchronously so tests can assert immediately.
type recordingEvents struct {
	mu     sync.Mutex
	events []domain.SessionEvent
}

func (r *recordingEvents) Publish(ev domain.SessionEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingEvents) Subscribe(func(domain.SessionEvent)) func() { return func() {} }

func (r *recordingEvents) all() []domain.SessionEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.SessionEvent(nil), r.events...)
}

// brokenScope is a ports.Scope whose writes always fail.
type brokenScope struct {
	*memory.Scope
}

func (brokenScope) Set(context.Context, string, string, time.Duration) error {
	return errors.New("disk full")
}

type sessionFixture struct {
	svc       *SessionService
	transport *stubTransport
	durable   *memory.Scope
	ephemeral *memory.Scope
	events    *recordingEvents
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	f := &sessionFixture{
		transport: newStubTransport(),
		durable:   memory.NewScope(),
		ephemeral: memory.NewScope(),
		events:    &recordingEvents{},
	}
	vault := NewTokenVault(f.durable, f.ephemeral, zerolog.Nop())
	f.svc = NewSessionService(f.transport, vault, f.events, validation.New(), zerolog.Nop())
	f.transport.onUnauthorized = f.svc.HandleUnauthorized
	return f
}

func (f *sessionFixture) stored(t *testing.T) (durableToken, remember, ephemeralToken string) {
	t.Helper()
	ctx := context.Background()
	durableToken, _, _ = f.durable.Get(ctx, KeyAccessToken)
	remember, _, _ = f.durable.Get(ctx, KeyRememberMe)
	ephemeralToken, _, _ = f.ephemeral.Get(ctx, KeyAccessToken)
	return
}

var creatorProfile = map[string]any{
	"_id":      "u1",
	"username": "creator1",
	"email":    "c@example.com",
	"role":     domain.RoleCreator,
}
