package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonuar/Donacrypto/internal/core/domain"
	"github.com/jonuar/Donacrypto/internal/core/ports"
	"github.com/jonuar/Donacrypto/internal/pkg/metrics"
)

const storageTimeout = 5 * time.Second

// Validator checks tagged input structs.
type Validator interface {
	Struct(i any) error
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	RememberMe  *bool  `json:"remember_me"`
}

// SessionService implements ports.SessionService.
//
// mu guards state and is never held across I/O. storeMu serialises state
// transitions together with the storage writes that mirror them, so a
// teardown can never wipe a token persisted by a login that began after it.
type SessionService struct {
	transport ports.Transport
	vault     *TokenVault
	events    ports.SessionEvents
	validate  Validator
	log       zerolog.Logger
	now       func() time.Time

	storeMu sync.Mutex
	mu      sync.RWMutex
	state   domain.Session

	hooksMu    sync.RWMutex
	onTeardown []func(domain.TeardownReason)
}

var _ ports.SessionService = (*SessionService)(nil)

func NewSessionService(transport ports.Transport, vault *TokenVault, events ports.SessionEvents, validate Validator, log zerolog.Logger) *SessionService {
	return &SessionService{
		transport: transport,
		vault:     vault,
		events:    events,
		validate:  validate,
		log:       log,
		now:       time.Now,
	}
}

func (s *SessionService) Login(ctx context.Context, in ports.LoginInput) error {
	if err := s.validate.Struct(in); err != nil {
		return domain.NewActionError("login", err.Error(), err)
	}

	var resp loginResponse
	err := s.transport.Do(ctx, ports.Request{Method: http.MethodPost, Path: "/auth/login", Body: in}, &resp)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return domain.NewActionError("login", "connection error", err)
	}
	if resp.AccessToken == "" {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return domain.NewActionError("login", "login response carried no token", domain.ErrMalformedResponse)
	}

	remember := in.RememberMe
	if resp.RememberMe != nil {
		remember = *resp.RememberMe
	}
	policy := domain.PolicyFor(remember)

	if err := s.establish(ctx, resp.AccessToken, policy); err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		s.teardown(domain.ReasonStorageFailed)
		return domain.NewActionError("login", "could not store session", err)
	}

	if err := s.FetchProfile(ctx); err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return err
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.log.Info().Str("policy", string(policy)).Msg("login succeeded")
	return nil
}

// establish persists token and installs it as the current, unverified session.
func (s *SessionService) establish(ctx context.Context, token string, policy domain.PersistencePolicy) error {
	s.storeMu.Lock()
	defer s.storeMu.Unlock()

	if err := s.vault.Persist(ctx, token, policy); err != nil {
		return err
	}
	s.mu.Lock()
	s.state = domain.Session{Token: token, Policy: policy}
	s.mu.Unlock()
	return nil
}

func (s *SessionService) Register(ctx context.Context, in ports.RegisterInput) error {
	if err := s.validate.Struct(in); err != nil {
		return domain.NewActionError("register", err.Error(), err)
	}
	err := s.transport.Do(ctx, ports.Request{Method: http.MethodPost, Path: "/auth/register", Body: in}, nil)
	if err != nil {
		return domain.NewActionError("register", "registration failed", err)
	}
	s.log.Info().Str("role", in.Role).Msg("account registered")
	return nil
}

// FetchProfile loads the current user. Any failure tears the session down.
func (s *SessionService) FetchProfile(ctx context.Context) error {
	s.mu.RLock()
	token := s.state.Token
	s.mu.RUnlock()

	if token == "" {
		s.teardown(domain.ReasonProfileFailed)
		return domain.NewActionError("fetch_profile", "not logged in", domain.ErrNoToken)
	}

	var user domain.User
	err := s.transport.Do(ctx, ports.Request{Method: http.MethodGet, Path: "/user/profile"}, &user)
	if err == nil {
		err = user.Validate()
	}
	if err != nil {
		if !errors.Is(err, domain.ErrUnauthorized) {
			s.endIfCurrent(token, domain.ReasonProfileFailed)
		}
		s.log.Warn().Err(err).Msg("profile fetch failed, session torn down")
		return domain.NewActionError("fetch_profile", "could not load profile", err)
	}

	s.mu.Lock()
	if s.state.Token != token {
		s.mu.Unlock()
		return domain.NewActionError("fetch_profile", "session changed while loading profile", domain.ErrSessionEnded)
	}
	wasAuthenticated := s.state.Authenticated
	s.state.User = &user
	s.state.Authenticated = true
	s.mu.Unlock()

	if !wasAuthenticated {
		s.events.Publish(domain.SessionEvent{
			Kind: domain.EventAuthenticated,
			User: user.Clone(),
			At:   s.now(),
		})
	}
	return nil
}

// Logout clears the session and both storage scopes. Safe to call repeatedly.
func (s *SessionService) Logout() {
	s.teardown(domain.ReasonLogout)
}

// OnTeardown registers fn to run synchronously whenever the session is
// cleared, before the logged-out event is published. It is meant for state
// that must never outlive the session, such as loaded dashboard data. fn
// must not call back into the SessionService.
func (s *SessionService) OnTeardown(fn func(domain.TeardownReason)) {
	s.hooksMu.Lock()
	s.onTeardown = append(s.onTeardown, fn)
	s.hooksMu.Unlock()
}

// HandleUnauthorized is the transport's 401 hook.
func (s *SessionService) HandleUnauthorized() {
	s.teardown(domain.ReasonUnauthorized)
}

func (s *SessionService) DeleteAccount(ctx context.Context, password string) error {
	if password == "" {
		return domain.NewActionError("delete_account", "password is required", domain.ErrInvalidInput)
	}
	err := s.transport.Do(ctx, ports.Request{
		Method: http.MethodDelete,
		Path:   "/user/delete-account",
		Body:   map[string]string{"password": password},
	}, nil)
	if err != nil {
		return domain.NewActionError("delete_account", "could not delete account", err)
	}
	s.teardown(domain.ReasonAccountDeleted)
	return nil
}

// Initialize restores a stored session, durable scope first. Without a
// stored token it does nothing and makes no request.
func (s *SessionService) Initialize(ctx context.Context) error {
	token, policy, err := s.vault.Lookup(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("token lookup failed")
	}
	if token == "" {
		return nil
	}

	s.storeMu.Lock()
	s.mu.Lock()
	if s.state.Token != token {
		s.state = domain.Session{Token: token, Policy: policy}
	}
	s.mu.Unlock()
	s.storeMu.Unlock()

	if exp, ok := tokenExpiry(token); ok && !s.now().Before(exp) {
		s.endIfCurrent(token, domain.ReasonTokenExpired)
		return domain.NewActionError("initialize", "session expired, please log in again", domain.ErrTokenExpired)
	}
	return s.FetchProfile(ctx)
}

// teardown resets the session and clears both scopes unconditionally. The
// logged-out event is only published when there was a session to end.
func (s *SessionService) teardown(reason domain.TeardownReason) {
	s.end("", reason)
}

// endIfCurrent tears down only if token is still the session's token.
func (s *SessionService) endIfCurrent(token string, reason domain.TeardownReason) {
	s.end(token, reason)
}

func (s *SessionService) end(onlyToken string, reason domain.TeardownReason) {
	s.storeMu.Lock()
	defer s.storeMu.Unlock()

	s.mu.Lock()
	if onlyToken != "" && s.state.Token != onlyToken {
		s.mu.Unlock()
		return
	}
	had := s.state.HasToken() || s.state.User != nil
	s.state = domain.Session{}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()
	if err := s.vault.Clear(ctx); err != nil {
		s.log.Error().Err(err).Str("reason", string(reason)).Msg("clearing stored token failed")
	}

	s.hooksMu.RLock()
	hooks := s.onTeardown
	s.hooksMu.RUnlock()
	for _, fn := range hooks {
		fn(reason)
	}

	if !had {
		return
	}
	metrics.SessionTeardownsTotal.WithLabelValues(string(reason)).Inc()
	s.log.Info().Str("reason", string(reason)).Msg("session ended")
	s.events.Publish(domain.SessionEvent{Kind: domain.EventLoggedOut, Reason: reason, At: s.now()})
}

func (s *SessionService) Snapshot() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

func (s *SessionService) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Authenticated
}

func (s *SessionService) CurrentUser() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.User.Clone()
}

func (s *SessionService) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Role()
}

func (s *SessionService) IsCreator() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.User.IsCreator()
}

func (s *SessionService) IsFollower() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.User.IsFollower()
}

func (s *SessionService) Subscribe(fn func(domain.SessionEvent)) func() {
	return s.events.Subscribe(fn)
}
