package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/jonuar/Donacrypto/internal/core/domain"
	"github.com/jonuar/Donacrypto/internal/core/ports"
)

// Storage keys shared by both scopes.
const (
	KeyAccessToken = "access_token"
	KeyRememberMe  = "remember_me"
)

// TokenVault decides which scope holds the session token. At most one scope
// holds access_token at any time; remember_me only ever lives in the durable
// scope.
type TokenVault struct {
	durable   ports.Scope
	ephemeral ports.Scope
	log       zerolog.Logger
	now       func() time.Time
}

var _ ports.TokenSource = (*TokenVault)(nil)

func NewTokenVault(durable, ephemeral ports.Scope, log zerolog.Logger) *TokenVault {
	return &TokenVault{durable: durable, ephemeral: ephemeral, log: log, now: time.Now}
}

// Persist stores token according to policy and removes it from the other scope.
// Keys expire with the token when it is a JWT carrying exp.
func (v *TokenVault) Persist(ctx context.Context, token string, policy domain.PersistencePolicy) error {
	var ttl time.Duration
	if exp, ok := tokenExpiry(token); ok {
		ttl = exp.Sub(v.now())
		if ttl <= 0 {
			return domain.ErrTokenExpired
		}
	}

	switch policy {
	case domain.PersistenceDurable:
		if err := v.durable.Set(ctx, KeyAccessToken, token, ttl); err != nil {
			return fmt.Errorf("persist durable token: %w", err)
		}
		if err := v.durable.Set(ctx, KeyRememberMe, "true", ttl); err != nil {
			return fmt.Errorf("persist remember flag: %w", err)
		}
		if err := v.ephemeral.Remove(ctx, KeyAccessToken); err != nil {
			return fmt.Errorf("clear ephemeral token: %w", err)
		}
	case domain.PersistenceEphemeral:
		if err := v.ephemeral.Set(ctx, KeyAccessToken, token, ttl); err != nil {
			return fmt.Errorf("persist ephemeral token: %w", err)
		}
		if err := v.durable.Remove(ctx, KeyAccessToken, KeyRememberMe); err != nil {
			return fmt.Errorf("clear durable token: %w", err)
		}
	default:
		return fmt.Errorf("persist token: unknown policy %q", policy)
	}
	return nil
}

// Lookup returns the stored token and the policy implied by where it was
// found, durable first. An empty token means no session is stored.
func (v *TokenVault) Lookup(ctx context.Context) (string, domain.PersistencePolicy, error) {
	token, ok, derr := v.durable.Get(ctx, KeyAccessToken)
	if derr == nil && ok && token != "" {
		return token, domain.PersistenceDurable, nil
	}
	if derr != nil {
		v.log.Warn().Err(derr).Msg("durable token lookup failed")
	}

	token, ok, eerr := v.ephemeral.Get(ctx, KeyAccessToken)
	if eerr == nil && ok && token != "" {
		return token, domain.PersistenceEphemeral, nil
	}
	if derr != nil || eerr != nil {
		return "", domain.PersistenceNone, errors.Join(derr, eerr)
	}
	return "", domain.PersistenceNone, nil
}

// Token satisfies ports.TokenSource.
func (v *TokenVault) Token(ctx context.Context) string {
	token, _, _ := v.Lookup(ctx)
	return token
}

// Clear removes every session key from both scopes.
func (v *TokenVault) Clear(ctx context.Context) error {
	return errors.Join(
		v.durable.Remove(ctx, KeyAccessToken, KeyRememberMe),
		v.ephemeral.Remove(ctx, KeyAccessToken),
	)
}

// tokenExpiry reads the exp claim without verifying the signature; the
// backend remains the authority on validity.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
