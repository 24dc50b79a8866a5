package ports

import (
	"context"

	"github.com/jonuar/Donacrypto/internal/core/domain"
)

// LoginInput carries the credentials and remember-me choice for a login.
type LoginInput struct {
	Email      string `json:"email"       validate:"required,max=100"`
	Password   string `json:"password"    validate:"required,max=128"`
	RememberMe bool   `json:"remember_me"`
}

// RegisterInput is the registration payload. Limits mirror the backend's.
type RegisterInput struct {
	Username  string `json:"username"             validate:"required,min=5,max=30"`
	Email     string `json:"email"                validate:"required,email,max=100"`
	Password  string `json:"password"             validate:"required,max=128"`
	Role      string `json:"role"                 validate:"required,oneof=creator follower"`
	FirstName string `json:"first_name,omitempty" validate:"max=100"`
	LastName  string `json:"last_name,omitempty"  validate:"max=100"`
}

// SessionService owns the authentication token lifecycle and current identity.
type SessionService interface {
	Login(ctx context.Context, in LoginInput) error
	Register(ctx context.Context, in RegisterInput) error
	FetchProfile(ctx context.Context) error
	Logout()
	DeleteAccount(ctx context.Context, password string) error
	Initialize(ctx context.Context) error

	Snapshot() domain.Session
	IsAuthenticated() bool
	Subscribe(fn func(domain.SessionEvent)) (unsubscribe func())
}
